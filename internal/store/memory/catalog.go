package memory

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"kafe/backend/internal/domain"
	"kafe/backend/internal/recipe"
	"kafe/backend/internal/store"
	"kafe/backend/internal/xid"
)

func (s *Store) ListMenus(_ context.Context) ([]domain.Menu, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Menu, 0, len(s.menus))
	for _, menu := range s.menus {
		result = append(result, cloneMenu(menu))
	}
	slices.SortFunc(result, func(a, b domain.Menu) int {
		if a.Category == b.Category {
			return strings.Compare(a.Name, b.Name)
		}
		return strings.Compare(a.Category, b.Category)
	})
	return result, nil
}

func (s *Store) GetMenu(_ context.Context, id string) (*domain.Menu, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	menu, ok := s.menus[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	out := cloneMenu(menu)
	return &out, nil
}

func (s *Store) CreateMenu(_ context.Context, menu domain.Menu) (*domain.Menu, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if menu.ID == "" {
		menu.ID = xid.New("menu")
	}
	if _, exists := s.menus[menu.ID]; exists {
		return nil, fmt.Errorf("%w: menu %s already exists", store.ErrInvalidInput, menu.ID)
	}
	if err := s.validateMenuLocked(menu); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	menu.IsActive = true
	menu.CreatedAt = now
	menu.UpdatedAt = now
	menu.MaxBeli = recipe.MaxBeli(recipe.MenuLines(menu), s.stockIndexLocked())
	menu.Status = recipe.StatusFor(menu.MaxBeli)
	s.menus[menu.ID] = cloneMenu(menu)
	return &menu, nil
}

// UpdateMenu replaces the stored menu wholesale and recomputes its availability.
func (s *Store) UpdateMenu(_ context.Context, menu domain.Menu) (*domain.Menu, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.menus[menu.ID]
	if !ok {
		return nil, store.ErrNotFound
	}
	if err := s.validateMenuLocked(menu); err != nil {
		return nil, err
	}

	menu.CreatedAt = current.CreatedAt
	menu.UpdatedAt = time.Now().UTC()
	menu.MaxBeli = recipe.MaxBeli(recipe.MenuLines(menu), s.stockIndexLocked())
	menu.Status = recipe.StatusFor(menu.MaxBeli)
	s.menus[menu.ID] = cloneMenu(menu)
	return &menu, nil
}

func (s *Store) validateMenuLocked(menu domain.Menu) error {
	if strings.TrimSpace(menu.Name) == "" {
		return fmt.Errorf("%w: menu name is required", store.ErrInvalidInput)
	}
	if menu.Price < 0 || menu.HargaBakul < 0 {
		return fmt.Errorf("%w: price and harga bakul must not be negative", store.ErrInvalidInput)
	}
	for _, mi := range menu.Ingredients {
		if _, ok := s.ingredients[mi.IngredientID]; !ok {
			return fmt.Errorf("%w: ingredient %s does not exist", store.ErrInvalidInput, mi.IngredientID)
		}
		if !mi.Amount.IsPositive() {
			return fmt.Errorf("%w: ingredient amount must be positive", store.ErrInvalidInput)
		}
	}
	for _, id := range menu.ModifierIDs {
		if _, ok := s.modifiers[id]; !ok {
			return fmt.Errorf("%w: modifier %s does not exist", store.ErrInvalidInput, id)
		}
	}
	for _, id := range menu.DiscountIDs {
		if _, ok := s.discounts[id]; !ok {
			return fmt.Errorf("%w: discount %s does not exist", store.ErrInvalidInput, id)
		}
	}
	return nil
}

// withBundleDerived fills the bundle's maxBeli and HPP from its menus.
func (s *Store) withBundleDerived(bundle domain.Bundle) domain.Bundle {
	out := cloneBundle(bundle)
	out.MaxBeli = recipe.BundleMaxBeli(out, s.menus)
	out.HargaBakul = recipe.BundleCost(out, s.menus)
	return out
}

func (s *Store) ListBundles(_ context.Context) ([]domain.Bundle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Bundle, 0, len(s.bundles))
	for _, bundle := range s.bundles {
		result = append(result, s.withBundleDerived(bundle))
	}
	slices.SortFunc(result, func(a, b domain.Bundle) int {
		return strings.Compare(a.Name, b.Name)
	})
	return result, nil
}

func (s *Store) GetBundle(_ context.Context, id string) (*domain.Bundle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bundle, ok := s.bundles[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	out := s.withBundleDerived(bundle)
	return &out, nil
}

func (s *Store) CreateBundle(_ context.Context, bundle domain.Bundle) (*domain.Bundle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(bundle.Name) == "" || len(bundle.Menus) == 0 {
		return nil, fmt.Errorf("%w: bundle needs a name and at least one menu", store.ErrInvalidInput)
	}
	if bundle.BundlePrice < 0 {
		return nil, fmt.Errorf("%w: bundle price must not be negative", store.ErrInvalidInput)
	}
	for _, bm := range bundle.Menus {
		if _, ok := s.menus[bm.MenuID]; !ok {
			return nil, fmt.Errorf("%w: menu %s does not exist", store.ErrInvalidInput, bm.MenuID)
		}
		if bm.Quantity < 1 {
			return nil, fmt.Errorf("%w: bundle menu quantity must be positive", store.ErrInvalidInput)
		}
	}
	if bundle.ID == "" {
		bundle.ID = xid.New("bundle")
	}
	bundle.IsActive = true
	bundle.CreatedAt = time.Now().UTC()
	s.bundles[bundle.ID] = cloneBundle(bundle)

	out := s.withBundleDerived(bundle)
	return &out, nil
}

func (s *Store) ListModifierCategories(_ context.Context) ([]domain.ModifierCategory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.ModifierCategory, 0, len(s.categories))
	for _, c := range s.categories {
		result = append(result, c)
	}
	slices.SortFunc(result, func(a, b domain.ModifierCategory) int {
		return strings.Compare(a.Name, b.Name)
	})
	return result, nil
}

func (s *Store) CreateModifierCategory(_ context.Context, category domain.ModifierCategory) (*domain.ModifierCategory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(category.Name) == "" {
		return nil, fmt.Errorf("%w: category name is required", store.ErrInvalidInput)
	}
	if category.ID == "" {
		category.ID = xid.New("modcat")
	}
	category.CreatedAt = time.Now().UTC()
	s.categories[category.ID] = category
	return &category, nil
}

func (s *Store) ListModifiers(_ context.Context) ([]domain.Modifier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stock := s.stockIndexLocked()
	result := make([]domain.Modifier, 0, len(s.modifiers))
	for _, m := range s.modifiers {
		out := cloneModifier(m)
		out.MaxBeli = recipe.MaxBeli(recipe.ModifierLines(out), stock)
		result = append(result, out)
	}
	slices.SortFunc(result, func(a, b domain.Modifier) int {
		if a.CategoryID == b.CategoryID {
			return strings.Compare(a.Name, b.Name)
		}
		return strings.Compare(a.CategoryID, b.CategoryID)
	})
	return result, nil
}

func (s *Store) CreateModifier(_ context.Context, modifier domain.Modifier) (*domain.Modifier, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(modifier.Name) == "" || modifier.Price < 0 {
		return nil, fmt.Errorf("%w: modifier needs a name and a non-negative price", store.ErrInvalidInput)
	}
	if _, ok := s.categories[modifier.CategoryID]; !ok {
		return nil, fmt.Errorf("%w: modifier category %s does not exist", store.ErrInvalidInput, modifier.CategoryID)
	}
	for _, mi := range modifier.Ingredients {
		if _, ok := s.ingredients[mi.IngredientID]; !ok {
			return nil, fmt.Errorf("%w: ingredient %s does not exist", store.ErrInvalidInput, mi.IngredientID)
		}
		if !mi.Amount.IsPositive() {
			return nil, fmt.Errorf("%w: ingredient amount must be positive", store.ErrInvalidInput)
		}
	}
	if modifier.ID == "" {
		modifier.ID = xid.New("mod")
	}
	modifier.IsActive = true
	modifier.CreatedAt = time.Now().UTC()
	s.modifiers[modifier.ID] = cloneModifier(modifier)

	modifier.MaxBeli = recipe.MaxBeli(recipe.ModifierLines(modifier), s.stockIndexLocked())
	return &modifier, nil
}

func (s *Store) ListDiscounts(_ context.Context) ([]domain.Discount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Discount, 0, len(s.discounts))
	for _, d := range s.discounts {
		result = append(result, d)
	}
	slices.SortFunc(result, func(a, b domain.Discount) int {
		return strings.Compare(a.Name, b.Name)
	})
	return result, nil
}

func (s *Store) CreateDiscount(_ context.Context, discount domain.Discount) (*domain.Discount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if discount.ID == "" {
		discount.ID = xid.New("disc")
	}
	discount.IsActive = true
	discount.CreatedAt = time.Now().UTC()
	s.discounts[discount.ID] = discount
	return &discount, nil
}

func (s *Store) SetDiscountActive(_ context.Context, id string, active bool) (*domain.Discount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	discount, ok := s.discounts[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	discount.IsActive = active
	s.discounts[id] = discount
	return &discount, nil
}

func (s *Store) ListTaxes(_ context.Context) ([]domain.Tax, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Tax, 0, len(s.taxes))
	for _, t := range s.taxes {
		result = append(result, t)
	}
	slices.SortFunc(result, func(a, b domain.Tax) int {
		return strings.Compare(a.Name, b.Name)
	})
	return result, nil
}

func (s *Store) CreateTax(_ context.Context, tax domain.Tax) (*domain.Tax, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if tax.ID == "" {
		tax.ID = xid.New("tax")
	}
	tax.IsActive = true
	tax.CreatedAt = time.Now().UTC()
	s.taxes[tax.ID] = tax
	return &tax, nil
}

func (s *Store) SetTaxActive(_ context.Context, id string, active bool) (*domain.Tax, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tax, ok := s.taxes[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	tax.IsActive = active
	s.taxes[id] = tax
	return &tax, nil
}

func (s *Store) ListGratuities(_ context.Context) ([]domain.Gratuity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Gratuity, 0, len(s.gratuities))
	for _, g := range s.gratuities {
		result = append(result, g)
	}
	slices.SortFunc(result, func(a, b domain.Gratuity) int {
		return strings.Compare(a.Name, b.Name)
	})
	return result, nil
}

func (s *Store) CreateGratuity(_ context.Context, gratuity domain.Gratuity) (*domain.Gratuity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gratuity.ID == "" {
		gratuity.ID = xid.New("grat")
	}
	gratuity.IsActive = true
	gratuity.CreatedAt = time.Now().UTC()
	s.gratuities[gratuity.ID] = gratuity
	return &gratuity, nil
}

func (s *Store) SetGratuityActive(_ context.Context, id string, active bool) (*domain.Gratuity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	gratuity, ok := s.gratuities[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	gratuity.IsActive = active
	s.gratuities[id] = gratuity
	return &gratuity, nil
}
