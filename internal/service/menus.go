package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"kafe/backend/internal/domain"
	"kafe/backend/internal/store"
)

var hundred = decimal.NewFromInt(100)

func (s *Service) ListMenus(ctx context.Context) ([]domain.Menu, error) {
	return s.repo.ListMenus(ctx)
}

func (s *Service) GetMenu(ctx context.Context, id string) (domain.Menu, error) {
	menu, err := s.repo.GetMenu(ctx, strings.TrimSpace(id))
	if err != nil {
		return domain.Menu{}, err
	}
	return *menu, nil
}

func (s *Service) CreateMenu(ctx context.Context, req domain.MenuCreateRequest) (domain.Menu, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return domain.Menu{}, err
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Category = strings.TrimSpace(req.Category)
	if req.Name == "" || req.Category == "" {
		return domain.Menu{}, fmt.Errorf("%w: menu name and category are required", store.ErrInvalidInput)
	}
	if req.Price < 1 || req.HargaBakul < 0 {
		return domain.Menu{}, fmt.Errorf("%w: menu price must be positive and harga bakul not negative", store.ErrInvalidInput)
	}

	created, err := s.repo.CreateMenu(ctx, domain.Menu{
		Name:        req.Name,
		Category:    req.Category,
		Price:       req.Price,
		HargaBakul:  req.HargaBakul,
		Ingredients: req.Ingredients,
		ModifierIDs: req.ModifierIDs,
		DiscountIDs: req.DiscountIDs,
	})
	if err != nil {
		return domain.Menu{}, err
	}

	s.logAudit(ctx, "menu_create", "menu", created.ID, fmt.Sprintf("name=%s,price=%d,max_beli=%d", created.Name, created.Price, created.MaxBeli))
	return *created, nil
}

func (s *Service) UpdateMenu(ctx context.Context, id string, req domain.MenuUpdateRequest) (domain.Menu, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return domain.Menu{}, err
	}

	existing, err := s.repo.GetMenu(ctx, strings.TrimSpace(id))
	if err != nil {
		return domain.Menu{}, err
	}

	updated := *existing
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return domain.Menu{}, fmt.Errorf("%w: menu name must not be empty", store.ErrInvalidInput)
		}
		updated.Name = name
	}
	if req.Category != nil {
		category := strings.TrimSpace(*req.Category)
		if category == "" {
			return domain.Menu{}, fmt.Errorf("%w: menu category must not be empty", store.ErrInvalidInput)
		}
		updated.Category = category
	}
	if req.Price != nil {
		if *req.Price < 1 {
			return domain.Menu{}, fmt.Errorf("%w: menu price must be positive", store.ErrInvalidInput)
		}
		updated.Price = *req.Price
	}
	if req.HargaBakul != nil {
		if *req.HargaBakul < 0 {
			return domain.Menu{}, fmt.Errorf("%w: harga bakul must not be negative", store.ErrInvalidInput)
		}
		updated.HargaBakul = *req.HargaBakul
	}
	if req.IsActive != nil {
		updated.IsActive = *req.IsActive
	}
	if req.Ingredients != nil {
		updated.Ingredients = *req.Ingredients
	}
	if req.ModifierIDs != nil {
		updated.ModifierIDs = *req.ModifierIDs
	}
	if req.DiscountIDs != nil {
		updated.DiscountIDs = *req.DiscountIDs
	}

	saved, err := s.repo.UpdateMenu(ctx, updated)
	if err != nil {
		return domain.Menu{}, err
	}

	s.logAudit(ctx, "menu_update", "menu", saved.ID, fmt.Sprintf("active=%t,price=%d,max_beli=%d,status=%s", saved.IsActive, saved.Price, saved.MaxBeli, saved.Status))
	return *saved, nil
}

func (s *Service) ListBundles(ctx context.Context) ([]domain.Bundle, error) {
	return s.repo.ListBundles(ctx)
}

func (s *Service) CreateBundle(ctx context.Context, req domain.BundleCreateRequest) (domain.Bundle, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return domain.Bundle{}, err
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || req.BundlePrice < 1 || len(req.Menus) == 0 {
		return domain.Bundle{}, fmt.Errorf("%w: bundle needs a name, a positive price and at least one menu", store.ErrInvalidInput)
	}

	created, err := s.repo.CreateBundle(ctx, domain.Bundle{
		Name:        req.Name,
		BundlePrice: req.BundlePrice,
		Menus:       req.Menus,
	})
	if err != nil {
		return domain.Bundle{}, err
	}

	s.logAudit(ctx, "bundle_create", "bundle", created.ID, fmt.Sprintf("name=%s,price=%d,menus=%d", created.Name, created.BundlePrice, len(created.Menus)))
	return *created, nil
}

func (s *Service) ListModifierCategories(ctx context.Context) ([]domain.ModifierCategory, error) {
	return s.repo.ListModifierCategories(ctx)
}

func (s *Service) CreateModifierCategory(ctx context.Context, req domain.ModifierCategoryCreateRequest) (domain.ModifierCategory, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return domain.ModifierCategory{}, err
	}

	created, err := s.repo.CreateModifierCategory(ctx, domain.ModifierCategory{Name: strings.TrimSpace(req.Name)})
	if err != nil {
		return domain.ModifierCategory{}, err
	}
	s.logAudit(ctx, "modifier_category_create", "modifier_category", created.ID, "name="+created.Name)
	return *created, nil
}

func (s *Service) ListModifiers(ctx context.Context) ([]domain.Modifier, error) {
	return s.repo.ListModifiers(ctx)
}

func (s *Service) CreateModifier(ctx context.Context, req domain.ModifierCreateRequest) (domain.Modifier, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return domain.Modifier{}, err
	}

	created, err := s.repo.CreateModifier(ctx, domain.Modifier{
		CategoryID:  strings.TrimSpace(req.CategoryID),
		Name:        strings.TrimSpace(req.Name),
		Price:       req.Price,
		Ingredients: req.Ingredients,
	})
	if err != nil {
		return domain.Modifier{}, err
	}
	s.logAudit(ctx, "modifier_create", "modifier", created.ID, fmt.Sprintf("name=%s,price=%d", created.Name, created.Price))
	return *created, nil
}

func (s *Service) ListDiscounts(ctx context.Context) ([]domain.Discount, error) {
	return s.repo.ListDiscounts(ctx)
}

func (s *Service) CreateDiscount(ctx context.Context, req domain.DiscountCreateRequest) (domain.Discount, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return domain.Discount{}, err
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Type = strings.ToUpper(strings.TrimSpace(req.Type))
	req.Scope = strings.ToUpper(strings.TrimSpace(req.Scope))
	if req.Name == "" {
		return domain.Discount{}, fmt.Errorf("%w: discount name is required", store.ErrInvalidInput)
	}
	if req.Type != domain.DiscountTypeRate && req.Type != domain.DiscountTypeFixed {
		return domain.Discount{}, fmt.Errorf("%w: discount type must be RATE or FIXED", store.ErrInvalidInput)
	}
	if req.Scope != domain.DiscountScopeMenu && req.Scope != domain.DiscountScopeTotal {
		return domain.Discount{}, fmt.Errorf("%w: discount scope must be MENU or TOTAL", store.ErrInvalidInput)
	}
	if !req.Value.IsPositive() || (req.Type == domain.DiscountTypeRate && req.Value.GreaterThan(hundred)) {
		return domain.Discount{}, fmt.Errorf("%w: discount value out of range", store.ErrInvalidInput)
	}

	created, err := s.repo.CreateDiscount(ctx, domain.Discount{
		Name:  req.Name,
		Type:  req.Type,
		Value: req.Value,
		Scope: req.Scope,
	})
	if err != nil {
		return domain.Discount{}, err
	}
	s.logAudit(ctx, "discount_create", "discount", created.ID, fmt.Sprintf("type=%s,value=%s,scope=%s", created.Type, created.Value, created.Scope))
	return *created, nil
}

func (s *Service) SetDiscountActive(ctx context.Context, id string, active bool) (domain.Discount, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return domain.Discount{}, err
	}
	updated, err := s.repo.SetDiscountActive(ctx, strings.TrimSpace(id), active)
	if err != nil {
		return domain.Discount{}, err
	}
	s.logAudit(ctx, "discount_toggle", "discount", updated.ID, fmt.Sprintf("active=%t", updated.IsActive))
	return *updated, nil
}

func validateRate(req domain.RateCreateRequest) (domain.RateCreateRequest, error) {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return req, fmt.Errorf("%w: name is required", store.ErrInvalidInput)
	}
	if req.Rate.IsNegative() || req.Rate.GreaterThan(hundred) {
		return req, fmt.Errorf("%w: rate must be between 0 and 100", store.ErrInvalidInput)
	}
	return req, nil
}

func (s *Service) ListTaxes(ctx context.Context) ([]domain.Tax, error) {
	return s.repo.ListTaxes(ctx)
}

func (s *Service) CreateTax(ctx context.Context, req domain.RateCreateRequest) (domain.Tax, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return domain.Tax{}, err
	}
	req, err := validateRate(req)
	if err != nil {
		return domain.Tax{}, err
	}
	created, err := s.repo.CreateTax(ctx, domain.Tax{Name: req.Name, Rate: req.Rate})
	if err != nil {
		return domain.Tax{}, err
	}
	s.logAudit(ctx, "tax_create", "tax", created.ID, fmt.Sprintf("rate=%s", created.Rate))
	return *created, nil
}

func (s *Service) SetTaxActive(ctx context.Context, id string, active bool) (domain.Tax, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return domain.Tax{}, err
	}
	updated, err := s.repo.SetTaxActive(ctx, strings.TrimSpace(id), active)
	if err != nil {
		return domain.Tax{}, err
	}
	s.logAudit(ctx, "tax_toggle", "tax", updated.ID, fmt.Sprintf("active=%t", updated.IsActive))
	return *updated, nil
}

func (s *Service) ListGratuities(ctx context.Context) ([]domain.Gratuity, error) {
	return s.repo.ListGratuities(ctx)
}

func (s *Service) CreateGratuity(ctx context.Context, req domain.RateCreateRequest) (domain.Gratuity, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return domain.Gratuity{}, err
	}
	req, err := validateRate(req)
	if err != nil {
		return domain.Gratuity{}, err
	}
	created, err := s.repo.CreateGratuity(ctx, domain.Gratuity{Name: req.Name, Rate: req.Rate})
	if err != nil {
		return domain.Gratuity{}, err
	}
	s.logAudit(ctx, "gratuity_create", "gratuity", created.ID, fmt.Sprintf("rate=%s", created.Rate))
	return *created, nil
}

func (s *Service) SetGratuityActive(ctx context.Context, id string, active bool) (domain.Gratuity, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return domain.Gratuity{}, err
	}
	updated, err := s.repo.SetGratuityActive(ctx, strings.TrimSpace(id), active)
	if err != nil {
		return domain.Gratuity{}, err
	}
	s.logAudit(ctx, "gratuity_toggle", "gratuity", updated.ID, fmt.Sprintf("active=%t", updated.IsActive))
	return *updated, nil
}
