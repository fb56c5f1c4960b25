package memory

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"kafe/backend/internal/completion"
	"kafe/backend/internal/domain"
	"kafe/backend/internal/ledger"
	"kafe/backend/internal/recipe"
	"kafe/backend/internal/store"
	"kafe/backend/internal/xid"
)

func (s *Store) ListIngredients(_ context.Context) ([]domain.Ingredient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Ingredient, 0, len(s.ingredients))
	for _, ing := range s.ingredients {
		result = append(result, cloneIngredient(ing))
	}
	slices.SortFunc(result, func(a, b domain.Ingredient) int {
		return strings.Compare(a.Name, b.Name)
	})
	return result, nil
}

func (s *Store) GetIngredient(_ context.Context, id string) (*domain.Ingredient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ing, ok := s.ingredients[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	out := cloneIngredient(ing)
	return &out, nil
}

func (s *Store) CreateIngredient(_ context.Context, ingredient domain.Ingredient) (*domain.Ingredient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(ingredient.Name) == "" {
		return nil, fmt.Errorf("%w: ingredient name is required", store.ErrInvalidInput)
	}
	if ingredient.ID == "" {
		ingredient.ID = xid.New("ing")
	}
	if _, exists := s.ingredients[ingredient.ID]; exists {
		return nil, fmt.Errorf("%w: ingredient %s already exists", store.ErrInvalidInput, ingredient.ID)
	}
	if ingredient.Type == "" {
		ingredient.Type = domain.IngredientRaw
	}
	if err := s.validateCompositionsLocked(ingredient.ID, ingredient.Type, ingredient.Compositions); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	ingredient.StockIn = decimal.Zero
	ingredient.Used = decimal.Zero
	ingredient.Wasted = decimal.Zero
	ingredient.IsActive = true
	ingredient.CreatedAt = now
	ingredient.UpdatedAt = now
	ledger.Recompute(&ingredient)

	g := domain.Gudang{IngredientID: ingredient.ID, Start: ingredient.Start, UpdatedAt: now}
	ledger.RecomputeGudang(&g)

	s.ingredients[ingredient.ID] = cloneIngredient(ingredient)
	s.gudang[ingredient.ID] = g
	return &ingredient, nil
}

// UpdateIngredient applies a direct edit of the ledger fields and cascades the
// availability recompute to every menu using the ingredient.
func (s *Store) UpdateIngredient(_ context.Context, id string, req domain.IngredientUpdateRequest) (*domain.IngredientChange, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.ingredients[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	next := cloneIngredient(current)

	if err := ledger.ApplyEdit(&next, req); err != nil {
		return nil, err
	}
	if req.Compositions != nil {
		if err := s.validateCompositionsLocked(next.ID, next.Type, *req.Compositions); err != nil {
			return nil, err
		}
		next.Compositions = slices.Clone(*req.Compositions)
	}

	now := time.Now().UTC()
	next.UpdatedAt = now
	s.ingredients[id] = next

	if delta := next.Stock.Sub(current.Stock); !delta.IsZero() {
		s.appendMovementLocked(id, domain.MovementAdjustment, delta, "", "manual edit", now)
	}
	return s.ingredientChangeLocked(id, []string{id}), nil
}

func (s *Store) RestockIngredient(_ context.Context, id string, qty decimal.Decimal, totalPrice decimal.Decimal, note string) (*domain.IngredientChange, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.ingredients[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	next := cloneIngredient(current)
	g, hasGudang := s.gudang[id]
	var mirror *domain.Gudang
	if hasGudang {
		mirror = &g
	}
	if err := ledger.ApplyRestock(&next, mirror, qty, totalPrice); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	next.UpdatedAt = now
	s.ingredients[id] = next
	if mirror != nil {
		mirror.UpdatedAt = now
		s.gudang[id] = *mirror
	}
	s.appendMovementLocked(id, domain.MovementRestock, qty, "", note, now)
	return s.ingredientChangeLocked(id, []string{id}), nil
}

func (s *Store) RecordWaste(_ context.Context, id string, qty decimal.Decimal, note string) (*domain.IngredientChange, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.ingredients[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	next := cloneIngredient(current)
	if err := ledger.ApplyWaste(&next, qty); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	next.UpdatedAt = now
	s.ingredients[id] = next
	s.appendMovementLocked(id, domain.MovementWaste, qty, "", note, now)
	return s.ingredientChangeLocked(id, []string{id}), nil
}

// ProduceSemiFinished books a batch of a semi-finished ingredient, consuming
// its raw composition. The batch is refused when any raw input is short.
func (s *Store) ProduceSemiFinished(_ context.Context, id string, qty decimal.Decimal, note string) (*domain.IngredientChange, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.ingredients[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if current.Type != domain.IngredientSemiFinished || len(current.Compositions) == 0 {
		return nil, fmt.Errorf("%w: ingredient %s has no composition to produce from", store.ErrInvalidInput, id)
	}
	next := cloneIngredient(current)
	if err := ledger.ApplyProduction(&next, qty); err != nil {
		return nil, err
	}

	plan := ledger.ProductionPlan(current.Compositions, qty)
	raws := make(map[string]domain.Ingredient, len(plan))
	for _, rawID := range plan.IDs() {
		raw, ok := s.ingredients[rawID]
		if !ok {
			return nil, fmt.Errorf("%w: raw ingredient %s is missing", store.ErrInvalidInput, rawID)
		}
		if raw.Stock.LessThan(plan[rawID]) {
			return nil, fmt.Errorf("%w: %s needs %s %s, only %s left", store.ErrInsufficientStock, raw.Name, plan[rawID], raw.Unit, raw.Stock)
		}
		raw = cloneIngredient(raw)
		if _, err := ledger.ApplyConsumption(&raw, plan[rawID]); err != nil {
			return nil, err
		}
		raws[rawID] = raw
	}

	now := time.Now().UTC()
	touched := []string{id}
	for _, rawID := range plan.IDs() {
		raw := raws[rawID]
		raw.UpdatedAt = now
		s.ingredients[rawID] = raw
		s.appendMovementLocked(rawID, domain.MovementConsumption, plan[rawID], id, "production", now)
		touched = append(touched, rawID)
	}
	next.UpdatedAt = now
	s.ingredients[id] = next
	s.appendMovementLocked(id, domain.MovementProduction, qty, "", note, now)
	return s.ingredientChangeLocked(id, touched), nil
}

func (s *Store) ListGudang(_ context.Context) ([]domain.Gudang, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Gudang, 0, len(s.gudang))
	for _, g := range s.gudang {
		result = append(result, g)
	}
	slices.SortFunc(result, func(a, b domain.Gudang) int {
		return strings.Compare(a.IngredientID, b.IngredientID)
	})
	return result, nil
}

func (s *Store) ListStockMovements(_ context.Context, ingredientID string, limit int) ([]domain.StockMovement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.StockMovement, 0, 32)
	for i := len(s.movements) - 1; i >= 0; i-- {
		m := s.movements[i]
		if ingredientID != "" && m.IngredientID != ingredientID {
			continue
		}
		result = append(result, m)
		if limit > 0 && len(result) >= limit {
			break
		}
	}
	return result, nil
}

func (s *Store) appendMovementLocked(ingredientID string, kind domain.MovementKind, qty decimal.Decimal, refID string, note string, at time.Time) {
	s.movements = append(s.movements, domain.StockMovement{
		ID:           xid.New("mov"),
		IngredientID: ingredientID,
		Kind:         kind,
		Quantity:     qty,
		RefID:        refID,
		Note:         strings.TrimSpace(note),
		CreatedAt:    at,
	})
}

func (s *Store) validateCompositionsLocked(id string, kind domain.IngredientType, comps []domain.IngredientComposition) error {
	return ledger.ValidateCompositions(id, kind, comps, func(rawID string) (domain.Ingredient, bool) {
		ing, ok := s.ingredients[rawID]
		return ing, ok
	})
}

func (s *Store) stockIndexLocked() map[string]decimal.Decimal {
	index := make(map[string]decimal.Decimal, len(s.ingredients))
	for id, ing := range s.ingredients {
		index[id] = ing.Stock
	}
	return index
}

// recomputeMenusLocked refreshes maxBeli and status of every menu that uses
// one of the touched ingredients.
func (s *Store) recomputeMenusLocked(touched []string, at time.Time) []domain.MenuAvailability {
	all := make([]domain.Menu, 0, len(s.menus))
	for _, menu := range s.menus {
		all = append(all, menu)
	}
	affected := recipe.AffectedMenus(all, touched)
	availability := recipe.Recompute(affected, s.stockIndexLocked())
	for _, menu := range affected {
		menu.UpdatedAt = at
		s.menus[menu.ID] = menu
	}
	return availability
}

func (s *Store) ingredientChangeLocked(id string, touched []string) *domain.IngredientChange {
	ing := s.ingredients[id]
	change := &domain.IngredientChange{
		Ingredient:   cloneIngredient(ing),
		Availability: s.recomputeMenusLocked(touched, ing.UpdatedAt),
	}
	if g, ok := s.gudang[id]; ok {
		change.Gudang = &g
	}
	if ing.Stock.IsNegative() {
		change.Warnings = append(change.Warnings, completion.NegativeStockWarning(ing))
	}
	return change
}
