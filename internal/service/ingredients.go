package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"kafe/backend/internal/domain"
	"kafe/backend/internal/recipe"
	"kafe/backend/internal/store"
)

func (s *Service) ListIngredients(ctx context.Context) ([]domain.Ingredient, error) {
	return s.repo.ListIngredients(ctx)
}

func (s *Service) GetIngredient(ctx context.Context, id string) (domain.Ingredient, error) {
	ing, err := s.repo.GetIngredient(ctx, strings.TrimSpace(id))
	if err != nil {
		return domain.Ingredient{}, err
	}
	return *ing, nil
}

func (s *Service) CreateIngredient(ctx context.Context, req domain.IngredientCreateRequest) (domain.Ingredient, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return domain.Ingredient{}, err
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Unit = strings.TrimSpace(req.Unit)
	if req.Name == "" || req.Unit == "" {
		return domain.Ingredient{}, fmt.Errorf("%w: ingredient name and unit are required", store.ErrInvalidInput)
	}
	if req.Price.IsNegative() || req.Start.IsNegative() || req.StockMin.IsNegative() {
		return domain.Ingredient{}, fmt.Errorf("%w: price, start and stock_min must not be negative", store.ErrInvalidInput)
	}
	if req.Type == "" {
		req.Type = domain.IngredientRaw
	}

	created, err := s.repo.CreateIngredient(ctx, domain.Ingredient{
		Name:         req.Name,
		Type:         req.Type,
		Unit:         req.Unit,
		Price:        req.Price,
		Start:        req.Start,
		StockMin:     req.StockMin,
		Compositions: req.Compositions,
	})
	if err != nil {
		return domain.Ingredient{}, err
	}

	s.logAudit(ctx, "ingredient_create", "ingredient", created.ID, fmt.Sprintf("name=%s,type=%s,start=%s", created.Name, created.Type, created.Start))
	return *created, nil
}

func (s *Service) UpdateIngredient(ctx context.Context, id string, req domain.IngredientUpdateRequest) (domain.IngredientChange, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return domain.IngredientChange{}, err
	}

	change, err := s.repo.UpdateIngredient(ctx, strings.TrimSpace(id), req)
	if err != nil {
		return domain.IngredientChange{}, err
	}

	s.reportChange(ctx, "ingredient_update", change, fmt.Sprintf("stock=%s", change.Ingredient.Stock))
	return *change, nil
}

func (s *Service) RestockIngredient(ctx context.Context, id string, req domain.RestockRequest) (domain.IngredientChange, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return domain.IngredientChange{}, err
	}
	if !req.Quantity.IsPositive() || req.TotalPrice.IsNegative() {
		return domain.IngredientChange{}, fmt.Errorf("%w: restock quantity must be positive and total price not negative", store.ErrInvalidInput)
	}

	change, err := s.repo.RestockIngredient(ctx, strings.TrimSpace(id), req.Quantity, req.TotalPrice, req.Note)
	if err != nil {
		return domain.IngredientChange{}, err
	}

	s.reportChange(ctx, "ingredient_restock", change, fmt.Sprintf("qty=%s,total_price=%s,unit_price=%s", req.Quantity, req.TotalPrice, change.Ingredient.Price))
	return *change, nil
}

func (s *Service) RecordWaste(ctx context.Context, id string, req domain.StockQuantityRequest) (domain.IngredientChange, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return domain.IngredientChange{}, err
	}
	if !req.Quantity.IsPositive() {
		return domain.IngredientChange{}, fmt.Errorf("%w: waste quantity must be positive", store.ErrInvalidInput)
	}

	change, err := s.repo.RecordWaste(ctx, strings.TrimSpace(id), req.Quantity, req.Note)
	if err != nil {
		return domain.IngredientChange{}, err
	}

	s.reportChange(ctx, "ingredient_waste", change, fmt.Sprintf("qty=%s", req.Quantity))
	return *change, nil
}

func (s *Service) ProduceSemiFinished(ctx context.Context, id string, req domain.StockQuantityRequest) (domain.IngredientChange, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return domain.IngredientChange{}, err
	}
	if !req.Quantity.IsPositive() {
		return domain.IngredientChange{}, fmt.Errorf("%w: production quantity must be positive", store.ErrInvalidInput)
	}

	change, err := s.repo.ProduceSemiFinished(ctx, strings.TrimSpace(id), req.Quantity, req.Note)
	if err != nil {
		return domain.IngredientChange{}, err
	}

	s.reportChange(ctx, "ingredient_produce", change, fmt.Sprintf("qty=%s", req.Quantity))
	return *change, nil
}

func (s *Service) ListGudang(ctx context.Context) ([]domain.Gudang, error) {
	return s.repo.ListGudang(ctx)
}

func (s *Service) ListStockMovements(ctx context.Context, ingredientID string, limit int) ([]domain.StockMovement, error) {
	if limit < 1 {
		limit = 100
	}
	return s.repo.ListStockMovements(ctx, strings.TrimSpace(ingredientID), limit)
}

// LowStockAlerts lists active ingredients at or below their minimum stock.
func (s *Service) LowStockAlerts(ctx context.Context) ([]domain.LowStockAlert, error) {
	ingredients, err := s.repo.ListIngredients(ctx)
	if err != nil {
		return nil, err
	}

	alerts := make([]domain.LowStockAlert, 0, 8)
	for _, ing := range ingredients {
		if !ing.IsActive || ing.Stock.GreaterThan(ing.StockMin) {
			continue
		}
		alerts = append(alerts, domain.LowStockAlert{
			IngredientID: ing.ID,
			Name:         ing.Name,
			Unit:         ing.Unit,
			Stock:        ing.Stock,
			StockMin:     ing.StockMin,
			Depleted:     !ing.Stock.IsPositive(),
		})
	}
	return alerts, nil
}

// MenuCost compares the stored harga bakul of a menu with the cost its recipe
// implies at current ingredient prices.
func (s *Service) MenuCost(ctx context.Context, menuID string) (domain.MenuCost, error) {
	menu, err := s.repo.GetMenu(ctx, strings.TrimSpace(menuID))
	if err != nil {
		return domain.MenuCost{}, err
	}
	ingredients, err := s.repo.ListIngredients(ctx)
	if err != nil {
		return domain.MenuCost{}, err
	}

	computed, lines := recipe.Cost(recipe.MenuLines(*menu), recipe.IngredientIndex(ingredients))
	return domain.MenuCost{
		MenuID:       menu.ID,
		HargaBakul:   menu.HargaBakul,
		ComputedCost: computed,
		Lines:        lines,
	}, nil
}

func (s *Service) reportChange(ctx context.Context, action string, change *domain.IngredientChange, detail string) {
	log := s.logger(ctx)
	for _, warning := range change.Warnings {
		s.metrics.NegativeStock()
		log.Warn("negative stock", zap.String("ingredient_id", change.Ingredient.ID), zap.String("warning", warning))
	}
	log.Info(action,
		zap.String("ingredient_id", change.Ingredient.ID),
		zap.String("stock", change.Ingredient.Stock.String()),
		zap.Int("menus_recomputed", len(change.Availability)),
	)
	s.logAudit(ctx, action, "ingredient", change.Ingredient.ID, detail)
}
