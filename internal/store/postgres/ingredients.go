package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
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

const ingredientColumns = `id, name, type, unit, price, start_stock, stock_in, used, wasted, stock, stock_min, is_active, created_at, updated_at`

func scanIngredient(row rowScanner) (domain.Ingredient, error) {
	var ing domain.Ingredient
	var kind string
	err := row.Scan(&ing.ID, &ing.Name, &kind, &ing.Unit, &ing.Price, &ing.Start, &ing.StockIn, &ing.Used, &ing.Wasted, &ing.Stock, &ing.StockMin, &ing.IsActive, &ing.CreatedAt, &ing.UpdatedAt)
	if err != nil {
		return ing, err
	}
	ing.Type = domain.IngredientType(kind)
	ing.CreatedAt = ing.CreatedAt.UTC()
	ing.UpdatedAt = ing.UpdatedAt.UTC()
	return ing, nil
}

// loadIngredients returns ingredients keyed by id. With lock set the rows are
// locked in id order so concurrent writers always acquire them the same way.
func loadIngredients(ctx context.Context, q querier, ids []string, lock bool) (map[string]domain.Ingredient, error) {
	ids = uniqueIDs(ids)
	result := make(map[string]domain.Ingredient, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	query := `SELECT ` + ingredientColumns + ` FROM ingredients WHERE id = ANY($1) ORDER BY id`
	if lock {
		query += ` FOR UPDATE`
	}
	rows, err := q.QueryContext(ctx, query, ids)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		ing, err := scanIngredient(rows)
		if err != nil {
			_ = rows.Close()
			return nil, err
		}
		result[ing.ID] = ing
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	_ = rows.Close()

	comps, err := loadCompositions(ctx, q, ids)
	if err != nil {
		return nil, err
	}
	for id, list := range comps {
		if ing, ok := result[id]; ok {
			ing.Compositions = list
			result[id] = ing
		}
	}
	return result, nil
}

func loadCompositions(ctx context.Context, q querier, semiIDs []string) (map[string][]domain.IngredientComposition, error) {
	query := `
		SELECT semi_finished_id, raw_ingredient_id, amount
		FROM ingredient_compositions
	`
	args := []any{}
	if semiIDs != nil {
		query += ` WHERE semi_finished_id = ANY($1)`
		args = append(args, semiIDs)
	}
	query += ` ORDER BY semi_finished_id, raw_ingredient_id`

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string][]domain.IngredientComposition)
	for rows.Next() {
		var semiID string
		var comp domain.IngredientComposition
		if err := rows.Scan(&semiID, &comp.RawIngredientID, &comp.Amount); err != nil {
			return nil, err
		}
		result[semiID] = append(result[semiID], comp)
	}
	return result, rows.Err()
}

func getIngredient(ctx context.Context, q querier, id string, lock bool) (*domain.Ingredient, error) {
	found, err := loadIngredients(ctx, q, []string{id}, lock)
	if err != nil {
		return nil, err
	}
	ing, ok := found[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &ing, nil
}

func (s *Store) ListIngredients(ctx context.Context) ([]domain.Ingredient, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+ingredientColumns+` FROM ingredients ORDER BY name, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ingredients := make([]domain.Ingredient, 0, 64)
	for rows.Next() {
		ing, err := scanIngredient(rows)
		if err != nil {
			return nil, err
		}
		ingredients = append(ingredients, ing)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	comps, err := loadCompositions(ctx, s.db, nil)
	if err != nil {
		return nil, err
	}
	for i := range ingredients {
		ingredients[i].Compositions = comps[ingredients[i].ID]
	}
	return ingredients, nil
}

func (s *Store) GetIngredient(ctx context.Context, id string) (*domain.Ingredient, error) {
	return getIngredient(ctx, s.db, id, false)
}

func (s *Store) CreateIngredient(ctx context.Context, ingredient domain.Ingredient) (*domain.Ingredient, error) {
	if strings.TrimSpace(ingredient.Name) == "" {
		return nil, fmt.Errorf("%w: ingredient name is required", store.ErrInvalidInput)
	}
	if ingredient.ID == "" {
		ingredient.ID = xid.New("ing")
	}
	if ingredient.Type == "" {
		ingredient.Type = domain.IngredientRaw
	}

	tx, err := s.beginSerializable(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	if err := validateCompositions(ctx, tx, ingredient.ID, ingredient.Type, ingredient.Compositions); err != nil {
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

	_, err = tx.ExecContext(ctx, `
		INSERT INTO ingredients (
			id, name, type, unit, price, start_stock, stock_in, used, wasted, stock, stock_min, is_active, created_at, updated_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$13)
	`, ingredient.ID, ingredient.Name, string(ingredient.Type), ingredient.Unit, ingredient.Price, ingredient.Start,
		ingredient.StockIn, ingredient.Used, ingredient.Wasted, ingredient.Stock, ingredient.StockMin, ingredient.IsActive, now)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: ingredient %s already exists", store.ErrInvalidInput, ingredient.ID)
		}
		return nil, err
	}
	if err := replaceCompositions(ctx, tx, ingredient.ID, ingredient.Compositions); err != nil {
		return nil, err
	}

	g := domain.Gudang{IngredientID: ingredient.ID, Start: ingredient.Start, UpdatedAt: now}
	ledger.RecomputeGudang(&g)
	if err := upsertGudang(ctx, tx, g); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &ingredient, nil
}

func (s *Store) UpdateIngredient(ctx context.Context, id string, req domain.IngredientUpdateRequest) (*domain.IngredientChange, error) {
	tx, err := s.beginSerializable(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	current, err := getIngredient(ctx, tx, id, true)
	if err != nil {
		return nil, err
	}
	next := *current
	if err := ledger.ApplyEdit(&next, req); err != nil {
		return nil, err
	}
	if req.Compositions != nil {
		if err := validateCompositions(ctx, tx, next.ID, next.Type, *req.Compositions); err != nil {
			return nil, err
		}
		next.Compositions = *req.Compositions
		if err := replaceCompositions(ctx, tx, next.ID, next.Compositions); err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	next.UpdatedAt = now
	if err := saveIngredient(ctx, tx, next); err != nil {
		return nil, err
	}
	if delta := next.Stock.Sub(current.Stock); !delta.IsZero() {
		if err := insertMovement(ctx, tx, id, domain.MovementAdjustment, delta, "", "manual edit", now); err != nil {
			return nil, err
		}
	}

	change, err := ingredientChange(ctx, tx, id, []string{id}, now)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return change, nil
}

func (s *Store) RestockIngredient(ctx context.Context, id string, qty decimal.Decimal, totalPrice decimal.Decimal, note string) (*domain.IngredientChange, error) {
	tx, err := s.beginSerializable(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	current, err := getIngredient(ctx, tx, id, true)
	if err != nil {
		return nil, err
	}
	mirror, err := getGudang(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	next := *current
	if err := ledger.ApplyRestock(&next, mirror, qty, totalPrice); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	next.UpdatedAt = now
	if err := saveIngredient(ctx, tx, next); err != nil {
		return nil, err
	}
	if mirror != nil {
		mirror.UpdatedAt = now
		if err := upsertGudang(ctx, tx, *mirror); err != nil {
			return nil, err
		}
	}
	if err := insertMovement(ctx, tx, id, domain.MovementRestock, qty, "", note, now); err != nil {
		return nil, err
	}

	change, err := ingredientChange(ctx, tx, id, []string{id}, now)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return change, nil
}

func (s *Store) RecordWaste(ctx context.Context, id string, qty decimal.Decimal, note string) (*domain.IngredientChange, error) {
	tx, err := s.beginSerializable(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	current, err := getIngredient(ctx, tx, id, true)
	if err != nil {
		return nil, err
	}
	next := *current
	if err := ledger.ApplyWaste(&next, qty); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	next.UpdatedAt = now
	if err := saveIngredient(ctx, tx, next); err != nil {
		return nil, err
	}
	if err := insertMovement(ctx, tx, id, domain.MovementWaste, qty, "", note, now); err != nil {
		return nil, err
	}

	change, err := ingredientChange(ctx, tx, id, []string{id}, now)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return change, nil
}

func (s *Store) ProduceSemiFinished(ctx context.Context, id string, qty decimal.Decimal, note string) (*domain.IngredientChange, error) {
	tx, err := s.beginSerializable(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	comps, err := loadCompositions(ctx, tx, []string{id})
	if err != nil {
		return nil, err
	}
	plan := ledger.ProductionPlan(comps[id], qty)
	locked, err := loadIngredients(ctx, tx, append(plan.IDs(), id), true)
	if err != nil {
		return nil, err
	}

	current, ok := locked[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if current.Type != domain.IngredientSemiFinished || len(current.Compositions) == 0 {
		return nil, fmt.Errorf("%w: ingredient %s has no composition to produce from", store.ErrInvalidInput, id)
	}
	next := current
	if err := ledger.ApplyProduction(&next, qty); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	touched := []string{id}
	for _, rawID := range plan.IDs() {
		raw, ok := locked[rawID]
		if !ok {
			return nil, fmt.Errorf("%w: raw ingredient %s is missing", store.ErrInvalidInput, rawID)
		}
		if raw.Stock.LessThan(plan[rawID]) {
			return nil, fmt.Errorf("%w: %s needs %s %s, only %s left", store.ErrInsufficientStock, raw.Name, plan[rawID], raw.Unit, raw.Stock)
		}
		if _, err := ledger.ApplyConsumption(&raw, plan[rawID]); err != nil {
			return nil, err
		}
		raw.UpdatedAt = now
		if err := saveIngredient(ctx, tx, raw); err != nil {
			return nil, err
		}
		if err := insertMovement(ctx, tx, rawID, domain.MovementConsumption, plan[rawID], id, "production", now); err != nil {
			return nil, err
		}
		touched = append(touched, rawID)
	}

	next.UpdatedAt = now
	if err := saveIngredient(ctx, tx, next); err != nil {
		return nil, err
	}
	if err := insertMovement(ctx, tx, id, domain.MovementProduction, qty, "", note, now); err != nil {
		return nil, err
	}

	change, err := ingredientChange(ctx, tx, id, touched, now)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return change, nil
}

func (s *Store) ListGudang(ctx context.Context) ([]domain.Gudang, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT ingredient_id, start_stock, stock_in, used, wasted, stock, updated_at
		FROM gudang
		ORDER BY ingredient_id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]domain.Gudang, 0, 64)
	for rows.Next() {
		g, err := scanGudang(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, g)
	}
	return result, rows.Err()
}

func (s *Store) ListStockMovements(ctx context.Context, ingredientID string, limit int) ([]domain.StockMovement, error) {
	if limit < 1 {
		limit = 200
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, ingredient_id, kind, quantity, ref_id, note, created_at
		FROM stock_movements
		WHERE ($1 = '' OR ingredient_id = $1)
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, ingredientID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]domain.StockMovement, 0, limit)
	for rows.Next() {
		var m domain.StockMovement
		var kind string
		if err := rows.Scan(&m.ID, &m.IngredientID, &kind, &m.Quantity, &m.RefID, &m.Note, &m.CreatedAt); err != nil {
			return nil, err
		}
		m.Kind = domain.MovementKind(kind)
		m.CreatedAt = m.CreatedAt.UTC()
		result = append(result, m)
	}
	return result, rows.Err()
}

func saveIngredient(ctx context.Context, q querier, ing domain.Ingredient) error {
	res, err := q.ExecContext(ctx, `
		UPDATE ingredients
		SET name = $2, unit = $3, price = $4, start_stock = $5, stock_in = $6, used = $7, wasted = $8,
			stock = $9, stock_min = $10, is_active = $11, updated_at = $12
		WHERE id = $1
	`, ing.ID, ing.Name, ing.Unit, ing.Price, ing.Start, ing.StockIn, ing.Used, ing.Wasted, ing.Stock, ing.StockMin, ing.IsActive, ing.UpdatedAt)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

func replaceCompositions(ctx context.Context, q querier, id string, comps []domain.IngredientComposition) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM ingredient_compositions WHERE semi_finished_id = $1`, id); err != nil {
		return err
	}
	for _, comp := range comps {
		if _, err := q.ExecContext(ctx, `
			INSERT INTO ingredient_compositions (semi_finished_id, raw_ingredient_id, amount)
			VALUES ($1,$2,$3)
		`, id, comp.RawIngredientID, comp.Amount); err != nil {
			return err
		}
	}
	return nil
}

func validateCompositions(ctx context.Context, q querier, id string, kind domain.IngredientType, comps []domain.IngredientComposition) error {
	ids := make([]string, 0, len(comps))
	for _, comp := range comps {
		ids = append(ids, comp.RawIngredientID)
	}
	known, err := loadIngredients(ctx, q, ids, false)
	if err != nil {
		return err
	}
	return ledger.ValidateCompositions(id, kind, comps, func(rawID string) (domain.Ingredient, bool) {
		ing, ok := known[rawID]
		return ing, ok
	})
}

func scanGudang(row rowScanner) (domain.Gudang, error) {
	var g domain.Gudang
	err := row.Scan(&g.IngredientID, &g.Start, &g.StockIn, &g.Used, &g.Wasted, &g.Stock, &g.UpdatedAt)
	g.UpdatedAt = g.UpdatedAt.UTC()
	return g, err
}

func getGudang(ctx context.Context, q querier, id string) (*domain.Gudang, error) {
	g, err := scanGudang(q.QueryRowContext(ctx, `
		SELECT ingredient_id, start_stock, stock_in, used, wasted, stock, updated_at
		FROM gudang
		WHERE ingredient_id = $1
		FOR UPDATE
	`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &g, nil
}

func upsertGudang(ctx context.Context, q querier, g domain.Gudang) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO gudang (ingredient_id, start_stock, stock_in, used, wasted, stock, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (ingredient_id) DO UPDATE
		SET start_stock = EXCLUDED.start_stock, stock_in = EXCLUDED.stock_in, used = EXCLUDED.used,
			wasted = EXCLUDED.wasted, stock = EXCLUDED.stock, updated_at = EXCLUDED.updated_at
	`, g.IngredientID, g.Start, g.StockIn, g.Used, g.Wasted, g.Stock, g.UpdatedAt)
	return err
}

func insertMovement(ctx context.Context, q querier, ingredientID string, kind domain.MovementKind, qty decimal.Decimal, refID string, note string, at time.Time) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO stock_movements (id, ingredient_id, kind, quantity, ref_id, note, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, xid.New("mov"), ingredientID, string(kind), qty, refID, strings.TrimSpace(note), at)
	return err
}

// recomputeMenus refreshes maxBeli and status of every menu that uses one of
// the touched ingredients, reading stock inside the caller's transaction.
func recomputeMenus(ctx context.Context, q querier, touched []string, at time.Time) ([]domain.MenuAvailability, error) {
	if len(touched) == 0 {
		return []domain.MenuAvailability{}, nil
	}
	menus, err := loadMenus(ctx, q, `WHERE id IN (SELECT menu_id FROM menu_ingredients WHERE ingredient_id = ANY($1))`, uniqueIDs(touched))
	if err != nil {
		return nil, err
	}
	affected := recipe.AffectedMenus(menus, touched)

	needed := make([]string, 0, len(affected)*2)
	for _, menu := range affected {
		for _, mi := range menu.Ingredients {
			needed = append(needed, mi.IngredientID)
		}
	}
	ingredients, err := loadIngredients(ctx, q, needed, false)
	if err != nil {
		return nil, err
	}
	stock := make(map[string]decimal.Decimal, len(ingredients))
	for id, ing := range ingredients {
		stock[id] = ing.Stock
	}

	availability := recipe.Recompute(affected, stock)
	for _, menu := range affected {
		if _, err := q.ExecContext(ctx, `
			UPDATE menus SET max_beli = $2, status = $3, updated_at = $4 WHERE id = $1
		`, menu.ID, menu.MaxBeli, menu.Status, at); err != nil {
			return nil, err
		}
	}
	return availability, nil
}

func ingredientChange(ctx context.Context, q querier, id string, touched []string, at time.Time) (*domain.IngredientChange, error) {
	availability, err := recomputeMenus(ctx, q, touched, at)
	if err != nil {
		return nil, err
	}
	ing, err := getIngredient(ctx, q, id, false)
	if err != nil {
		return nil, err
	}
	g, err := getGudang(ctx, q, id)
	if err != nil {
		return nil, err
	}
	change := &domain.IngredientChange{
		Ingredient:   *ing,
		Gudang:       g,
		Availability: availability,
	}
	if ing.Stock.IsNegative() {
		change.Warnings = append(change.Warnings, completion.NegativeStockWarning(*ing))
	}
	return change, nil
}
