package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"kafe/backend/internal/domain"
	"kafe/backend/internal/recipe"
	"kafe/backend/internal/store"
	"kafe/backend/internal/xid"
)

const menuColumns = `id, name, category, price, harga_bakul, status, max_beli, is_active, modifier_ids, discount_ids, created_at, updated_at`

// loadMenus runs the menu query with an optional WHERE clause and attaches
// every menu's ingredient lines.
func loadMenus(ctx context.Context, q querier, where string, args ...any) ([]domain.Menu, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+menuColumns+` FROM menus `+where+` ORDER BY category, name, id`, args...)
	if err != nil {
		return nil, err
	}
	menus := make([]domain.Menu, 0, 32)
	for rows.Next() {
		var menu domain.Menu
		var modifierIDs, discountIDs stringList
		if err := rows.Scan(&menu.ID, &menu.Name, &menu.Category, &menu.Price, &menu.HargaBakul, &menu.Status, &menu.MaxBeli,
			&menu.IsActive, &modifierIDs, &discountIDs, &menu.CreatedAt, &menu.UpdatedAt); err != nil {
			_ = rows.Close()
			return nil, err
		}
		menu.ModifierIDs = []string(modifierIDs)
		menu.DiscountIDs = []string(discountIDs)
		menu.CreatedAt = menu.CreatedAt.UTC()
		menu.UpdatedAt = menu.UpdatedAt.UTC()
		menus = append(menus, menu)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	_ = rows.Close()
	if len(menus) == 0 {
		return menus, nil
	}

	ids := make([]string, 0, len(menus))
	for _, menu := range menus {
		ids = append(ids, menu.ID)
	}
	lineRows, err := q.QueryContext(ctx, `
		SELECT menu_id, ingredient_id, amount
		FROM menu_ingredients
		WHERE menu_id = ANY($1)
		ORDER BY menu_id, ingredient_id
	`, ids)
	if err != nil {
		return nil, err
	}
	defer lineRows.Close()

	lines := make(map[string][]domain.MenuIngredient, len(menus))
	for lineRows.Next() {
		var menuID string
		var mi domain.MenuIngredient
		if err := lineRows.Scan(&menuID, &mi.IngredientID, &mi.Amount); err != nil {
			return nil, err
		}
		lines[menuID] = append(lines[menuID], mi)
	}
	if err := lineRows.Err(); err != nil {
		return nil, err
	}
	for i := range menus {
		menus[i].Ingredients = lines[menus[i].ID]
	}
	return menus, nil
}

func menusByID(ctx context.Context, q querier, ids []string) (map[string]domain.Menu, error) {
	result := make(map[string]domain.Menu, len(ids))
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return result, nil
	}
	menus, err := loadMenus(ctx, q, `WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	for _, menu := range menus {
		result[menu.ID] = menu
	}
	return result, nil
}

func (s *Store) ListMenus(ctx context.Context) ([]domain.Menu, error) {
	return loadMenus(ctx, s.db, "")
}

func (s *Store) GetMenu(ctx context.Context, id string) (*domain.Menu, error) {
	menus, err := loadMenus(ctx, s.db, `WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}
	if len(menus) == 0 {
		return nil, store.ErrNotFound
	}
	return &menus[0], nil
}

func (s *Store) CreateMenu(ctx context.Context, menu domain.Menu) (*domain.Menu, error) {
	if menu.ID == "" {
		menu.ID = xid.New("menu")
	}

	tx, err := s.beginSerializable(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	stock, err := validateMenu(ctx, tx, menu)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	menu.IsActive = true
	menu.CreatedAt = now
	menu.UpdatedAt = now
	menu.MaxBeli = recipe.MaxBeli(recipe.MenuLines(menu), stock)
	menu.Status = recipe.StatusFor(menu.MaxBeli)

	_, err = tx.ExecContext(ctx, `
		INSERT INTO menus (`+menuColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$11)
	`, menu.ID, menu.Name, menu.Category, menu.Price, menu.HargaBakul, menu.Status, menu.MaxBeli, menu.IsActive,
		stringList(menu.ModifierIDs), stringList(menu.DiscountIDs), now)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: menu %s already exists", store.ErrInvalidInput, menu.ID)
		}
		return nil, err
	}
	if err := replaceMenuIngredients(ctx, tx, menu.ID, menu.Ingredients); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &menu, nil
}

func (s *Store) UpdateMenu(ctx context.Context, menu domain.Menu) (*domain.Menu, error) {
	tx, err := s.beginSerializable(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	var createdAt time.Time
	if err := tx.QueryRowContext(ctx, `SELECT created_at FROM menus WHERE id = $1 FOR UPDATE`, menu.ID).Scan(&createdAt); err != nil {
		return nil, notFoundOr(err)
	}
	stock, err := validateMenu(ctx, tx, menu)
	if err != nil {
		return nil, err
	}

	menu.CreatedAt = createdAt.UTC()
	menu.UpdatedAt = time.Now().UTC()
	menu.MaxBeli = recipe.MaxBeli(recipe.MenuLines(menu), stock)
	menu.Status = recipe.StatusFor(menu.MaxBeli)

	_, err = tx.ExecContext(ctx, `
		UPDATE menus
		SET name = $2, category = $3, price = $4, harga_bakul = $5, status = $6, max_beli = $7, is_active = $8,
			modifier_ids = $9, discount_ids = $10, updated_at = $11
		WHERE id = $1
	`, menu.ID, menu.Name, menu.Category, menu.Price, menu.HargaBakul, menu.Status, menu.MaxBeli, menu.IsActive,
		stringList(menu.ModifierIDs), stringList(menu.DiscountIDs), menu.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := replaceMenuIngredients(ctx, tx, menu.ID, menu.Ingredients); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &menu, nil
}

// validateMenu checks every reference of menu and returns the stock of its
// ingredients for the availability computation.
func validateMenu(ctx context.Context, q querier, menu domain.Menu) (map[string]decimal.Decimal, error) {
	if strings.TrimSpace(menu.Name) == "" {
		return nil, fmt.Errorf("%w: menu name is required", store.ErrInvalidInput)
	}
	if menu.Price < 0 || menu.HargaBakul < 0 {
		return nil, fmt.Errorf("%w: price and harga bakul must not be negative", store.ErrInvalidInput)
	}

	ids := make([]string, 0, len(menu.Ingredients))
	for _, mi := range menu.Ingredients {
		ids = append(ids, mi.IngredientID)
	}
	known, err := loadIngredients(ctx, q, ids, false)
	if err != nil {
		return nil, err
	}
	stock := make(map[string]decimal.Decimal, len(known))
	for _, mi := range menu.Ingredients {
		ing, ok := known[mi.IngredientID]
		if !ok {
			return nil, fmt.Errorf("%w: ingredient %s does not exist", store.ErrInvalidInput, mi.IngredientID)
		}
		if !mi.Amount.IsPositive() {
			return nil, fmt.Errorf("%w: ingredient amount must be positive", store.ErrInvalidInput)
		}
		stock[ing.ID] = ing.Stock
	}

	if err := expectAll(ctx, q, "modifiers", "modifier", menu.ModifierIDs); err != nil {
		return nil, err
	}
	if err := expectAll(ctx, q, "discounts", "discount", menu.DiscountIDs); err != nil {
		return nil, err
	}
	return stock, nil
}

// expectAll fails when any of ids is not a row of table.
func expectAll(ctx context.Context, q querier, table string, label string, ids []string) error {
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return nil
	}
	rows, err := q.QueryContext(ctx, `SELECT id FROM `+table+` WHERE id = ANY($1)`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	found := make(map[string]struct{}, len(ids))
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return err
		}
		found[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return err
	}
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			return fmt.Errorf("%w: %s %s does not exist", store.ErrInvalidInput, label, id)
		}
	}
	return nil
}

// replaceMenuIngredients rewrites the recipe of a menu. Repeated ingredient
// lines are folded into one row holding the summed amount.
func replaceMenuIngredients(ctx context.Context, q querier, menuID string, lines []domain.MenuIngredient) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM menu_ingredients WHERE menu_id = $1`, menuID); err != nil {
		return err
	}
	for _, mi := range lines {
		if _, err := q.ExecContext(ctx, `
			INSERT INTO menu_ingredients (menu_id, ingredient_id, amount)
			VALUES ($1,$2,$3)
			ON CONFLICT (menu_id, ingredient_id) DO UPDATE
			SET amount = menu_ingredients.amount + EXCLUDED.amount
		`, menuID, mi.IngredientID, mi.Amount); err != nil {
			return err
		}
	}
	return nil
}

func loadBundles(ctx context.Context, q querier, where string, args ...any) ([]domain.Bundle, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, name, bundle_price, is_active, created_at
		FROM bundles `+where+`
		ORDER BY name, id
	`, args...)
	if err != nil {
		return nil, err
	}
	bundles := make([]domain.Bundle, 0, 16)
	for rows.Next() {
		var b domain.Bundle
		if err := rows.Scan(&b.ID, &b.Name, &b.BundlePrice, &b.IsActive, &b.CreatedAt); err != nil {
			_ = rows.Close()
			return nil, err
		}
		b.CreatedAt = b.CreatedAt.UTC()
		bundles = append(bundles, b)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	_ = rows.Close()
	if len(bundles) == 0 {
		return bundles, nil
	}

	ids := make([]string, 0, len(bundles))
	for _, b := range bundles {
		ids = append(ids, b.ID)
	}
	memberRows, err := q.QueryContext(ctx, `
		SELECT bundle_id, menu_id, quantity
		FROM bundle_menus
		WHERE bundle_id = ANY($1)
		ORDER BY bundle_id, position
	`, ids)
	if err != nil {
		return nil, err
	}
	defer memberRows.Close()

	members := make(map[string][]domain.BundleMenu, len(bundles))
	for memberRows.Next() {
		var bundleID string
		var bm domain.BundleMenu
		if err := memberRows.Scan(&bundleID, &bm.MenuID, &bm.Quantity); err != nil {
			return nil, err
		}
		members[bundleID] = append(members[bundleID], bm)
	}
	if err := memberRows.Err(); err != nil {
		return nil, err
	}
	for i := range bundles {
		bundles[i].Menus = members[bundles[i].ID]
	}
	return bundles, nil
}

// withBundleDerived fills maxBeli and HPP of every bundle from its menus.
func withBundleDerived(ctx context.Context, q querier, bundles []domain.Bundle) ([]domain.Bundle, error) {
	ids := make([]string, 0, len(bundles)*2)
	for _, b := range bundles {
		for _, bm := range b.Menus {
			ids = append(ids, bm.MenuID)
		}
	}
	menus, err := menusByID(ctx, q, ids)
	if err != nil {
		return nil, err
	}
	for i := range bundles {
		bundles[i].MaxBeli = recipe.BundleMaxBeli(bundles[i], menus)
		bundles[i].HargaBakul = recipe.BundleCost(bundles[i], menus)
	}
	return bundles, nil
}

func (s *Store) ListBundles(ctx context.Context) ([]domain.Bundle, error) {
	bundles, err := loadBundles(ctx, s.db, "")
	if err != nil {
		return nil, err
	}
	return withBundleDerived(ctx, s.db, bundles)
}

func (s *Store) GetBundle(ctx context.Context, id string) (*domain.Bundle, error) {
	bundles, err := loadBundles(ctx, s.db, `WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}
	if len(bundles) == 0 {
		return nil, store.ErrNotFound
	}
	bundles, err = withBundleDerived(ctx, s.db, bundles)
	if err != nil {
		return nil, err
	}
	return &bundles[0], nil
}

func (s *Store) CreateBundle(ctx context.Context, bundle domain.Bundle) (*domain.Bundle, error) {
	if strings.TrimSpace(bundle.Name) == "" || len(bundle.Menus) == 0 {
		return nil, fmt.Errorf("%w: bundle needs a name and at least one menu", store.ErrInvalidInput)
	}
	if bundle.BundlePrice < 0 {
		return nil, fmt.Errorf("%w: bundle price must not be negative", store.ErrInvalidInput)
	}
	menuIDs := make([]string, 0, len(bundle.Menus))
	for _, bm := range bundle.Menus {
		if bm.Quantity < 1 {
			return nil, fmt.Errorf("%w: bundle menu quantity must be positive", store.ErrInvalidInput)
		}
		menuIDs = append(menuIDs, bm.MenuID)
	}
	if bundle.ID == "" {
		bundle.ID = xid.New("bundle")
	}

	tx, err := s.beginSerializable(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	if err := expectAll(ctx, tx, "menus", "menu", menuIDs); err != nil {
		return nil, err
	}
	bundle.IsActive = true
	bundle.CreatedAt = time.Now().UTC()
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO bundles (id, name, bundle_price, is_active, created_at)
		VALUES ($1,$2,$3,$4,$5)
	`, bundle.ID, bundle.Name, bundle.BundlePrice, bundle.IsActive, bundle.CreatedAt); err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: bundle %s already exists", store.ErrInvalidInput, bundle.ID)
		}
		return nil, err
	}
	for i, bm := range bundle.Menus {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO bundle_menus (bundle_id, menu_id, position, quantity)
			VALUES ($1,$2,$3,$4)
		`, bundle.ID, bm.MenuID, i, bm.Quantity); err != nil {
			if isUniqueViolation(err) {
				return nil, fmt.Errorf("%w: menu %s listed twice in bundle", store.ErrInvalidInput, bm.MenuID)
			}
			return nil, err
		}
	}

	derived, err := withBundleDerived(ctx, tx, []domain.Bundle{bundle})
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &derived[0], nil
}

func (s *Store) ListModifierCategories(ctx context.Context) ([]domain.ModifierCategory, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, created_at FROM modifier_categories ORDER BY name, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]domain.ModifierCategory, 0, 8)
	for rows.Next() {
		var c domain.ModifierCategory
		if err := rows.Scan(&c.ID, &c.Name, &c.CreatedAt); err != nil {
			return nil, err
		}
		c.CreatedAt = c.CreatedAt.UTC()
		result = append(result, c)
	}
	return result, rows.Err()
}

func (s *Store) CreateModifierCategory(ctx context.Context, category domain.ModifierCategory) (*domain.ModifierCategory, error) {
	if strings.TrimSpace(category.Name) == "" {
		return nil, fmt.Errorf("%w: category name is required", store.ErrInvalidInput)
	}
	if category.ID == "" {
		category.ID = xid.New("modcat")
	}
	category.CreatedAt = time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO modifier_categories (id, name, created_at) VALUES ($1,$2,$3)
	`, category.ID, category.Name, category.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: category %s already exists", store.ErrInvalidInput, category.ID)
		}
		return nil, err
	}
	return &category, nil
}

func loadModifiers(ctx context.Context, q querier, where string, args ...any) ([]domain.Modifier, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, category_id, name, price, is_active, created_at
		FROM modifiers `+where+`
		ORDER BY category_id, name, id
	`, args...)
	if err != nil {
		return nil, err
	}
	modifiers := make([]domain.Modifier, 0, 16)
	for rows.Next() {
		var m domain.Modifier
		if err := rows.Scan(&m.ID, &m.CategoryID, &m.Name, &m.Price, &m.IsActive, &m.CreatedAt); err != nil {
			_ = rows.Close()
			return nil, err
		}
		m.CreatedAt = m.CreatedAt.UTC()
		modifiers = append(modifiers, m)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	_ = rows.Close()
	if len(modifiers) == 0 {
		return modifiers, nil
	}

	ids := make([]string, 0, len(modifiers))
	for _, m := range modifiers {
		ids = append(ids, m.ID)
	}
	lineRows, err := q.QueryContext(ctx, `
		SELECT modifier_id, ingredient_id, amount
		FROM modifier_ingredients
		WHERE modifier_id = ANY($1)
		ORDER BY modifier_id, ingredient_id
	`, ids)
	if err != nil {
		return nil, err
	}
	defer lineRows.Close()

	lines := make(map[string][]domain.ModifierIngredient, len(modifiers))
	for lineRows.Next() {
		var modifierID string
		var mi domain.ModifierIngredient
		if err := lineRows.Scan(&modifierID, &mi.IngredientID, &mi.Amount); err != nil {
			return nil, err
		}
		lines[modifierID] = append(lines[modifierID], mi)
	}
	if err := lineRows.Err(); err != nil {
		return nil, err
	}
	for i := range modifiers {
		modifiers[i].Ingredients = lines[modifiers[i].ID]
	}
	return modifiers, nil
}

func withModifierMaxBeli(ctx context.Context, q querier, modifiers []domain.Modifier) ([]domain.Modifier, error) {
	ids := make([]string, 0, len(modifiers))
	for _, m := range modifiers {
		for _, mi := range m.Ingredients {
			ids = append(ids, mi.IngredientID)
		}
	}
	ingredients, err := loadIngredients(ctx, q, ids, false)
	if err != nil {
		return nil, err
	}
	stock := make(map[string]decimal.Decimal, len(ingredients))
	for id, ing := range ingredients {
		stock[id] = ing.Stock
	}
	for i := range modifiers {
		modifiers[i].MaxBeli = recipe.MaxBeli(recipe.ModifierLines(modifiers[i]), stock)
	}
	return modifiers, nil
}

func (s *Store) ListModifiers(ctx context.Context) ([]domain.Modifier, error) {
	modifiers, err := loadModifiers(ctx, s.db, "")
	if err != nil {
		return nil, err
	}
	return withModifierMaxBeli(ctx, s.db, modifiers)
}

func (s *Store) CreateModifier(ctx context.Context, modifier domain.Modifier) (*domain.Modifier, error) {
	if strings.TrimSpace(modifier.Name) == "" || modifier.Price < 0 {
		return nil, fmt.Errorf("%w: modifier needs a name and a non-negative price", store.ErrInvalidInput)
	}
	if modifier.ID == "" {
		modifier.ID = xid.New("mod")
	}

	tx, err := s.beginSerializable(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	if strings.TrimSpace(modifier.CategoryID) == "" {
		return nil, fmt.Errorf("%w: modifier category is required", store.ErrInvalidInput)
	}
	if err := expectAll(ctx, tx, "modifier_categories", "modifier category", []string{modifier.CategoryID}); err != nil {
		return nil, err
	}
	ingredientIDs := make([]string, 0, len(modifier.Ingredients))
	for _, mi := range modifier.Ingredients {
		if !mi.Amount.IsPositive() {
			return nil, fmt.Errorf("%w: ingredient amount must be positive", store.ErrInvalidInput)
		}
		ingredientIDs = append(ingredientIDs, mi.IngredientID)
	}
	if err := expectAll(ctx, tx, "ingredients", "ingredient", ingredientIDs); err != nil {
		return nil, err
	}

	modifier.IsActive = true
	modifier.CreatedAt = time.Now().UTC()
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO modifiers (id, category_id, name, price, is_active, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, modifier.ID, modifier.CategoryID, modifier.Name, modifier.Price, modifier.IsActive, modifier.CreatedAt); err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: modifier %s already exists", store.ErrInvalidInput, modifier.ID)
		}
		return nil, err
	}
	for _, mi := range modifier.Ingredients {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO modifier_ingredients (modifier_id, ingredient_id, amount)
			VALUES ($1,$2,$3)
			ON CONFLICT (modifier_id, ingredient_id) DO UPDATE
			SET amount = modifier_ingredients.amount + EXCLUDED.amount
		`, modifier.ID, mi.IngredientID, mi.Amount); err != nil {
			return nil, err
		}
	}

	derived, err := withModifierMaxBeli(ctx, tx, []domain.Modifier{modifier})
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &derived[0], nil
}

func (s *Store) ListDiscounts(ctx context.Context) ([]domain.Discount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, type, value, scope, is_active, created_at
		FROM discounts
		ORDER BY name, id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]domain.Discount, 0, 8)
	for rows.Next() {
		d, err := scanDiscount(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, d)
	}
	return result, rows.Err()
}

func scanDiscount(row rowScanner) (domain.Discount, error) {
	var d domain.Discount
	err := row.Scan(&d.ID, &d.Name, &d.Type, &d.Value, &d.Scope, &d.IsActive, &d.CreatedAt)
	d.CreatedAt = d.CreatedAt.UTC()
	return d, err
}

func (s *Store) CreateDiscount(ctx context.Context, discount domain.Discount) (*domain.Discount, error) {
	if discount.ID == "" {
		discount.ID = xid.New("disc")
	}
	discount.IsActive = true
	discount.CreatedAt = time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO discounts (id, name, type, value, scope, is_active, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, discount.ID, discount.Name, discount.Type, discount.Value, discount.Scope, discount.IsActive, discount.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: discount %s already exists", store.ErrInvalidInput, discount.ID)
		}
		return nil, err
	}
	return &discount, nil
}

func (s *Store) SetDiscountActive(ctx context.Context, id string, active bool) (*domain.Discount, error) {
	d, err := scanDiscount(s.db.QueryRowContext(ctx, `
		UPDATE discounts SET is_active = $2 WHERE id = $1
		RETURNING id, name, type, value, scope, is_active, created_at
	`, id, active))
	if err != nil {
		return nil, notFoundOr(err)
	}
	return &d, nil
}

// rateRule is the shared shape of the taxes and gratuities tables.
type rateRule struct {
	ID        string
	Name      string
	Rate      decimal.Decimal
	IsActive  bool
	CreatedAt time.Time
}

func (s *Store) listRateRules(ctx context.Context, table string) ([]rateRule, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, rate, is_active, created_at FROM `+table+` ORDER BY name, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]rateRule, 0, 4)
	for rows.Next() {
		var r rateRule
		if err := rows.Scan(&r.ID, &r.Name, &r.Rate, &r.IsActive, &r.CreatedAt); err != nil {
			return nil, err
		}
		r.CreatedAt = r.CreatedAt.UTC()
		result = append(result, r)
	}
	return result, rows.Err()
}

func (s *Store) insertRateRule(ctx context.Context, table string, r rateRule) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO `+table+` (id, name, rate, is_active, created_at) VALUES ($1,$2,$3,$4,$5)
	`, r.ID, r.Name, r.Rate, r.IsActive, r.CreatedAt)
	if err != nil && isUniqueViolation(err) {
		return fmt.Errorf("%w: %s already exists", store.ErrInvalidInput, r.ID)
	}
	return err
}

func (s *Store) setRateRuleActive(ctx context.Context, table string, id string, active bool) (rateRule, error) {
	var r rateRule
	err := s.db.QueryRowContext(ctx, `
		UPDATE `+table+` SET is_active = $2 WHERE id = $1
		RETURNING id, name, rate, is_active, created_at
	`, id, active).Scan(&r.ID, &r.Name, &r.Rate, &r.IsActive, &r.CreatedAt)
	if err != nil {
		return r, notFoundOr(err)
	}
	r.CreatedAt = r.CreatedAt.UTC()
	return r, nil
}

func (r rateRule) tax() domain.Tax {
	return domain.Tax{ID: r.ID, Name: r.Name, Rate: r.Rate, IsActive: r.IsActive, CreatedAt: r.CreatedAt}
}

func (r rateRule) gratuity() domain.Gratuity {
	return domain.Gratuity{ID: r.ID, Name: r.Name, Rate: r.Rate, IsActive: r.IsActive, CreatedAt: r.CreatedAt}
}

func (s *Store) ListTaxes(ctx context.Context) ([]domain.Tax, error) {
	rules, err := s.listRateRules(ctx, "taxes")
	if err != nil {
		return nil, err
	}
	result := make([]domain.Tax, 0, len(rules))
	for _, r := range rules {
		result = append(result, r.tax())
	}
	return result, nil
}

func (s *Store) CreateTax(ctx context.Context, tax domain.Tax) (*domain.Tax, error) {
	if tax.ID == "" {
		tax.ID = xid.New("tax")
	}
	tax.IsActive = true
	tax.CreatedAt = time.Now().UTC()
	if err := s.insertRateRule(ctx, "taxes", rateRule{ID: tax.ID, Name: tax.Name, Rate: tax.Rate, IsActive: tax.IsActive, CreatedAt: tax.CreatedAt}); err != nil {
		return nil, err
	}
	return &tax, nil
}

func (s *Store) SetTaxActive(ctx context.Context, id string, active bool) (*domain.Tax, error) {
	r, err := s.setRateRuleActive(ctx, "taxes", id, active)
	if err != nil {
		return nil, err
	}
	tax := r.tax()
	return &tax, nil
}

func (s *Store) ListGratuities(ctx context.Context) ([]domain.Gratuity, error) {
	rules, err := s.listRateRules(ctx, "gratuities")
	if err != nil {
		return nil, err
	}
	result := make([]domain.Gratuity, 0, len(rules))
	for _, r := range rules {
		result = append(result, r.gratuity())
	}
	return result, nil
}

func (s *Store) CreateGratuity(ctx context.Context, gratuity domain.Gratuity) (*domain.Gratuity, error) {
	if gratuity.ID == "" {
		gratuity.ID = xid.New("grat")
	}
	gratuity.IsActive = true
	gratuity.CreatedAt = time.Now().UTC()
	if err := s.insertRateRule(ctx, "gratuities", rateRule{ID: gratuity.ID, Name: gratuity.Name, Rate: gratuity.Rate, IsActive: gratuity.IsActive, CreatedAt: gratuity.CreatedAt}); err != nil {
		return nil, err
	}
	return &gratuity, nil
}

func (s *Store) SetGratuityActive(ctx context.Context, id string, active bool) (*domain.Gratuity, error) {
	r, err := s.setRateRuleActive(ctx, "gratuities", id, active)
	if err != nil {
		return nil, err
	}
	gratuity := r.gratuity()
	return &gratuity, nil
}
