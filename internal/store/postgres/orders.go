package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"kafe/backend/internal/completion"
	"kafe/backend/internal/domain"
	"kafe/backend/internal/store"
	"kafe/backend/internal/xid"
)

const orderColumns = `id, table_number, customer_name, status, payment_method, payment_id, discount_id, total,
	discount_amount, tax_amount, gratuity_amount, final_total, created_at, completed_at`

func (s *Store) CreateOrder(ctx context.Context, order domain.Order) (*domain.Order, error) {
	if len(order.Items) == 0 {
		return nil, fmt.Errorf("%w: order needs at least one item", store.ErrInvalidInput)
	}
	if order.ID == "" {
		order.ID = xid.New("ord")
	}
	for i := range order.Items {
		if order.Items[i].ID == "" {
			order.Items[i].ID = xid.New("oi")
		}
	}
	order.Status = domain.OrderStatusOpen
	order.CompletedAt = nil
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (`+orderColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
	`, order.ID, order.TableNumber, order.CustomerName, order.Status, order.PaymentMethod, order.PaymentID, order.DiscountID,
		order.Total, order.DiscountAmount, order.TaxAmount, order.GratuityAmount, order.FinalTotal, order.CreatedAt, nullTime(order.CompletedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: order %s already exists", store.ErrInvalidInput, order.ID)
		}
		return nil, err
	}
	for i, item := range order.Items {
		modifiers, err := json.Marshal(nonNilModifiers(item.Modifiers))
		if err != nil {
			return nil, err
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO order_items (id, order_id, position, menu_id, bundle_id, quantity, price, discount_amount, modifiers, note)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		`, item.ID, order.ID, i, item.MenuID, item.BundleID, item.Quantity, item.Price, item.DiscountAmount, string(modifiers), item.Note); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &order, nil
}

func scanOrder(row rowScanner) (domain.Order, error) {
	var order domain.Order
	var completedAt sql.NullTime
	err := row.Scan(&order.ID, &order.TableNumber, &order.CustomerName, &order.Status, &order.PaymentMethod, &order.PaymentID,
		&order.DiscountID, &order.Total, &order.DiscountAmount, &order.TaxAmount, &order.GratuityAmount, &order.FinalTotal,
		&order.CreatedAt, &completedAt)
	if err != nil {
		return order, err
	}
	order.CreatedAt = order.CreatedAt.UTC()
	if completedAt.Valid {
		at := completedAt.Time.UTC()
		order.CompletedAt = &at
	}
	return order, nil
}

func loadOrderItems(ctx context.Context, q querier, orderIDs []string) (map[string][]domain.OrderItem, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, order_id, menu_id, bundle_id, quantity, price, discount_amount, modifiers, note
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY order_id, position
	`, orderIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string][]domain.OrderItem, len(orderIDs))
	for rows.Next() {
		var orderID string
		var modifiers []byte
		var item domain.OrderItem
		if err := rows.Scan(&item.ID, &orderID, &item.MenuID, &item.BundleID, &item.Quantity, &item.Price, &item.DiscountAmount, &modifiers, &item.Note); err != nil {
			return nil, err
		}
		if err := decodeModifiers(modifiers, &item.Modifiers); err != nil {
			return nil, err
		}
		result[orderID] = append(result[orderID], item)
	}
	return result, rows.Err()
}

func getOrder(ctx context.Context, q querier, id string, lock bool) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	if lock {
		query += ` FOR UPDATE`
	}
	order, err := scanOrder(q.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, notFoundOr(err)
	}
	items, err := loadOrderItems(ctx, q, []string{id})
	if err != nil {
		return nil, err
	}
	order.Items = items[id]
	return &order, nil
}

func (s *Store) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	return getOrder(ctx, s.db, id, false)
}

func (s *Store) ListOrders(ctx context.Context, status string, limit int) ([]domain.Order, error) {
	if limit < 1 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE ($1 = '' OR status = $1)
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, status, limit)
	if err != nil {
		return nil, err
	}
	orders := make([]domain.Order, 0, limit)
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			_ = rows.Close()
			return nil, err
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	_ = rows.Close()
	if len(orders) == 0 {
		return orders, nil
	}

	ids := make([]string, 0, len(orders))
	for _, order := range orders {
		ids = append(ids, order.ID)
	}
	items, err := loadOrderItems(ctx, s.db, ids)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].Items = items[orders[i].ID]
	}
	return orders, nil
}

// CompleteOrder locks the order row, then every consumed ingredient in id
// order, and applies consumption as atomic increments so concurrent
// completions never lose an update. A serialization failure surfaces as
// store.ErrConflict; the transaction was rolled back and may be retried.
func (s *Store) CompleteOrder(ctx context.Context, input store.CompleteOrderInput) (*domain.CompletionResult, error) {
	result, err := s.completeOrder(ctx, input)
	if isSerializationFailure(err) {
		return nil, fmt.Errorf("%w: order %s", store.ErrConflict, input.OrderID)
	}
	return result, err
}

func (s *Store) completeOrder(ctx context.Context, input store.CompleteOrderInput) (*domain.CompletionResult, error) {
	tx, err := s.beginSerializable(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	order, err := getOrder(ctx, tx, input.OrderID, true)
	if err != nil {
		return nil, err
	}
	catalog, err := orderCatalog(ctx, tx, *order)
	if err != nil {
		return nil, err
	}
	plan, err := completion.Build(*order, catalog)
	if err != nil {
		return nil, err
	}

	touched := plan.Consumption.IDs()
	locked, err := loadIngredients(ctx, tx, touched, true)
	if err != nil {
		return nil, err
	}
	for _, id := range touched {
		if _, ok := locked[id]; !ok {
			return nil, fmt.Errorf("%w: ingredient %s is missing", store.ErrInvalidInput, id)
		}
	}

	if input.CompletedAt.IsZero() {
		input.CompletedAt = time.Now().UTC()
	}
	now := input.CompletedAt
	snapshot := completion.Snapshot(*order, plan, input)

	consumed := make([]domain.IngredientUsage, 0, len(touched))
	warnings := make([]string, 0)
	for _, id := range touched {
		amount := plan.Consumption[id]
		if !amount.IsPositive() {
			return nil, fmt.Errorf("%w: consumption of %s must be positive", store.ErrInvalidInput, id)
		}
		ing := locked[id]
		if err := tx.QueryRowContext(ctx, `
			UPDATE ingredients
			SET used = used + $2,
				stock = start_stock + stock_in - (used + $2) - wasted,
				updated_at = $3
			WHERE id = $1
			RETURNING used, stock
		`, id, amount, now).Scan(&ing.Used, &ing.Stock); err != nil {
			return nil, err
		}
		if err := insertMovement(ctx, tx, id, domain.MovementConsumption, amount, order.ID, "order completion", now); err != nil {
			return nil, err
		}
		if ing.Stock.IsNegative() {
			warnings = append(warnings, completion.NegativeStockWarning(ing))
		}
		consumed = append(consumed, domain.IngredientUsage{
			IngredientID: id,
			Name:         ing.Name,
			Unit:         ing.Unit,
			Quantity:     amount,
			StockAfter:   ing.Stock,
		})
	}

	availability, err := recomputeMenus(ctx, tx, touched, now)
	if err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE orders
		SET status = $2, payment_method = $3, payment_id = $4, completed_at = $5
		WHERE id = $1
	`, order.ID, domain.OrderStatusCompleted, snapshot.PaymentMethod, snapshot.PaymentID, now); err != nil {
		return nil, err
	}
	if err := insertCompletedOrder(ctx, tx, snapshot); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &domain.CompletionResult{
		CompletedOrder: snapshot,
		Consumed:       consumed,
		Availability:   availability,
		Warnings:       warnings,
	}, nil
}

// orderCatalog loads exactly the menus, bundles and modifiers order refers to.
func orderCatalog(ctx context.Context, q querier, order domain.Order) (completion.Catalog, error) {
	menuIDs := make([]string, 0, len(order.Items))
	bundleIDs := make([]string, 0, 2)
	modifierIDs := make([]string, 0, 4)
	for _, item := range order.Items {
		if item.BundleID != "" {
			bundleIDs = append(bundleIDs, item.BundleID)
		} else {
			menuIDs = append(menuIDs, item.MenuID)
		}
		for _, m := range item.Modifiers {
			modifierIDs = append(modifierIDs, m.ModifierID)
		}
	}

	catalog := completion.Catalog{
		Bundles:   map[string]domain.Bundle{},
		Modifiers: map[string]domain.Modifier{},
	}
	if ids := uniqueIDs(bundleIDs); len(ids) > 0 {
		bundles, err := loadBundles(ctx, q, `WHERE id = ANY($1)`, ids)
		if err != nil {
			return catalog, err
		}
		for _, b := range bundles {
			catalog.Bundles[b.ID] = b
			for _, bm := range b.Menus {
				menuIDs = append(menuIDs, bm.MenuID)
			}
		}
	}
	menus, err := menusByID(ctx, q, menuIDs)
	if err != nil {
		return catalog, err
	}
	catalog.Menus = menus

	if ids := uniqueIDs(modifierIDs); len(ids) > 0 {
		modifiers, err := loadModifiers(ctx, q, `WHERE id = ANY($1)`, ids)
		if err != nil {
			return catalog, err
		}
		for _, m := range modifiers {
			catalog.Modifiers[m.ID] = m
		}
	}
	return catalog, nil
}

func insertCompletedOrder(ctx context.Context, q querier, co domain.CompletedOrder) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO completed_orders (
			id, order_id, table_number, customer_name, total, discount_id, discount_amount, tax_amount,
			gratuity_amount, final_total, payment_method, payment_id, created_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
	`, co.ID, co.OrderID, co.TableNumber, co.CustomerName, co.Total, co.DiscountID, co.DiscountAmount, co.TaxAmount,
		co.GratuityAmount, co.FinalTotal, co.PaymentMethod, co.PaymentID, co.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrOrderCompleted
		}
		return err
	}

	for i, item := range co.Items {
		modifiers, err := json.Marshal(nonNilModifiers(item.Modifiers))
		if err != nil {
			return err
		}
		if _, err := q.ExecContext(ctx, `
			INSERT INTO completed_order_items (
				id, completed_order_id, position, menu_id, menu_name, category, quantity, price, harga_bakul,
				discount_amount, note, bundle_id, bundle_name, bundle_price, bundle_menu_qty, modifiers
			)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
		`, item.ID, co.ID, i, item.MenuID, item.MenuName, item.Category, item.Quantity, item.Price, item.HargaBakul,
			item.DiscountAmount, item.Note, item.BundleID, item.BundleName, item.BundlePrice, item.BundleMenuQty, string(modifiers)); err != nil {
			return err
		}
	}
	return nil
}

const completedColumns = `id, order_id, table_number, customer_name, total, discount_id, discount_amount, tax_amount,
	gratuity_amount, final_total, payment_method, payment_id, created_at`

func loadCompleted(ctx context.Context, q querier, where string, args ...any) ([]domain.CompletedOrder, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+completedColumns+` FROM completed_orders `+where+` ORDER BY created_at ASC, id ASC`, args...)
	if err != nil {
		return nil, err
	}
	result := make([]domain.CompletedOrder, 0, 64)
	for rows.Next() {
		var co domain.CompletedOrder
		if err := rows.Scan(&co.ID, &co.OrderID, &co.TableNumber, &co.CustomerName, &co.Total, &co.DiscountID, &co.DiscountAmount,
			&co.TaxAmount, &co.GratuityAmount, &co.FinalTotal, &co.PaymentMethod, &co.PaymentID, &co.CreatedAt); err != nil {
			_ = rows.Close()
			return nil, err
		}
		co.CreatedAt = co.CreatedAt.UTC()
		result = append(result, co)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	_ = rows.Close()
	if len(result) == 0 {
		return result, nil
	}

	ids := make([]string, 0, len(result))
	for _, co := range result {
		ids = append(ids, co.ID)
	}
	itemRows, err := q.QueryContext(ctx, `
		SELECT id, completed_order_id, menu_id, menu_name, category, quantity, price, harga_bakul, discount_amount,
			note, bundle_id, bundle_name, bundle_price, bundle_menu_qty, modifiers
		FROM completed_order_items
		WHERE completed_order_id = ANY($1)
		ORDER BY completed_order_id, position
	`, ids)
	if err != nil {
		return nil, err
	}
	defer itemRows.Close()

	items := make(map[string][]domain.CompletedOrderItem, len(result))
	for itemRows.Next() {
		var coID string
		var modifiers []byte
		var item domain.CompletedOrderItem
		if err := itemRows.Scan(&item.ID, &coID, &item.MenuID, &item.MenuName, &item.Category, &item.Quantity, &item.Price,
			&item.HargaBakul, &item.DiscountAmount, &item.Note, &item.BundleID, &item.BundleName, &item.BundlePrice,
			&item.BundleMenuQty, &modifiers); err != nil {
			return nil, err
		}
		if err := decodeModifiers(modifiers, &item.Modifiers); err != nil {
			return nil, err
		}
		items[coID] = append(items[coID], item)
	}
	if err := itemRows.Err(); err != nil {
		return nil, err
	}
	for i := range result {
		result[i].Items = items[result[i].ID]
	}
	return result, nil
}

func (s *Store) GetCompletedOrder(ctx context.Context, id string) (*domain.CompletedOrder, error) {
	result, err := loadCompleted(ctx, s.db, `WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}
	if len(result) == 0 {
		return nil, store.ErrNotFound
	}
	return &result[0], nil
}

func (s *Store) ListCompletedOrders(ctx context.Context, from time.Time, to time.Time) ([]domain.CompletedOrder, error) {
	return loadCompleted(ctx, s.db, `WHERE created_at >= $1 AND created_at < $2`, from, to)
}

func nonNilModifiers(list []domain.OrderItemModifier) []domain.OrderItemModifier {
	if list == nil {
		return []domain.OrderItemModifier{}
	}
	return list
}

func decodeModifiers(raw []byte, dest *[]domain.OrderItemModifier) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return err
	}
	if len(*dest) == 0 {
		*dest = nil
	}
	return nil
}
