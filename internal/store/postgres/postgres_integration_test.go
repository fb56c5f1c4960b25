package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"kafe/backend/internal/domain"
	"kafe/backend/internal/store"
)

func openIntegrationStore(t *testing.T) *Store {
	t.Helper()
	databaseURL := os.Getenv("KAFE_TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("set KAFE_TEST_DATABASE_URL to run postgres integration test")
	}

	ctx := context.Background()
	if err := Migrate(ctx, databaseURL); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	s, err := New(ctx, databaseURL)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close()
	})
	return s
}

func seedLatte(t *testing.T, s *Store, stamp int64) (domain.Menu, domain.Ingredient, domain.Ingredient) {
	t.Helper()
	ctx := context.Background()

	milk, err := s.CreateIngredient(ctx, domain.Ingredient{
		ID: fmt.Sprintf("ing-susu-it-%d", stamp), Name: "Susu IT", Unit: "ml",
		Price: decimal.RequireFromString("18"), Start: decimal.NewFromInt(1000),
	})
	if err != nil {
		t.Fatalf("create milk: %v", err)
	}
	coffee, err := s.CreateIngredient(ctx, domain.Ingredient{
		ID: fmt.Sprintf("ing-kopi-it-%d", stamp), Name: "Kopi IT", Unit: "g",
		Price: decimal.RequireFromString("250"), Start: decimal.NewFromInt(500),
	})
	if err != nil {
		t.Fatalf("create coffee: %v", err)
	}
	menu, err := s.CreateMenu(ctx, domain.Menu{
		ID: fmt.Sprintf("menu-latte-it-%d", stamp), Name: "Latte IT", Category: "Coffee", Price: 20000, HargaBakul: 8000,
		Ingredients: []domain.MenuIngredient{
			{IngredientID: milk.ID, Amount: decimal.NewFromInt(200)},
			{IngredientID: coffee.ID, Amount: decimal.NewFromInt(18)},
		},
	})
	if err != nil {
		t.Fatalf("create menu: %v", err)
	}
	if menu.MaxBeli != 5 || menu.Status != domain.MenuStatusAvailable {
		t.Fatalf("expected latte maxBeli 5 Tersedia, got %d %s", menu.MaxBeli, menu.Status)
	}

	t.Cleanup(func() {
		db := s.db
		_, _ = db.ExecContext(ctx, `DELETE FROM completed_order_items WHERE menu_id = $1`, menu.ID)
		_, _ = db.ExecContext(ctx, `DELETE FROM completed_orders WHERE order_id IN (SELECT order_id FROM order_items WHERE menu_id = $1)`, menu.ID)
		_, _ = db.ExecContext(ctx, `DELETE FROM orders WHERE id IN (SELECT order_id FROM order_items WHERE menu_id = $1)`, menu.ID)
		_, _ = db.ExecContext(ctx, `DELETE FROM order_items WHERE menu_id = $1`, menu.ID)
		_, _ = db.ExecContext(ctx, `DELETE FROM menu_ingredients WHERE menu_id = $1`, menu.ID)
		_, _ = db.ExecContext(ctx, `DELETE FROM menus WHERE id = $1`, menu.ID)
		for _, id := range []string{milk.ID, coffee.ID} {
			_, _ = db.ExecContext(ctx, `DELETE FROM stock_movements WHERE ingredient_id = $1`, id)
			_, _ = db.ExecContext(ctx, `DELETE FROM gudang WHERE ingredient_id = $1`, id)
			_, _ = db.ExecContext(ctx, `DELETE FROM ingredients WHERE id = $1`, id)
		}
	})
	return *menu, *milk, *coffee
}

func TestCompleteOrderConsumesIngredients(t *testing.T) {
	s := openIntegrationStore(t)
	ctx := context.Background()
	menu, milk, coffee := seedLatte(t, s, time.Now().UnixNano())

	order, err := s.CreateOrder(ctx, domain.Order{
		TableNumber: "IT-1",
		Total:       40000,
		FinalTotal:  40000,
		Items:       []domain.OrderItem{{MenuID: menu.ID, Quantity: 2, Price: 20000}},
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	result, err := s.CompleteOrder(ctx, store.CompleteOrderInput{OrderID: order.ID, PaymentMethod: "cash"})
	if err != nil {
		t.Fatalf("complete order: %v", err)
	}
	if len(result.Warnings) != 0 {
		t.Fatalf("expected no warnings, got %v", result.Warnings)
	}

	gotMilk, err := s.GetIngredient(ctx, milk.ID)
	if err != nil {
		t.Fatalf("get milk: %v", err)
	}
	if !gotMilk.Stock.Equal(decimal.NewFromInt(600)) || !gotMilk.Used.Equal(decimal.NewFromInt(400)) {
		t.Fatalf("expected milk stock 600 used 400, got %s %s", gotMilk.Stock, gotMilk.Used)
	}
	gotCoffee, err := s.GetIngredient(ctx, coffee.ID)
	if err != nil {
		t.Fatalf("get coffee: %v", err)
	}
	if !gotCoffee.Stock.Equal(decimal.NewFromInt(464)) {
		t.Fatalf("expected coffee stock 464, got %s", gotCoffee.Stock)
	}

	gotMenu, err := s.GetMenu(ctx, menu.ID)
	if err != nil {
		t.Fatalf("get menu: %v", err)
	}
	if gotMenu.MaxBeli != 3 {
		t.Fatalf("expected maxBeli 3 after completion, got %d", gotMenu.MaxBeli)
	}

	history, err := s.GetCompletedOrder(ctx, result.CompletedOrder.ID)
	if err != nil {
		t.Fatalf("get completed order: %v", err)
	}
	if len(history.Items) != 1 || history.Items[0].HargaBakul != 8000 {
		t.Fatalf("unexpected completed items: %+v", history.Items)
	}

	if _, err := s.CompleteOrder(ctx, store.CompleteOrderInput{OrderID: order.ID}); !errors.Is(err, store.ErrOrderCompleted) {
		t.Fatalf("expected ErrOrderCompleted on second completion, got %v", err)
	}
}

func TestConcurrentCompletionsDoNotLoseUpdates(t *testing.T) {
	s := openIntegrationStore(t)
	ctx := context.Background()
	menu, milk, _ := seedLatte(t, s, time.Now().UnixNano())

	const workers = 4
	orderIDs := make([]string, 0, workers)
	for i := 0; i < workers; i++ {
		order, err := s.CreateOrder(ctx, domain.Order{
			TableNumber: fmt.Sprintf("IT-C%d", i),
			Items:       []domain.OrderItem{{MenuID: menu.ID, Quantity: 1, Price: 20000}},
		})
		if err != nil {
			t.Fatalf("create order %d: %v", i, err)
		}
		orderIDs = append(orderIDs, order.ID)
	}

	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for _, id := range orderIDs {
		wg.Add(1)
		go func(orderID string) {
			defer wg.Done()
			for attempt := 0; attempt < 10; attempt++ {
				_, err := s.CompleteOrder(ctx, store.CompleteOrderInput{OrderID: orderID})
				if !errors.Is(err, store.ErrConflict) || attempt == 9 {
					errs <- err
					return
				}
				time.Sleep(20 * time.Millisecond)
			}
		}(id)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("complete order: %v", err)
		}
	}

	gotMilk, err := s.GetIngredient(ctx, milk.ID)
	if err != nil {
		t.Fatalf("get milk: %v", err)
	}
	if !gotMilk.Used.Equal(decimal.NewFromInt(800)) {
		t.Fatalf("expected milk used 800 after %d completions, got %s", workers, gotMilk.Used)
	}
}

func TestFailedCompletionLeavesNoTrace(t *testing.T) {
	s := openIntegrationStore(t)
	ctx := context.Background()
	menu, milk, _ := seedLatte(t, s, time.Now().UnixNano())

	order, err := s.CreateOrder(ctx, domain.Order{
		TableNumber: "IT-F",
		Items: []domain.OrderItem{
			{MenuID: menu.ID, Quantity: 2, Price: 20000},
			{MenuID: "menu-missing-it", Quantity: 1, Price: 15000},
		},
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	t.Cleanup(func() {
		_, _ = s.db.ExecContext(ctx, `DELETE FROM order_items WHERE order_id = $1`, order.ID)
		_, _ = s.db.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, order.ID)
	})
	from := time.Now().Add(-time.Minute)

	if _, err := s.CompleteOrder(ctx, store.CompleteOrderInput{OrderID: order.ID}); !errors.Is(err, store.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}

	gotMilk, err := s.GetIngredient(ctx, milk.ID)
	if err != nil {
		t.Fatalf("get milk: %v", err)
	}
	if !gotMilk.Used.IsZero() || !gotMilk.Stock.Equal(decimal.NewFromInt(1000)) {
		t.Fatalf("expected milk untouched, got used=%s stock=%s", gotMilk.Used, gotMilk.Stock)
	}
	gotMenu, err := s.GetMenu(ctx, menu.ID)
	if err != nil {
		t.Fatalf("get menu: %v", err)
	}
	if gotMenu.MaxBeli != 5 {
		t.Fatalf("expected maxBeli 5, got %d", gotMenu.MaxBeli)
	}
	stored, err := s.GetOrder(ctx, order.ID)
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if stored.Status != domain.OrderStatusOpen {
		t.Fatalf("expected order to stay open, got %s", stored.Status)
	}
	history, err := s.ListCompletedOrders(ctx, from, time.Now().Add(time.Minute))
	if err != nil {
		t.Fatalf("list completed: %v", err)
	}
	for _, completed := range history {
		if completed.OrderID == order.ID {
			t.Fatalf("failed completion left a completed order %s", completed.ID)
		}
	}
	movements, err := s.ListStockMovements(ctx, milk.ID, 10)
	if err != nil {
		t.Fatalf("list movements: %v", err)
	}
	for _, movement := range movements {
		if movement.Kind == domain.MovementConsumption {
			t.Fatalf("failed completion journaled %+v", movement)
		}
	}
}
