package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"kafe/backend/internal/domain"
	"kafe/backend/internal/ledger"
	"kafe/backend/internal/store"
)

// latteStore holds the minimal catalog: Milk 1000 and a Latte using 200.
func latteStore(t *testing.T) (*Store, domain.Ingredient, domain.Menu) {
	t.Helper()
	ctx := context.Background()
	s := New()

	milk, err := s.CreateIngredient(ctx, domain.Ingredient{Name: "Milk", Type: domain.IngredientRaw, Unit: "ml", Price: dec("20"), Start: dec("1000"), StockMin: dec("300")})
	if err != nil {
		t.Fatalf("create milk: %v", err)
	}
	latte, err := s.CreateMenu(ctx, domain.Menu{
		Name: "Latte", Category: "Coffee", Price: 20000, HargaBakul: 8000,
		Ingredients: []domain.MenuIngredient{{IngredientID: milk.ID, Amount: dec("200")}},
	})
	if err != nil {
		t.Fatalf("create latte: %v", err)
	}
	return s, *milk, *latte
}

func openOrder(t *testing.T, s *Store, items ...domain.OrderItem) *domain.Order {
	t.Helper()
	order, err := s.CreateOrder(context.Background(), domain.Order{TableNumber: "1", PaymentMethod: "cash", Total: 60000, FinalTotal: 60000, Items: items})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	return order
}

func TestCompleteOrderLatteScenario(t *testing.T) {
	ctx := context.Background()
	s, milk, latte := latteStore(t)
	if latte.MaxBeli != 5 || latte.Status != domain.MenuStatusAvailable {
		t.Fatalf("expected latte maxBeli 5 Tersedia, got %d %s", latte.MaxBeli, latte.Status)
	}

	order := openOrder(t, s, domain.OrderItem{MenuID: latte.ID, Quantity: 3, Price: 20000})
	result, err := s.CompleteOrder(ctx, store.CompleteOrderInput{OrderID: order.ID})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}

	got, _ := s.GetIngredient(ctx, milk.ID)
	if !got.Used.Equal(dec("600")) || !got.Stock.Equal(dec("400")) {
		t.Fatalf("expected used 600 stock 400, got used=%s stock=%s", got.Used, got.Stock)
	}
	if err := ledger.Check(*got); err != nil {
		t.Fatalf("ledger invariant: %v", err)
	}

	menu, _ := s.GetMenu(ctx, latte.ID)
	if menu.MaxBeli != 2 {
		t.Fatalf("expected latte maxBeli 2, got %d", menu.MaxBeli)
	}
	if len(result.Availability) != 1 || result.Availability[0].MaxBeli != 2 {
		t.Fatalf("unexpected availability %+v", result.Availability)
	}
	if result.CompletedOrder.Total != 60000 || result.CompletedOrder.OrderID != order.ID {
		t.Fatalf("unexpected completed order %+v", result.CompletedOrder)
	}
	if len(result.Consumed) != 1 || !result.Consumed[0].Quantity.Equal(dec("600")) {
		t.Fatalf("unexpected consumption %+v", result.Consumed)
	}

	stored, _ := s.GetOrder(ctx, order.ID)
	if stored.Status != domain.OrderStatusCompleted || stored.CompletedAt == nil {
		t.Fatalf("expected order Selesai, got %s", stored.Status)
	}

	movements, _ := s.ListStockMovements(ctx, milk.ID, 10)
	if len(movements) != 1 || movements[0].Kind != domain.MovementConsumption || movements[0].RefID != order.ID {
		t.Fatalf("unexpected movements %+v", movements)
	}
}

func TestCompleteOrderTwiceHasNoSideEffects(t *testing.T) {
	ctx := context.Background()
	s, milk, latte := latteStore(t)
	order := openOrder(t, s, domain.OrderItem{MenuID: latte.ID, Quantity: 1, Price: 20000})

	if _, err := s.CompleteOrder(ctx, store.CompleteOrderInput{OrderID: order.ID}); err != nil {
		t.Fatalf("first completion: %v", err)
	}
	before, _ := s.GetIngredient(ctx, milk.ID)

	_, err := s.CompleteOrder(ctx, store.CompleteOrderInput{OrderID: order.ID})
	if !errors.Is(err, store.ErrOrderCompleted) {
		t.Fatalf("expected order completed error, got %v", err)
	}

	after, _ := s.GetIngredient(ctx, milk.ID)
	if !after.Used.Equal(before.Used) {
		t.Fatalf("second completion changed stock: %s -> %s", before.Used, after.Used)
	}
	history, _ := s.ListCompletedOrders(ctx, time.Time{}, time.Now().Add(time.Hour))
	if len(history) != 1 {
		t.Fatalf("expected one completed order, got %d", len(history))
	}

	if _, err := s.CompleteOrder(ctx, store.CompleteOrderInput{OrderID: "ord-missing"}); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestFailedCompletionLeavesStoreUntouched(t *testing.T) {
	ctx := context.Background()
	s, milk, latte := latteStore(t)

	order := openOrder(t, s,
		domain.OrderItem{MenuID: latte.ID, Quantity: 2, Price: 20000},
		domain.OrderItem{MenuID: "menu-missing", Quantity: 1, Price: 20000},
	)
	if _, err := s.CompleteOrder(ctx, store.CompleteOrderInput{OrderID: order.ID}); !errors.Is(err, store.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}

	got, _ := s.GetIngredient(ctx, milk.ID)
	if !got.Used.IsZero() || !got.Stock.Equal(dec("1000")) {
		t.Fatalf("expected milk untouched, got used=%s stock=%s", got.Used, got.Stock)
	}
	menu, _ := s.GetMenu(ctx, latte.ID)
	if menu.MaxBeli != 5 {
		t.Fatalf("expected latte maxBeli 5, got %d", menu.MaxBeli)
	}
	stored, _ := s.GetOrder(ctx, order.ID)
	if stored.Status != domain.OrderStatusOpen || stored.CompletedAt != nil {
		t.Fatalf("expected order to stay open, got %s", stored.Status)
	}
	history, _ := s.ListCompletedOrders(ctx, time.Time{}, time.Now().Add(time.Hour))
	if len(history) != 0 {
		t.Fatalf("expected no completed orders, got %d", len(history))
	}
	movements, _ := s.ListStockMovements(ctx, milk.ID, 10)
	for _, movement := range movements {
		if movement.Kind == domain.MovementConsumption {
			t.Fatalf("failed completion journaled %+v", movement)
		}
	}
}

func TestCompleteOrderAllowsNegativeStockWithWarning(t *testing.T) {
	ctx := context.Background()
	s, milk, latte := latteStore(t)
	order := openOrder(t, s, domain.OrderItem{MenuID: latte.ID, Quantity: 6, Price: 20000})

	result, err := s.CompleteOrder(ctx, store.CompleteOrderInput{OrderID: order.ID})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if len(result.Warnings) != 1 {
		t.Fatalf("expected one warning, got %v", result.Warnings)
	}
	got, _ := s.GetIngredient(ctx, milk.ID)
	if !got.Stock.Equal(dec("-200")) {
		t.Fatalf("expected stock -200, got %s", got.Stock)
	}
	menu, _ := s.GetMenu(ctx, latte.ID)
	if menu.MaxBeli != 0 || menu.Status != domain.MenuStatusSoldOut {
		t.Fatalf("expected latte Habis, got %d %s", menu.MaxBeli, menu.Status)
	}
}

func TestCompleteBundleOrderExpandsRows(t *testing.T) {
	ctx := context.Background()
	s, milk, latte := latteStore(t)
	choco, _ := s.CreateIngredient(ctx, domain.Ingredient{Name: "Cokelat", Type: domain.IngredientRaw, Unit: "gram", Start: dec("500")})
	brownie, err := s.CreateMenu(ctx, domain.Menu{
		Name: "Brownie", Category: "Pastry", Price: 15000, HargaBakul: 6000,
		Ingredients: []domain.MenuIngredient{{IngredientID: choco.ID, Amount: dec("50")}},
	})
	if err != nil {
		t.Fatalf("create brownie: %v", err)
	}
	bundle, err := s.CreateBundle(ctx, domain.Bundle{
		Name: "Paket Hemat", BundlePrice: 30000,
		Menus: []domain.BundleMenu{{MenuID: latte.ID, Quantity: 1}, {MenuID: brownie.ID, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("create bundle: %v", err)
	}
	if bundle.MaxBeli != 5 || bundle.HargaBakul != 14000 {
		t.Fatalf("unexpected bundle derived values %+v", bundle)
	}

	order := openOrder(t, s, domain.OrderItem{BundleID: bundle.ID, Quantity: 3, Price: 30000})
	result, err := s.CompleteOrder(ctx, store.CompleteOrderInput{OrderID: order.ID, PaymentMethod: "qris"})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}

	items := result.CompletedOrder.Items
	if len(items) != 2 {
		t.Fatalf("expected 2 bundle rows, got %d", len(items))
	}
	for _, item := range items {
		if item.BundleID != bundle.ID || item.Quantity != 3 {
			t.Fatalf("unexpected bundle row %+v", item)
		}
	}
	if result.CompletedOrder.PaymentMethod != "qris" {
		t.Fatalf("expected payment override, got %s", result.CompletedOrder.PaymentMethod)
	}

	gotMilk, _ := s.GetIngredient(ctx, milk.ID)
	gotChoco, _ := s.GetIngredient(ctx, choco.ID)
	if !gotMilk.Stock.Equal(dec("400")) || !gotChoco.Stock.Equal(dec("350")) {
		t.Fatalf("unexpected stock milk=%s choco=%s", gotMilk.Stock, gotChoco.Stock)
	}
}

func TestRestockCascadesAvailabilityAndMirrorsGudang(t *testing.T) {
	ctx := context.Background()
	s, milk, latte := latteStore(t)

	change, err := s.UpdateIngredient(ctx, milk.ID, domain.IngredientUpdateRequest{Used: ptr(dec("1000"))})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if len(change.Availability) != 1 || change.Availability[0].Status != domain.MenuStatusSoldOut {
		t.Fatalf("expected latte Habis after edit, got %+v", change.Availability)
	}

	change, err = s.RestockIngredient(ctx, milk.ID, dec("1000"), dec("15000"), "supplier")
	if err != nil {
		t.Fatalf("restock: %v", err)
	}
	if !change.Ingredient.Price.Equal(dec("15")) || !change.Ingredient.Stock.Equal(dec("1000")) {
		t.Fatalf("unexpected restocked ingredient %+v", change.Ingredient)
	}
	if change.Gudang == nil || !change.Gudang.StockIn.Equal(dec("1000")) {
		t.Fatalf("expected gudang mirror, got %+v", change.Gudang)
	}
	menu, _ := s.GetMenu(ctx, latte.ID)
	if menu.Status != domain.MenuStatusAvailable || menu.MaxBeli != 5 {
		t.Fatalf("expected latte restored, got %d %s", menu.MaxBeli, menu.Status)
	}

	if _, err := s.RestockIngredient(ctx, milk.ID, decimal.Zero, dec("100"), ""); !errors.Is(err, store.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if _, err := s.RestockIngredient(ctx, "ing-missing", dec("1"), dec("1"), ""); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestProduceSemiFinished(t *testing.T) {
	ctx := context.Background()
	s := New()
	sugar, _ := s.CreateIngredient(ctx, domain.Ingredient{Name: "Gula", Type: domain.IngredientRaw, Unit: "gram", Start: dec("100")})
	water, _ := s.CreateIngredient(ctx, domain.Ingredient{Name: "Air", Type: domain.IngredientRaw, Unit: "ml", Start: dec("1000")})
	syrup, err := s.CreateIngredient(ctx, domain.Ingredient{
		Name: "Sirup", Type: domain.IngredientSemiFinished, Unit: "ml",
		Compositions: []domain.IngredientComposition{
			{RawIngredientID: sugar.ID, Amount: dec("0.5")},
			{RawIngredientID: water.ID, Amount: dec("0.5")},
		},
	})
	if err != nil {
		t.Fatalf("create syrup: %v", err)
	}

	change, err := s.ProduceSemiFinished(ctx, syrup.ID, dec("100"), "batch")
	if err != nil {
		t.Fatalf("produce: %v", err)
	}
	if !change.Ingredient.Stock.Equal(dec("100")) {
		t.Fatalf("expected syrup stock 100, got %s", change.Ingredient.Stock)
	}
	gotSugar, _ := s.GetIngredient(ctx, sugar.ID)
	if !gotSugar.Stock.Equal(dec("50")) {
		t.Fatalf("expected sugar 50, got %s", gotSugar.Stock)
	}

	if _, err := s.ProduceSemiFinished(ctx, syrup.ID, dec("200"), "too much"); !errors.Is(err, store.ErrInsufficientStock) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}
	gotSugar, _ = s.GetIngredient(ctx, sugar.ID)
	if !gotSugar.Stock.Equal(dec("50")) {
		t.Fatalf("rejected batch must not consume sugar, got %s", gotSugar.Stock)
	}

	if _, err := s.ProduceSemiFinished(ctx, sugar.ID, dec("1"), ""); !errors.Is(err, store.ErrInvalidInput) {
		t.Fatalf("expected raw production to be rejected, got %v", err)
	}
}

func TestCompositionValidation(t *testing.T) {
	ctx := context.Background()
	s := New()
	sugar, _ := s.CreateIngredient(ctx, domain.Ingredient{Name: "Gula", Type: domain.IngredientRaw})
	syrup, _ := s.CreateIngredient(ctx, domain.Ingredient{Name: "Sirup", Type: domain.IngredientSemiFinished})

	cases := []domain.Ingredient{
		{Name: "Raw with parts", Type: domain.IngredientRaw, Compositions: []domain.IngredientComposition{{RawIngredientID: sugar.ID, Amount: dec("1")}}},
		{Name: "Semi from semi", Type: domain.IngredientSemiFinished, Compositions: []domain.IngredientComposition{{RawIngredientID: syrup.ID, Amount: dec("1")}}},
		{Name: "Unknown part", Type: domain.IngredientSemiFinished, Compositions: []domain.IngredientComposition{{RawIngredientID: "ing-ghost", Amount: dec("1")}}},
		{Name: "Zero part", Type: domain.IngredientSemiFinished, Compositions: []domain.IngredientComposition{{RawIngredientID: sugar.ID, Amount: decimal.Zero}}},
	}
	for _, tc := range cases {
		if _, err := s.CreateIngredient(ctx, tc); !errors.Is(err, store.ErrInvalidInput) {
			t.Fatalf("%s: expected invalid input, got %v", tc.Name, err)
		}
	}

	self := []domain.IngredientComposition{{RawIngredientID: syrup.ID, Amount: dec("1")}}
	if _, err := s.UpdateIngredient(ctx, syrup.ID, domain.IngredientUpdateRequest{Compositions: &self}); !errors.Is(err, store.ErrInvalidInput) {
		t.Fatalf("expected self reference to be rejected, got %v", err)
	}

	replacement := []domain.IngredientComposition{{RawIngredientID: sugar.ID, Amount: dec("2")}}
	change, err := s.UpdateIngredient(ctx, syrup.ID, domain.IngredientUpdateRequest{Compositions: &replacement})
	if err != nil {
		t.Fatalf("replace composition: %v", err)
	}
	if len(change.Ingredient.Compositions) != 1 || !change.Ingredient.Compositions[0].Amount.Equal(dec("2")) {
		t.Fatalf("expected composition replaced, got %+v", change.Ingredient.Compositions)
	}
}

func TestListCompletedOrdersWindow(t *testing.T) {
	ctx := context.Background()
	s, _, latte := latteStore(t)
	day := time.Date(2024, 3, 15, 2, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		order := openOrder(t, s, domain.OrderItem{MenuID: latte.ID, Quantity: 1, Price: 20000})
		at := day.AddDate(0, 0, i)
		if _, err := s.CompleteOrder(ctx, store.CompleteOrderInput{OrderID: order.ID, CompletedAt: at}); err != nil {
			t.Fatalf("complete %d: %v", i, err)
		}
	}

	got, err := s.ListCompletedOrders(ctx, day, day.AddDate(0, 0, 2))
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 || !got[0].CreatedAt.Equal(day) {
		t.Fatalf("expected 2 orders starting at window start, got %d", len(got))
	}
}

func TestSeededStoreIsConsistent(t *testing.T) {
	ctx := context.Background()
	s := NewSeeded()

	ingredients, _ := s.ListIngredients(ctx)
	for _, ing := range ingredients {
		if err := ledger.Check(ing); err != nil {
			t.Fatalf("seeded ledger broken: %v", err)
		}
	}
	latte, err := s.GetMenu(ctx, "menu-latte")
	if err != nil {
		t.Fatalf("get latte: %v", err)
	}
	if latte.MaxBeli != 5 {
		t.Fatalf("expected seeded latte maxBeli 5, got %d", latte.MaxBeli)
	}
	users, _ := s.ListUsers(ctx)
	if len(users) != 2 {
		t.Fatalf("expected 2 seeded users, got %d", len(users))
	}
}

func ptr[T any](v T) *T {
	return &v
}
