package completion

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"kafe/backend/internal/domain"
	"kafe/backend/internal/store"
)

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func catalog() Catalog {
	latte := domain.Menu{
		ID: "menu-latte", Name: "Latte", Category: "Coffee", Price: 20000, HargaBakul: 8000,
		Ingredients: []domain.MenuIngredient{{IngredientID: "milk", Amount: d("200")}, {IngredientID: "coffee", Amount: d("18")}},
	}
	brownie := domain.Menu{
		ID: "menu-brownie", Name: "Brownie", Category: "Pastry", Price: 15000, HargaBakul: 6000,
		Ingredients: []domain.MenuIngredient{{IngredientID: "choco", Amount: d("50")}},
	}
	return Catalog{
		Menus: map[string]domain.Menu{latte.ID: latte, brownie.ID: brownie},
		Bundles: map[string]domain.Bundle{"bundle-hemat": {
			ID: "bundle-hemat", Name: "Paket Hemat", BundlePrice: 30000,
			Menus: []domain.BundleMenu{{MenuID: "menu-latte", Quantity: 1}, {MenuID: "menu-brownie", Quantity: 2}},
		}},
		Modifiers: map[string]domain.Modifier{"mod-shot": {
			ID: "mod-shot", Name: "Extra Shot", Price: 5000,
			Ingredients: []domain.ModifierIngredient{{IngredientID: "coffee", Amount: d("18")}},
		}},
	}
}

func TestBuildAggregatesConsumptionPerIngredient(t *testing.T) {
	order := domain.Order{
		ID:     "ord-1",
		Status: domain.OrderStatusOpen,
		Items: []domain.OrderItem{
			{ID: "oi-1", MenuID: "menu-latte", Quantity: 3, Price: 25000,
				Modifiers: []domain.OrderItemModifier{{ModifierID: "mod-shot", Name: "Extra Shot", Price: 5000}}},
			{ID: "oi-2", BundleID: "bundle-hemat", Quantity: 2, Price: 30000, DiscountAmount: 3000},
		},
	}

	plan, err := Build(order, catalog())
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	// latte 3 + bundle latte 1*2
	if !plan.Consumption["milk"].Equal(d("1000")) {
		t.Fatalf("expected milk 1000, got %s", plan.Consumption["milk"])
	}
	// latte 3*18 + shot 3*18 + bundle 2*18
	if !plan.Consumption["coffee"].Equal(d("144")) {
		t.Fatalf("expected coffee 144, got %s", plan.Consumption["coffee"])
	}
	// brownie 2 per bundle * 2 bundles * 50
	if !plan.Consumption["choco"].Equal(d("200")) {
		t.Fatalf("expected choco 200, got %s", plan.Consumption["choco"])
	}

	if len(plan.Items) != 3 {
		t.Fatalf("expected 3 completed rows, got %d", len(plan.Items))
	}
	first, second := plan.Items[1], plan.Items[2]
	if first.BundleID != "bundle-hemat" || second.BundleID != "bundle-hemat" {
		t.Fatalf("expected bundle rows to share bundle id")
	}
	if first.Quantity != 2 || second.Quantity != 2 || second.BundleMenuQty != 2 {
		t.Fatalf("unexpected bundle rows %+v %+v", first, second)
	}
	if first.DiscountAmount != 3000 || second.DiscountAmount != 0 {
		t.Fatalf("expected discount on the first bundle row only")
	}
	if plan.Items[0].HargaBakul != 8000 || len(plan.Items[0].Modifiers) != 1 {
		t.Fatalf("unexpected menu row %+v", plan.Items[0])
	}
}

func TestBuildRejectsCompletedOrder(t *testing.T) {
	order := domain.Order{ID: "ord-1", Status: domain.OrderStatusCompleted, Items: []domain.OrderItem{{MenuID: "menu-latte", Quantity: 1}}}
	if _, err := Build(order, catalog()); !errors.Is(err, store.ErrOrderCompleted) {
		t.Fatalf("expected order completed error, got %v", err)
	}
}

func TestBuildRejectsBrokenOrders(t *testing.T) {
	cases := []domain.Order{
		{ID: "empty", Status: domain.OrderStatusOpen},
		{ID: "zero", Status: domain.OrderStatusOpen, Items: []domain.OrderItem{{MenuID: "menu-latte", Quantity: 0}}},
		{ID: "ghost", Status: domain.OrderStatusOpen, Items: []domain.OrderItem{{MenuID: "menu-ghost", Quantity: 1}}},
		{ID: "ghost-bundle", Status: domain.OrderStatusOpen, Items: []domain.OrderItem{{BundleID: "bundle-ghost", Quantity: 1}}},
	}
	for _, order := range cases {
		if _, err := Build(order, catalog()); !errors.Is(err, store.ErrInvalidInput) {
			t.Fatalf("%s: expected invalid input, got %v", order.ID, err)
		}
	}
}

func TestSnapshotCopiesTotalsAndPaymentOverride(t *testing.T) {
	order := domain.Order{
		ID: "ord-9", Status: domain.OrderStatusOpen, TableNumber: "7", PaymentMethod: "cash",
		Total: 60000, DiscountID: "disc-1", DiscountAmount: 6000, TaxAmount: 5400, GratuityAmount: 0, FinalTotal: 59400,
		Items: []domain.OrderItem{{MenuID: "menu-latte", Quantity: 3, Price: 20000}},
	}
	plan, err := Build(order, catalog())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	completedAt := time.Date(2024, 3, 15, 3, 0, 0, 0, time.UTC)

	snapshot := Snapshot(order, plan, store.CompleteOrderInput{OrderID: order.ID, PaymentMethod: "qris", PaymentID: "pay-1", CompletedAt: completedAt})
	if snapshot.OrderID != "ord-9" || snapshot.Total != 60000 || snapshot.FinalTotal != 59400 || snapshot.DiscountID != "disc-1" {
		t.Fatalf("unexpected snapshot totals %+v", snapshot)
	}
	if snapshot.PaymentMethod != "qris" || snapshot.PaymentID != "pay-1" {
		t.Fatalf("expected payment override, got %s %s", snapshot.PaymentMethod, snapshot.PaymentID)
	}
	if !snapshot.CreatedAt.Equal(completedAt) {
		t.Fatalf("unexpected completion time %s", snapshot.CreatedAt)
	}

	kept := Snapshot(order, plan, store.CompleteOrderInput{OrderID: order.ID})
	if kept.PaymentMethod != "cash" {
		t.Fatalf("expected order payment method to be kept, got %s", kept.PaymentMethod)
	}
}
