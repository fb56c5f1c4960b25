package ledger

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"kafe/backend/internal/domain"
	"kafe/backend/internal/store"
)

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func milk() domain.Ingredient {
	ing := domain.Ingredient{
		ID:    "ing-milk",
		Name:  "Susu",
		Type:  domain.IngredientRaw,
		Start: d("1000"),
	}
	Recompute(&ing)
	return ing
}

func TestInvariantHoldsAcrossMutations(t *testing.T) {
	ing := milk()
	g := domain.Gudang{IngredientID: ing.ID, Start: d("1000")}
	RecomputeGudang(&g)

	if _, err := ApplyConsumption(&ing, d("600")); err != nil {
		t.Fatalf("consume: %v", err)
	}
	if err := ApplyRestock(&ing, &g, d("500"), d("7500")); err != nil {
		t.Fatalf("restock: %v", err)
	}
	if err := ApplyWaste(&ing, d("25.5")); err != nil {
		t.Fatalf("waste: %v", err)
	}
	if err := Check(ing); err != nil {
		t.Fatalf("invariant broken: %v", err)
	}
	if !ing.Stock.Equal(d("874.5")) {
		t.Fatalf("expected stock 874.5, got %s", ing.Stock)
	}
}

func TestApplyConsumptionAllowsNegativeStock(t *testing.T) {
	ing := milk()

	negative, err := ApplyConsumption(&ing, d("1200"))
	if err != nil {
		t.Fatalf("consume: %v", err)
	}
	if !negative {
		t.Fatalf("expected negative stock flag")
	}
	if !ing.Stock.Equal(d("-200")) || !ing.Used.Equal(d("1200")) {
		t.Fatalf("unexpected ledger state stock=%s used=%s", ing.Stock, ing.Used)
	}

	if _, err := ApplyConsumption(&ing, d("-1")); !errors.Is(err, store.ErrInvalidInput) {
		t.Fatalf("expected invalid input for negative consumption, got %v", err)
	}
}

func TestApplyRestockRecomputesPriceAndMirrorsGudang(t *testing.T) {
	ing := milk()
	g := domain.Gudang{IngredientID: ing.ID, Start: d("1000")}
	RecomputeGudang(&g)

	if err := ApplyRestock(&ing, &g, d("1000"), d("15000")); err != nil {
		t.Fatalf("restock: %v", err)
	}
	if !ing.Price.Equal(d("15")) {
		t.Fatalf("expected unit price 15, got %s", ing.Price)
	}
	if !ing.StockIn.Equal(d("1000")) || !ing.Stock.Equal(d("2000")) {
		t.Fatalf("unexpected ingredient stock_in=%s stock=%s", ing.StockIn, ing.Stock)
	}
	if !g.StockIn.Equal(d("1000")) || !g.Stock.Equal(d("2000")) {
		t.Fatalf("expected gudang mirror, got stock_in=%s stock=%s", g.StockIn, g.Stock)
	}

	if err := ApplyRestock(&ing, nil, d("3"), d("10000")); err != nil {
		t.Fatalf("restock without gudang: %v", err)
	}
	if !ing.Price.Equal(d("3333.3333")) {
		t.Fatalf("expected price rounded to 4 places, got %s", ing.Price)
	}
}

func TestApplyRestockRejectsInvalidInput(t *testing.T) {
	ing := milk()
	if err := ApplyRestock(&ing, nil, decimal.Zero, d("100")); !errors.Is(err, store.ErrInvalidInput) {
		t.Fatalf("expected invalid input for zero qty, got %v", err)
	}
	if err := ApplyRestock(&ing, nil, d("1"), d("-5")); !errors.Is(err, store.ErrInvalidInput) {
		t.Fatalf("expected invalid input for negative price, got %v", err)
	}
	if !ing.StockIn.IsZero() {
		t.Fatalf("rejected restock must not mutate, stock_in=%s", ing.StockIn)
	}
}

func TestApplyProductionOnlyForSemiFinished(t *testing.T) {
	raw := milk()
	if err := ApplyProduction(&raw, d("5")); !errors.Is(err, store.ErrInvalidInput) {
		t.Fatalf("expected raw production to be rejected, got %v", err)
	}

	syrup := domain.Ingredient{ID: "ing-syrup", Type: domain.IngredientSemiFinished}
	if err := ApplyProduction(&syrup, d("5")); err != nil {
		t.Fatalf("produce: %v", err)
	}
	if !syrup.Stock.Equal(d("5")) {
		t.Fatalf("expected stock 5, got %s", syrup.Stock)
	}
}

func TestConsumptionAggregatesPerIngredient(t *testing.T) {
	c := Consumption{}
	c.Add("b", d("200"))
	c.Add("a", d("10"))
	c.Add("b", d("400"))
	c.Add("", d("1"))
	c.Add("c", decimal.Zero)

	ids := c.IDs()
	if len(ids) != 2 || ids[0] != "a" || ids[1] != "b" {
		t.Fatalf("unexpected ids %v", ids)
	}
	if !c["b"].Equal(d("600")) {
		t.Fatalf("expected 600 for b, got %s", c["b"])
	}

	plan := ProductionPlan([]domain.IngredientComposition{
		{RawIngredientID: "sugar", Amount: d("0.5")},
		{RawIngredientID: "water", Amount: d("1")},
	}, d("4"))
	if !plan["sugar"].Equal(d("2")) || !plan["water"].Equal(d("4")) {
		t.Fatalf("unexpected production plan %v", plan)
	}
}

func TestApplyEditRederivesStock(t *testing.T) {
	ing := milk()
	used := d("250")
	wasted := d("50")
	if err := ApplyEdit(&ing, domain.IngredientUpdateRequest{Used: &used, Wasted: &wasted}); err != nil {
		t.Fatalf("edit: %v", err)
	}
	if !ing.Stock.Equal(d("700")) {
		t.Fatalf("expected stock 700, got %s", ing.Stock)
	}

	negative := d("-1")
	if err := ApplyEdit(&ing, domain.IngredientUpdateRequest{Start: &negative}); !errors.Is(err, store.ErrInvalidInput) {
		t.Fatalf("expected invalid input for negative start, got %v", err)
	}
	blank := "  "
	if err := ApplyEdit(&ing, domain.IngredientUpdateRequest{Name: &blank}); !errors.Is(err, store.ErrInvalidInput) {
		t.Fatalf("expected invalid input for blank name, got %v", err)
	}
}

func TestValidateCompositions(t *testing.T) {
	known := map[string]domain.Ingredient{
		"sugar": {ID: "sugar", Type: domain.IngredientRaw},
		"syrup": {ID: "syrup", Type: domain.IngredientSemiFinished},
	}
	lookup := func(id string) (domain.Ingredient, bool) {
		ing, ok := known[id]
		return ing, ok
	}

	ok := []domain.IngredientComposition{{RawIngredientID: "sugar", Amount: d("0.5")}}
	if err := ValidateCompositions("syrup", domain.IngredientSemiFinished, ok, lookup); err != nil {
		t.Fatalf("expected valid composition, got %v", err)
	}

	bad := [][]domain.IngredientComposition{
		{{RawIngredientID: "syrup", Amount: d("1")}},
		{{RawIngredientID: "ghost", Amount: d("1")}},
		{{RawIngredientID: "sugar", Amount: decimal.Zero}},
		{{RawIngredientID: "sugar", Amount: d("1")}, {RawIngredientID: "sugar", Amount: d("1")}},
	}
	for i, comps := range bad {
		if err := ValidateCompositions("syrup", domain.IngredientSemiFinished, comps, lookup); !errors.Is(err, store.ErrInvalidInput) {
			t.Fatalf("case %d: expected invalid input, got %v", i, err)
		}
	}
	if err := ValidateCompositions("sugar", domain.IngredientRaw, ok, lookup); !errors.Is(err, store.ErrInvalidInput) {
		t.Fatalf("expected raw composition to be rejected, got %v", err)
	}
}
