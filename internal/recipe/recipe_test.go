package recipe

import (
	"testing"

	"github.com/shopspring/decimal"

	"kafe/backend/internal/domain"
)

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func latte() domain.Menu {
	return domain.Menu{
		ID:         "menu-latte",
		Name:       "Latte",
		Price:      20000,
		HargaBakul: 8000,
		Ingredients: []domain.MenuIngredient{
			{IngredientID: "ing-milk", Amount: d("200")},
		},
	}
}

func TestMaxBeliLatte(t *testing.T) {
	stock := map[string]decimal.Decimal{"ing-milk": d("1000")}
	if got := MaxBeli(MenuLines(latte()), stock); got != 5 {
		t.Fatalf("expected maxBeli 5, got %d", got)
	}
	stock["ing-milk"] = d("400")
	if got := MaxBeli(MenuLines(latte()), stock); got != 2 {
		t.Fatalf("expected maxBeli 2, got %d", got)
	}
}

func TestMaxBeliZeroCases(t *testing.T) {
	stock := map[string]decimal.Decimal{"a": d("100"), "b": d("-5")}

	cases := []struct {
		name  string
		lines []Line
	}{
		{"no ingredients", nil},
		{"zero amount", []Line{{IngredientID: "a", Amount: decimal.Zero}}},
		{"negative amount", []Line{{IngredientID: "a", Amount: d("-1")}}},
		{"unknown ingredient", []Line{{IngredientID: "zzz", Amount: d("1")}}},
		{"negative stock", []Line{{IngredientID: "b", Amount: d("1")}}},
		{"not enough for one", []Line{{IngredientID: "a", Amount: d("101")}}},
	}
	for _, tc := range cases {
		if got := MaxBeli(tc.lines, stock); got != 0 {
			t.Fatalf("%s: expected 0, got %d", tc.name, got)
		}
	}
}

func TestMaxBeliTakesMinimumAndSumsDuplicates(t *testing.T) {
	stock := map[string]decimal.Decimal{"coffee": d("100"), "milk": d("1000"), "sugar": d("7.5")}
	lines := []Line{
		{IngredientID: "coffee", Amount: d("18")},
		{IngredientID: "milk", Amount: d("150")},
		{IngredientID: "sugar", Amount: d("0.5")},
		{IngredientID: "sugar", Amount: d("0.5")},
	}
	// coffee 5, milk 6, sugar 7.5/1 = 7
	if got := MaxBeli(lines, stock); got != 5 {
		t.Fatalf("expected 5, got %d", got)
	}
}

func TestRecomputeSetsStatus(t *testing.T) {
	menus := []domain.Menu{latte(), {
		ID:          "menu-espresso",
		Name:        "Espresso",
		Ingredients: []domain.MenuIngredient{{IngredientID: "ing-coffee", Amount: d("18")}},
	}}
	stock := map[string]decimal.Decimal{"ing-milk": d("150"), "ing-coffee": d("36")}

	availability := Recompute(menus, stock)
	if len(availability) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(availability))
	}
	if availability[0].Name != "Espresso" || availability[0].MaxBeli != 2 || availability[0].Status != domain.MenuStatusAvailable {
		t.Fatalf("unexpected espresso availability %+v", availability[0])
	}
	if availability[1].Name != "Latte" || availability[1].MaxBeli != 0 || availability[1].Status != domain.MenuStatusSoldOut {
		t.Fatalf("unexpected latte availability %+v", availability[1])
	}
	if menus[0].Status != domain.MenuStatusSoldOut {
		t.Fatalf("expected menu to be updated in place")
	}
}

func TestAffectedMenusCoversEveryMenuSharingAnIngredient(t *testing.T) {
	menus := []domain.Menu{
		latte(),
		{ID: "menu-cappuccino", Ingredients: []domain.MenuIngredient{{IngredientID: "ing-milk", Amount: d("120")}, {IngredientID: "ing-coffee", Amount: d("18")}}},
		{ID: "menu-tea", Ingredients: []domain.MenuIngredient{{IngredientID: "ing-tea", Amount: d("5")}}},
	}

	affected := AffectedMenus(menus, []string{"ing-coffee", "ing-milk"})
	if len(affected) != 2 {
		t.Fatalf("expected 2 affected menus, got %d", len(affected))
	}
	for _, menu := range affected {
		if menu.ID == "menu-tea" {
			t.Fatalf("tea must not be affected")
		}
	}
	if got := AffectedMenus(menus, nil); len(got) != 0 {
		t.Fatalf("expected no menus for empty id set")
	}
}

func TestCostResolvesSemiFinishedComposition(t *testing.T) {
	ingredients := []domain.Ingredient{
		{ID: "sugar", Name: "Gula", Type: domain.IngredientRaw, Price: d("15")},
		{ID: "water", Name: "Air", Type: domain.IngredientRaw, Price: d("1")},
		{ID: "milk", Name: "Susu", Type: domain.IngredientRaw, Price: d("20")},
		{
			ID:    "syrup",
			Name:  "Sirup Gula",
			Type:  domain.IngredientSemiFinished,
			Price: d("999"),
			Compositions: []domain.IngredientComposition{
				{RawIngredientID: "sugar", Amount: d("0.5")},
				{RawIngredientID: "water", Amount: d("0.5")},
			},
		},
	}
	byID := IngredientIndex(ingredients)

	if got := UnitCost(byID["syrup"], byID); !got.Equal(d("8")) {
		t.Fatalf("expected syrup unit cost 8, got %s", got)
	}

	total, lines := Cost([]Line{
		{IngredientID: "milk", Amount: d("200")},
		{IngredientID: "syrup", Amount: d("20")},
	}, byID)
	if total != 4160 {
		t.Fatalf("expected HPP 4160, got %d", total)
	}
	if len(lines) != 2 || !lines[1].Cost.Equal(d("160")) {
		t.Fatalf("unexpected breakdown %+v", lines)
	}
}

func TestBundleMaxBeliAndCost(t *testing.T) {
	menus := map[string]domain.Menu{
		"latte":   {ID: "latte", MaxBeli: 5, HargaBakul: 8000},
		"brownie": {ID: "brownie", MaxBeli: 9, HargaBakul: 6000},
	}
	bundle := domain.Bundle{Menus: []domain.BundleMenu{{MenuID: "latte", Quantity: 1}, {MenuID: "brownie", Quantity: 2}}}

	if got := BundleMaxBeli(bundle, menus); got != 4 {
		t.Fatalf("expected 4 bundles, got %d", got)
	}
	if got := BundleCost(bundle, menus); got != 20000 {
		t.Fatalf("expected bundle cost 20000, got %d", got)
	}
	if got := BundleMaxBeli(domain.Bundle{}, menus); got != 0 {
		t.Fatalf("expected 0 for empty bundle, got %d", got)
	}
	missing := domain.Bundle{Menus: []domain.BundleMenu{{MenuID: "ghost", Quantity: 1}}}
	if got := BundleMaxBeli(missing, menus); got != 0 {
		t.Fatalf("expected 0 for unknown menu, got %d", got)
	}
}
