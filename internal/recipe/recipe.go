// Package recipe resolves menus, bundles and modifiers into their ingredient
// requirements: how many units current stock allows and what they cost.
package recipe

import (
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"kafe/backend/internal/domain"
)

// Line is one ingredient requirement per produced unit.
type Line struct {
	IngredientID string
	Amount       decimal.Decimal
}

func MenuLines(menu domain.Menu) []Line {
	lines := make([]Line, 0, len(menu.Ingredients))
	for _, mi := range menu.Ingredients {
		lines = append(lines, Line{IngredientID: mi.IngredientID, Amount: mi.Amount})
	}
	return lines
}

func ModifierLines(modifier domain.Modifier) []Line {
	lines := make([]Line, 0, len(modifier.Ingredients))
	for _, mi := range modifier.Ingredients {
		lines = append(lines, Line{IngredientID: mi.IngredientID, Amount: mi.Amount})
	}
	return lines
}

// StockIndex maps ingredient id to current stock.
func StockIndex(ingredients []domain.Ingredient) map[string]decimal.Decimal {
	index := make(map[string]decimal.Decimal, len(ingredients))
	for _, ing := range ingredients {
		index[ing.ID] = ing.Stock
	}
	return index
}

func IngredientIndex(ingredients []domain.Ingredient) map[string]domain.Ingredient {
	index := make(map[string]domain.Ingredient, len(ingredients))
	for _, ing := range ingredients {
		index[ing.ID] = ing
	}
	return index
}

// MaxBeli is floor(min(stock / amount)) over the lines. No lines, a
// non-positive amount or an unknown ingredient all yield zero, never unlimited.
// Repeated ingredients are summed before dividing.
func MaxBeli(lines []Line, stock map[string]decimal.Decimal) int64 {
	if len(lines) == 0 {
		return 0
	}

	required := make(map[string]decimal.Decimal, len(lines))
	for _, line := range lines {
		if !line.Amount.IsPositive() {
			return 0
		}
		required[line.IngredientID] = required[line.IngredientID].Add(line.Amount)
	}

	var lowest *decimal.Decimal
	for id, amount := range required {
		available, ok := stock[id]
		if !ok {
			return 0
		}
		units := available.Div(amount).Floor()
		if lowest == nil || units.LessThan(*lowest) {
			lowest = &units
		}
	}
	if lowest == nil || !lowest.IsPositive() {
		return 0
	}
	return lowest.IntPart()
}

func StatusFor(maxBeli int64) string {
	if maxBeli > 0 {
		return domain.MenuStatusAvailable
	}
	return domain.MenuStatusSoldOut
}

func References(menu domain.Menu, ids map[string]struct{}) bool {
	for _, mi := range menu.Ingredients {
		if _, ok := ids[mi.IngredientID]; ok {
			return true
		}
	}
	return false
}

// AffectedMenus returns every menu that uses at least one of ingredientIDs.
func AffectedMenus(menus []domain.Menu, ingredientIDs []string) []domain.Menu {
	if len(ingredientIDs) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(ingredientIDs))
	for _, id := range ingredientIDs {
		set[id] = struct{}{}
	}
	affected := make([]domain.Menu, 0, 8)
	for _, menu := range menus {
		if References(menu, set) {
			affected = append(affected, menu)
		}
	}
	return affected
}

// Recompute refreshes MaxBeli and Status on each menu in place and returns
// the resulting availability sorted by menu name.
func Recompute(menus []domain.Menu, stock map[string]decimal.Decimal) []domain.MenuAvailability {
	result := make([]domain.MenuAvailability, 0, len(menus))
	for i := range menus {
		menus[i].MaxBeli = MaxBeli(MenuLines(menus[i]), stock)
		menus[i].Status = StatusFor(menus[i].MaxBeli)
		result = append(result, domain.MenuAvailability{
			MenuID:  menus[i].ID,
			Name:    menus[i].Name,
			MaxBeli: menus[i].MaxBeli,
			Status:  menus[i].Status,
		})
	}
	slices.SortFunc(result, func(a, b domain.MenuAvailability) int {
		if a.Name == b.Name {
			return strings.Compare(a.MenuID, b.MenuID)
		}
		return strings.Compare(a.Name, b.Name)
	})
	return result
}

// UnitCost is the price of one unit of ing. A semi-finished ingredient with a
// composition costs the sum of its raw inputs; anything else uses its own price.
func UnitCost(ing domain.Ingredient, byID map[string]domain.Ingredient) decimal.Decimal {
	if ing.Type != domain.IngredientSemiFinished || len(ing.Compositions) == 0 {
		return ing.Price
	}
	total := decimal.Zero
	for _, comp := range ing.Compositions {
		raw, ok := byID[comp.RawIngredientID]
		if !ok {
			continue
		}
		total = total.Add(raw.Price.Mul(comp.Amount))
	}
	return total
}

// Cost rolls the lines up into an HPP in whole rupiah plus a per-line breakdown.
func Cost(lines []Line, byID map[string]domain.Ingredient) (int64, []domain.CostLine) {
	total := decimal.Zero
	breakdown := make([]domain.CostLine, 0, len(lines))
	for _, line := range lines {
		ing, ok := byID[line.IngredientID]
		if !ok {
			continue
		}
		unit := UnitCost(ing, byID)
		cost := unit.Mul(line.Amount)
		total = total.Add(cost)
		breakdown = append(breakdown, domain.CostLine{
			IngredientID: ing.ID,
			Name:         ing.Name,
			Amount:       line.Amount,
			UnitCost:     unit,
			Cost:         cost,
		})
	}
	return total.Round(0).IntPart(), breakdown
}

// BundleMaxBeli is the number of whole bundles the constituent menus allow.
func BundleMaxBeli(bundle domain.Bundle, menusByID map[string]domain.Menu) int64 {
	if len(bundle.Menus) == 0 {
		return 0
	}
	lowest := int64(-1)
	for _, bm := range bundle.Menus {
		menu, ok := menusByID[bm.MenuID]
		if !ok || bm.Quantity < 1 {
			return 0
		}
		units := menu.MaxBeli / int64(bm.Quantity)
		if lowest < 0 || units < lowest {
			lowest = units
		}
	}
	if lowest < 0 {
		return 0
	}
	return lowest
}

func BundleCost(bundle domain.Bundle, menusByID map[string]domain.Menu) int64 {
	total := int64(0)
	for _, bm := range bundle.Menus {
		if menu, ok := menusByID[bm.MenuID]; ok {
			total += menu.HargaBakul * int64(bm.Quantity)
		}
	}
	return total
}
