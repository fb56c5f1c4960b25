// Package ledger holds the stock arithmetic shared by every repository.
// Each mutation re-derives stock as start + stockIn - used - wasted, so the
// stored value can never drift from its source fields.
package ledger

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"kafe/backend/internal/domain"
	"kafe/backend/internal/store"
)

// PriceScale is the number of decimal places kept for a unit price.
const PriceScale = 4

func Derive(ing domain.Ingredient) decimal.Decimal {
	return ing.Start.Add(ing.StockIn).Sub(ing.Used).Sub(ing.Wasted)
}

func Recompute(ing *domain.Ingredient) {
	ing.Stock = Derive(*ing)
}

func DeriveGudang(g domain.Gudang) decimal.Decimal {
	return g.Start.Add(g.StockIn).Sub(g.Used).Sub(g.Wasted)
}

func RecomputeGudang(g *domain.Gudang) {
	g.Stock = DeriveGudang(*g)
}

// Check reports whether the stored stock still matches its source fields.
func Check(ing domain.Ingredient) error {
	if want := Derive(ing); !ing.Stock.Equal(want) {
		return fmt.Errorf("ingredient %s stock %s does not match ledger %s", ing.ID, ing.Stock, want)
	}
	return nil
}

// ApplyConsumption books amount as used. The decrement is applied even when it
// exceeds current stock; the returned flag tells the caller stock went negative.
func ApplyConsumption(ing *domain.Ingredient, amount decimal.Decimal) (bool, error) {
	if amount.IsNegative() {
		return false, fmt.Errorf("%w: consumption must not be negative", store.ErrInvalidInput)
	}
	ing.Used = ing.Used.Add(amount)
	Recompute(ing)
	return ing.Stock.IsNegative(), nil
}

// ApplyRestock books a delivery of qty units costing totalPrice in total.
// The unit price becomes totalPrice / qty and the same delta lands in the
// warehouse mirror when one is given.
func ApplyRestock(ing *domain.Ingredient, g *domain.Gudang, qty decimal.Decimal, totalPrice decimal.Decimal) error {
	if !qty.IsPositive() {
		return fmt.Errorf("%w: restock quantity must be positive", store.ErrInvalidInput)
	}
	if totalPrice.IsNegative() {
		return fmt.Errorf("%w: total price must not be negative", store.ErrInvalidInput)
	}

	ing.StockIn = ing.StockIn.Add(qty)
	ing.Price = totalPrice.DivRound(qty, PriceScale)
	Recompute(ing)

	if g != nil {
		g.StockIn = g.StockIn.Add(qty)
		RecomputeGudang(g)
	}
	return nil
}

func ApplyWaste(ing *domain.Ingredient, qty decimal.Decimal) error {
	if !qty.IsPositive() {
		return fmt.Errorf("%w: waste quantity must be positive", store.ErrInvalidInput)
	}
	ing.Wasted = ing.Wasted.Add(qty)
	Recompute(ing)
	return nil
}

// ApplyProduction books qty freshly produced units of a semi-finished ingredient.
func ApplyProduction(ing *domain.Ingredient, qty decimal.Decimal) error {
	if ing.Type != domain.IngredientSemiFinished {
		return fmt.Errorf("%w: only semi-finished ingredients can be produced", store.ErrInvalidInput)
	}
	if !qty.IsPositive() {
		return fmt.Errorf("%w: production quantity must be positive", store.ErrInvalidInput)
	}
	ing.StockIn = ing.StockIn.Add(qty)
	Recompute(ing)
	return nil
}

// Consumption accumulates the quantity owed per ingredient so that each
// ingredient is decremented once per operation.
type Consumption map[string]decimal.Decimal

func (c Consumption) Add(ingredientID string, amount decimal.Decimal) {
	if ingredientID == "" || amount.IsZero() {
		return
	}
	c[ingredientID] = c[ingredientID].Add(amount)
}

// IDs returns the touched ingredient ids in a stable order, which is also the
// row-lock order used by the postgres repository.
func (c Consumption) IDs() []string {
	ids := make([]string, 0, len(c))
	for id := range c {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ProductionPlan returns the raw consumption needed to produce qty units of a
// semi-finished ingredient from its composition.
func ProductionPlan(compositions []domain.IngredientComposition, qty decimal.Decimal) Consumption {
	plan := Consumption{}
	for _, comp := range compositions {
		plan.Add(comp.RawIngredientID, comp.Amount.Mul(qty))
	}
	return plan
}

// ApplyEdit applies the scalar fields of a direct ingredient edit and
// re-derives stock. Compositions are left to the caller, which owns the lookup.
func ApplyEdit(ing *domain.Ingredient, req domain.IngredientUpdateRequest) error {
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return fmt.Errorf("%w: ingredient name is required", store.ErrInvalidInput)
		}
		ing.Name = name
	}
	if req.Unit != nil {
		ing.Unit = strings.TrimSpace(*req.Unit)
	}
	if req.Price != nil {
		ing.Price = *req.Price
	}
	if req.Start != nil {
		ing.Start = *req.Start
	}
	if req.StockIn != nil {
		ing.StockIn = *req.StockIn
	}
	if req.Used != nil {
		ing.Used = *req.Used
	}
	if req.Wasted != nil {
		ing.Wasted = *req.Wasted
	}
	if req.StockMin != nil {
		ing.StockMin = *req.StockMin
	}
	if req.IsActive != nil {
		ing.IsActive = *req.IsActive
	}
	for _, v := range []decimal.Decimal{ing.Price, ing.Start, ing.StockIn, ing.Used, ing.Wasted, ing.StockMin} {
		if v.IsNegative() {
			return fmt.Errorf("%w: ledger fields must not be negative", store.ErrInvalidInput)
		}
	}
	Recompute(ing)
	return nil
}

// ValidateCompositions accepts existing, positive, RAW components for a
// semi-finished ingredient and no components at all for a raw one.
func ValidateCompositions(id string, kind domain.IngredientType, comps []domain.IngredientComposition, lookup func(string) (domain.Ingredient, bool)) error {
	switch kind {
	case domain.IngredientRaw:
		if len(comps) > 0 {
			return fmt.Errorf("%w: raw ingredients cannot have a composition", store.ErrInvalidInput)
		}
		return nil
	case domain.IngredientSemiFinished:
	default:
		return fmt.Errorf("%w: unknown ingredient type %q", store.ErrInvalidInput, kind)
	}

	seen := make(map[string]struct{}, len(comps))
	for _, comp := range comps {
		if comp.RawIngredientID == id {
			return fmt.Errorf("%w: ingredient cannot be composed of itself", store.ErrInvalidInput)
		}
		if !comp.Amount.IsPositive() {
			return fmt.Errorf("%w: composition amount must be positive", store.ErrInvalidInput)
		}
		if _, dup := seen[comp.RawIngredientID]; dup {
			return fmt.Errorf("%w: duplicate composition ingredient %s", store.ErrInvalidInput, comp.RawIngredientID)
		}
		seen[comp.RawIngredientID] = struct{}{}
		raw, ok := lookup(comp.RawIngredientID)
		if !ok {
			return fmt.Errorf("%w: ingredient %s does not exist", store.ErrInvalidInput, comp.RawIngredientID)
		}
		if raw.Type != domain.IngredientRaw {
			return fmt.Errorf("%w: only raw ingredients can be components", store.ErrInvalidInput)
		}
	}
	return nil
}
