// Package completion plans the conversion of an open order into completed
// history: the ingredient consumption it owes and the item snapshot it leaves.
// Repositories apply a plan inside their own transaction.
package completion

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"kafe/backend/internal/domain"
	"kafe/backend/internal/ledger"
	"kafe/backend/internal/store"
	"kafe/backend/internal/xid"
)

// Catalog is the slice of the menu catalog an order refers to.
type Catalog struct {
	Menus     map[string]domain.Menu
	Bundles   map[string]domain.Bundle
	Modifiers map[string]domain.Modifier
}

type Plan struct {
	Consumption ledger.Consumption
	Items       []domain.CompletedOrderItem
}

// Build computes the consumption of every menu ingredient, modifier ingredient
// and bundle constituent in the order, aggregated per ingredient, together with
// the completed item rows. It never mutates anything.
func Build(order domain.Order, catalog Catalog) (*Plan, error) {
	if order.Status == domain.OrderStatusCompleted {
		return nil, store.ErrOrderCompleted
	}
	if len(order.Items) == 0 {
		return nil, fmt.Errorf("%w: order %s has no items", store.ErrInvalidInput, order.ID)
	}

	plan := &Plan{
		Consumption: ledger.Consumption{},
		Items:       make([]domain.CompletedOrderItem, 0, len(order.Items)),
	}
	for _, item := range order.Items {
		if item.Quantity < 1 {
			return nil, fmt.Errorf("%w: item quantity must be positive", store.ErrInvalidInput)
		}

		if item.BundleID != "" {
			if err := plan.addBundle(item, catalog); err != nil {
				return nil, err
			}
			continue
		}

		menu, ok := catalog.Menus[item.MenuID]
		if !ok {
			return nil, fmt.Errorf("%w: menu %s is missing", store.ErrInvalidInput, item.MenuID)
		}
		plan.addMenu(menu, int64(item.Quantity))
		for _, selected := range item.Modifiers {
			modifier, ok := catalog.Modifiers[selected.ModifierID]
			if !ok {
				continue
			}
			qty := decimal.NewFromInt(int64(item.Quantity))
			for _, mi := range modifier.Ingredients {
				plan.Consumption.Add(mi.IngredientID, mi.Amount.Mul(qty))
			}
		}

		plan.Items = append(plan.Items, domain.CompletedOrderItem{
			ID:             xid.New("coi"),
			MenuID:         menu.ID,
			MenuName:       menu.Name,
			Category:       menu.Category,
			Quantity:       item.Quantity,
			Price:          item.Price,
			HargaBakul:     menu.HargaBakul,
			DiscountAmount: item.DiscountAmount,
			Note:           item.Note,
			Modifiers:      append([]domain.OrderItemModifier(nil), item.Modifiers...),
		})
	}
	return plan, nil
}

func (p *Plan) addMenu(menu domain.Menu, units int64) {
	qty := decimal.NewFromInt(units)
	for _, mi := range menu.Ingredients {
		p.Consumption.Add(mi.IngredientID, mi.Amount.Mul(qty))
	}
}

// addBundle expands one bundle line into a row per constituent menu. The
// line discount is carried on the first row only.
func (p *Plan) addBundle(item domain.OrderItem, catalog Catalog) error {
	bundle, ok := catalog.Bundles[item.BundleID]
	if !ok {
		return fmt.Errorf("%w: bundle %s is missing", store.ErrInvalidInput, item.BundleID)
	}
	if len(bundle.Menus) == 0 {
		return fmt.Errorf("%w: bundle %s has no menus", store.ErrInvalidInput, bundle.ID)
	}

	for i, bm := range bundle.Menus {
		menu, ok := catalog.Menus[bm.MenuID]
		if !ok {
			return fmt.Errorf("%w: menu %s in bundle %s is missing", store.ErrInvalidInput, bm.MenuID, bundle.ID)
		}
		p.addMenu(menu, int64(bm.Quantity)*int64(item.Quantity))

		row := domain.CompletedOrderItem{
			ID:            xid.New("coi"),
			MenuID:        menu.ID,
			MenuName:      menu.Name,
			Category:      menu.Category,
			Quantity:      item.Quantity,
			Price:         menu.Price,
			HargaBakul:    menu.HargaBakul,
			Note:          item.Note,
			BundleID:      bundle.ID,
			BundleName:    bundle.Name,
			BundlePrice:   bundle.BundlePrice,
			BundleMenuQty: bm.Quantity,
		}
		if i == 0 {
			row.DiscountAmount = item.DiscountAmount
		}
		p.Items = append(p.Items, row)
	}
	return nil
}

// Snapshot builds the immutable history record for order. A non-empty
// payment method or id in input overrides the order's own.
func Snapshot(order domain.Order, plan *Plan, input store.CompleteOrderInput) domain.CompletedOrder {
	completedAt := input.CompletedAt
	if completedAt.IsZero() {
		completedAt = time.Now().UTC()
	}
	paymentMethod := order.PaymentMethod
	if input.PaymentMethod != "" {
		paymentMethod = input.PaymentMethod
	}
	paymentID := order.PaymentID
	if input.PaymentID != "" {
		paymentID = input.PaymentID
	}

	return domain.CompletedOrder{
		ID:             xid.New("co"),
		OrderID:        order.ID,
		TableNumber:    order.TableNumber,
		CustomerName:   order.CustomerName,
		Total:          order.Total,
		DiscountID:     order.DiscountID,
		DiscountAmount: order.DiscountAmount,
		TaxAmount:      order.TaxAmount,
		GratuityAmount: order.GratuityAmount,
		FinalTotal:     order.FinalTotal,
		PaymentMethod:  paymentMethod,
		PaymentID:      paymentID,
		CreatedAt:      completedAt,
		Items:          plan.Items,
	}
}

// NegativeStockWarning describes an ingredient whose stock went below zero.
func NegativeStockWarning(ing domain.Ingredient) string {
	return fmt.Sprintf("ingredient %s (%s) stock is negative: %s %s", ing.Name, ing.ID, ing.Stock.String(), ing.Unit)
}
