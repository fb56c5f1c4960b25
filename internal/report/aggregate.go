// Package report aggregates completed-order history into sales, margin and
// charge reports over a time window.
package report

import (
	"math"
	"sort"
	"time"

	"kafe/backend/internal/domain"
)

const (
	ChargeTax      = "tax"
	ChargeDiscount = "discount"
	ChargeGratuity = "gratuity"

	bundleCategory = "Bundle"
)

// SaleLine is one purchased unit group inside an order. Bundle rows that
// share (order, bundle) collapse into a single line: quantity and revenue are
// taken once and cost is summed across the constituent menus.
type SaleLine struct {
	OrderID  string
	MenuID   string
	BundleID string
	Name     string
	Category string
	Quantity int64
	Revenue  int64
	HPP      int64
	Discount int64
}

func (l SaleLine) Gross() int64 {
	return l.Revenue - l.HPP
}

func inWindow(window domain.ReportWindow, at time.Time) bool {
	return !at.Before(window.Start) && at.Before(window.End)
}

// Filter keeps the orders created inside window.
func Filter(window domain.ReportWindow, orders []domain.CompletedOrder) []domain.CompletedOrder {
	out := make([]domain.CompletedOrder, 0, len(orders))
	for _, order := range orders {
		if inWindow(window, order.CreatedAt) {
			out = append(out, order)
		}
	}
	return out
}

// Lines flattens orders into deduplicated sale lines, keyed by
// (order, menu) for plain items and (order, bundle) for bundle rows.
func Lines(orders []domain.CompletedOrder) []SaleLine {
	lines := make([]SaleLine, 0, len(orders)*2)
	index := make(map[string]int, len(orders)*2)

	for _, order := range orders {
		for _, item := range order.Items {
			qty := int64(item.Quantity)
			if item.BundleID != "" {
				key := "b|" + order.ID + "|" + item.BundleID
				pos, seen := index[key]
				if !seen {
					pos = len(lines)
					index[key] = pos
					lines = append(lines, SaleLine{
						OrderID:  order.ID,
						BundleID: item.BundleID,
						Name:     item.BundleName,
						Category: bundleCategory,
						Quantity: qty,
						Revenue:  item.BundlePrice * qty,
					})
				}
				perBundle := int64(item.BundleMenuQty)
				if perBundle < 1 {
					perBundle = 1
				}
				lines[pos].HPP += item.HargaBakul * perBundle * qty
				lines[pos].Discount += item.DiscountAmount
				continue
			}

			key := "m|" + order.ID + "|" + item.MenuID
			pos, seen := index[key]
			if !seen {
				pos = len(lines)
				index[key] = pos
				lines = append(lines, SaleLine{
					OrderID:  order.ID,
					MenuID:   item.MenuID,
					Name:     item.MenuName,
					Category: item.Category,
				})
			}
			lines[pos].Quantity += qty
			lines[pos].Revenue += basePrice(item) * qty
			lines[pos].HPP += item.HargaBakul * qty
			lines[pos].Discount += item.DiscountAmount
		}
	}
	return lines
}

// basePrice is the menu price of a plain row. The snapshot price carries the
// selected modifiers, which are reported by ModifierSales instead.
func basePrice(item domain.CompletedOrderItem) int64 {
	price := item.Price
	for _, mod := range item.Modifiers {
		price -= mod.Price
	}
	return max(price, 0)
}

func totalDiscounts(orders []domain.CompletedOrder, lines []SaleLine) int64 {
	total := int64(0)
	for _, order := range orders {
		total += order.DiscountAmount
	}
	for _, line := range lines {
		total += line.Discount
	}
	return total
}

func orderDiscount(order domain.CompletedOrder) int64 {
	total := order.DiscountAmount
	for _, item := range order.Items {
		total += item.DiscountAmount
	}
	return total
}

func paymentBreakdown(orders []domain.CompletedOrder) []domain.PaymentMethodSales {
	byMethod := make(map[string]*domain.PaymentMethodSales)
	for _, order := range orders {
		method := order.PaymentMethod
		if method == "" {
			method = "unknown"
		}
		row, ok := byMethod[method]
		if !ok {
			row = &domain.PaymentMethodSales{PaymentMethod: method}
			byMethod[method] = row
		}
		row.Orders++
		row.Total += order.FinalTotal
	}

	rows := make([]domain.PaymentMethodSales, 0, len(byMethod))
	for _, row := range byMethod {
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Total == rows[j].Total {
			return rows[i].PaymentMethod < rows[j].PaymentMethod
		}
		return rows[i].Total > rows[j].Total
	})
	return rows
}

func SalesSummary(window domain.ReportWindow, orders []domain.CompletedOrder) domain.SalesSummary {
	orders = Filter(window, orders)
	lines := Lines(orders)

	summary := domain.SalesSummary{Window: window, Orders: int64(len(orders))}
	for _, line := range lines {
		summary.GrossSales += line.Gross()
	}
	for _, order := range orders {
		summary.Tax += order.TaxAmount
		summary.Gratuity += order.GratuityAmount
	}
	summary.Discounts = totalDiscounts(orders, lines)
	summary.NetSales = summary.GrossSales - summary.Discounts - summary.Refunds
	summary.Rounding = RoundingTo100(summary.NetSales)
	summary.TotalCollected = summary.NetSales + summary.Gratuity + summary.Tax + summary.Rounding
	summary.ByPayment = paymentBreakdown(orders)
	return summary
}

func GrossProfit(window domain.ReportWindow, orders []domain.CompletedOrder) domain.GrossProfitReport {
	orders = Filter(window, orders)
	lines := Lines(orders)

	out := domain.GrossProfitReport{Window: window}
	for _, line := range lines {
		out.Revenue += line.Revenue
		out.HPP += line.HPP
	}
	out.Discounts = totalDiscounts(orders, lines)
	out.GrossProfit = out.Revenue - out.Discounts - out.HPP
	if out.Revenue > 0 {
		out.MarginPercent = math.Round(float64(out.GrossProfit)/float64(out.Revenue)*10000) / 100
	}
	return out
}

func ItemSales(window domain.ReportWindow, orders []domain.CompletedOrder) domain.ItemSalesReport {
	lines := Lines(Filter(window, orders))

	rows := make([]domain.ItemSalesRow, 0, len(lines))
	index := make(map[string]int, len(lines))
	for _, line := range lines {
		key := "m|" + line.MenuID
		if line.BundleID != "" {
			key = "b|" + line.BundleID
		}
		pos, ok := index[key]
		if !ok {
			pos = len(rows)
			index[key] = pos
			rows = append(rows, domain.ItemSalesRow{
				MenuID:   line.MenuID,
				BundleID: line.BundleID,
				Name:     line.Name,
				Category: line.Category,
			})
		}
		rows[pos].Quantity += line.Quantity
		rows[pos].Revenue += line.Revenue
		rows[pos].HPP += line.HPP
		rows[pos].GrossProfit += line.Gross()
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Quantity == rows[j].Quantity {
			return rows[i].Name < rows[j].Name
		}
		return rows[i].Quantity > rows[j].Quantity
	})
	return domain.ItemSalesReport{Window: window, Items: rows}
}

func CategorySales(window domain.ReportWindow, orders []domain.CompletedOrder) domain.CategorySalesReport {
	lines := Lines(Filter(window, orders))

	byCategory := make(map[string]*domain.CategorySalesRow)
	for _, line := range lines {
		category := line.Category
		if category == "" {
			category = "Uncategorized"
		}
		row, ok := byCategory[category]
		if !ok {
			row = &domain.CategorySalesRow{Category: category}
			byCategory[category] = row
		}
		row.Quantity += line.Quantity
		row.Revenue += line.Revenue
	}

	rows := make([]domain.CategorySalesRow, 0, len(byCategory))
	for _, row := range byCategory {
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Revenue == rows[j].Revenue {
			return rows[i].Category < rows[j].Category
		}
		return rows[i].Revenue > rows[j].Revenue
	})
	return domain.CategorySalesReport{Window: window, Categories: rows}
}

func ModifierSales(window domain.ReportWindow, orders []domain.CompletedOrder) domain.ModifierSalesReport {
	byModifier := make(map[string]*domain.ModifierSalesRow)
	for _, order := range Filter(window, orders) {
		for _, item := range order.Items {
			qty := int64(item.Quantity)
			for _, mod := range item.Modifiers {
				row, ok := byModifier[mod.ModifierID]
				if !ok {
					row = &domain.ModifierSalesRow{ModifierID: mod.ModifierID, Name: mod.Name}
					byModifier[mod.ModifierID] = row
				}
				row.Quantity += qty
				row.Revenue += mod.Price * qty
			}
		}
	}

	rows := make([]domain.ModifierSalesRow, 0, len(byModifier))
	for _, row := range byModifier {
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Quantity == rows[j].Quantity {
			return rows[i].Name < rows[j].Name
		}
		return rows[i].Quantity > rows[j].Quantity
	})
	return domain.ModifierSalesReport{Window: window, Modifiers: rows}
}

func PaymentMethods(window domain.ReportWindow, orders []domain.CompletedOrder) domain.PaymentMethodReport {
	return domain.PaymentMethodReport{Window: window, Methods: paymentBreakdown(Filter(window, orders))}
}

// Charges totals one kind of order-level charge with a per-day breakdown in
// the window's timezone. Orders without that charge are not counted.
func Charges(kind string, window domain.ReportWindow, orders []domain.CompletedOrder) domain.ChargeReport {
	out := domain.ChargeReport{Window: window, Kind: kind, ByDay: []domain.DailyAmount{}}
	loc := window.Start.Location()

	byDay := make(map[string]*domain.DailyAmount)
	for _, order := range Filter(window, orders) {
		var amount int64
		switch kind {
		case ChargeTax:
			amount = order.TaxAmount
		case ChargeGratuity:
			amount = order.GratuityAmount
		case ChargeDiscount:
			amount = orderDiscount(order)
		}
		if amount == 0 {
			continue
		}
		out.Orders++
		out.Total += amount

		date := order.CreatedAt.In(loc).Format(DateLayout)
		day, ok := byDay[date]
		if !ok {
			day = &domain.DailyAmount{Date: date}
			byDay[date] = day
		}
		day.Orders++
		day.Amount += amount
	}

	for _, day := range byDay {
		out.ByDay = append(out.ByDay, *day)
	}
	sort.Slice(out.ByDay, func(i, j int) bool { return out.ByDay[i].Date < out.ByDay[j].Date })
	return out
}
