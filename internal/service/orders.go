package service

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"kafe/backend/internal/domain"
	"kafe/backend/internal/report"
	"kafe/backend/internal/store"
)

// pricingCatalog is what order pricing reads: the catalog plus every charge rule.
type pricingCatalog struct {
	menus      map[string]domain.Menu
	bundles    map[string]domain.Bundle
	modifiers  map[string]domain.Modifier
	discounts  map[string]domain.Discount
	taxes      []domain.Tax
	gratuities []domain.Gratuity
}

func (s *Service) loadPricingCatalog(ctx context.Context) (pricingCatalog, error) {
	var c pricingCatalog

	menus, err := s.repo.ListMenus(ctx)
	if err != nil {
		return c, err
	}
	bundles, err := s.repo.ListBundles(ctx)
	if err != nil {
		return c, err
	}
	modifiers, err := s.repo.ListModifiers(ctx)
	if err != nil {
		return c, err
	}
	discounts, err := s.repo.ListDiscounts(ctx)
	if err != nil {
		return c, err
	}
	if c.taxes, err = s.repo.ListTaxes(ctx); err != nil {
		return c, err
	}
	if c.gratuities, err = s.repo.ListGratuities(ctx); err != nil {
		return c, err
	}

	c.menus = make(map[string]domain.Menu, len(menus))
	for _, m := range menus {
		c.menus[m.ID] = m
	}
	c.bundles = make(map[string]domain.Bundle, len(bundles))
	for _, b := range bundles {
		c.bundles[b.ID] = b
	}
	c.modifiers = make(map[string]domain.Modifier, len(modifiers))
	for _, m := range modifiers {
		c.modifiers[m.ID] = m
	}
	c.discounts = make(map[string]domain.Discount, len(discounts))
	for _, d := range discounts {
		c.discounts[d.ID] = d
	}
	return c, nil
}

func percentOf(amount int64, rate decimal.Decimal) int64 {
	return decimal.NewFromInt(amount).Mul(rate).Div(hundred).Round(0).IntPart()
}

// mergeBundleLines folds repeated lines of the same bundle into one so the
// completed history holds a single row group per bundle and order.
func mergeBundleLines(items []domain.OrderItemRequest) []domain.OrderItemRequest {
	merged := make([]domain.OrderItemRequest, 0, len(items))
	bundleAt := map[string]int{}
	for _, item := range items {
		item.MenuID = strings.TrimSpace(item.MenuID)
		item.BundleID = strings.TrimSpace(item.BundleID)
		if item.BundleID != "" {
			if idx, ok := bundleAt[item.BundleID]; ok {
				merged[idx].Quantity += item.Quantity
				continue
			}
			bundleAt[item.BundleID] = len(merged)
		}
		merged = append(merged, item)
	}
	return merged
}

// priceOrder turns an order request into a fully priced open order.
func priceOrder(req domain.OrderCreateRequest, c pricingCatalog) (domain.Order, error) {
	if len(req.Items) == 0 {
		return domain.Order{}, fmt.Errorf("%w: order needs at least one item", store.ErrInvalidInput)
	}
	for _, item := range req.Items {
		if item.Quantity < 1 {
			return domain.Order{}, fmt.Errorf("%w: item quantity must be positive", store.ErrInvalidInput)
		}
		if (item.MenuID == "") == (item.BundleID == "") {
			return domain.Order{}, fmt.Errorf("%w: each item needs exactly one of menu_id or bundle_id", store.ErrInvalidInput)
		}
	}

	order := domain.Order{
		TableNumber:   strings.TrimSpace(req.TableNumber),
		CustomerName:  strings.TrimSpace(req.CustomerName),
		PaymentMethod: strings.ToLower(strings.TrimSpace(req.PaymentMethod)),
		PaymentID:     strings.TrimSpace(req.PaymentID),
		Items:         make([]domain.OrderItem, 0, len(req.Items)),
	}

	total := int64(0)
	for _, item := range mergeBundleLines(req.Items) {
		line, err := priceItem(item, c)
		if err != nil {
			return domain.Order{}, err
		}
		total += line.Price*int64(line.Quantity) - line.DiscountAmount
		order.Items = append(order.Items, line)
	}
	order.Total = total

	if id := strings.TrimSpace(req.DiscountID); id != "" {
		discount, ok := c.discounts[id]
		if !ok || !discount.IsActive || discount.Scope != domain.DiscountScopeTotal {
			return domain.Order{}, fmt.Errorf("%w: discount %s is not an active order discount", store.ErrInvalidInput, id)
		}
		order.DiscountID = discount.ID
		switch discount.Type {
		case domain.DiscountTypeRate:
			order.DiscountAmount = percentOf(total, discount.Value)
		case domain.DiscountTypeFixed:
			order.DiscountAmount = discount.Value.Round(0).IntPart()
		}
		order.DiscountAmount = min(order.DiscountAmount, total)
	}

	base := total - order.DiscountAmount
	taxRate := decimal.Zero
	for _, tax := range c.taxes {
		if tax.IsActive {
			taxRate = taxRate.Add(tax.Rate)
		}
	}
	gratuityRate := decimal.Zero
	for _, g := range c.gratuities {
		if g.IsActive {
			gratuityRate = gratuityRate.Add(g.Rate)
		}
	}
	order.TaxAmount = percentOf(base, taxRate)
	order.GratuityAmount = percentOf(base, gratuityRate)
	order.FinalTotal = base + order.TaxAmount + order.GratuityAmount
	return order, nil
}

func priceItem(item domain.OrderItemRequest, c pricingCatalog) (domain.OrderItem, error) {
	if item.BundleID != "" {
		bundle, ok := c.bundles[item.BundleID]
		if !ok || !bundle.IsActive {
			return domain.OrderItem{}, fmt.Errorf("%w: bundle %s is not available", store.ErrInvalidInput, item.BundleID)
		}
		if len(item.ModifierIDs) > 0 {
			return domain.OrderItem{}, fmt.Errorf("%w: bundle %s does not take modifiers", store.ErrInvalidInput, bundle.Name)
		}
		if bundle.MaxBeli < 1 {
			return domain.OrderItem{}, fmt.Errorf("%w: bundle %s is %s", store.ErrInsufficientStock, bundle.Name, domain.MenuStatusSoldOut)
		}
		return domain.OrderItem{
			BundleID: bundle.ID,
			Quantity: item.Quantity,
			Price:    bundle.BundlePrice,
			Note:     strings.TrimSpace(item.Note),
		}, nil
	}

	menu, ok := c.menus[item.MenuID]
	if !ok || !menu.IsActive {
		return domain.OrderItem{}, fmt.Errorf("%w: menu %s is not available", store.ErrInvalidInput, item.MenuID)
	}
	if menu.Status == domain.MenuStatusSoldOut {
		return domain.OrderItem{}, fmt.Errorf("%w: menu %s is %s", store.ErrInsufficientStock, menu.Name, domain.MenuStatusSoldOut)
	}

	unit := menu.Price
	selected := make([]domain.OrderItemModifier, 0, len(item.ModifierIDs))
	for _, id := range item.ModifierIDs {
		modifier, ok := c.modifiers[strings.TrimSpace(id)]
		if !ok || !modifier.IsActive {
			return domain.OrderItem{}, fmt.Errorf("%w: modifier %s is not available", store.ErrInvalidInput, id)
		}
		if len(menu.ModifierIDs) > 0 && !slices.Contains(menu.ModifierIDs, modifier.ID) {
			return domain.OrderItem{}, fmt.Errorf("%w: modifier %s does not apply to %s", store.ErrInvalidInput, modifier.Name, menu.Name)
		}
		unit += modifier.Price
		selected = append(selected, domain.OrderItemModifier{ModifierID: modifier.ID, Name: modifier.Name, Price: modifier.Price})
	}

	line := unit * int64(item.Quantity)
	discount := int64(0)
	for _, id := range menu.DiscountIDs {
		d, ok := c.discounts[id]
		if !ok || !d.IsActive || d.Scope != domain.DiscountScopeMenu {
			continue
		}
		switch d.Type {
		case domain.DiscountTypeRate:
			discount += percentOf(line, d.Value)
		case domain.DiscountTypeFixed:
			discount += d.Value.Mul(decimal.NewFromInt(int64(item.Quantity))).Round(0).IntPart()
		}
	}

	out := domain.OrderItem{
		MenuID:         menu.ID,
		Quantity:       item.Quantity,
		Price:          unit,
		DiscountAmount: min(discount, line),
		Note:           strings.TrimSpace(item.Note),
	}
	if len(selected) > 0 {
		out.Modifiers = selected
	}
	return out, nil
}

func (s *Service) CreateOrder(ctx context.Context, req domain.OrderCreateRequest) (domain.Order, error) {
	catalog, err := s.loadPricingCatalog(ctx)
	if err != nil {
		return domain.Order{}, err
	}
	order, err := priceOrder(req, catalog)
	if err != nil {
		return domain.Order{}, err
	}
	order.CreatedAt = s.now().UTC()

	created, err := s.repo.CreateOrder(ctx, order)
	if err != nil {
		return domain.Order{}, err
	}

	s.logger(ctx).Info("order created",
		zap.String("order_id", created.ID),
		zap.Int64("final_total", created.FinalTotal),
		zap.Int("items", len(created.Items)),
	)
	s.logAudit(ctx, "order_create", "order", created.ID, fmt.Sprintf("table=%s,final_total=%d", created.TableNumber, created.FinalTotal))
	return *created, nil
}

func (s *Service) GetOrder(ctx context.Context, id string) (domain.Order, error) {
	order, err := s.repo.GetOrder(ctx, strings.TrimSpace(id))
	if err != nil {
		return domain.Order{}, err
	}
	return *order, nil
}

func (s *Service) ListOrders(ctx context.Context, status string, limit int) ([]domain.Order, error) {
	if limit < 1 {
		limit = 100
	}
	return s.repo.ListOrders(ctx, strings.TrimSpace(status), limit)
}

// CompleteOrder moves an open order into completed history, consuming its
// ingredients and refreshing the availability of every affected menu.
func (s *Service) CompleteOrder(ctx context.Context, req domain.CompleteOrderRequest) (domain.CompletionResult, error) {
	orderID := strings.TrimSpace(req.OrderID)
	if orderID == "" {
		return domain.CompletionResult{}, fmt.Errorf("%w: orderId is required", store.ErrInvalidInput)
	}

	result, err := s.repo.CompleteOrder(ctx, store.CompleteOrderInput{
		OrderID:       orderID,
		PaymentMethod: strings.ToLower(strings.TrimSpace(req.PaymentMethod)),
		PaymentID:     strings.TrimSpace(req.PaymentID),
		CompletedAt:   s.now().UTC(),
	})
	if err != nil {
		return domain.CompletionResult{}, err
	}

	log := s.logger(ctx)
	s.metrics.OrderCompleted()
	for _, usage := range result.Consumed {
		s.metrics.IngredientConsumed(usage.Name, usage.Unit, usage.Quantity.InexactFloat64())
	}
	for _, warning := range result.Warnings {
		s.metrics.NegativeStock()
		log.Warn("negative stock after completion", zap.String("order_id", orderID), zap.String("warning", warning))
	}
	log.Info("order completed",
		zap.String("order_id", orderID),
		zap.String("completed_order_id", result.CompletedOrder.ID),
		zap.Int64("final_total", result.CompletedOrder.FinalTotal),
		zap.Int("ingredients", len(result.Consumed)),
		zap.Int("menus_recomputed", len(result.Availability)),
	)
	s.logAudit(ctx, "order_complete", "order", orderID, fmt.Sprintf("completed_order=%s,payment=%s", result.CompletedOrder.ID, result.CompletedOrder.PaymentMethod))
	return *result, nil
}

func (s *Service) GetCompletedOrder(ctx context.Context, id string) (domain.CompletedOrder, error) {
	completed, err := s.repo.GetCompletedOrder(ctx, strings.TrimSpace(id))
	if err != nil {
		return domain.CompletedOrder{}, err
	}
	return *completed, nil
}

// ListCompletedOrders takes the same window parameters as the reports,
// resolved against the service clock.
func (s *Service) ListCompletedOrders(ctx context.Context, q report.Query) (domain.ReportWindow, []domain.CompletedOrder, error) {
	window, err := report.Resolve(q, s.now(), s.loc)
	if err != nil {
		return domain.ReportWindow{}, nil, err
	}
	orders, err := s.repo.ListCompletedOrders(ctx, window.Start, window.End)
	if err != nil {
		return domain.ReportWindow{}, nil, err
	}
	return window, orders, nil
}
