package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"kafe/backend/internal/domain"
	"kafe/backend/internal/report"
)

// buildReport resolves the window, loads completed history for it and runs
// build. Windows that already ended are served from and written to the report
// cache; completed history is append-only so their result cannot change.
func buildReport[T any](ctx context.Context, s *Service, name string, q report.Query, build func(domain.ReportWindow, []domain.CompletedOrder) T) (T, error) {
	var out T
	window, err := report.Resolve(q, s.now(), s.loc)
	if err != nil {
		return out, err
	}

	log := s.logger(ctx)
	closed := !window.End.After(s.now())
	key := fmt.Sprintf("%s:%s:%d:%d", name, window.Period, window.Start.Unix(), window.End.Unix())
	if closed {
		hit, err := s.cache.Get(ctx, key, &out)
		if err != nil {
			log.Warn("report cache read failed", zap.String("key", key), zap.Error(err))
		}
		s.metrics.ReportCache(hit && err == nil)
		if hit && err == nil {
			return out, nil
		}
	}

	orders, err := s.repo.ListCompletedOrders(ctx, window.Start, window.End)
	if err != nil {
		return out, err
	}
	out = build(window, orders)

	if closed {
		if err := s.cache.Set(ctx, key, out, s.cacheTTL); err != nil {
			log.Warn("report cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return out, nil
}

func (s *Service) SalesSummary(ctx context.Context, q report.Query) (domain.SalesSummary, error) {
	return buildReport(ctx, s, "sales-summary", q, report.SalesSummary)
}

func (s *Service) GrossProfit(ctx context.Context, q report.Query) (domain.GrossProfitReport, error) {
	return buildReport(ctx, s, "gross-profit", q, report.GrossProfit)
}

func (s *Service) ItemSales(ctx context.Context, q report.Query) (domain.ItemSalesReport, error) {
	return buildReport(ctx, s, "item-sales", q, report.ItemSales)
}

func (s *Service) CategorySales(ctx context.Context, q report.Query) (domain.CategorySalesReport, error) {
	return buildReport(ctx, s, "category-sales", q, report.CategorySales)
}

func (s *Service) ModifierSales(ctx context.Context, q report.Query) (domain.ModifierSalesReport, error) {
	return buildReport(ctx, s, "modifier-sales", q, report.ModifierSales)
}

func (s *Service) PaymentMethodSales(ctx context.Context, q report.Query) (domain.PaymentMethodReport, error) {
	return buildReport(ctx, s, "payment-methods", q, report.PaymentMethods)
}

func (s *Service) chargeReport(ctx context.Context, kind string, q report.Query) (domain.ChargeReport, error) {
	return buildReport(ctx, s, kind+"-report", q, func(window domain.ReportWindow, orders []domain.CompletedOrder) domain.ChargeReport {
		return report.Charges(kind, window, orders)
	})
}

func (s *Service) TaxReport(ctx context.Context, q report.Query) (domain.ChargeReport, error) {
	return s.chargeReport(ctx, report.ChargeTax, q)
}

func (s *Service) DiscountReport(ctx context.Context, q report.Query) (domain.ChargeReport, error) {
	return s.chargeReport(ctx, report.ChargeDiscount, q)
}

func (s *Service) GratuityReport(ctx context.Context, q report.Query) (domain.ChargeReport, error) {
	return s.chargeReport(ctx, report.ChargeGratuity, q)
}
