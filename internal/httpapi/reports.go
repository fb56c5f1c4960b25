package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"kafe/backend/internal/domain"
	"kafe/backend/internal/report"
)

func reportQuery(r *http.Request) report.Query {
	values := r.URL.Query()
	return report.Query{
		Period:    values.Get("period"),
		Date:      values.Get("date"),
		StartDate: values.Get("startDate"),
		EndDate:   values.Get("endDate"),
	}
}

func reportHandler[T any](build func(context.Context, report.Query) (T, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := build(r.Context(), reportQuery(r))
		respond(w, r, http.StatusOK, "report", result, err)
	}
}

func (a *API) handleSalesSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := a.service.SalesSummary(r.Context(), reportQuery(r))
	if err != nil {
		fail(w, r, err)
		return
	}

	if strings.EqualFold(r.URL.Query().Get("format"), "csv") {
		filename := fmt.Sprintf("sales-summary-%s.csv", summary.Window.Start.Format(report.DateLayout))
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(salesSummaryToCSV(summary)))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"report": summary})
}

func salesSummaryToCSV(summary domain.SalesSummary) string {
	lines := []string{
		"section,key,value",
		fmt.Sprintf("window,period,%s", summary.Window.Period),
		fmt.Sprintf("window,start,%s", summary.Window.Start.Format(report.DateLayout)),
		fmt.Sprintf("window,end,%s", summary.Window.End.Format(report.DateLayout)),
		fmt.Sprintf("summary,orders,%d", summary.Orders),
		fmt.Sprintf("summary,gross_sales,%d", summary.GrossSales),
		fmt.Sprintf("summary,discounts,%d", summary.Discounts),
		fmt.Sprintf("summary,refunds,%d", summary.Refunds),
		fmt.Sprintf("summary,net_sales,%d", summary.NetSales),
		fmt.Sprintf("summary,gratuity,%d", summary.Gratuity),
		fmt.Sprintf("summary,tax,%d", summary.Tax),
		fmt.Sprintf("summary,rounding,%d", summary.Rounding),
		fmt.Sprintf("summary,total_collected,%d", summary.TotalCollected),
	}
	for _, payment := range summary.ByPayment {
		lines = append(lines, fmt.Sprintf("payment,%s_orders,%d", payment.PaymentMethod, payment.Orders))
		lines = append(lines, fmt.Sprintf("payment,%s_total,%d", payment.PaymentMethod, payment.Total))
	}
	return strings.Join(lines, "\n") + "\n"
}

func (a *API) handleAuditLogs(w http.ResponseWriter, r *http.Request) {
	limit := parsePositiveLimit(r.URL.Query().Get("limit"), 100, 500)
	logs, err := a.service.ListAuditLogs(r.Context(), r.URL.Query().Get("date"), limit)
	respond(w, r, http.StatusOK, "audit_logs", logs, err)
}

func (a *API) handleListCashiers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"cashiers": a.auth.ListCashiers(r.Context())})
}

func (a *API) handleCreateCashier(w http.ResponseWriter, r *http.Request) {
	var req domain.CashierCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		fail(w, r, err)
		return
	}
	cashier, err := a.auth.CreateCashier(r.Context(), req)
	respond(w, r, http.StatusCreated, "cashier", cashier, err)
}
