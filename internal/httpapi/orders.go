package httpapi

import (
	"net/http"

	"kafe/backend/internal/domain"
)

func (a *API) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var req domain.OrderCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		fail(w, r, err)
		return
	}
	order, err := a.service.CreateOrder(r.Context(), req)
	respond(w, r, http.StatusCreated, "order", order, err)
}

func (a *API) handleListOrders(w http.ResponseWriter, r *http.Request) {
	limit := parsePositiveLimit(r.URL.Query().Get("limit"), 100, 500)
	orders, err := a.service.ListOrders(r.Context(), r.URL.Query().Get("status"), limit)
	respond(w, r, http.StatusOK, "orders", orders, err)
}

func (a *API) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	order, err := a.service.GetOrder(r.Context(), r.PathValue("id"))
	respond(w, r, http.StatusOK, "order", order, err)
}

func (a *API) handleCompleteOrder(w http.ResponseWriter, r *http.Request) {
	var req domain.CompleteOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		fail(w, r, err)
		return
	}
	result, err := a.service.CompleteOrder(r.Context(), req)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (a *API) handleListCompletedOrders(w http.ResponseWriter, r *http.Request) {
	window, orders, err := a.service.ListCompletedOrders(r.Context(), reportQuery(r))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"window": window, "completed_orders": orders})
}

func (a *API) handleGetCompletedOrder(w http.ResponseWriter, r *http.Request) {
	completed, err := a.service.GetCompletedOrder(r.Context(), r.PathValue("id"))
	respond(w, r, http.StatusOK, "completed_order", completed, err)
}
