package httpapi

import (
	"net/http"

	"kafe/backend/internal/domain"
)

func (a *API) handleListIngredients(w http.ResponseWriter, r *http.Request) {
	ingredients, err := a.service.ListIngredients(r.Context())
	respond(w, r, http.StatusOK, "ingredients", ingredients, err)
}

func (a *API) handleCreateIngredient(w http.ResponseWriter, r *http.Request) {
	var req domain.IngredientCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		fail(w, r, err)
		return
	}
	ingredient, err := a.service.CreateIngredient(r.Context(), req)
	respond(w, r, http.StatusCreated, "ingredient", ingredient, err)
}

func (a *API) handleGetIngredient(w http.ResponseWriter, r *http.Request) {
	ingredient, err := a.service.GetIngredient(r.Context(), r.PathValue("id"))
	respond(w, r, http.StatusOK, "ingredient", ingredient, err)
}

func (a *API) handleUpdateIngredient(w http.ResponseWriter, r *http.Request) {
	var req domain.IngredientUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		fail(w, r, err)
		return
	}
	change, err := a.service.UpdateIngredient(r.Context(), r.PathValue("id"), req)
	respond(w, r, http.StatusOK, "change", change, err)
}

func (a *API) handleRestockIngredient(w http.ResponseWriter, r *http.Request) {
	var req domain.RestockRequest
	if err := decodeJSON(r, &req); err != nil {
		fail(w, r, err)
		return
	}
	change, err := a.service.RestockIngredient(r.Context(), r.PathValue("id"), req)
	respond(w, r, http.StatusOK, "change", change, err)
}

func (a *API) handleRecordWaste(w http.ResponseWriter, r *http.Request) {
	var req domain.StockQuantityRequest
	if err := decodeJSON(r, &req); err != nil {
		fail(w, r, err)
		return
	}
	change, err := a.service.RecordWaste(r.Context(), r.PathValue("id"), req)
	respond(w, r, http.StatusOK, "change", change, err)
}

func (a *API) handleProduceSemiFinished(w http.ResponseWriter, r *http.Request) {
	var req domain.StockQuantityRequest
	if err := decodeJSON(r, &req); err != nil {
		fail(w, r, err)
		return
	}
	change, err := a.service.ProduceSemiFinished(r.Context(), r.PathValue("id"), req)
	respond(w, r, http.StatusOK, "change", change, err)
}

func (a *API) handleStockMovements(w http.ResponseWriter, r *http.Request) {
	limit := parsePositiveLimit(r.URL.Query().Get("limit"), 100, 500)
	movements, err := a.service.ListStockMovements(r.Context(), r.PathValue("id"), limit)
	respond(w, r, http.StatusOK, "movements", movements, err)
}

func (a *API) handleListGudang(w http.ResponseWriter, r *http.Request) {
	gudang, err := a.service.ListGudang(r.Context())
	respond(w, r, http.StatusOK, "gudang", gudang, err)
}

func (a *API) handleLowStockAlerts(w http.ResponseWriter, r *http.Request) {
	alerts, err := a.service.LowStockAlerts(r.Context())
	respond(w, r, http.StatusOK, "alerts", alerts, err)
}
