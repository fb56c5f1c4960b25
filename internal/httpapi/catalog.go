package httpapi

import (
	"net/http"

	"kafe/backend/internal/domain"
)

func (a *API) handleListMenus(w http.ResponseWriter, r *http.Request) {
	menus, err := a.service.ListMenus(r.Context())
	respond(w, r, http.StatusOK, "menus", menus, err)
}

func (a *API) handleCreateMenu(w http.ResponseWriter, r *http.Request) {
	var req domain.MenuCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		fail(w, r, err)
		return
	}
	menu, err := a.service.CreateMenu(r.Context(), req)
	respond(w, r, http.StatusCreated, "menu", menu, err)
}

func (a *API) handleGetMenu(w http.ResponseWriter, r *http.Request) {
	menu, err := a.service.GetMenu(r.Context(), r.PathValue("id"))
	respond(w, r, http.StatusOK, "menu", menu, err)
}

func (a *API) handleUpdateMenu(w http.ResponseWriter, r *http.Request) {
	var req domain.MenuUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		fail(w, r, err)
		return
	}
	menu, err := a.service.UpdateMenu(r.Context(), r.PathValue("id"), req)
	respond(w, r, http.StatusOK, "menu", menu, err)
}

func (a *API) handleMenuCost(w http.ResponseWriter, r *http.Request) {
	cost, err := a.service.MenuCost(r.Context(), r.PathValue("id"))
	respond(w, r, http.StatusOK, "cost", cost, err)
}

func (a *API) handleListBundles(w http.ResponseWriter, r *http.Request) {
	bundles, err := a.service.ListBundles(r.Context())
	respond(w, r, http.StatusOK, "bundles", bundles, err)
}

func (a *API) handleCreateBundle(w http.ResponseWriter, r *http.Request) {
	var req domain.BundleCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		fail(w, r, err)
		return
	}
	bundle, err := a.service.CreateBundle(r.Context(), req)
	respond(w, r, http.StatusCreated, "bundle", bundle, err)
}

func (a *API) handleListModifierCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := a.service.ListModifierCategories(r.Context())
	respond(w, r, http.StatusOK, "modifier_categories", categories, err)
}

func (a *API) handleCreateModifierCategory(w http.ResponseWriter, r *http.Request) {
	var req domain.ModifierCategoryCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		fail(w, r, err)
		return
	}
	category, err := a.service.CreateModifierCategory(r.Context(), req)
	respond(w, r, http.StatusCreated, "modifier_category", category, err)
}

func (a *API) handleListModifiers(w http.ResponseWriter, r *http.Request) {
	modifiers, err := a.service.ListModifiers(r.Context())
	respond(w, r, http.StatusOK, "modifiers", modifiers, err)
}

func (a *API) handleCreateModifier(w http.ResponseWriter, r *http.Request) {
	var req domain.ModifierCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		fail(w, r, err)
		return
	}
	modifier, err := a.service.CreateModifier(r.Context(), req)
	respond(w, r, http.StatusCreated, "modifier", modifier, err)
}

func (a *API) handleListDiscounts(w http.ResponseWriter, r *http.Request) {
	discounts, err := a.service.ListDiscounts(r.Context())
	respond(w, r, http.StatusOK, "discounts", discounts, err)
}

func (a *API) handleCreateDiscount(w http.ResponseWriter, r *http.Request) {
	var req domain.DiscountCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		fail(w, r, err)
		return
	}
	discount, err := a.service.CreateDiscount(r.Context(), req)
	respond(w, r, http.StatusCreated, "discount", discount, err)
}

func (a *API) handleToggleDiscount(w http.ResponseWriter, r *http.Request) {
	var req domain.ToggleRequest
	if err := decodeJSON(r, &req); err != nil {
		fail(w, r, err)
		return
	}
	discount, err := a.service.SetDiscountActive(r.Context(), r.PathValue("id"), req.IsActive)
	respond(w, r, http.StatusOK, "discount", discount, err)
}

func (a *API) handleListTaxes(w http.ResponseWriter, r *http.Request) {
	taxes, err := a.service.ListTaxes(r.Context())
	respond(w, r, http.StatusOK, "taxes", taxes, err)
}

func (a *API) handleCreateTax(w http.ResponseWriter, r *http.Request) {
	var req domain.RateCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		fail(w, r, err)
		return
	}
	tax, err := a.service.CreateTax(r.Context(), req)
	respond(w, r, http.StatusCreated, "tax", tax, err)
}

func (a *API) handleToggleTax(w http.ResponseWriter, r *http.Request) {
	var req domain.ToggleRequest
	if err := decodeJSON(r, &req); err != nil {
		fail(w, r, err)
		return
	}
	tax, err := a.service.SetTaxActive(r.Context(), r.PathValue("id"), req.IsActive)
	respond(w, r, http.StatusOK, "tax", tax, err)
}

func (a *API) handleListGratuities(w http.ResponseWriter, r *http.Request) {
	gratuities, err := a.service.ListGratuities(r.Context())
	respond(w, r, http.StatusOK, "gratuities", gratuities, err)
}

func (a *API) handleCreateGratuity(w http.ResponseWriter, r *http.Request) {
	var req domain.RateCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		fail(w, r, err)
		return
	}
	gratuity, err := a.service.CreateGratuity(r.Context(), req)
	respond(w, r, http.StatusCreated, "gratuity", gratuity, err)
}

func (a *API) handleToggleGratuity(w http.ResponseWriter, r *http.Request) {
	var req domain.ToggleRequest
	if err := decodeJSON(r, &req); err != nil {
		fail(w, r, err)
		return
	}
	gratuity, err := a.service.SetGratuityActive(r.Context(), r.PathValue("id"), req.IsActive)
	respond(w, r, http.StatusOK, "gratuity", gratuity, err)
}
