package rest

import (
	"net/http"

	"github.com/emporia/emporia/internal/query"
	"github.com/emporia/emporia/internal/shop"
)

type orderStatusRequest struct {
	Status string `json:"status" schema:"status" validate:"required"`
}

func (h *Handler) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	in, err := decodeAndValidate[shop.OrderInput](r)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	o, err := h.orders.Create(r.Context(), currentUser(r), *in)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, ok(envelope{"order": o}))
}

func (h *Handler) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.orders.Get(r.Context(), currentUser(r), r.PathValue("id"))
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ok(envelope{"order": o}))
}

func (h *Handler) handleMyOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.Mine(r.Context(), currentUser(r))
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ok(envelope{"orders": orders}))
}

func (h *Handler) handleAdminListOrders(w http.ResponseWriter, r *http.Request) {
	listing, err := h.orders.List(r.Context(), query.ParseRequest(r.URL.Query()))
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Success bool `json:"success"`
		*shop.OrderListing
	}{true, listing})
}

func (h *Handler) handleUpdateOrder(w http.ResponseWriter, r *http.Request) {
	req, err := decodeAndValidate[orderStatusRequest](r)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	o, err := h.orders.UpdateStatus(r.Context(), r.PathValue("id"), req.Status)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ok(envelope{"order": o}))
}

func (h *Handler) handleDeleteOrder(w http.ResponseWriter, r *http.Request) {
	if err := h.orders.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ok(nil))
}
