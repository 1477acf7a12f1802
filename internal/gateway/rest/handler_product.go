package rest

import (
	"net/http"

	"github.com/emporia/emporia/internal/query"
	"github.com/emporia/emporia/internal/shop"
)

func (h *Handler) handleListProducts(w http.ResponseWriter, r *http.Request) {
	listing, err := h.catalog.List(r.Context(), query.ParseRequest(r.URL.Query()))
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Success bool `json:"success"`
		*shop.ProductListing
	}{true, listing})
}

func (h *Handler) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.catalog.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ok(envelope{"product": p}))
}

func (h *Handler) handleAdminProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.All(r.Context())
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ok(envelope{"products": products}))
}

func (h *Handler) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var in shop.ProductInput
	if err := decodeBody(r, &in); err != nil {
		writeErr(w, r, err)
		return
	}
	files, err := formImages(r, "images")
	if err != nil {
		writeErr(w, r, err)
		return
	}
	in.Images = append(in.Images, files...)
	if err := validateStruct(&in); err != nil {
		writeErr(w, r, err)
		return
	}

	p, err := h.catalog.Create(r.Context(), currentUser(r), in)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, ok(envelope{"product": p}))
}

func (h *Handler) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	var patch shop.ProductPatch
	if err := decodeBody(r, &patch); err != nil {
		writeErr(w, r, err)
		return
	}
	// Form bodies carry images as repeated fields and files; JSON bodies
	// already decoded them.
	if formHas(r, "images") {
		images := r.Form["images"]
		if r.MultipartForm != nil {
			images = r.MultipartForm.Value["images"]
		}
		files, err := formImages(r, "images")
		if err != nil {
			writeErr(w, r, err)
			return
		}
		images = append(append([]string{}, images...), files...)
		patch.Images = &images
	}
	if err := validateStruct(&patch); err != nil {
		writeErr(w, r, err)
		return
	}

	p, err := h.catalog.Update(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ok(envelope{"product": p}))
}

func (h *Handler) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ok(envelope{"message": "Product Delete Successfully"}))
}
