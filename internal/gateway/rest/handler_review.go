package rest

import (
	"net/http"

	"github.com/emporia/emporia/internal/shop"
)

type reviewListQuery struct {
	ProductID string `schema:"id" validate:"required"`
}

type reviewDeleteQuery struct {
	ProductID string `schema:"productId" validate:"required"`
	ReviewID  string `schema:"id" validate:"required"`
}

func (h *Handler) handleUpsertReview(w http.ResponseWriter, r *http.Request) {
	in, err := decodeAndValidate[shop.ReviewInput](r)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	if _, err := h.reviews.Upsert(r.Context(), currentUser(r), *in); err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ok(nil))
}

func (h *Handler) handleListReviews(w http.ResponseWriter, r *http.Request) {
	var q reviewListQuery
	if err := decodeQuery(r, &q); err != nil {
		writeErr(w, r, err)
		return
	}
	reviews, err := h.reviews.List(r.Context(), q.ProductID)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ok(envelope{"reviews": reviews}))
}

func (h *Handler) handleDeleteReview(w http.ResponseWriter, r *http.Request) {
	var q reviewDeleteQuery
	if err := decodeQuery(r, &q); err != nil {
		writeErr(w, r, err)
		return
	}
	if _, err := h.reviews.Delete(r.Context(), currentUser(r), q.ProductID, q.ReviewID); err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ok(nil))
}
