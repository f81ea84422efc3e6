package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/gameshelf/internal/api/response"
	"github.com/mcoot/gameshelf/internal/model"
	"github.com/mcoot/gameshelf/internal/repository"
	"github.com/mcoot/gameshelf/internal/services/library"
	"github.com/mcoot/gameshelf/internal/services/review"
)

// CatalogHandler serves read-only views of games and users
type CatalogHandler struct {
	repos   *repository.Repositories
	library *library.Service
	reviews *review.Service
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(repos *repository.Repositories, lib *library.Service, reviews *review.Service) *CatalogHandler {
	return &CatalogHandler{
		repos:   repos,
		library: lib,
		reviews: reviews,
	}
}

// GetGame handles GET /api/v1/games/{id}
func (h *CatalogHandler) GetGame(w http.ResponseWriter, r *http.Request) {
	id := model.GameID(mux.Vars(r)["id"])

	g, err := h.repos.Games.GetByID(r.Context(), id)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.GameFromModel(g))
}

// GameReviews handles GET /api/v1/games/{id}/reviews?sort=
func (h *CatalogHandler) GameReviews(w http.ResponseWriter, r *http.Request) {
	id := model.GameID(mux.Vars(r)["id"])

	order := review.Sort(r.URL.Query().Get("sort"))
	if order == "" {
		order = review.SortNewest
	}
	if !order.Valid() {
		WriteError(w, NewInvalidRequestError("unknown sort order"))
		return
	}

	if _, err := h.repos.Games.GetByID(r.Context(), id); err != nil {
		WriteError(w, err)
		return
	}
	reviews, err := h.reviews.ForGame(r.Context(), id, order)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.ReviewsFromModel(reviews))
}

// UserStats handles GET /api/v1/users/{id}/stats
func (h *CatalogHandler) UserStats(w http.ResponseWriter, r *http.Request) {
	id := model.UserID(mux.Vars(r)["id"])

	u, err := h.repos.Users.GetByID(r.Context(), id)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.UserStatsFromModel(u))
}

// UserLibrary handles GET /api/v1/users/{id}/library?status=
func (h *CatalogHandler) UserLibrary(w http.ResponseWriter, r *http.Request) {
	id := model.UserID(mux.Vars(r)["id"])

	status := model.GameStatus(r.URL.Query().Get("status"))
	if status != "" && !status.Valid() {
		WriteError(w, NewInvalidRequestError("unknown status"))
		return
	}

	if _, err := h.repos.Users.GetByID(r.Context(), id); err != nil {
		WriteError(w, err)
		return
	}
	entries, err := h.library.List(r.Context(), id, status)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.LibraryFromEntries(entries))
}
