package handler

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/gameshelf/internal/aggregate"
	"github.com/mcoot/gameshelf/internal/api/response"
	"github.com/mcoot/gameshelf/internal/model"
	"github.com/mcoot/gameshelf/internal/repository"
	"github.com/mcoot/gameshelf/internal/services/consistency"
)

// AdminHandler exposes aggregate maintenance operations
type AdminHandler struct {
	repos       *repository.Repositories
	engine      *aggregate.Engine
	consistency *consistency.Service
	logger      *slog.Logger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(
	repos *repository.Repositories,
	engine *aggregate.Engine,
	consistency *consistency.Service,
	logger *slog.Logger,
) *AdminHandler {
	return &AdminHandler{
		repos:       repos,
		engine:      engine,
		consistency: consistency,
		logger:      logger,
	}
}

// RecomputeAll handles POST /api/v1/admin/recompute
func (h *AdminHandler) RecomputeAll(w http.ResponseWriter, r *http.Request) {
	summary, err := h.engine.RecomputeAll(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.RecomputeAll{Games: summary.Games, Users: summary.Users})
}

// RecomputeGame handles POST /api/v1/admin/recompute/games/{id}
func (h *AdminHandler) RecomputeGame(w http.ResponseWriter, r *http.Request) {
	id := model.GameID(mux.Vars(r)["id"])

	// The engine skips missing games silently; callers here want a 404
	if _, err := h.repos.Games.GetByID(r.Context(), id); err != nil {
		WriteError(w, err)
		return
	}
	if err := h.engine.RecomputeGame(r.Context(), id); err != nil {
		WriteError(w, err)
		return
	}

	h.logger.Info("recomputed game on request", slog.String("game_id", string(id)))
	response.JSON(w, http.StatusOK, response.Recompute{Kind: "game", ID: string(id)})
}

// RecomputeUser handles POST /api/v1/admin/recompute/users/{id}
func (h *AdminHandler) RecomputeUser(w http.ResponseWriter, r *http.Request) {
	id := model.UserID(mux.Vars(r)["id"])

	if _, err := h.repos.Users.GetByID(r.Context(), id); err != nil {
		WriteError(w, err)
		return
	}
	if err := h.engine.RecomputeUser(r.Context(), id); err != nil {
		WriteError(w, err)
		return
	}

	h.logger.Info("recomputed user on request", slog.String("user_id", string(id)))
	response.JSON(w, http.StatusOK, response.Recompute{Kind: "user", ID: string(id)})
}

// Verify handles GET /api/v1/admin/verify
func (h *AdminHandler) Verify(w http.ResponseWriter, r *http.Request) {
	report, err := h.consistency.Verify(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.VerifyFromReport(report))
}
