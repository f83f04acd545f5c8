package seed_api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/uptrace/bun/migrate"

	"ms-seeder/internal/database"
	"ms-seeder/internal/lock"
	"ms-seeder/internal/logger"
	"ms-seeder/internal/models"
	"ms-seeder/internal/seeding"
	"ms-seeder/internal/utils"
)

type SeedService interface {
	Seed(ctx context.Context) (*migrate.MigrationGroup, error)
	UndoSeed(ctx context.Context) (*migrate.MigrationGroup, error)
	UndoAllSeeds(ctx context.Context) ([]*migrate.MigrationGroup, error)
	Status(ctx context.Context) (*seeding.Status, error)
	ListUsers(ctx context.Context) ([]models.User, error)
}

type Handler struct {
	SeedService SeedService
	Logger      *logger.Logger
}

func NewHandler(svc SeedService, log *logger.Logger) *Handler {
	return &Handler{SeedService: svc, Logger: log}
}

// GroupResponse is the payload for a single applied or reverted group.
type GroupResponse struct {
	GroupID int64    `json:"group_id"`
	Names   []string `json:"names"`
}

func toGroupResponse(g *migrate.MigrationGroup) GroupResponse {
	names := database.GroupNames(g)
	if names == nil {
		names = []string{}
	}
	return GroupResponse{GroupID: g.ID, Names: names}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/seeds", func(r chi.Router) {
		r.Get("/", h.GetStatus)
		r.Post("/up", h.SeedUp)
		r.Post("/down", h.SeedDown)
		r.Post("/down/all", h.SeedDownAll)
	})
	r.Get("/api/users", h.ListUsers)
}

func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.SeedService.Status(r.Context())
	if err != nil {
		h.fail(w, "Failed to read seed status", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Seed status", status)
}

func (h *Handler) SeedUp(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	group, err := h.SeedService.Seed(r.Context())
	if err != nil {
		h.fail(w, "Failed to apply seeds", err)
		return
	}

	msg := "Seeds applied"
	if group.IsZero() {
		msg = "No pending seeds"
	}
	h.Logger.LogAPI(r.Method, r.URL.Path, msg, time.Since(start).String())
	utils.WriteSuccess(w, http.StatusOK, msg, toGroupResponse(group))
}

func (h *Handler) SeedDown(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	group, err := h.SeedService.UndoSeed(r.Context())
	if err != nil {
		h.fail(w, "Failed to undo seeds", err)
		return
	}

	msg := "Seeds reverted"
	if group.IsZero() {
		msg = "No seeds to revert"
	}
	h.Logger.LogAPI(r.Method, r.URL.Path, msg, time.Since(start).String())
	utils.WriteSuccess(w, http.StatusOK, msg, toGroupResponse(group))
}

func (h *Handler) SeedDownAll(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	groups, err := h.SeedService.UndoAllSeeds(r.Context())
	if err != nil {
		h.fail(w, "Failed to undo all seeds", err)
		return
	}

	out := make([]GroupResponse, 0, len(groups))
	for _, g := range groups {
		out = append(out, toGroupResponse(g))
	}
	msg := fmt.Sprintf("Reverted %d seed group(s)", len(out))
	h.Logger.LogAPI(r.Method, r.URL.Path, msg, time.Since(start).String())
	utils.WriteSuccess(w, http.StatusOK, msg, out)
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.SeedService.ListUsers(r.Context())
	if err != nil {
		h.fail(w, "Failed to list users", err)
		return
	}
	if users == nil {
		users = []models.User{}
	}
	utils.WriteSuccess(w, http.StatusOK, fmt.Sprintf("%d user(s)", len(users)), users)
}

func (h *Handler) fail(w http.ResponseWriter, message string, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, lock.ErrLocked) {
		status = http.StatusConflict
	}
	h.Logger.Error("HTTP", fmt.Sprintf("%s: %v", message, err))
	utils.WriteError(w, status, message, err)
}
