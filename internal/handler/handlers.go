package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/hohotang/shortlink-service/internal/logger"
	"github.com/hohotang/shortlink-service/internal/service"
)

const healthTimeout = 2 * time.Second

type handlers struct {
	svc      MappingService
	store    Pinger
	cache    Pinger
	validate *validator.Validate
	baseURL  string
}

type createRequest struct {
	URL       string     `json:"url" validate:"required,url"`
	ExpiresAt *time.Time `json:"expiresAt"`
}

func (h *handlers) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest

	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.Status(r, http.StatusBadRequest)
		if errors.Is(err, io.EOF) {
			render.JSON(w, r, newErrorResponse(msgEmptyBody))
			return
		}
		render.JSON(w, r, newErrorResponse(msgInvalidBody))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, validationErrorResponse(err))
		return
	}

	m, err := h.svc.Create(r.Context(), req.URL, req.ExpiresAt)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, toURLResponse(m, h.baseURL))
}

func (h *handlers) handleGet(w http.ResponseWriter, r *http.Request) {
	m, err := h.svc.GetByShortKey(r.Context(), chi.URLParam(r, "shortKey"))
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	render.JSON(w, r, toURLResponse(m, h.baseURL))
}

func (h *handlers) handleDelete(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.svc.Delete(r.Context(), chi.URLParam(r, "shortKey"))
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	if !deleted {
		h.renderError(w, r, service.ErrNotFound)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) handleRedirect(w http.ResponseWriter, r *http.Request) {
	m, err := h.svc.IncrementHits(r.Context(), chi.URLParam(r, "shortKey"))
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	http.Redirect(w, r, m.OriginalURL, http.StatusFound)
}

type healthResponse struct {
	Status string `json:"status"`
	Store  string `json:"store"`
	Cache  string `json:"cache"`
}

// handleHealth reports 503 only when the record store is down; a failing
// cache degrades latency, not correctness
func (h *handlers) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	resp := healthResponse{Status: "ok", Store: "ok", Cache: "ok"}
	code := http.StatusOK
	log := logger.Ctx(ctx)

	if err := h.store.Ping(ctx); err != nil {
		log.Error("Record store health check failed", zap.Error(err))
		resp.Status = "unavailable"
		resp.Store = "unavailable"
		code = http.StatusServiceUnavailable
	}

	if err := h.cache.Ping(ctx); err != nil {
		log.Warn("Cache health check failed", zap.Error(err))
		resp.Cache = "degraded"
	}

	render.Status(r, code)
	render.JSON(w, r, resp)
}

// renderError maps a service error to a JSON error response
func (h *handlers) renderError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, newErrorResponse(msgNotFound))
	case errors.Is(err, service.ErrValidation):
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, validationErrorResponse(err))
	case errors.Is(err, service.ErrKeyExhaustion):
		render.Status(r, http.StatusServiceUnavailable)
		render.JSON(w, r, newErrorResponse(msgKeyExhaustion))
	default:
		logger.Ctx(r.Context()).Error("Request failed", zap.Error(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, newErrorResponse(msgInternalServer))
	}
}
