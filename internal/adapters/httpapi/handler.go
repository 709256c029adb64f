package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/atvirokodosprendimai/audito/internal/core/domain"
	"github.com/atvirokodosprendimai/audito/internal/core/usecase"
)

type ctxKey string

const (
	timeFormat             = "2006-01-02T15:04:05.999999999Z07:00"
	apiActorCtxKey  ctxKey = "api_actor"
	maxJSONBodySize        = 1 << 20
)

// Dispatcher forwards a committed mutation to its subscribers.
type Dispatcher interface {
	Dispatch(ev domain.MutationEvent) int
}

type Handler struct {
	queryService *usecase.QueryService
	authService  *usecase.AuthService
	dispatcher   Dispatcher
	gatherer     prometheus.Gatherer
	logger       *zap.Logger
}

type Option func(*Handler)

func WithLogger(logger *zap.Logger) Option {
	return func(h *Handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithGatherer sets the registry exposed on /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(h *Handler) {
		if g != nil {
			h.gatherer = g
		}
	}
}

func NewHandler(queryService *usecase.QueryService, authService *usecase.AuthService, dispatcher Dispatcher, opts ...Option) *Handler {
	h := &Handler{
		queryService: queryService,
		authService:  authService,
		dispatcher:   dispatcher,
		gatherer:     prometheus.DefaultGatherer,
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.logger = h.logger.Named("http")
	return h
}

func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", h.healthz)
	r.Handle("/metrics", promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{}))

	r.Group(func(ar chi.Router) {
		ar.Use(h.requireRole(domain.RoleAdmin))
		ar.Get("/v1/audits", h.listAudits)
		ar.Get("/v1/audits/{id}", h.getChanges)
	})

	r.Group(func(ir chi.Router) {
		ir.Use(h.requireRole(domain.RoleIngest))
		ir.Post("/v1/mutations", h.ingestMutation)
	})

	return r
}

type summaryResponse struct {
	ID              int64  `json:"id"`
	Action          string `json:"action"`
	ContentTypeName string `json:"contentTypeName"`
	UserName        string `json:"userName"`
	CreatedAt       string `json:"createdAt"`
}

type paginationResponse struct {
	Page      int   `json:"page"`
	PageSize  int   `json:"pageSize"`
	PageCount int   `json:"pageCount"`
	Total     int64 `json:"total"`
}

type listResponse struct {
	Results    []summaryResponse  `json:"results"`
	Pagination paginationResponse `json:"pagination"`
}

func (h *Handler) listAudits(w http.ResponseWriter, r *http.Request) {
	page, ok := parsePage(w, r)
	if !ok {
		return
	}

	result, err := h.queryService.ListSummaries(r.Context(), page)
	if err != nil {
		h.handleDomainError(w, err)
		return
	}

	resp := listResponse{
		Results: make([]summaryResponse, 0, len(result.Results)),
		Pagination: paginationResponse{
			Page:      result.Pagination.Page,
			PageSize:  result.Pagination.PageSize,
			PageCount: result.Pagination.PageCount,
			Total:     result.Pagination.Total,
		},
	}
	for _, s := range result.Results {
		resp.Results = append(resp.Results, toSummaryResponse(s))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) getChanges(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "id must be a positive integer")
		return
	}

	changes, err := h.queryService.GetChanges(r.Context(), id)
	if err != nil {
		h.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, changes)
}

func (h *Handler) ingestMutation(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxJSONBodySize))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	ev, err := decodeMutation(body)
	if err != nil {
		var sv *schemaViolationError
		if errors.As(err, &sv) {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": "mutation does not match schema", "details": sv.Errors})
			return
		}
		h.handleDomainError(w, err)
		return
	}

	delivered := h.dispatcher.Dispatch(ev)
	h.logger.Debug("mutation dispatched",
		zap.String("model", ev.ModelID()),
		zap.String("action", string(ev.Action())),
		zap.String("api_actor", actorFromContext(r.Context())),
		zap.Int("subscribers", delivered),
	)
	writeJSON(w, http.StatusAccepted, map[string]bool{"accepted": true})
}

func (h *Handler) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *Handler) requireRole(role domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			apiKey, err := h.authService.Authorize(r.Context(), bearerToken(r), role)
			if err != nil {
				switch {
				case errors.Is(err, usecase.ErrUnauthorized):
					writeError(w, http.StatusUnauthorized, "unauthorized")
				case errors.Is(err, usecase.ErrForbidden):
					writeError(w, http.StatusForbidden, "forbidden")
				default:
					h.logger.Error("authorize request", zap.Error(err))
					writeError(w, http.StatusInternalServerError, "internal server error")
				}
				return
			}

			ctx := context.WithValue(r.Context(), apiActorCtxKey, apiKey.Name)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	token := strings.TrimSpace(r.Header.Get("X-API-Key"))
	if token == "" {
		auth := strings.TrimSpace(r.Header.Get("Authorization"))
		if strings.HasPrefix(strings.ToLower(auth), "bearer ") {
			token = strings.TrimSpace(auth[7:])
		}
	}
	return token
}

func toSummaryResponse(s domain.AuditSummary) summaryResponse {
	return summaryResponse{
		ID:              s.ID,
		Action:          string(s.Action),
		ContentTypeName: s.ContentTypeName,
		UserName:        s.UserName,
		CreatedAt:       s.CreatedAt.UTC().Format(timeFormat),
	}
}

func parsePage(w http.ResponseWriter, r *http.Request) (int, bool) {
	page := 1
	if raw := r.URL.Query().Get("page"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeError(w, http.StatusBadRequest, "page must be a positive integer")
			return 0, false
		}
		page = parsed
	}
	return page, true
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	data, err := json.Marshal(body)
	if err != nil {
		zap.L().Error("encode json response", zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(append(data, '\n')); err != nil {
		zap.L().Warn("write response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": message})
}

func (h *Handler) handleDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		h.logger.Error("request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func actorFromContext(ctx context.Context) string {
	actor, _ := ctx.Value(apiActorCtxKey).(string)
	if actor == "" {
		return "api"
	}
	return actor
}
