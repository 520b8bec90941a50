package operations

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/events"
	"github.com/appetiteclub/apt/telemetry"
	"github.com/go-chi/chi/v5"

	"github.com/appetiteclub/tableside/pkg/pos"
	"github.com/appetiteclub/tableside/services/waiter/internal/auth"
	"github.com/appetiteclub/tableside/services/waiter/internal/draft"
	"github.com/appetiteclub/tableside/services/waiter/internal/navigator"
)

const (
	MaxBodyBytes    = 1 << 20
	SessionHeader   = "X-Session-ID"
	apiUnavailable  = "POS API unavailable"
	internalFailure = "Internal server error"
)

type ctxKey string

const sessionCtxKey ctxKey = "session"

// POSFactory returns a POS API client that authenticates as token.
type POSFactory func(token string) POS

type HandlerDeps struct {
	Gate      auth.Gate
	Store     *SessionStore
	NewPOS    POSFactory
	Publisher events.Publisher
	Audit     *AuditLogger
	Clock     func() time.Time
}

type Handler struct {
	logger    apt.Logger
	cfg       Config
	tlm       *telemetry.HTTP
	gate      auth.Gate
	store     *SessionStore
	newPOS    POSFactory
	publisher events.Publisher
	audit     *AuditLogger
	clock     func() time.Time
}

func NewHandler(deps HandlerDeps, cfg Config, logger apt.Logger) *Handler {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	if cfg.SessionName == "" {
		cfg.SessionName = DefaultSessionName
	}

	store := deps.Store
	if store == nil {
		store = NewSessionStore(cfg.SessionTTL)
	}
	audit := deps.Audit
	if audit == nil {
		audit = NewAuditLogger(logger)
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	return &Handler{
		logger:    logger,
		cfg:       cfg,
		tlm:       telemetry.NewHTTP(),
		gate:      deps.Gate,
		store:     store,
		newPOS:    deps.NewPOS,
		publisher: deps.Publisher,
		audit:     audit,
		clock:     clock,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/signin", h.SignIn)
	r.Post("/signout", h.SignOut)

	r.Group(func(r chi.Router) {
		r.Use(h.SessionMiddleware)

		r.Get("/me", h.Me)
		r.Get("/view", h.View)
		r.Post("/view/back", h.Back)

		r.Group(func(r chi.Router) {
			r.Use(h.require(auth.CanViewTableStatus))
			r.Get("/floor", h.Floor)
			r.Post("/floor/refresh", h.RefreshFloor)
			r.Post("/floor/tables/{id}/select", h.SelectTable)
		})

		r.Group(func(r chi.Router) {
			r.Use(h.require(auth.CanManageOrders))
			r.Post("/orders/new", h.NewOrder)
			r.Post("/orders/{id}/edit", h.EditOrder)
			r.Post("/orders/resume", h.ResumeDraft)
			r.Get("/menu", h.Menu)
			r.Post("/cart/items", h.AddCartItem)
			r.Patch("/cart/items/{index}", h.UpdateCartItem)
			r.Delete("/cart/items/{index}", h.RemoveCartItem)
			r.Post("/cart/items/{index}/increment", h.IncrementCartItem)
			r.Post("/cart/items/{index}/decrement", h.DecrementCartItem)
			r.Post("/cart/view", h.ViewCart)
			r.Post("/cart/continue", h.ContinueShopping)
			r.Post("/cart/submit", h.Submit)
		})
	})
}

// Store exposes the session store to the poller and the event subscriber.
func (h *Handler) Store() *SessionStore {
	return h.store
}

// SessionMiddleware resolves the session from the cookie or the X-Session-ID header.
func (h *Handler) SessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := h.sessionID(r)
		if id == "" {
			apt.RespondError(w, http.StatusUnauthorized, "Session required")
			return
		}

		session, err := h.store.Get(id)
		if err != nil {
			h.log(r).Debug("session rejected", "error", err)
			apt.RespondError(w, http.StatusUnauthorized, "Session expired or invalid")
			return
		}

		ctx := context.WithValue(r.Context(), sessionCtxKey, session)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) sessionID(r *http.Request) string {
	if cookie, err := r.Cookie(h.cfg.SessionName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	return strings.TrimSpace(r.Header.Get(SessionHeader))
}

func sessionFrom(r *http.Request) *Session {
	session, _ := r.Context().Value(sessionCtxKey).(*Session)
	return session
}

// respondErr maps domain errors to HTTP statuses.
func (h *Handler) respondErr(w http.ResponseWriter, log apt.Logger, err error) {
	var (
		transitionErr *navigator.TransitionError
		submitErr     *draft.SubmitError
		apiErr        *pos.APIError
	)

	switch {
	case errors.As(err, &transitionErr):
		apt.RespondError(w, http.StatusConflict, transitionErr.Error())
	case errors.Is(err, draft.ErrEmptyCart):
		apt.RespondError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, draft.ErrNoDraft), errors.Is(err, draft.ErrSubmitting), errors.Is(err, draft.ErrNoTable):
		apt.RespondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, draft.ErrItemNotFound),
		errors.Is(err, ErrTableNotFound),
		errors.Is(err, ErrOrderNotFound),
		errors.Is(err, ErrRecipeNotFound):
		apt.RespondError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &submitErr):
		log.Info("order rejected", "message", submitErr.Message, "error", submitErr.Err)
		apt.RespondError(w, http.StatusBadGateway, submitErr.Message)
	case errors.As(err, &apiErr):
		msg := apiErr.Detail
		if msg == "" {
			msg = apiUnavailable
		}
		log.Info("pos api error", "status", apiErr.StatusCode, "detail", apiErr.Detail)
		apt.RespondError(w, http.StatusBadGateway, msg)
	case pos.IsTransport(err):
		log.Info("pos api unreachable", "error", err)
		apt.RespondError(w, http.StatusBadGateway, apiUnavailable)
	default:
		log.Error("request failed", "error", err)
		apt.RespondError(w, http.StatusInternalServerError, internalFailure)
	}
}

func (h *Handler) decodeJSON(w http.ResponseWriter, r *http.Request, log apt.Logger, target interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	defer r.Body.Close()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.Debug("failed to read request body", "error", err)
		apt.RespondError(w, http.StatusBadRequest, "Failed to read request body")
		return false
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		apt.RespondError(w, http.StatusBadRequest, "Request body required")
		return false
	}

	if err := json.Unmarshal(body, target); err != nil {
		log.Debug("failed to decode request body", "error", err)
		apt.RespondError(w, http.StatusBadRequest, "Invalid JSON in request body")
		return false
	}
	return true
}

func (h *Handler) parseIntParam(w http.ResponseWriter, r *http.Request, log apt.Logger, name string) (int, bool) {
	raw := chi.URLParam(r, name)
	if raw == "" {
		log.Debug("missing path parameter", "name", name)
		apt.RespondError(w, http.StatusBadRequest, "Missing "+name+" parameter")
		return 0, false
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		log.Debug("invalid path parameter", "name", name, "value", raw)
		apt.RespondError(w, http.StatusBadRequest, "Invalid "+name+" parameter")
		return 0, false
	}
	return value, true
}

func (h *Handler) log(r *http.Request) apt.Logger {
	log := h.logger.With("request_id", apt.RequestIDFrom(r.Context()))
	if session := sessionFrom(r); session != nil {
		log = log.With("session_id", session.ID)
	}
	return log
}
