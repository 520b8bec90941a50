package operations

import (
	"errors"
	"net/http"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/google/uuid"

	"github.com/appetiteclub/tableside/services/waiter/internal/auth"
	"github.com/appetiteclub/tableside/services/waiter/internal/navigator"
)

type SignInResponse struct {
	SessionID string          `json:"session_id"`
	User      *auth.Principal `json:"user"`
	ExpiresAt time.Time       `json:"expires_at"`
	View      navigator.View  `json:"view"`
	Notice    string          `json:"notice,omitempty"`
}

type MeResponse struct {
	User  *auth.Principal `json:"user"`
	View  navigator.View  `json:"view"`
	Flags Flags           `json:"flags"`
}

// SignIn authenticates through the active gate, opens a session and performs
// its initial data load. A failed load does not fail the sign-in; the poller
// fills the session later.
func (h *Handler) SignIn(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.SignIn")
	defer finish()

	log := h.log(r)

	if h.gate == nil || h.newPOS == nil {
		log.Error("sign-in attempted without gate or pos client")
		apt.RespondError(w, http.StatusServiceUnavailable, "Sign-in not available")
		return
	}

	var creds auth.Credentials
	if !h.decodeJSON(w, r, log, &creds) {
		return
	}

	principal, err := h.gate.Login(r.Context(), creds)
	if err != nil {
		h.audit.LogSignIn(r.Context(), "", creds.Username, h.gate.Name(), err)
		switch {
		case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrMissingToken):
			log.Info("sign-in rejected", "provider", h.gate.Name(), "error", err)
			apt.RespondError(w, http.StatusUnauthorized, err.Error())
		case errors.Is(err, auth.ErrUnavailable):
			log.Info("identity service unavailable", "provider", h.gate.Name(), "error", err)
			apt.RespondError(w, http.StatusServiceUnavailable, err.Error())
		default:
			log.Error("sign-in failed", "provider", h.gate.Name(), "error", err)
			apt.RespondError(w, http.StatusInternalServerError, internalFailure)
		}
		return
	}

	id := uuid.NewString()
	session := NewSession(id, principal, h.newPOS(principal.Token), SessionOptions{
		KeepDraftOnBack: h.cfg.KeepDraftOnBack,
		Tiers:           h.cfg.Tiers,
	}, h.logger)
	if err := h.store.Save(session); err != nil {
		log.Error("cannot save session", "error", err)
		apt.RespondError(w, http.StatusInternalServerError, internalFailure)
		return
	}

	resp := SignInResponse{
		SessionID: id,
		User:      principal,
		ExpiresAt: session.ExpiresAt,
	}
	if err := session.Load(r.Context(), false); err != nil {
		resp.Notice = "Could not load restaurant data"
	}
	resp.View = session.Navigator.View()

	h.audit.LogSignIn(r.Context(), id, principal.WaiterName(), h.gate.Name(), nil)
	log.Info("waiter signed in", "session_id", id, "user", principal.WaiterName(), "role", string(principal.Role))

	http.SetCookie(w, &http.Cookie{
		Name:     h.cfg.SessionName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(h.store.TTL().Seconds()),
	})

	apt.Respond(w, http.StatusCreated, resp, nil)
}

// SignOut ends the session, if any. It always succeeds for the caller.
func (h *Handler) SignOut(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.SignOut")
	defer finish()

	log := h.log(r)

	if id := h.sessionID(r); id != "" {
		if session, err := h.store.Get(id); err == nil {
			if h.gate != nil {
				if err := h.gate.Logout(r.Context(), session.Principal); err != nil {
					log.Info("remote logout failed", "session_id", id, "error", err)
				}
			}
			h.audit.LogSignOut(r.Context(), id, session.Principal.WaiterName())
		}
		h.store.Delete(id)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.cfg.SessionName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})

	apt.RespondSuccess(w, map[string]bool{"signed_out": true})
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.Me")
	defer finish()

	session := sessionFrom(r)
	apt.RespondSuccess(w, MeResponse{
		User:  session.Principal,
		View:  session.Navigator.View(),
		Flags: session.Flags(),
	})
}
