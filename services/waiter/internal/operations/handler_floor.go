package operations

import (
	"errors"
	"net/http"

	"github.com/appetiteclub/apt"

	"github.com/appetiteclub/tableside/pkg/pos"
	"github.com/appetiteclub/tableside/services/waiter/internal/draft"
	"github.com/appetiteclub/tableside/services/waiter/internal/navigator"
)

// ViewResponse is the navigator position with whatever the step shows.
type ViewResponse struct {
	View   navigator.View `json:"view"`
	Orders []pos.Order    `json:"orders,omitempty"`
	Cart   *CartView      `json:"cart,omitempty"`
	Flags  Flags          `json:"flags"`
	Notice string         `json:"notice,omitempty"`
}

func (h *Handler) viewResponse(session *Session, view navigator.View) ViewResponse {
	resp := ViewResponse{View: view, Flags: session.Flags()}
	if view.Step != navigator.Tables {
		resp.Orders = session.TableOrders()
	}
	if session.Draft.State() != draft.NoDraft {
		c := session.Cart()
		resp.Cart = &c
	}
	return resp
}

func (h *Handler) Floor(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.Floor")
	defer finish()

	apt.RespondSuccess(w, sessionFrom(r).Floor(h.clock()))
}

// RefreshFloor is the explicit refresh. Unlike a poll it reports failures.
func (h *Handler) RefreshFloor(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.RefreshFloor")
	defer finish()

	log := h.log(r)
	session := sessionFrom(r)

	if err := session.Load(r.Context(), false); err != nil {
		h.respondErr(w, log, err)
		return
	}

	apt.RespondSuccess(w, session.Floor(h.clock()))
}

func (h *Handler) SelectTable(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.SelectTable")
	defer finish()

	log := h.log(r)
	session := sessionFrom(r)

	tableID, ok := h.parseIntParam(w, r, log, "id")
	if !ok {
		return
	}

	view, err := session.SelectTable(r.Context(), tableID)
	var transitionErr *navigator.TransitionError
	if errors.Is(err, ErrTableNotFound) || errors.As(err, &transitionErr) {
		h.respondErr(w, log, err)
		return
	}

	resp := h.viewResponse(session, view)
	if err != nil {
		log.Info("table orders load failed", "table_id", tableID, "error", err)
		resp.Notice = "Could not load the table's orders"
	}
	apt.RespondSuccess(w, resp)
}

func (h *Handler) View(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.View")
	defer finish()

	session := sessionFrom(r)
	apt.RespondSuccess(w, h.viewResponse(session, session.Navigator.View()))
}

func (h *Handler) Back(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.Back")
	defer finish()

	log := h.log(r)
	session := sessionFrom(r)

	view, err := session.Navigator.Back()
	if err != nil {
		h.respondErr(w, log, err)
		return
	}
	apt.RespondSuccess(w, h.viewResponse(session, view))
}
