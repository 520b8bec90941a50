package operations

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/appetiteclub/apt"

	"github.com/appetiteclub/tableside/pkg/event"
	"github.com/appetiteclub/tableside/pkg/pos"
	"github.com/appetiteclub/tableside/services/waiter/internal/cart"
	"github.com/appetiteclub/tableside/services/waiter/internal/draft"
	"github.com/appetiteclub/tableside/services/waiter/internal/navigator"
)

type AddItemRequest struct {
	RecipeID int `json:"recipe_id"`
}

type SubmitResponse struct {
	ViewResponse
	Order   *pos.Order `json:"order,omitempty"`
	Created bool       `json:"created"`
}

func (h *Handler) NewOrder(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.NewOrder")
	defer finish()

	session := sessionFrom(r)
	h.respondView(w, h.log(r), session, session.Navigator.NewOrder)
}

func (h *Handler) EditOrder(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.EditOrder")
	defer finish()

	log := h.log(r)
	session := sessionFrom(r)

	orderID, ok := h.parseIntParam(w, r, log, "id")
	if !ok {
		return
	}
	order, found := session.FindTableOrder(orderID)
	if !found {
		h.respondErr(w, log, ErrOrderNotFound)
		return
	}

	h.respondView(w, log, session, func() (navigator.View, error) {
		return session.Navigator.EditOrder(order)
	})
}

func (h *Handler) ResumeDraft(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ResumeDraft")
	defer finish()

	session := sessionFrom(r)
	h.respondView(w, h.log(r), session, session.Navigator.ResumeDraft)
}

func (h *Handler) ViewCart(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ViewCart")
	defer finish()

	session := sessionFrom(r)
	h.respondView(w, h.log(r), session, session.Navigator.ViewCart)
}

func (h *Handler) ContinueShopping(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ContinueShopping")
	defer finish()

	session := sessionFrom(r)
	h.respondView(w, h.log(r), session, session.Navigator.ContinueShopping)
}

// Menu filters the cached recipes by ?group= and ?q=. Without either
// parameter the last filter of the session is reused.
func (h *Handler) Menu(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.Menu")
	defer finish()

	log := h.log(r)
	session := sessionFrom(r)

	query := r.URL.Query()
	if !query.Has("group") && !query.Has("q") {
		apt.RespondSuccess(w, session.Menu(session.CurrentFilter()))
		return
	}

	filter := MenuFilter{Search: strings.TrimSpace(query.Get("q"))}
	if raw := strings.TrimSpace(query.Get("group")); raw != "" {
		groupID, err := strconv.Atoi(raw)
		if err != nil || groupID < 0 {
			log.Debug("invalid group filter", "value", raw)
			apt.RespondError(w, http.StatusBadRequest, "Invalid group parameter")
			return
		}
		filter.GroupID = groupID
	}

	apt.RespondSuccess(w, session.Menu(filter))
}

func (h *Handler) AddCartItem(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.AddCartItem")
	defer finish()

	log := h.log(r)
	session := sessionFrom(r)

	var req AddItemRequest
	if !h.decodeJSON(w, r, log, &req) {
		return
	}
	if req.RecipeID <= 0 {
		apt.RespondError(w, http.StatusBadRequest, "recipe_id is required")
		return
	}

	recipe, found := session.FindRecipe(req.RecipeID)
	if !found {
		h.respondErr(w, log, ErrRecipeNotFound)
		return
	}

	h.mutateCart(w, log, session, func(c *cart.Cart) bool {
		c.Add(recipe)
		return true
	})
}

func (h *Handler) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.UpdateCartItem")
	defer finish()

	log := h.log(r)
	session := sessionFrom(r)

	index, ok := h.parseIntParam(w, r, log, "index")
	if !ok {
		return
	}

	var update cart.Update
	if !h.decodeJSON(w, r, log, &update) {
		return
	}
	if update.Quantity == nil && update.Notes == nil && update.IsTakeaway == nil {
		apt.RespondError(w, http.StatusBadRequest, "Nothing to update")
		return
	}

	h.mutateCart(w, log, session, func(c *cart.Cart) bool {
		return c.Update(index, update)
	})
}

func (h *Handler) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.RemoveCartItem")
	defer finish()

	h.mutateIndex(w, r, func(c *cart.Cart, index int) bool { return c.Remove(index) })
}

func (h *Handler) IncrementCartItem(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.IncrementCartItem")
	defer finish()

	h.mutateIndex(w, r, func(c *cart.Cart, index int) bool { return c.Increment(index) })
}

func (h *Handler) DecrementCartItem(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.DecrementCartItem")
	defer finish()

	h.mutateIndex(w, r, func(c *cart.Cart, index int) bool { return c.Decrement(index) })
}

// Submit saves the draft as a new order or as an update of the order being
// edited, then tells the other sessions about it.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.Submit")
	defer finish()

	log := h.log(r)
	session := sessionFrom(r)
	actor := session.Principal.WaiterName()

	view, result, err := session.Submit(r.Context())
	if err != nil {
		var submitErr *draft.SubmitError
		if errors.As(err, &submitErr) {
			snap := session.Draft.Snapshot()
			h.audit.LogSubmit(r.Context(), SubmitRecord{
				SessionID: session.ID,
				Actor:     actor,
				TableID:   snap.TableID,
				OrderID:   snap.OrderID,
				Items:     len(snap.Items),
				Created:   snap.OrderID == 0,
			}, submitErr)
		}
		h.respondErr(w, log, err)
		return
	}

	orderID := 0
	if result.Order != nil {
		orderID = result.Order.ID
	}
	h.audit.LogSubmit(r.Context(), SubmitRecord{
		SessionID: session.ID,
		Actor:     actor,
		TableID:   result.TableID,
		OrderID:   orderID,
		Items:     result.ItemCount,
		Created:   result.Created,
	}, nil)
	h.publishSubmitted(r.Context(), session, result, view)

	resp := SubmitResponse{
		ViewResponse: h.viewResponse(session, view),
		Order:        result.Order,
		Created:      result.Created,
	}
	if result.RefreshErr != nil {
		resp.Notice = "Order saved, but the order lists could not be refreshed"
	}

	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	log.Info("order submitted", "order_id", orderID, "table_id", result.TableID, "created", result.Created, "items", result.ItemCount)
	apt.Respond(w, status, resp, nil)
}

func (h *Handler) respondView(w http.ResponseWriter, log apt.Logger, session *Session, move func() (navigator.View, error)) {
	view, err := move()
	if err != nil {
		h.respondErr(w, log, err)
		return
	}
	apt.RespondSuccess(w, h.viewResponse(session, view))
}

func (h *Handler) mutateIndex(w http.ResponseWriter, r *http.Request, fn func(*cart.Cart, int) bool) {
	log := h.log(r)
	index, ok := h.parseIntParam(w, r, log, "index")
	if !ok {
		return
	}
	h.mutateCart(w, log, sessionFrom(r), func(c *cart.Cart) bool {
		return fn(c, index)
	})
}

func (h *Handler) mutateCart(w http.ResponseWriter, log apt.Logger, session *Session, fn func(*cart.Cart) bool) {
	if err := session.Draft.Mutate(fn); err != nil {
		h.respondErr(w, log, err)
		return
	}
	apt.RespondSuccess(w, session.Cart())
}

func (h *Handler) publishSubmitted(ctx context.Context, session *Session, result *draft.Result, view navigator.View) {
	if h.publisher == nil {
		return
	}

	evt := event.OrderSubmittedEvent{
		EventType:  event.EventOrderUpdated,
		OccurredAt: time.Now().UTC(),
		SessionID:  session.ID,
		TableID:    result.TableID,
		Waiter:     session.Principal.WaiterName(),
		ItemCount:  result.ItemCount,
	}
	if result.Created {
		evt.EventType = event.EventOrderCreated
	}
	if result.Order != nil {
		evt.OrderID = result.Order.ID
		evt.GrandTotal = result.Order.Total().StringFixed(2)
	}
	if view.Table != nil {
		evt.TableNumber = view.Table.Number
	}

	payload, err := json.Marshal(evt)
	if err != nil {
		h.logger.Error("cannot marshal order submitted event", "error", err, "table_id", result.TableID)
		return
	}
	if err := h.publisher.Publish(ctx, event.OrdersSubmittedTopic, payload); err != nil {
		h.logger.Error("cannot publish order submitted event", "error", err, "table_id", result.TableID)
	}
}
