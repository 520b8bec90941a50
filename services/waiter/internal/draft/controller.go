package draft

import (
	"context"
	"sync"

	"github.com/appetiteclub/apt"
	"golang.org/x/sync/errgroup"

	"github.com/appetiteclub/tableside/pkg/pos"
	"github.com/appetiteclub/tableside/services/waiter/internal/cart"
)

type State string

const (
	NoDraft    State = "no_draft"
	Editing    State = "editing"
	Submitting State = "submitting"
)

// OrderWriter persists a draft. *pos.Client satisfies it.
type OrderWriter interface {
	CreateOrder(ctx context.Context, req pos.CreateOrderRequest) (*pos.Order, error)
	UpdateOrder(ctx context.Context, orderID int, req pos.UpdateOrderRequest) (*pos.Order, error)
}

// Refresher reloads the cached order collections after a successful submit.
type Refresher interface {
	RefreshTableOrders(ctx context.Context, tableID int) error
	RefreshOpenOrders(ctx context.Context) error
}

// Result describes a successful submit. RefreshErr is set when one of the
// follow-up reads failed; the order itself was saved.
type Result struct {
	Order      *pos.Order
	Created    bool
	TableID    int
	ItemCount  int
	RefreshErr error
}

// Snapshot is a read-only copy of the draft.
type Snapshot struct {
	State   State           `json:"state"`
	TableID int             `json:"table_id,omitempty"`
	OrderID int             `json:"order_id,omitempty"`
	Items   []cart.LineItem `json:"items"`
}

// Controller owns the cart of one waiter session and moves it through
// NoDraft, Editing and Submitting.
type Controller struct {
	mu      sync.Mutex
	state   State
	tableID int
	editing *pos.Order
	cart    *cart.Cart
	writer  OrderWriter
	logger  apt.Logger
}

func NewController(writer OrderWriter, logger apt.Logger) *Controller {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &Controller{
		state:  NoDraft,
		cart:   cart.New(),
		writer: writer,
		logger: logger,
	}
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// BeginNew starts an empty draft for tableID, dropping any previous one.
func (c *Controller) BeginNew(tableID int) error {
	if tableID <= 0 {
		return ErrNoTable
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == Submitting {
		return ErrSubmitting
	}
	c.state = Editing
	c.tableID = tableID
	c.editing = nil
	c.cart = cart.New()
	return nil
}

// BeginEdit starts a draft seeded from an existing order.
func (c *Controller) BeginEdit(tableID int, order pos.Order) error {
	if tableID <= 0 {
		return ErrNoTable
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == Submitting {
		return ErrSubmitting
	}
	c.state = Editing
	c.tableID = tableID
	c.editing = &order
	c.cart = cart.FromOrder(order)
	return nil
}

// Discard drops the draft and its cart.
func (c *Controller) Discard() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == Submitting {
		return ErrSubmitting
	}
	c.reset()
	return nil
}

// Mutate applies fn to the cart of the current draft. fn reports whether the
// line it addressed existed.
func (c *Controller) Mutate(fn func(*cart.Cart) bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.state {
	case NoDraft:
		return ErrNoDraft
	case Submitting:
		return ErrSubmitting
	}
	if !fn(c.cart) {
		return ErrItemNotFound
	}
	return nil
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := Snapshot{
		State:   c.state,
		TableID: c.tableID,
		Items:   c.cart.Items(),
	}
	if c.editing != nil {
		s.OrderID = c.editing.ID
	}
	return s
}

// Submit saves the draft. An empty cart fails with ErrEmptyCart before any
// request is made. On success both order collections are refreshed
// concurrently and the draft is cleared only after both reads return. On
// failure the draft goes back to Editing with its cart intact.
func (c *Controller) Submit(ctx context.Context, waiter string, refresher Refresher) (*Result, error) {
	c.mu.Lock()
	switch c.state {
	case NoDraft:
		c.mu.Unlock()
		return nil, ErrNoDraft
	case Submitting:
		c.mu.Unlock()
		return nil, ErrSubmitting
	}
	if c.cart.IsEmpty() {
		c.mu.Unlock()
		return nil, ErrEmptyCart
	}
	if c.writer == nil {
		c.mu.Unlock()
		return nil, newSubmitError(errWriterNotConfigured)
	}

	items := c.cart.Items()
	payload := BuildPayload(items)
	tableID := c.tableID
	editing := c.editing
	c.state = Submitting
	c.mu.Unlock()

	var (
		saved *pos.Order
		err   error
	)
	if editing != nil {
		saved, err = c.writer.UpdateOrder(ctx, editing.ID, payload.updateRequest())
	} else {
		saved, err = c.writer.CreateOrder(ctx, payload.createRequest(tableID, waiter))
	}

	if err != nil {
		c.mu.Lock()
		c.state = Editing
		c.mu.Unlock()
		c.logger.Info("order submit failed", "table_id", tableID, "error", err)
		return nil, newSubmitError(err)
	}

	result := &Result{
		Order:     saved,
		Created:   editing == nil,
		TableID:   tableID,
		ItemCount: len(items),
	}
	if refresher != nil {
		result.RefreshErr = refreshAfterSubmit(ctx, refresher, tableID)
		if result.RefreshErr != nil {
			c.logger.Info("refresh after submit failed", "table_id", tableID, "error", result.RefreshErr)
		}
	}

	c.mu.Lock()
	c.reset()
	c.mu.Unlock()

	return result, nil
}

func refreshAfterSubmit(ctx context.Context, refresher Refresher, tableID int) error {
	var g errgroup.Group
	g.Go(func() error {
		return refresher.RefreshTableOrders(ctx, tableID)
	})
	g.Go(func() error {
		return refresher.RefreshOpenOrders(ctx)
	})
	return g.Wait()
}

func (c *Controller) reset() {
	c.state = NoDraft
	c.tableID = 0
	c.editing = nil
	c.cart = cart.New()
}
