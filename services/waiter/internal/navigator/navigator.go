package navigator

import (
	"context"
	"fmt"
	"sync"

	"github.com/appetiteclub/tableside/pkg/pos"
	"github.com/appetiteclub/tableside/services/waiter/internal/draft"
)

type Step string

const (
	Tables Step = "tables"
	Orders Step = "orders"
	Menu   Step = "menu"
	Cart   Step = "cart"
)

// TransitionError is an action that the current step does not allow.
type TransitionError struct {
	From   Step
	Action string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s from %s", e.Action, e.From)
}

// TableOrdersLoader fetches the open orders of the selected table.
type TableOrdersLoader interface {
	RefreshTableOrders(ctx context.Context, tableID int) error
}

type Options struct {
	// KeepDraftOnBack keeps the cart when leaving the menu or cart for the
	// orders step. It can then be picked up again with ResumeDraft.
	KeepDraftOnBack bool
}

// View is the position of the navigator.
type View struct {
	Step  Step       `json:"step"`
	Table *pos.Table `json:"table,omitempty"`
}

// Navigator moves one waiter between tables, orders, menu and cart.
type Navigator struct {
	mu        sync.Mutex
	selecting sync.Mutex // held by SelectTable across its fetch
	step      Step
	table     *pos.Table
	draft     *draft.Controller
	loader    TableOrdersLoader
	opts      Options
}

func New(d *draft.Controller, loader TableOrdersLoader, opts Options) *Navigator {
	return &Navigator{
		step:   Tables,
		draft:  d,
		loader: loader,
		opts:   opts,
	}
}

func (n *Navigator) View() View {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.view()
}

// SelectTable loads the table's open orders and lands on the orders step. A
// failed load is returned but the transition still happens so the waiter can
// retry from there. Concurrent selections run one at a time; the later ones
// find the navigator already on the orders step and fail.
func (n *Navigator) SelectTable(ctx context.Context, table pos.Table) (View, error) {
	n.selecting.Lock()
	defer n.selecting.Unlock()

	n.mu.Lock()
	if n.step != Tables {
		defer n.mu.Unlock()
		return n.view(), &TransitionError{From: n.step, Action: "select a table"}
	}
	n.mu.Unlock()

	var loadErr error
	if n.loader != nil {
		loadErr = n.loader.RefreshTableOrders(ctx, table.ID)
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	if n.step != Tables {
		return n.view(), &TransitionError{From: n.step, Action: "select a table"}
	}
	selected := table
	n.table = &selected
	n.step = Orders
	return n.view(), loadErr
}

// NewOrder starts an empty draft for the selected table.
func (n *Navigator) NewOrder() (View, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.step != Orders {
		return n.view(), &TransitionError{From: n.step, Action: "start a new order"}
	}
	if err := n.draft.BeginNew(n.table.ID); err != nil {
		return n.view(), err
	}
	n.step = Menu
	return n.view(), nil
}

// EditOrder seeds the draft from order.
func (n *Navigator) EditOrder(order pos.Order) (View, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.step != Orders {
		return n.view(), &TransitionError{From: n.step, Action: "edit an order"}
	}
	if err := n.draft.BeginEdit(n.table.ID, order); err != nil {
		return n.view(), err
	}
	n.step = Menu
	return n.view(), nil
}

// ResumeDraft returns to the menu with a draft kept by Back.
func (n *Navigator) ResumeDraft() (View, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.step != Orders || n.draft.State() != draft.Editing {
		return n.view(), &TransitionError{From: n.step, Action: "resume a draft"}
	}
	n.step = Menu
	return n.view(), nil
}

func (n *Navigator) ViewCart() (View, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.step != Menu {
		return n.view(), &TransitionError{From: n.step, Action: "view the cart"}
	}
	n.step = Cart
	return n.view(), nil
}

func (n *Navigator) ContinueShopping() (View, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.step != Cart {
		return n.view(), &TransitionError{From: n.step, Action: "continue shopping"}
	}
	n.step = Menu
	return n.view(), nil
}

// Submit saves the draft from the menu or the cart and returns to the orders
// step on success. On failure the step is left unchanged.
func (n *Navigator) Submit(ctx context.Context, waiter string, refresher draft.Refresher) (View, *draft.Result, error) {
	n.mu.Lock()
	if n.step != Menu && n.step != Cart {
		defer n.mu.Unlock()
		return n.view(), nil, &TransitionError{From: n.step, Action: "submit an order"}
	}
	n.mu.Unlock()

	result, err := n.draft.Submit(ctx, waiter, refresher)

	n.mu.Lock()
	defer n.mu.Unlock()
	if err != nil {
		return n.view(), nil, err
	}
	n.step = Orders
	return n.view(), result, nil
}

// Back moves one level up. Leaving the menu or cart discards the draft unless
// KeepDraftOnBack is set. Leaving the orders step always discards it and
// clears the selected table.
func (n *Navigator) Back() (View, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	switch n.step {
	case Menu, Cart:
		if !n.opts.KeepDraftOnBack {
			if err := n.draft.Discard(); err != nil {
				return n.view(), err
			}
		}
		n.step = Orders
	case Orders:
		if err := n.draft.Discard(); err != nil {
			return n.view(), err
		}
		n.table = nil
		n.step = Tables
	default:
		return n.view(), &TransitionError{From: n.step, Action: "go back"}
	}
	return n.view(), nil
}

// SelectedTable is nil on the tables step.
func (n *Navigator) SelectedTable() *pos.Table {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.table == nil {
		return nil
	}
	t := *n.table
	return &t
}

func (n *Navigator) view() View {
	v := View{Step: n.step}
	if n.table != nil {
		t := *n.table
		v.Table = &t
	}
	return v
}
