package operations

import (
	"context"
	"sync"
	"time"

	"github.com/appetiteclub/apt"
	"golang.org/x/sync/errgroup"

	"github.com/appetiteclub/tableside/pkg/floor"
	"github.com/appetiteclub/tableside/pkg/pos"
	"github.com/appetiteclub/tableside/services/waiter/internal/auth"
	"github.com/appetiteclub/tableside/services/waiter/internal/cart"
	"github.com/appetiteclub/tableside/services/waiter/internal/draft"
	"github.com/appetiteclub/tableside/services/waiter/internal/navigator"
)

// POS is the part of the POS API a session uses.
type POS interface {
	ListTables(ctx context.Context) ([]pos.Table, error)
	ListRecipes(ctx context.Context) ([]pos.Recipe, error)
	ListContainers(ctx context.Context) ([]pos.Container, error)
	ListGroups(ctx context.Context) ([]pos.Group, error)
	ListOpenOrders(ctx context.Context) ([]pos.Order, error)
	ListTableOrders(ctx context.Context, tableID int) ([]pos.Order, error)
	draft.OrderWriter
}

type SessionOptions struct {
	KeepDraftOnBack bool
	Tiers           floor.Tiers
}

// Session is the state owned by one signed-in waiter: cached POS collections,
// navigation, the draft and the menu filter. Sessions never share state.
type Session struct {
	ID        string
	Principal *auth.Principal
	CreatedAt time.Time
	ExpiresAt time.Time

	Navigator *navigator.Navigator
	Draft     *draft.Controller

	api    POS
	seq    *Sequencer
	tiers  floor.Tiers
	logger apt.Logger

	mu            sync.RWMutex
	tables        []pos.Table
	recipes       []pos.Recipe
	containers    []pos.Container
	groups        []pos.Group
	allOrders     []pos.Order
	orders        []pos.Order
	ordersTableID int
	filter        MenuFilter
	loading       int
	refreshing    int
	loadedAt      time.Time
}

func NewSession(id string, principal *auth.Principal, api POS, opts SessionOptions, logger apt.Logger) *Session {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	s := &Session{
		ID:         id,
		Principal:  principal,
		CreatedAt:  time.Now(),
		api:        api,
		seq:        NewSequencer(),
		tiers:      opts.Tiers,
		logger:     logger.With("session_id", id),
		tables:     []pos.Table{},
		recipes:    []pos.Recipe{},
		containers: []pos.Container{},
		groups:     []pos.Group{},
		allOrders:  []pos.Order{},
		orders:     []pos.Order{},
	}
	s.Draft = draft.NewController(api, logger)
	s.Navigator = navigator.New(s.Draft, s, navigator.Options{KeepDraftOnBack: opts.KeepDraftOnBack})
	return s
}

// Flags tells a blocking load apart from a background refresh.
type Flags struct {
	Loading    bool `json:"loading"`
	Refreshing bool `json:"refreshing"`
}

func (s *Session) Flags() Flags {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Flags{Loading: s.loading > 0, Refreshing: s.refreshing > 0}
}

// Load fetches tables, recipes, containers, groups and open orders
// concurrently. background marks a poll. If any fetch fails nothing is
// replaced and the previous collections stay in place.
func (s *Session) Load(ctx context.Context, background bool) error {
	done := s.begin(background)
	defer done()

	tickets := map[string]uint64{}
	for _, c := range []string{CollectionTables, CollectionRecipes, CollectionContainers, CollectionGroups, CollectionAllOrders} {
		tickets[c] = s.seq.Issue(c)
	}

	var (
		tables     []pos.Table
		recipes    []pos.Recipe
		containers []pos.Container
		groups     []pos.Group
		orders     []pos.Order
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { tables, err = s.api.ListTables(gctx); return err })
	g.Go(func() (err error) { recipes, err = s.api.ListRecipes(gctx); return err })
	g.Go(func() (err error) { containers, err = s.api.ListContainers(gctx); return err })
	g.Go(func() (err error) { groups, err = s.api.ListGroups(gctx); return err })
	g.Go(func() (err error) { orders, err = s.api.ListOpenOrders(gctx); return err })
	if err := g.Wait(); err != nil {
		s.logger.Info("restaurant data load failed", "background", background, "error", err)
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.seq.Accept(CollectionTables, tickets[CollectionTables]) {
		s.tables = tables
	}
	if s.seq.Accept(CollectionRecipes, tickets[CollectionRecipes]) {
		s.recipes = recipes
	}
	if s.seq.Accept(CollectionContainers, tickets[CollectionContainers]) {
		s.containers = containers
	}
	if s.seq.Accept(CollectionGroups, tickets[CollectionGroups]) {
		s.groups = groups
	}
	if s.seq.Accept(CollectionAllOrders, tickets[CollectionAllOrders]) {
		s.allOrders = orders
	}
	s.loadedAt = time.Now()
	s.logger.Debug("restaurant data loaded", "background", background,
		"tables", len(tables), "recipes", len(recipes), "containers", len(containers),
		"groups", len(groups), "orders", len(orders))
	return nil
}

// RefreshOpenOrders reloads the floor-wide open orders.
func (s *Session) RefreshOpenOrders(ctx context.Context) error {
	ticket := s.seq.Issue(CollectionAllOrders)
	orders, err := s.api.ListOpenOrders(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.seq.Accept(CollectionAllOrders, ticket) {
		s.allOrders = orders
	}
	return nil
}

// RefreshTableOrders reloads the open orders of tableID. When the load fails
// for a table other than the one already cached, the list is emptied so a
// different table's orders are never shown.
func (s *Session) RefreshTableOrders(ctx context.Context, tableID int) error {
	ticket := s.seq.Issue(CollectionTableOrders)
	orders, err := s.api.ListTableOrders(ctx, tableID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.seq.Accept(CollectionTableOrders, ticket) {
		return err
	}
	if err != nil {
		if s.ordersTableID != tableID {
			s.orders = []pos.Order{}
			s.ordersTableID = tableID
		}
		return err
	}
	s.orders = orders
	s.ordersTableID = tableID
	return nil
}

// RefreshRemote reacts to an order saved elsewhere: the open orders are
// reloaded and so is the table list of the selected table when it matches.
func (s *Session) RefreshRemote(ctx context.Context, tableID int) error {
	done := s.begin(true)
	defer done()

	if err := s.RefreshOpenOrders(ctx); err != nil {
		return err
	}
	if selected := s.Navigator.SelectedTable(); selected != nil && selected.ID == tableID {
		return s.RefreshTableOrders(ctx, tableID)
	}
	return nil
}

// SelectTable moves to the orders step of table, loading its orders.
func (s *Session) SelectTable(ctx context.Context, tableID int) (navigator.View, error) {
	table, ok := s.findTable(tableID)
	if !ok {
		return s.Navigator.View(), ErrTableNotFound
	}
	done := s.begin(false)
	defer done()
	return s.Navigator.SelectTable(ctx, table)
}

// Submit saves the draft as the signed-in waiter.
func (s *Session) Submit(ctx context.Context) (navigator.View, *draft.Result, error) {
	done := s.begin(false)
	defer done()
	return s.Navigator.Submit(ctx, s.Principal.WaiterName(), s)
}

// TableOrders returns the cached orders of the selected table.
func (s *Session) TableOrders() []pos.Order {
	selected := s.Navigator.SelectedTable()
	s.mu.RLock()
	defer s.mu.RUnlock()
	if selected == nil || selected.ID != s.ordersTableID {
		return []pos.Order{}
	}
	out := make([]pos.Order, len(s.orders))
	copy(out, s.orders)
	return out
}

// FindTableOrder looks orderID up among the selected table's orders.
func (s *Session) FindTableOrder(orderID int) (pos.Order, bool) {
	for _, o := range s.TableOrders() {
		if o.ID == orderID {
			return o, true
		}
	}
	return pos.Order{}, false
}

// FindRecipe looks recipeID up in the cached menu.
func (s *Session) FindRecipe(recipeID int) (pos.Recipe, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.recipes {
		if r.ID == recipeID {
			return r, true
		}
	}
	return pos.Recipe{}, false
}

// FloorView is the tables step.
type FloorView struct {
	Tables   []floor.TableView `json:"tables"`
	Stats    floor.Stats       `json:"stats"`
	Flags    Flags             `json:"flags"`
	LoadedAt time.Time         `json:"loaded_at"`
}

// Floor resolves table status against now. It is recomputed on every call.
func (s *Session) Floor(now time.Time) FloorView {
	s.mu.RLock()
	tables := s.tables
	orders := s.allOrders
	flags := Flags{Loading: s.loading > 0, Refreshing: s.refreshing > 0}
	loadedAt := s.loadedAt
	s.mu.RUnlock()

	r := floor.NewResolver(orders, now, s.tiers)
	return FloorView{
		Tables:   r.Board(tables),
		Stats:    r.Stats(tables),
		Flags:    flags,
		LoadedAt: loadedAt,
	}
}

// MenuView is the menu step after filtering.
type MenuView struct {
	Groups  []pos.Group  `json:"groups"`
	Recipes []pos.Recipe `json:"recipes"`
	Filter  MenuFilter   `json:"filter"`
}

// Menu applies f, remembers it for the session and returns the matching recipes.
func (s *Session) Menu(f MenuFilter) MenuView {
	s.mu.Lock()
	s.filter = f
	recipes := s.recipes
	groups := s.groups
	s.mu.Unlock()
	return MenuView{
		Groups:  groups,
		Recipes: FilterRecipes(recipes, f),
		Filter:  f,
	}
}

// CurrentFilter is the last filter applied through Menu.
func (s *Session) CurrentFilter() MenuFilter {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filter
}

// CartView is the cart step with its totals.
type CartView struct {
	draft.Snapshot
	Totals cart.Totals `json:"totals"`
}

func (s *Session) Cart() CartView {
	snap := s.Draft.Snapshot()
	s.mu.RLock()
	idx := cart.IndexContainers(s.containers)
	s.mu.RUnlock()
	return CartView{Snapshot: snap, Totals: cart.Compute(snap.Items, idx)}
}

// begin raises the loading or refreshing counter and returns its release.
func (s *Session) begin(background bool) func() {
	s.mu.Lock()
	if background {
		s.refreshing++
	} else {
		s.loading++
	}
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		if background {
			s.refreshing--
		} else {
			s.loading--
		}
		s.mu.Unlock()
	}
}

func (s *Session) findTable(tableID int) (pos.Table, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.tables {
		if t.ID == tableID {
			return t, true
		}
	}
	return pos.Table{}, false
}
