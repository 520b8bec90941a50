package operations

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/appetiteclub/apt/events"
	"github.com/shopspring/decimal"

	"github.com/appetiteclub/tableside/pkg/pos"
	"github.com/appetiteclub/tableside/services/waiter/internal/auth"
)

// MockPOS serves fixed collections and records writes.
type MockPOS struct {
	mu sync.Mutex

	Tables     []pos.Table
	Recipes    []pos.Recipe
	Containers []pos.Container
	Groups     []pos.Group
	OpenOrders []pos.Order
	ByTable    map[int][]pos.Order

	ListTablesFunc      func(ctx context.Context) ([]pos.Table, error)
	ListOpenOrdersFunc  func(ctx context.Context) ([]pos.Order, error)
	ListTableOrdersFunc func(ctx context.Context, tableID int) ([]pos.Order, error)
	CreateFunc          func(ctx context.Context, req pos.CreateOrderRequest) (*pos.Order, error)
	UpdateFunc          func(ctx context.Context, orderID int, req pos.UpdateOrderRequest) (*pos.Order, error)

	Creates        []pos.CreateOrderRequest
	Updates        map[int]pos.UpdateOrderRequest
	OpenOrderCalls atomic.Int32
}

func NewMockPOS() *MockPOS {
	return &MockPOS{
		Tables:     fixtureTables(),
		Recipes:    fixtureRecipes(),
		Containers: fixtureContainers(),
		Groups:     fixtureGroups(),
		OpenOrders: []pos.Order{},
		ByTable:    map[int][]pos.Order{},
		Updates:    map[int]pos.UpdateOrderRequest{},
	}
}

func (m *MockPOS) ListTables(ctx context.Context) ([]pos.Table, error) {
	if m.ListTablesFunc != nil {
		return m.ListTablesFunc(ctx)
	}
	return m.Tables, nil
}

func (m *MockPOS) ListRecipes(ctx context.Context) ([]pos.Recipe, error) {
	return m.Recipes, nil
}

func (m *MockPOS) ListContainers(ctx context.Context) ([]pos.Container, error) {
	return m.Containers, nil
}

func (m *MockPOS) ListGroups(ctx context.Context) ([]pos.Group, error) {
	return m.Groups, nil
}

func (m *MockPOS) ListOpenOrders(ctx context.Context) ([]pos.Order, error) {
	m.OpenOrderCalls.Add(1)
	if m.ListOpenOrdersFunc != nil {
		return m.ListOpenOrdersFunc(ctx)
	}
	return m.OpenOrders, nil
}

func (m *MockPOS) ListTableOrders(ctx context.Context, tableID int) ([]pos.Order, error) {
	if m.ListTableOrdersFunc != nil {
		return m.ListTableOrdersFunc(ctx, tableID)
	}
	return m.ByTable[tableID], nil
}

func (m *MockPOS) CreateOrder(ctx context.Context, req pos.CreateOrderRequest) (*pos.Order, error) {
	m.mu.Lock()
	m.Creates = append(m.Creates, req)
	m.mu.Unlock()
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, req)
	}
	return &pos.Order{
		ID:         500,
		Table:      pos.TableRef{ID: req.Table},
		Status:     pos.OpenOrderStatus,
		GrandTotal: decimal.NewNullDecimal(decimal.RequireFromString("26.50")),
	}, nil
}

func (m *MockPOS) UpdateOrder(ctx context.Context, orderID int, req pos.UpdateOrderRequest) (*pos.Order, error) {
	m.mu.Lock()
	m.Updates[orderID] = req
	m.mu.Unlock()
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, orderID, req)
	}
	return &pos.Order{ID: orderID, Status: pos.OpenOrderStatus}, nil
}

func (m *MockPOS) CreateCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Creates)
}

// MockGate accepts the password "secret" for any username.
type MockGate struct {
	LoginFunc   func(ctx context.Context, creds auth.Credentials) (*auth.Principal, error)
	LogoutCalls atomic.Int32
}

func (m *MockGate) Login(ctx context.Context, creds auth.Credentials) (*auth.Principal, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, creds)
	}
	if creds.Password != "secret" {
		return nil, auth.ErrInvalidCredentials
	}
	return waiterPrincipal(creds.Username), nil
}

func (m *MockGate) Logout(ctx context.Context, p *auth.Principal) error {
	m.LogoutCalls.Add(1)
	return nil
}

func (m *MockGate) Name() string {
	return "mock"
}

// MockPublisher is a mock implementation of events.Publisher for testing
type MockPublisher struct {
	PublishFunc func(ctx context.Context, topic string, msg []byte) error
}

func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

func (m *MockPublisher) Publish(ctx context.Context, topic string, msg []byte) error {
	if m.PublishFunc != nil {
		return m.PublishFunc(ctx, topic, msg)
	}
	return nil
}

// MockSubscriber is a mock implementation of events.Subscriber for testing
type MockSubscriber struct {
	SubscribeFunc func(ctx context.Context, topic string, handler events.HandlerFunc) error
}

func NewMockSubscriber() *MockSubscriber {
	return &MockSubscriber{}
}

func (m *MockSubscriber) Subscribe(ctx context.Context, topic string, handler events.HandlerFunc) error {
	if m.SubscribeFunc != nil {
		return m.SubscribeFunc(ctx, topic, handler)
	}
	return nil
}

// MapSettings is an in-memory Settings.
type MapSettings map[string]string

func (m MapSettings) GetString(key string) (string, bool) {
	v, ok := m[key]
	return v, ok
}

func (m MapSettings) GetStringOrDef(key, def string) string {
	if v, ok := m[key]; ok {
		return v
	}
	return def
}

func waiterPrincipal(username string) *auth.Principal {
	return &auth.Principal{
		UserID:      "u-" + username,
		Username:    username,
		Role:        auth.RoleWaiter,
		Permissions: auth.PermissionsFor(auth.RoleWaiter),
		Provider:    "mock",
		Token:       "token-" + username,
	}
}

func fixtureTables() []pos.Table {
	return []pos.Table{
		{ID: 1, Number: 1},
		{ID: 2, Number: 2},
		{ID: 3, Number: 3},
	}
}

func fixtureGroups() []pos.Group {
	return []pos.Group{
		{ID: 1, Name: "Entradas"},
		{ID: 2, Name: "Bebidas"},
	}
}

func fixtureRecipes() []pos.Recipe {
	container := 7
	return []pos.Recipe{
		{ID: 10, Name: "Ceviche", BasePrice: decimal.RequireFromString("12.75"), Group: &pos.Group{ID: 1, Name: "Entradas"}, Container: &container, IsAvailable: true, IsActive: true},
		{ID: 11, Name: "Causa", BasePrice: decimal.RequireFromString("8.00"), Group: &pos.Group{ID: 1, Name: "Entradas"}, IsAvailable: true, IsActive: true},
		{ID: 20, Name: "Chicha morada", BasePrice: decimal.RequireFromString("3.50"), Group: &pos.Group{ID: 2, Name: "Bebidas"}, IsAvailable: true, IsActive: true},
	}
}

func fixtureContainers() []pos.Container {
	return []pos.Container{
		{ID: 7, Name: "Taper", Price: decimal.RequireFromString("1.00")},
	}
}

func openOrder(id, tableID int, total string, createdAt time.Time, items ...pos.OrderItem) pos.Order {
	return pos.Order{
		ID:         id,
		Table:      pos.TableRef{ID: tableID},
		Status:     pos.OpenOrderStatus,
		Items:      items,
		GrandTotal: decimal.NewNullDecimal(decimal.RequireFromString(total)),
		CreatedAt:  createdAt,
	}
}
