package draft

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/appetiteclub/tableside/pkg/pos"
)

// MockOrderWriter records the requests it receives.
type MockOrderWriter struct {
	mu         sync.Mutex
	Creates    []pos.CreateOrderRequest
	Updates    map[int]pos.UpdateOrderRequest
	CreateFunc func(ctx context.Context, req pos.CreateOrderRequest) (*pos.Order, error)
	UpdateFunc func(ctx context.Context, orderID int, req pos.UpdateOrderRequest) (*pos.Order, error)
}

func NewMockOrderWriter() *MockOrderWriter {
	return &MockOrderWriter{Updates: make(map[int]pos.UpdateOrderRequest)}
}

func (m *MockOrderWriter) CreateOrder(ctx context.Context, req pos.CreateOrderRequest) (*pos.Order, error) {
	m.mu.Lock()
	m.Creates = append(m.Creates, req)
	m.mu.Unlock()
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, req)
	}
	return &pos.Order{ID: 100, Table: pos.TableRef{ID: req.Table}, Status: pos.OpenOrderStatus}, nil
}

func (m *MockOrderWriter) UpdateOrder(ctx context.Context, orderID int, req pos.UpdateOrderRequest) (*pos.Order, error) {
	m.mu.Lock()
	m.Updates[orderID] = req
	m.mu.Unlock()
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, orderID, req)
	}
	return &pos.Order{ID: orderID, Status: pos.OpenOrderStatus}, nil
}

func (m *MockOrderWriter) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Creates) + len(m.Updates)
}

// MockRefresher counts refreshes and can observe the controller while they run.
type MockRefresher struct {
	TableCalls  atomic.Int32
	OpenCalls   atomic.Int32
	TableErr    error
	OpenErr     error
	OnRefresh   func()
	LastTableID atomic.Int32
}

func (m *MockRefresher) RefreshTableOrders(ctx context.Context, tableID int) error {
	m.TableCalls.Add(1)
	m.LastTableID.Store(int32(tableID))
	if m.OnRefresh != nil {
		m.OnRefresh()
	}
	return m.TableErr
}

func (m *MockRefresher) RefreshOpenOrders(ctx context.Context) error {
	m.OpenCalls.Add(1)
	if m.OnRefresh != nil {
		m.OnRefresh()
	}
	return m.OpenErr
}
