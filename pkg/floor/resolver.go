package floor

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/appetiteclub/tableside/pkg/enums/tablestatus"
	"github.com/appetiteclub/tableside/pkg/enums/urgency"
	"github.com/appetiteclub/tableside/pkg/pos"
)

// Resolver derives table occupancy from a snapshot of open orders taken at a
// point in time. Build a new one for every read so elapsed times follow the
// wall clock.
type Resolver struct {
	orders []pos.Order
	now    time.Time
	tiers  Tiers
}

func NewResolver(orders []pos.Order, now time.Time, tiers Tiers) *Resolver {
	return &Resolver{orders: orders, now: now, tiers: tiers}
}

// Summary describes an occupied table.
type Summary struct {
	OrderCount    int             `json:"order_count"`
	TotalItems    int             `json:"total_items"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	OldestOrderAt time.Time       `json:"oldest_order_at"`
	Elapsed       time.Duration   `json:"-"`
	Duration      string          `json:"duration"`
	Urgency       urgency.Level   `json:"urgency"`
}

// TableView is a table as shown on the floor board.
type TableView struct {
	Table   pos.Table          `json:"table"`
	Status  tablestatus.Status `json:"status"`
	Urgency urgency.Level      `json:"urgency"`
	Summary *Summary           `json:"summary"`
}

func (s Summary) MarshalJSON() ([]byte, error) {
	type plain Summary
	return json.Marshal(struct {
		plain
		TotalAmount string `json:"total_amount"`
	}{plain(s), s.TotalAmount.StringFixed(2)})
}

// Stats is the header of the floor board.
type Stats struct {
	AvailableTables int             `json:"available_tables"`
	OccupiedTables  int             `json:"occupied_tables"`
	ActiveOrders    int             `json:"active_orders"`
	PendingSales    decimal.Decimal `json:"pending_sales"`
}

func (s Stats) MarshalJSON() ([]byte, error) {
	type plain Stats
	return json.Marshal(struct {
		plain
		PendingSales string `json:"pending_sales"`
	}{plain(s), s.PendingSales.StringFixed(2)})
}

// OrdersForTable returns the open orders of tableID in input order.
func (r *Resolver) OrdersForTable(tableID int) []pos.Order {
	out := []pos.Order{}
	for _, o := range r.orders {
		if o.Table.ID == tableID {
			out = append(out, o)
		}
	}
	return out
}

func (r *Resolver) Status(tableID int) tablestatus.Status {
	for _, o := range r.orders {
		if o.Table.ID == tableID {
			return tablestatus.Statuses.Occupied
		}
	}
	return tablestatus.Statuses.Available
}

// Summary returns nil for an available table. TotalItems counts order lines,
// not portions. When several orders share the oldest timestamp the first one
// in input order is used.
func (r *Resolver) Summary(tableID int) *Summary {
	orders := r.OrdersForTable(tableID)
	if len(orders) == 0 {
		return nil
	}

	s := &Summary{
		OrderCount:    len(orders),
		TotalAmount:   decimal.Zero,
		OldestOrderAt: orders[0].CreatedAt,
	}
	for _, o := range orders {
		s.TotalAmount = s.TotalAmount.Add(o.Total())
		s.TotalItems += len(o.Items)
		if o.CreatedAt.Before(s.OldestOrderAt) {
			s.OldestOrderAt = o.CreatedAt
		}
	}

	s.Elapsed = r.now.Sub(s.OldestOrderAt)
	if s.Elapsed < 0 {
		s.Elapsed = 0
	}
	s.Duration = FormatElapsed(s.Elapsed)
	s.Urgency = r.tiers.Classify(s.Elapsed)
	return s
}

// Board resolves every table in the given order.
func (r *Resolver) Board(tables []pos.Table) []TableView {
	board := make([]TableView, 0, len(tables))
	for _, t := range tables {
		view := TableView{
			Table:   t,
			Status:  r.Status(t.ID),
			Urgency: urgency.Levels.None,
		}
		if summary := r.Summary(t.ID); summary != nil {
			view.Summary = summary
			view.Urgency = summary.Urgency
		}
		board = append(board, view)
	}
	return board
}

// Stats counts tables by status and totals every open order, including orders
// whose table is not in tables.
func (r *Resolver) Stats(tables []pos.Table) Stats {
	stats := Stats{
		ActiveOrders: len(r.orders),
		PendingSales: decimal.Zero,
	}
	for _, t := range tables {
		if r.Status(t.ID) == tablestatus.Statuses.Occupied {
			stats.OccupiedTables++
		} else {
			stats.AvailableTables++
		}
	}
	for _, o := range r.orders {
		stats.PendingSales = stats.PendingSales.Add(o.Total())
	}
	return stats
}
