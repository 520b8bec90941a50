package operations

import "sync"

// Cached collections of a session.
const (
	CollectionTables      = "tables"
	CollectionRecipes     = "recipes"
	CollectionContainers  = "containers"
	CollectionGroups      = "groups"
	CollectionAllOrders   = "all_orders"
	CollectionTableOrders = "table_orders"
)

// Sequencer numbers fetches per collection in the order they are issued. A
// response is applied only when no later-issued fetch of the same collection
// has been applied yet, so a slow poll cannot overwrite a newer explicit read.
type Sequencer struct {
	mu      sync.Mutex
	issued  map[string]uint64
	applied map[string]uint64
}

func NewSequencer() *Sequencer {
	return &Sequencer{
		issued:  make(map[string]uint64),
		applied: make(map[string]uint64),
	}
}

// Issue returns the ticket of a new fetch of collection.
func (s *Sequencer) Issue(collection string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issued[collection]++
	return s.issued[collection]
}

// Accept reports whether a response for ticket may be applied and, if so,
// records it as the latest applied one.
func (s *Sequencer) Accept(collection string, ticket uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ticket <= s.applied[collection] {
		return false
	}
	s.applied[collection] = ticket
	return true
}
