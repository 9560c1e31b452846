package app

import (
	"sync"

	"github.com/dejobratic/pendingpay/internal/orders/domain"
)

// View is a consistent read-only picture of the store and its selection.
type View struct {
	Seq           uint64
	Generation    uint64
	Identifier    string
	Orders        []domain.PendingOrder
	Selected      []string
	SelectedTotal int64
}

// Change is one reconciliation step: cached status updates and removals applied together.
type Change struct {
	Generation uint64
	Updates    map[string]domain.StatusReport
	Remove     []string
}

// ChangeResult describes what a Change did to the store.
type ChangeResult struct {
	Applied   bool
	Updated   int
	Removed   []domain.PendingOrder
	Remaining int
}

// OrderStore holds the pending orders of the active identifier together with the user's selection.
// One lock guards both so every removal prunes the selection in the same step.
type OrderStore struct {
	mu         sync.RWMutex
	identifier string
	generation uint64
	seq        uint64
	orders     []domain.PendingOrder
	index      map[string]int
	selected   map[string]struct{}

	obsMu     sync.Mutex
	observers map[int]func(View)
	nextObs   int
}

// NewOrderStore constructs an empty store.
func NewOrderStore() *OrderStore {
	return &OrderStore{
		index:     make(map[string]int),
		selected:  make(map[string]struct{}),
		observers: make(map[int]func(View)),
	}
}

// ReplaceAll installs a new order list for identifier, discarding previous contents.
// Selected ids that no longer exist are pruned. Duplicate ids keep their first occurrence.
func (s *OrderStore) ReplaceAll(identifier string, orders []domain.PendingOrder) uint64 {
	s.mu.Lock()
	s.install(identifier, orders)
	generation := s.generation
	view := s.viewLocked()
	s.mu.Unlock()

	s.notify(view)
	return generation
}

// ReplaceIfCurrent behaves like ReplaceAll only when the store is still at generation.
func (s *OrderStore) ReplaceIfCurrent(generation uint64, orders []domain.PendingOrder) bool {
	s.mu.Lock()
	if s.generation != generation {
		s.mu.Unlock()
		return false
	}
	s.install(s.identifier, orders)
	view := s.viewLocked()
	s.mu.Unlock()

	s.notify(view)
	return true
}

func (s *OrderStore) install(identifier string, orders []domain.PendingOrder) {
	s.identifier = identifier
	s.generation++
	s.orders = make([]domain.PendingOrder, 0, len(orders))
	s.index = make(map[string]int, len(orders))
	for _, order := range orders {
		if _, dup := s.index[order.OrderID]; dup {
			continue
		}
		s.index[order.OrderID] = len(s.orders)
		s.orders = append(s.orders, order.Clone())
	}
	for id := range s.selected {
		if _, ok := s.index[id]; !ok {
			delete(s.selected, id)
		}
	}
}

// Remove deletes every matching order in one step. When any removed order was selected the
// whole selection is cleared with it. Absent ids are ignored. It returns the number of orders removed.
func (s *OrderStore) Remove(ids ...string) int {
	s.mu.Lock()
	removed := s.removeLocked(ids)
	if len(removed) == 0 {
		s.mu.Unlock()
		return 0
	}
	view := s.viewLocked()
	s.mu.Unlock()

	s.notify(view)
	return len(removed)
}

// Apply performs a reconciliation Change atomically. A change computed for another
// generation is rejected without touching the store.
func (s *OrderStore) Apply(change Change) ChangeResult {
	s.mu.Lock()
	if change.Generation != s.generation {
		result := ChangeResult{Remaining: len(s.orders)}
		s.mu.Unlock()
		return result
	}

	result := ChangeResult{Applied: true}
	for id, report := range change.Updates {
		i, ok := s.index[id]
		if !ok {
			continue
		}
		if cached, ok := s.orders[i].CachedStatus(); ok && cached == report.Status {
			continue
		}
		s.orders[i].Payment = report.Snapshot(s.orders[i].Payment)
		result.Updated++
	}
	result.Removed = s.removeLocked(change.Remove)
	result.Remaining = len(s.orders)

	if result.Updated == 0 && len(result.Removed) == 0 {
		s.mu.Unlock()
		return result
	}
	view := s.viewLocked()
	s.mu.Unlock()

	s.notify(view)
	return result
}

func (s *OrderStore) removeLocked(ids []string) []domain.PendingOrder {
	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := s.index[id]; ok {
			drop[id] = struct{}{}
		}
	}
	if len(drop) == 0 {
		return nil
	}

	removed := make([]domain.PendingOrder, 0, len(drop))
	kept := s.orders[:0]
	for _, order := range s.orders {
		if _, ok := drop[order.OrderID]; ok {
			removed = append(removed, order)
			continue
		}
		kept = append(kept, order)
	}
	for i := len(kept); i < len(s.orders); i++ {
		s.orders[i] = domain.PendingOrder{}
	}
	s.orders = kept

	s.index = make(map[string]int, len(s.orders))
	for i, order := range s.orders {
		s.index[order.OrderID] = i
	}
	for id := range drop {
		if _, ok := s.selected[id]; ok {
			clear(s.selected)
			break
		}
	}
	return removed
}

// IsEmpty reports whether the store holds no orders.
func (s *OrderStore) IsEmpty() bool {
	return s.Len() == 0
}

func (s *OrderStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.orders)
}

// Identifier returns the CPF the current orders were looked up for.
func (s *OrderStore) Identifier() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identifier
}

func (s *OrderStore) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}

// Get returns a copy of the order with id.
func (s *OrderStore) Get(id string) (domain.PendingOrder, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index[id]
	if !ok {
		return domain.PendingOrder{}, false
	}
	return s.orders[i].Clone(), true
}

// Orders returns copies of all orders in insertion order.
func (s *OrderStore) Orders() []domain.PendingOrder {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneOrders(s.orders)
}

// IDs returns the order ids in insertion order along with the generation they belong to.
func (s *OrderStore) IDs() ([]string, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, len(s.orders))
	for i, order := range s.orders {
		ids[i] = order.OrderID
	}
	return ids, s.generation
}

// View returns a consistent snapshot of orders, selection and selected total.
func (s *OrderStore) View() View {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Selection returns the selection handle bound to this store.
func (s *OrderStore) Selection() *SelectionSet {
	return &SelectionSet{store: s}
}

// Subscribe registers fn to receive a View after every mutation.
// Views may arrive out of order across goroutines; Seq orders them.
func (s *OrderStore) Subscribe(fn func(View)) (unsubscribe func()) {
	s.obsMu.Lock()
	id := s.nextObs
	s.nextObs++
	s.observers[id] = fn
	s.obsMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.obsMu.Lock()
			delete(s.observers, id)
			s.obsMu.Unlock()
		})
	}
}

// viewLocked marks a mutation and snapshots the result. Callers hold the write lock.
func (s *OrderStore) viewLocked() View {
	s.seq++
	return s.snapshotLocked()
}

func (s *OrderStore) snapshotLocked() View {
	return View{
		Seq:           s.seq,
		Generation:    s.generation,
		Identifier:    s.identifier,
		Orders:        cloneOrders(s.orders),
		Selected:      s.selectedIDsLocked(),
		SelectedTotal: s.selectedTotalLocked(),
	}
}

func (s *OrderStore) notify(view View) {
	s.obsMu.Lock()
	observers := make([]func(View), 0, len(s.observers))
	for _, fn := range s.observers {
		observers = append(observers, fn)
	}
	s.obsMu.Unlock()

	for _, fn := range observers {
		fn(view)
	}
}

// selectedIDsLocked lists selected ids in store order.
func (s *OrderStore) selectedIDsLocked() []string {
	ids := make([]string, 0, len(s.selected))
	for _, order := range s.orders {
		if _, ok := s.selected[order.OrderID]; ok {
			ids = append(ids, order.OrderID)
		}
	}
	return ids
}

func (s *OrderStore) selectedTotalLocked() int64 {
	var total int64
	for _, order := range s.orders {
		if _, ok := s.selected[order.OrderID]; ok {
			total += order.TotalCents
		}
	}
	return total
}

func cloneOrders(orders []domain.PendingOrder) []domain.PendingOrder {
	out := make([]domain.PendingOrder, len(orders))
	for i, order := range orders {
		out[i] = order.Clone()
	}
	return out
}
