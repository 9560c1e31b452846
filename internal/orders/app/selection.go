package app

// SelectionSet is the subset of store orders the user picked to pay together.
// It always stays within the ids currently held by its store.
type SelectionSet struct {
	store *OrderStore
}

// Toggle removes id when selected, otherwise selects it if the store holds it.
// It reports whether id is selected afterwards.
func (sel *SelectionSet) Toggle(id string) bool {
	s := sel.store
	s.mu.Lock()
	if _, ok := s.selected[id]; ok {
		delete(s.selected, id)
	} else if _, exists := s.index[id]; exists {
		s.selected[id] = struct{}{}
	} else {
		s.mu.Unlock()
		return false
	}
	_, selected := s.selected[id]
	view := s.viewLocked()
	s.mu.Unlock()

	s.notify(view)
	return selected
}

// Clear empties the selection unconditionally.
func (sel *SelectionSet) Clear() {
	s := sel.store
	s.mu.Lock()
	if len(s.selected) == 0 {
		s.mu.Unlock()
		return
	}
	clear(s.selected)
	view := s.viewLocked()
	s.mu.Unlock()

	s.notify(view)
}

// Take returns the selected ids in store order and clears the selection in the same step.
func (sel *SelectionSet) Take() []string {
	s := sel.store
	s.mu.Lock()
	ids := s.selectedIDsLocked()
	if len(s.selected) == 0 {
		s.mu.Unlock()
		return ids
	}
	clear(s.selected)
	view := s.viewLocked()
	s.mu.Unlock()

	s.notify(view)
	return ids
}

// Capture freezes ids into a private snapshot, dropping ids the store no longer holds and
// duplicates, and clears the selection in the same step.
func (sel *SelectionSet) Capture(ids []string) []string {
	s := sel.store
	s.mu.Lock()
	snapshot := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if _, ok := s.index[id]; ok {
			snapshot = append(snapshot, id)
		}
	}
	if len(s.selected) == 0 {
		s.mu.Unlock()
		return snapshot
	}
	clear(s.selected)
	view := s.viewLocked()
	s.mu.Unlock()

	s.notify(view)
	return snapshot
}

func (sel *SelectionSet) Contains(id string) bool {
	sel.store.mu.RLock()
	defer sel.store.mu.RUnlock()
	_, ok := sel.store.selected[id]
	return ok
}

func (sel *SelectionSet) Len() int {
	sel.store.mu.RLock()
	defer sel.store.mu.RUnlock()
	return len(sel.store.selected)
}

// IDs lists the selected ids in store order.
func (sel *SelectionSet) IDs() []string {
	sel.store.mu.RLock()
	defer sel.store.mu.RUnlock()
	return sel.store.selectedIDsLocked()
}

// Total sums TotalCents over the selected orders. It is computed on every call.
func (sel *SelectionSet) Total() int64 {
	sel.store.mu.RLock()
	defer sel.store.mu.RUnlock()
	return sel.store.selectedTotalLocked()
}
