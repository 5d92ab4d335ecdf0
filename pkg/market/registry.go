package market

import (
	"fmt"
	"sync"
)

// Tab is one entry in the pair-selection strip. Pinned tabs come from the
// built-in pair table and cannot be removed.
type Tab struct {
	ID     string      `json:"id"`
	Pair   TradingPair `json:"pair"`
	Pinned bool        `json:"pinned"`
}

// Registry owns the trading-pair table and the tab/selection state in a
// thread-safe manner. It is the single mutation owner for pair selection;
// components read the selected pair through it instead of ambient globals.
type Registry struct {
	mu       sync.RWMutex
	pairs    map[string]TradingPair // pool id -> pair
	tabs     []Tab
	selected string // tab id
	nextTab  int
}

// NewRegistry seeds the registry with the given pairs, one pinned tab per
// pair, and selects the first tab.
func NewRegistry(pairs []TradingPair) *Registry {
	r := &Registry{pairs: make(map[string]TradingPair)}
	for _, p := range pairs {
		r.pairs[p.PoolID] = p
		r.tabs = append(r.tabs, Tab{ID: fmt.Sprintf("tab-%d", r.nextTab), Pair: p, Pinned: true})
		r.nextTab++
	}
	if len(r.tabs) > 0 {
		r.selected = r.tabs[0].ID
	}
	return r
}

// Register adds a pair to the table without opening a tab for it.
func (r *Registry) Register(p TradingPair) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.pairs[p.PoolID]; exists {
		return fmt.Errorf("pair %s already registered", p.PoolID)
	}
	r.pairs[p.PoolID] = p
	return nil
}

// Get looks up a pair by pool id.
func (r *Registry) Get(poolID string) (TradingPair, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.pairs[poolID]
	return p, ok
}

// GetByName looks up a pair by pool name, e.g. "SUI_DBUSDC".
func (r *Registry) GetByName(name string) (TradingPair, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.pairs {
		if p.PoolName == name {
			return p, true
		}
	}
	return TradingPair{}, false
}

// List returns all registered pairs.
func (r *Registry) List() []TradingPair {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]TradingPair, 0, len(r.pairs))
	for _, p := range r.pairs {
		out = append(out, p)
	}
	return out
}

// Tabs returns a copy of the open tabs in display order.
func (r *Registry) Tabs() []Tab {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Tab, len(r.tabs))
	copy(out, r.tabs)
	return out
}

// RestoreTabs replaces the tab strip, used when loading a saved session.
// The selection resets to the first restored tab.
func (r *Registry) RestoreTabs(tabs []Tab) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(tabs) == 0 {
		return
	}
	r.tabs = make([]Tab, len(tabs))
	copy(r.tabs, tabs)
	r.selected = r.tabs[0].ID
	r.nextTab = len(r.tabs)
	for _, t := range tabs {
		if _, ok := r.pairs[t.Pair.PoolID]; !ok {
			r.pairs[t.Pair.PoolID] = t.Pair
		}
	}
}

// Selected returns the currently selected pair.
func (r *Registry) Selected() (TradingPair, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, t := range r.tabs {
		if t.ID == r.selected {
			return t.Pair, true
		}
	}
	return TradingPair{}, false
}

// SelectedTabID returns the id of the selected tab.
func (r *Registry) SelectedTabID() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.selected
}

// SelectTab switches the selection to the given tab id.
func (r *Registry) SelectTab(tabID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tabs {
		if t.ID == tabID {
			r.selected = tabID
			return nil
		}
	}
	return fmt.Errorf("tab %s not found", tabID)
}

// SelectPool switches the selection to the tab showing the given pool.
func (r *Registry) SelectPool(poolID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tabs {
		if t.Pair.PoolID == poolID {
			r.selected = t.ID
			return nil
		}
	}
	return fmt.Errorf("no open tab for pool %s", poolID)
}

// AddTab opens a new unpinned tab for a pair and selects it.
func (r *Registry) AddTab(p TradingPair) Tab {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.pairs[p.PoolID]; !ok {
		r.pairs[p.PoolID] = p
	}
	tab := Tab{ID: fmt.Sprintf("tab-%d", r.nextTab), Pair: p}
	r.nextTab++
	r.tabs = append(r.tabs, tab)
	r.selected = tab.ID
	return tab
}

// RemoveTab closes an unpinned tab. If it was selected, selection falls back
// to the first tab.
func (r *Registry) RemoveTab(tabID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, t := range r.tabs {
		if t.ID != tabID {
			continue
		}
		if t.Pinned {
			return fmt.Errorf("tab %s is pinned", tabID)
		}
		r.tabs = append(r.tabs[:i], r.tabs[i+1:]...)
		if r.selected == tabID && len(r.tabs) > 0 {
			r.selected = r.tabs[0].ID
		}
		return nil
	}
	return fmt.Errorf("tab %s not found", tabID)
}
