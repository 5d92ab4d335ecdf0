package storage

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/cockroachdb/pebble"

	"github.com/orlim-labs/orlim-go/pkg/market"
	"github.com/orlim-labs/orlim-go/pkg/orlim"
)

// SessionStore persists UI session state across restarts: the open pair
// tabs, the last known reference prices, and the last reconciled receipt
// set per account so the order list renders before the first chain poll
// completes.
//
// Key schema:
//   tabs                  → []market.Tab
//   sel                   → selected tab id
//   px:<pool-id>          → last price
//   rcpt:<owner-address>  → []orlim.Receipt snapshot
type SessionStore struct {
	db *pebble.DB
}

const (
	keyTabs     = "tabs"
	keySelected = "sel"
	prefixPrice = "px:"
	prefixRcpt  = "rcpt:"
)

func NewSessionStore(path string) (*SessionStore, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to open session store: %w", err)
	}
	return &SessionStore{db: db}, nil
}

func (s *SessionStore) Close() error { return s.db.Close() }

func priceKey(poolID string) []byte  { return []byte(prefixPrice + poolID) }
func receiptKey(owner string) []byte { return []byte(prefixRcpt + owner) }

// SaveTabs persists the tab list and the selected tab id.
func (s *SessionStore) SaveTabs(tabs []market.Tab, selected string) error {
	data, err := json.Marshal(tabs)
	if err != nil {
		return fmt.Errorf("failed to marshal tabs: %w", err)
	}
	if err := s.db.Set([]byte(keyTabs), data, pebble.Sync); err != nil {
		return fmt.Errorf("failed to save tabs: %w", err)
	}
	if err := s.db.Set([]byte(keySelected), []byte(selected), pebble.Sync); err != nil {
		return fmt.Errorf("failed to save tab selection: %w", err)
	}
	return nil
}

// LoadTabs restores the tab list and selection. Returns (nil, "", nil) when
// no session has been saved yet.
func (s *SessionStore) LoadTabs() ([]market.Tab, string, error) {
	data, closer, err := s.db.Get([]byte(keyTabs))
	if err == pebble.ErrNotFound {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to load tabs: %w", err)
	}
	defer closer.Close()

	var tabs []market.Tab
	if err := json.Unmarshal(data, &tabs); err != nil {
		return nil, "", fmt.Errorf("failed to unmarshal tabs: %w", err)
	}

	selected := ""
	if sel, selCloser, err := s.db.Get([]byte(keySelected)); err == nil {
		selected = string(sel)
		selCloser.Close()
	}
	return tabs, selected, nil
}

// SaveLastPrice records the most recent reference price for a pool. NoSync:
// losing a cached price on crash is harmless.
func (s *SessionStore) SaveLastPrice(poolID string, price float64) error {
	val := strconv.FormatFloat(price, 'g', -1, 64)
	if err := s.db.Set(priceKey(poolID), []byte(val), pebble.NoSync); err != nil {
		return fmt.Errorf("failed to save price: %w", err)
	}
	return nil
}

// LoadLastPrice returns the cached price for a pool, or false when none is
// stored.
func (s *SessionStore) LoadLastPrice(poolID string) (float64, bool, error) {
	data, closer, err := s.db.Get(priceKey(poolID))
	if err == pebble.ErrNotFound {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to load price: %w", err)
	}
	defer closer.Close()

	price, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return 0, false, fmt.Errorf("corrupt cached price: %w", err)
	}
	return price, true, nil
}

// SaveReceipts caches the reconciled receipt set for an account.
func (s *SessionStore) SaveReceipts(owner string, receipts []orlim.Receipt) error {
	data, err := json.Marshal(receipts)
	if err != nil {
		return fmt.Errorf("failed to marshal receipts: %w", err)
	}
	if err := s.db.Set(receiptKey(owner), data, pebble.NoSync); err != nil {
		return fmt.Errorf("failed to save receipts: %w", err)
	}
	return nil
}

// LoadReceipts returns the cached receipt set for an account. Returns nil
// when no snapshot exists.
func (s *SessionStore) LoadReceipts(owner string) ([]orlim.Receipt, error) {
	data, closer, err := s.db.Get(receiptKey(owner))
	if err == pebble.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load receipts: %w", err)
	}
	defer closer.Close()

	var receipts []orlim.Receipt
	if err := json.Unmarshal(data, &receipts); err != nil {
		return nil, fmt.Errorf("failed to unmarshal receipts: %w", err)
	}
	return receipts, nil
}

// Clear drops all cached session state.
func (s *SessionStore) Clear() error {
	iter, err := s.db.NewIter(nil)
	if err != nil {
		return fmt.Errorf("failed to iterate session store: %w", err)
	}
	defer iter.Close()

	batch := s.db.NewBatch()
	for iter.First(); iter.Valid(); iter.Next() {
		key := make([]byte, len(iter.Key()))
		copy(key, iter.Key())
		if err := batch.Delete(key, nil); err != nil {
			batch.Close()
			return fmt.Errorf("failed to stage delete: %w", err)
		}
	}
	if err := batch.Commit(pebble.Sync); err != nil {
		return fmt.Errorf("failed to clear session store: %w", err)
	}
	return nil
}
