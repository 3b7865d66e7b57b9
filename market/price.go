package market

import (
	"errors"
	"sync"
	"time"
)

var ErrNoPrice = errors.New("price not found")

// Quote is the latest known price for a symbol.
type Quote struct {
	Symbol string
	Price  float64
	Time   time.Time
}

// PriceStore keeps the latest quote per symbol. Safe for concurrent readers.
type PriceStore struct {
	mu     sync.RWMutex
	quotes map[string]Quote
}

func NewPriceStore() *PriceStore {
	return &PriceStore{quotes: make(map[string]Quote)}
}

func (ps *PriceStore) Set(q Quote) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.quotes[q.Symbol] = q
}

func (ps *PriceStore) Get(symbol string) (Quote, error) {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	q, ok := ps.quotes[symbol]
	if !ok {
		return Quote{}, ErrNoPrice
	}
	return q, nil
}

// Symbols returns every symbol with a known quote.
func (ps *PriceStore) Symbols() []string {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	out := make([]string, 0, len(ps.quotes))
	for s := range ps.quotes {
		out = append(out, s)
	}
	return out
}
