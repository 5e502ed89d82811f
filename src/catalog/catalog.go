package catalog

import (
	"sort"
	"sync"

	"halalinvest/src/model"
)

// Catalog is the set of tradable instruments with their live quotes.
// It is safe for concurrent use.
type Catalog struct {
	mu          sync.RWMutex
	instruments map[string]model.Instrument
	order       []string
}

// New builds a catalog from the given instruments. Later duplicates of a
// symbol are ignored.
func New(instruments []model.Instrument) *Catalog {
	c := &Catalog{instruments: make(map[string]model.Instrument, len(instruments))}
	for _, inst := range instruments {
		if _, exists := c.instruments[inst.Symbol]; exists {
			continue
		}
		c.instruments[inst.Symbol] = inst
		c.order = append(c.order, inst.Symbol)
	}
	return c
}

// Lookup returns the current view of one instrument.
func (c *Catalog) Lookup(symbol string) (model.Instrument, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	inst, ok := c.instruments[symbol]
	return inst, ok
}

// List returns every instrument in seed order.
func (c *Catalog) List() []model.Instrument {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]model.Instrument, 0, len(c.order))
	for _, symbol := range c.order {
		out = append(out, c.instruments[symbol])
	}
	return out
}

// ByCategory returns the instruments of one category, sorted by symbol.
func (c *Catalog) ByCategory(category model.Category) []model.Instrument {
	var out []model.Instrument
	for _, inst := range c.List() {
		if inst.Category == category {
			out = append(out, inst)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

// Update applies fn to every instrument under the write lock and stores
// the returned value. Symbols cannot change. It returns the updated list.
func (c *Catalog) Update(fn func(model.Instrument) model.Instrument) []model.Instrument {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]model.Instrument, 0, len(c.order))
	for _, symbol := range c.order {
		next := fn(c.instruments[symbol])
		next.Symbol = symbol
		c.instruments[symbol] = next
		out = append(out, next)
	}
	return out
}

// Len returns the number of instruments.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.order)
}
