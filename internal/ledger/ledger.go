package ledger

import (
	"fmt"
	"strings"

	"github.com/Seyyahtar/Stok73/domain"
	"github.com/Seyyahtar/Stok73/internal/store"
)

// Ledger owns the authoritative collection of current stock items.
// Every mutating call persists the full collection through the store
// before returning. Matching on (materialName, serialLotNumber) is
// case-insensitive everywhere; the index maps the normalized pair to
// item IDs in insertion order, so "first match" is the oldest
// surviving entry.
//
// Callers validate before invoking; ledger operations themselves do
// not reject input. Remove silently skips entries with no match.
type Ledger struct {
	store store.Store
	items []domain.StockItem
	index map[string][]string
}

// New loads the stock collection and builds the lookup index.
func New(st store.Store) (*Ledger, error) {
	items, err := st.GetStock()
	if err != nil {
		return nil, fmt.Errorf("load stock: %w", err)
	}
	l := &Ledger{store: st, items: items, index: make(map[string][]string)}
	for _, item := range items {
		k := key(item.MaterialName, item.SerialLotNumber)
		l.index[k] = append(l.index[k], item.ID)
	}
	return l, nil
}

func key(materialName, serialLotNumber string) string {
	return strings.ToLower(strings.TrimSpace(materialName)) + "\x00" + strings.ToLower(strings.TrimSpace(serialLotNumber))
}

// Items returns a copy of the current stock in insertion order.
func (l *Ledger) Items() []domain.StockItem {
	return append([]domain.StockItem(nil), l.items...)
}

// Get returns the item with the given ID.
func (l *Ledger) Get(id string) (domain.StockItem, bool) {
	for _, item := range l.items {
		if item.ID == id {
			return item, true
		}
	}
	return domain.StockItem{}, false
}

// Add appends an item unconditionally and persists the ledger. Callers
// run CheckDuplicate first where the uniqueness invariant applies.
func (l *Ledger) Add(item domain.StockItem) error {
	l.items = append(l.items, item)
	k := key(item.MaterialName, item.SerialLotNumber)
	l.index[k] = append(l.index[k], item.ID)
	return l.persist()
}

// CheckDuplicate reports whether any ledger item matches the material
// name and serial/lot number, ignoring case.
func (l *Ledger) CheckDuplicate(materialName, serialLotNumber string) bool {
	return len(l.index[key(materialName, serialLotNumber)]) > 0
}

// Find returns the first ledger item matching the material name and
// serial/lot number, ignoring case.
func (l *Ledger) Find(materialName, serialLotNumber string) (domain.StockItem, bool) {
	ids := l.index[key(materialName, serialLotNumber)]
	if len(ids) == 0 {
		return domain.StockItem{}, false
	}
	return l.Get(ids[0])
}

// FindBySerialFragment returns the single item whose serial/lot number
// contains the fragment, ignoring case. When zero or several items
// match, nothing is returned; the lookup backs case-entry autofill and
// must never guess.
func (l *Ledger) FindBySerialFragment(fragment string) (domain.StockItem, bool) {
	fragment = strings.ToLower(strings.TrimSpace(fragment))
	if fragment == "" {
		return domain.StockItem{}, false
	}
	var found domain.StockItem
	matches := 0
	for _, item := range l.items {
		if strings.Contains(strings.ToLower(item.SerialLotNumber), fragment) {
			found = item
			matches++
			if matches > 1 {
				return domain.StockItem{}, false
			}
		}
	}
	if matches != 1 {
		return domain.StockItem{}, false
	}
	return found, true
}

// Remove decrements each entry's first matching item and deletes items
// whose quantity drops to zero or below. Entries with no match are
// skipped; the ledger is persisted once after the whole batch.
func (l *Ledger) Remove(entries []domain.RemoveEntry) error {
	for _, entry := range entries {
		k := key(entry.MaterialName, entry.SerialLotNumber)
		ids := l.index[k]
		if len(ids) == 0 {
			continue
		}
		id := ids[0]
		for i := range l.items {
			if l.items[i].ID != id {
				continue
			}
			l.items[i].Quantity -= entry.Quantity
			if l.items[i].Quantity <= 0 {
				l.items = append(l.items[:i], l.items[i+1:]...)
				l.dropFromIndex(k, id)
			}
			break
		}
	}
	return l.persist()
}

// UpdateByID replaces the fields of the item with the given ID and
// persists. A missing ID is a no-op.
func (l *Ledger) UpdateByID(id string, item domain.StockItem) error {
	for i := range l.items {
		if l.items[i].ID != id {
			continue
		}
		oldKey := key(l.items[i].MaterialName, l.items[i].SerialLotNumber)
		item.ID = id
		l.items[i] = item
		newKey := key(item.MaterialName, item.SerialLotNumber)
		if newKey != oldKey {
			l.dropFromIndex(oldKey, id)
			l.index[newKey] = append(l.index[newKey], id)
		}
		return l.persist()
	}
	return nil
}

// DeleteByID removes the item with the given ID and persists. A
// missing ID is a no-op.
func (l *Ledger) DeleteByID(id string) error {
	for i := range l.items {
		if l.items[i].ID != id {
			continue
		}
		k := key(l.items[i].MaterialName, l.items[i].SerialLotNumber)
		l.items = append(l.items[:i], l.items[i+1:]...)
		l.dropFromIndex(k, id)
		return l.persist()
	}
	return nil
}

// Clear drops every item and persists the empty collection in one
// write.
func (l *Ledger) Clear() error {
	l.items = nil
	l.index = make(map[string][]string)
	return l.persist()
}

func (l *Ledger) dropFromIndex(k, id string) {
	ids := l.index[k]
	for i, candidate := range ids {
		if candidate == id {
			ids = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	if len(ids) == 0 {
		delete(l.index, k)
		return
	}
	l.index[k] = ids
}

func (l *Ledger) persist() error {
	if err := l.store.SetStock(l.items); err != nil {
		return fmt.Errorf("persist stock: %w", err)
	}
	return nil
}
