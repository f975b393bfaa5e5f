package query

import (
	"strings"

	"github.com/Seyyahtar/Stok73/domain"
	"github.com/Seyyahtar/Stok73/internal/classify"
)

// Key names a category filter. The filter predicates are configured
// independently of the device summary classification: the crt filter
// deliberately matches any "hf-t" name without the pacemaker/ICD
// exclusions that the summary applies.
type Key string

const (
	KeyLead      Key = "lead"
	KeySheath    Key = "sheath"
	KeyPacemaker Key = "pacemaker"
	KeyICD       Key = "icd"
	KeyCRT       Key = "crt"
)

// Keys lists every filter key in display order.
var Keys = []Key{KeyLead, KeySheath, KeyPacemaker, KeyICD, KeyCRT}

var (
	leadMarkers   = []string{"solia", "sentus", "plexa"}
	sheathMarkers = []string{"safesheath", "adelante", "li-7", "li-8"}
)

// MatchesCategory reports whether the item satisfies one filter key.
func MatchesCategory(item domain.StockItem, key Key) bool {
	name := strings.ToLower(item.MaterialName)
	switch key {
	case KeyLead:
		return containsAny(name, leadMarkers)
	case KeySheath:
		return containsAny(name, sheathMarkers)
	case KeyPacemaker:
		return classify.IsPacemaker(item)
	case KeyICD:
		return classify.IsICD(item)
	case KeyCRT:
		return strings.Contains(name, "hf-t")
	default:
		return false
	}
}

func containsAny(name string, markers []string) bool {
	for _, marker := range markers {
		if strings.Contains(name, marker) {
			return true
		}
	}
	return false
}

// MatchesSearch reports whether the free-text search occurs in the
// material name, serial/lot number or UBB code, ignoring case. An
// empty search matches everything.
func MatchesSearch(item domain.StockItem, search string) bool {
	search = strings.ToLower(strings.TrimSpace(search))
	if search == "" {
		return true
	}
	return strings.Contains(strings.ToLower(item.MaterialName), search) ||
		strings.Contains(strings.ToLower(item.SerialLotNumber), search) ||
		strings.Contains(strings.ToLower(item.UbbCode), search)
}

// Filter applies the search text and the active category filters. An
// item passes when the search matches and either no filter is active
// or at least one active filter matches (OR across filters).
func Filter(items []domain.StockItem, search string, active []Key) []domain.StockItem {
	filtered := make([]domain.StockItem, 0, len(items))
	for _, item := range items {
		if !MatchesSearch(item, search) {
			continue
		}
		if len(active) > 0 && !matchesAny(item, active) {
			continue
		}
		filtered = append(filtered, item)
	}
	return filtered
}

func matchesAny(item domain.StockItem, active []Key) bool {
	for _, key := range active {
		if MatchesCategory(item, key) {
			return true
		}
	}
	return false
}

// TotalQuantity sums the quantities of the given items.
func TotalQuantity(items []domain.StockItem) int {
	total := 0
	for _, item := range items {
		total += item.Quantity
	}
	return total
}

// ParseKey validates a filter key name. Unknown names return false.
func ParseKey(name string) (Key, bool) {
	key := Key(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range Keys {
		if key == known {
			return key, true
		}
	}
	return "", false
}
