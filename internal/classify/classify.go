package classify

import (
	"sort"
	"strings"

	"github.com/Seyyahtar/Stok73/domain"
)

// Category is a device class derived from the material name.
type Category string

const (
	CategoryPacemaker Category = "pacemaker"
	CategoryICD       Category = "icd"
	CategoryCRT       Category = "crt"
	CategoryNone      Category = ""
)

// Marker substrings per device family. Precedence is fixed:
// pacemaker wins over ICD, ICD over CRT, so a name like
// "Amvia Sky DR-T" classifies as pacemaker despite the "dr-t".
var (
	pacemakerMarkers = []string{"amvia sky", "endicos", "enitra", "edora"}
	icdMarkers       = []string{"vr-t", "dr-t"}
	crtMarkers       = []string{"hf-t"}
)

func nameContainsAny(item domain.StockItem, markers []string) bool {
	name := strings.ToLower(item.MaterialName)
	for _, marker := range markers {
		if strings.Contains(name, marker) {
			return true
		}
	}
	return false
}

// IsPacemaker reports whether the item is a pacemaker device.
func IsPacemaker(item domain.StockItem) bool {
	return nameContainsAny(item, pacemakerMarkers)
}

// IsICD reports whether the item is an ICD device. Pacemaker names
// containing an ICD marker stay pacemakers.
func IsICD(item domain.StockItem) bool {
	return !IsPacemaker(item) && nameContainsAny(item, icdMarkers)
}

// IsCRT reports whether the item is a CRT device, after the pacemaker
// and ICD checks have both failed.
func IsCRT(item domain.StockItem) bool {
	return !IsPacemaker(item) && !IsICD(item) && nameContainsAny(item, crtMarkers)
}

// Categorize returns the device category of an item, or CategoryNone
// when no marker matches. Uncategorized items still appear in ordinary
// listings; they are only absent from the device summary.
func Categorize(item domain.StockItem) Category {
	switch {
	case IsPacemaker(item):
		return CategoryPacemaker
	case IsICD(item):
		return CategoryICD
	case IsCRT(item):
		return CategoryCRT
	default:
		return CategoryNone
	}
}

// Summary is the quantity total of one device category over a set of
// items.
type Summary struct {
	Category Category
	Label    string
	Total    int
}

// Summarize totals quantities per device category over the given
// (already filtered) item set.
func Summarize(items []domain.StockItem) []Summary {
	var pacemaker, icd, crt int
	for _, item := range items {
		switch Categorize(item) {
		case CategoryPacemaker:
			pacemaker += item.Quantity
		case CategoryICD:
			icd += item.Quantity
		case CategoryCRT:
			crt += item.Quantity
		}
	}
	return []Summary{
		{Category: CategoryPacemaker, Label: "Pacemaker", Total: pacemaker},
		{Category: CategoryICD, Label: "ICD", Total: icd},
		{Category: CategoryCRT, Label: "CRT", Total: crt},
	}
}

// MaterialGroup collects the items sharing one exact material name.
type MaterialGroup struct {
	Name          string
	TotalQuantity int
	Items         []domain.StockItem
}

// PrefixGroup collects material groups sharing the first
// whitespace-delimited token of the name.
type PrefixGroup struct {
	Prefix        string
	TotalQuantity int
	Materials     []MaterialGroup
}

// Group builds the hierarchical display view: items grouped by exact
// material name inside prefix groups, both levels sorted
// alphabetically ignoring case. Items within a material group are
// ordered by expiry date ascending with unknown expiries last, then by
// serial/lot number.
func Group(items []domain.StockItem) []PrefixGroup {
	materialsByName := make(map[string]*MaterialGroup)
	var order []string
	for _, item := range items {
		group, ok := materialsByName[item.MaterialName]
		if !ok {
			group = &MaterialGroup{Name: item.MaterialName}
			materialsByName[item.MaterialName] = group
			order = append(order, item.MaterialName)
		}
		group.TotalQuantity += item.Quantity
		group.Items = append(group.Items, item)
	}

	prefixesByName := make(map[string]*PrefixGroup)
	var prefixOrder []string
	for _, name := range order {
		material := materialsByName[name]
		sortItems(material.Items)

		prefix := firstToken(material.Name)
		group, ok := prefixesByName[strings.ToLower(prefix)]
		if !ok {
			group = &PrefixGroup{Prefix: prefix}
			prefixesByName[strings.ToLower(prefix)] = group
			prefixOrder = append(prefixOrder, strings.ToLower(prefix))
		}
		group.TotalQuantity += material.TotalQuantity
		group.Materials = append(group.Materials, *material)
	}

	groups := make([]PrefixGroup, 0, len(prefixOrder))
	for _, prefix := range prefixOrder {
		group := prefixesByName[prefix]
		sort.SliceStable(group.Materials, func(i, j int) bool {
			return strings.ToLower(group.Materials[i].Name) < strings.ToLower(group.Materials[j].Name)
		})
		groups = append(groups, *group)
	}
	sort.SliceStable(groups, func(i, j int) bool {
		return strings.ToLower(groups[i].Prefix) < strings.ToLower(groups[j].Prefix)
	})
	return groups
}

func firstToken(name string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return name
	}
	return fields[0]
}

// sortItems orders by expiry ascending, empty expiry last, ties broken
// by serial/lot number. Expiry dates are ISO strings, so a plain
// string compare orders them chronologically.
func sortItems(items []domain.StockItem) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if (a.ExpiryDate == "") != (b.ExpiryDate == "") {
			return a.ExpiryDate != ""
		}
		if a.ExpiryDate != b.ExpiryDate {
			return a.ExpiryDate < b.ExpiryDate
		}
		return a.SerialLotNumber < b.SerialLotNumber
	})
}
