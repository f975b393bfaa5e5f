package domain

// HistoryType discriminates the payload of a history record.
type HistoryType string

const (
	HistoryStockAdd    HistoryType = "stock-add"
	HistoryStockRemove HistoryType = "stock-remove"
	HistoryStockDelete HistoryType = "stock-delete"
	HistoryCase        HistoryType = "case"
	HistoryChecklist   HistoryType = "checklist"
)

// HistoryDetails is the payload of a history record. Exactly one field
// is set, chosen by the record's Type: Item for stock-add (manual),
// stock-remove and stock-delete; Items for bulk stock-add imports;
// Case and Checklist for their respective types.
type HistoryDetails struct {
	Item      *StockItem       `json:"item,omitempty"`
	Items     []StockItem      `json:"items,omitempty"`
	Case      *CaseRecord      `json:"case,omitempty"`
	Checklist *ChecklistRecord `json:"checklist,omitempty"`
}

// HistoryRecord is one entry of the append-only, newest-first history
// log. Details carries a copy of the affected data, enough to
// reconstruct the inverse operation.
type HistoryRecord struct {
	ID          string         `json:"id"`
	Date        string         `json:"date"`
	Type        HistoryType    `json:"type"`
	Description string         `json:"description"`
	Details     HistoryDetails `json:"details"`
}
