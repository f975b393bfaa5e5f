// Package history keeps the append-only activity log and reverses
// logged actions against the stock ledger.
package history

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Seyyahtar/Stok73/domain"
	"github.com/Seyyahtar/Stok73/internal/store"
)

// StockWriter is the slice of the ledger that undo needs.
type StockWriter interface {
	Add(item domain.StockItem) error
	Get(id string) (domain.StockItem, bool)
	UpdateByID(id string, item domain.StockItem) error
	DeleteByID(id string) error
}

// ErrNotUndoable marks history entries that cannot be reversed.
var ErrNotUndoable = fmt.Errorf("bu işlem geri alınamaz")

// Log owns the history collection. Records are kept newest first.
type Log struct {
	store   store.Store
	stock   StockWriter
	records []domain.HistoryRecord
}

// New loads the history collection.
func New(st store.Store, stock StockWriter) (*Log, error) {
	records, err := st.GetHistory()
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	return &Log{store: st, stock: stock, records: records}, nil
}

// Append prepends a new record and persists the log. The record ID and
// timestamp are assigned here.
func (l *Log) Append(recordType domain.HistoryType, description string, details domain.HistoryDetails) (domain.HistoryRecord, error) {
	record := domain.HistoryRecord{
		ID:          uuid.NewString(),
		Date:        time.Now().Format(time.RFC3339),
		Type:        recordType,
		Description: description,
		Details:     details,
	}
	l.records = append([]domain.HistoryRecord{record}, l.records...)
	if err := l.persist(); err != nil {
		return domain.HistoryRecord{}, err
	}
	return record, nil
}

// List returns a copy of the log, newest first.
func (l *Log) List() []domain.HistoryRecord {
	return append([]domain.HistoryRecord(nil), l.records...)
}

// Filter narrows the log by record type and an inclusive date range.
// Empty arguments leave their dimension unfiltered; dates compare on
// the YYYY-MM-DD day part.
func (l *Log) Filter(recordType domain.HistoryType, from, to string) []domain.HistoryRecord {
	var filtered []domain.HistoryRecord
	for _, record := range l.records {
		if recordType != "" && record.Type != recordType {
			continue
		}
		day := dayPart(record.Date)
		if from != "" && day < from {
			continue
		}
		if to != "" && day > to {
			continue
		}
		filtered = append(filtered, record)
	}
	return filtered
}

// Get returns the record with the given ID.
func (l *Log) Get(id string) (domain.HistoryRecord, bool) {
	for _, record := range l.records {
		if record.ID == id {
			return record, true
		}
	}
	return domain.HistoryRecord{}, false
}

// Remove deletes a record without reversing it. A missing ID is a
// no-op.
func (l *Log) Remove(id string) error {
	for i, record := range l.records {
		if record.ID == id {
			l.records = append(l.records[:i], l.records[i+1:]...)
			return l.persist()
		}
	}
	return nil
}

// Clear drops the whole log.
func (l *Log) Clear() error {
	l.records = nil
	return l.persist()
}

// Undo reverses the record with the given ID and deletes it from the
// log. A missing ID is a no-op, so undoing the same record twice only
// acts once. Checklist records cannot be undone. When the reversal
// itself fails the record stays in the log.
func (l *Log) Undo(id string) error {
	record, ok := l.Get(id)
	if !ok {
		return nil
	}

	switch record.Type {
	case domain.HistoryStockAdd:
		if err := l.undoAdd(record.Details); err != nil {
			return err
		}
	case domain.HistoryStockRemove, domain.HistoryStockDelete:
		if err := l.undoRemove(record.Details); err != nil {
			return err
		}
	case domain.HistoryCase:
		if err := l.undoCase(record.Details); err != nil {
			return err
		}
	case domain.HistoryChecklist:
		return ErrNotUndoable
	default:
		return fmt.Errorf("unknown history type %q", record.Type)
	}

	return l.Remove(id)
}

// undoAdd deletes the items that the original action inserted. Items
// already gone are silently skipped by the ledger.
func (l *Log) undoAdd(details domain.HistoryDetails) error {
	if details.Item != nil {
		if err := l.stock.DeleteByID(details.Item.ID); err != nil {
			return err
		}
	}
	for _, item := range details.Items {
		if err := l.stock.DeleteByID(item.ID); err != nil {
			return err
		}
	}
	return nil
}

// undoRemove puts the removed snapshot back. When an item with the
// snapshot's ID is still in the ledger the snapshot came from an edit,
// and the edited item is replaced in place; otherwise the snapshot
// comes back as a fresh item. The duplicate check does not apply here.
func (l *Log) undoRemove(details domain.HistoryDetails) error {
	if details.Item != nil {
		if _, ok := l.stock.Get(details.Item.ID); ok {
			if err := l.stock.UpdateByID(details.Item.ID, *details.Item); err != nil {
				return err
			}
		} else if err := l.stock.Add(restored(*details.Item)); err != nil {
			return err
		}
	}
	for _, item := range details.Items {
		if err := l.stock.Add(restored(item)); err != nil {
			return err
		}
	}
	return nil
}

// undoCase re-adds every material the case consumed. The case record
// itself stays in the cases collection; only the stock movement is
// reversed.
func (l *Log) undoCase(details domain.HistoryDetails) error {
	if details.Case == nil {
		return nil
	}
	for _, material := range details.Case.Materials {
		item := domain.StockItem{
			ID:              uuid.NewString(),
			MaterialName:    material.MaterialName,
			SerialLotNumber: material.SerialLotNumber,
			UbbCode:         material.UbbCode,
			Quantity:        material.Quantity,
			DateAdded:       time.Now().Format("2006-01-02"),
			From:            "Geri Alma",
		}
		if err := l.stock.Add(item); err != nil {
			return err
		}
	}
	return nil
}

func restored(item domain.StockItem) domain.StockItem {
	item.ID = uuid.NewString()
	item.DateAdded = time.Now().Format("2006-01-02")
	item.From = "Geri Alma"
	return item
}

func dayPart(date string) string {
	if len(date) > 10 {
		return date[:10]
	}
	return date
}

func (l *Log) persist() error {
	if err := l.store.SetHistory(l.records); err != nil {
		return fmt.Errorf("persist history: %w", err)
	}
	return nil
}
