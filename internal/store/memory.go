package store

import "github.com/Seyyahtar/Stok73/domain"

// MemoryStore keeps every collection in process memory. It backs tests
// and any caller that does not need persistence across runs. Getters
// and setters copy their slices so callers never share backing arrays
// with the store.
type MemoryStore struct {
	stock      []domain.StockItem
	cases      []domain.CaseRecord
	history    []domain.HistoryRecord
	checklists []domain.ChecklistRecord
	user       *domain.User
}

// NewMemory returns an empty in-memory store.
func NewMemory() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) GetStock() ([]domain.StockItem, error) {
	return append([]domain.StockItem(nil), s.stock...), nil
}

func (s *MemoryStore) SetStock(items []domain.StockItem) error {
	s.stock = append([]domain.StockItem(nil), items...)
	return nil
}

func (s *MemoryStore) GetCases() ([]domain.CaseRecord, error) {
	return append([]domain.CaseRecord(nil), s.cases...), nil
}

func (s *MemoryStore) SetCases(cases []domain.CaseRecord) error {
	s.cases = append([]domain.CaseRecord(nil), cases...)
	return nil
}

func (s *MemoryStore) GetHistory() ([]domain.HistoryRecord, error) {
	return append([]domain.HistoryRecord(nil), s.history...), nil
}

func (s *MemoryStore) SetHistory(records []domain.HistoryRecord) error {
	s.history = append([]domain.HistoryRecord(nil), records...)
	return nil
}

func (s *MemoryStore) GetChecklists() ([]domain.ChecklistRecord, error) {
	return append([]domain.ChecklistRecord(nil), s.checklists...), nil
}

func (s *MemoryStore) SetChecklists(lists []domain.ChecklistRecord) error {
	s.checklists = append([]domain.ChecklistRecord(nil), lists...)
	return nil
}

func (s *MemoryStore) GetUser() (*domain.User, error) {
	if s.user == nil {
		return nil, nil
	}
	user := *s.user
	return &user, nil
}

func (s *MemoryStore) SetUser(user domain.User) error {
	s.user = &user
	return nil
}

func (s *MemoryStore) ClearUser() error {
	s.user = nil
	return nil
}
