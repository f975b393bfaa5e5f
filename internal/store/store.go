package store

import "github.com/Seyyahtar/Stok73/domain"

// Store is the persistence collaborator for the core: four independent
// record collections plus the current-user scalar. Get returns the
// collection in stored order (possibly empty); Set replaces it
// wholesale. The core assumes no partial or patch semantics.
type Store interface {
	GetStock() ([]domain.StockItem, error)
	SetStock(items []domain.StockItem) error

	GetCases() ([]domain.CaseRecord, error)
	SetCases(cases []domain.CaseRecord) error

	GetHistory() ([]domain.HistoryRecord, error)
	SetHistory(records []domain.HistoryRecord) error

	GetChecklists() ([]domain.ChecklistRecord, error)
	SetChecklists(lists []domain.ChecklistRecord) error

	GetUser() (*domain.User, error)
	SetUser(user domain.User) error
	ClearUser() error
}

// Collection names used by the sqlite implementation.
const (
	collectionStock      = "stock"
	collectionCases      = "cases"
	collectionHistory    = "history"
	collectionChecklists = "checklists"

	settingUser = "current_user"
)
