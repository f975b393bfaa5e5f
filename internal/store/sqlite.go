package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/Seyyahtar/Stok73/domain"
)

// SQLiteStore persists every collection as position-ordered JSON
// payload rows in a single records table. Each Set is a wholesale
// replace inside one transaction; there is a single writer, so no
// further coordination is needed.
type SQLiteStore struct {
	db *sqlx.DB
}

// NewSQLite wraps an opened database. The schema must already exist
// (see internal/migrations).
func NewSQLite(db *sqlx.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) getPayloads(collection string) ([][]byte, error) {
	var rows []string
	err := s.db.Select(&rows, `SELECT payload FROM records WHERE collection = ? ORDER BY position`, collection)
	if err != nil {
		return nil, fmt.Errorf("read %s collection: %w", collection, err)
	}
	payloads := make([][]byte, len(rows))
	for i, row := range rows {
		payloads[i] = []byte(row)
	}
	return payloads, nil
}

func (s *SQLiteStore) setPayloads(collection string, ids []string, payloads [][]byte) error {
	tx, err := s.db.Beginx()
	if err != nil {
		return fmt.Errorf("replace %s collection: %w", collection, err)
	}
	if _, err := tx.Exec(`DELETE FROM records WHERE collection = ?`, collection); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("replace %s collection: %w", collection, err)
	}
	for i := range payloads {
		_, err := tx.Exec(`INSERT INTO records (collection, position, record_id, payload) VALUES (?, ?, ?, ?)`,
			collection, i, ids[i], string(payloads[i]))
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("replace %s collection: %w", collection, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("replace %s collection: %w", collection, err)
	}
	return nil
}

func (s *SQLiteStore) GetStock() ([]domain.StockItem, error) {
	payloads, err := s.getPayloads(collectionStock)
	if err != nil {
		return nil, err
	}
	items := make([]domain.StockItem, 0, len(payloads))
	for _, p := range payloads {
		var item domain.StockItem
		if err := json.Unmarshal(p, &item); err != nil {
			return nil, fmt.Errorf("decode stock item: %w", err)
		}
		items = append(items, item)
	}
	return items, nil
}

func (s *SQLiteStore) SetStock(items []domain.StockItem) error {
	ids := make([]string, len(items))
	payloads := make([][]byte, len(items))
	for i, item := range items {
		data, err := json.Marshal(item)
		if err != nil {
			return fmt.Errorf("encode stock item: %w", err)
		}
		ids[i] = item.ID
		payloads[i] = data
	}
	return s.setPayloads(collectionStock, ids, payloads)
}

func (s *SQLiteStore) GetCases() ([]domain.CaseRecord, error) {
	payloads, err := s.getPayloads(collectionCases)
	if err != nil {
		return nil, err
	}
	cases := make([]domain.CaseRecord, 0, len(payloads))
	for _, p := range payloads {
		var record domain.CaseRecord
		if err := json.Unmarshal(p, &record); err != nil {
			return nil, fmt.Errorf("decode case record: %w", err)
		}
		cases = append(cases, record)
	}
	return cases, nil
}

func (s *SQLiteStore) SetCases(cases []domain.CaseRecord) error {
	ids := make([]string, len(cases))
	payloads := make([][]byte, len(cases))
	for i, record := range cases {
		data, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("encode case record: %w", err)
		}
		ids[i] = record.ID
		payloads[i] = data
	}
	return s.setPayloads(collectionCases, ids, payloads)
}

func (s *SQLiteStore) GetHistory() ([]domain.HistoryRecord, error) {
	payloads, err := s.getPayloads(collectionHistory)
	if err != nil {
		return nil, err
	}
	records := make([]domain.HistoryRecord, 0, len(payloads))
	for _, p := range payloads {
		var record domain.HistoryRecord
		if err := json.Unmarshal(p, &record); err != nil {
			return nil, fmt.Errorf("decode history record: %w", err)
		}
		records = append(records, record)
	}
	return records, nil
}

func (s *SQLiteStore) SetHistory(records []domain.HistoryRecord) error {
	ids := make([]string, len(records))
	payloads := make([][]byte, len(records))
	for i, record := range records {
		data, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("encode history record: %w", err)
		}
		ids[i] = record.ID
		payloads[i] = data
	}
	return s.setPayloads(collectionHistory, ids, payloads)
}

func (s *SQLiteStore) GetChecklists() ([]domain.ChecklistRecord, error) {
	payloads, err := s.getPayloads(collectionChecklists)
	if err != nil {
		return nil, err
	}
	lists := make([]domain.ChecklistRecord, 0, len(payloads))
	for _, p := range payloads {
		var record domain.ChecklistRecord
		if err := json.Unmarshal(p, &record); err != nil {
			return nil, fmt.Errorf("decode checklist record: %w", err)
		}
		lists = append(lists, record)
	}
	return lists, nil
}

func (s *SQLiteStore) SetChecklists(lists []domain.ChecklistRecord) error {
	ids := make([]string, len(lists))
	payloads := make([][]byte, len(lists))
	for i, record := range lists {
		data, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("encode checklist record: %w", err)
		}
		ids[i] = record.ID
		payloads[i] = data
	}
	return s.setPayloads(collectionChecklists, ids, payloads)
}

func (s *SQLiteStore) GetUser() (*domain.User, error) {
	var payload string
	err := s.db.Get(&payload, `SELECT value FROM settings WHERE key = ?`, settingUser)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read current user: %w", err)
	}
	var user domain.User
	if err := json.Unmarshal([]byte(payload), &user); err != nil {
		return nil, fmt.Errorf("decode current user: %w", err)
	}
	return &user, nil
}

func (s *SQLiteStore) SetUser(user domain.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode current user: %w", err)
	}
	_, err = s.db.Exec(`INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		settingUser, string(data))
	if err != nil {
		return fmt.Errorf("save current user: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ClearUser() error {
	if _, err := s.db.Exec(`DELETE FROM settings WHERE key = ?`, settingUser); err != nil {
		return fmt.Errorf("clear current user: %w", err)
	}
	return nil
}
