// Package service implements the application workflows on top of the
// stock ledger, the history log and the persistence store. All
// validation happens here; the layers below trust their input.
package service

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Seyyahtar/Stok73/domain"
	"github.com/Seyyahtar/Stok73/internal/classify"
	"github.com/Seyyahtar/Stok73/internal/excel"
	"github.com/Seyyahtar/Stok73/internal/history"
	"github.com/Seyyahtar/Stok73/internal/ledger"
	"github.com/Seyyahtar/Stok73/internal/query"
	"github.com/Seyyahtar/Stok73/internal/store"
)

// Service wires the store, the ledger and the history log together.
type Service struct {
	store   store.Store
	ledger  *ledger.Ledger
	history *history.Log
	log     zerolog.Logger
}

// New loads the persisted state and returns a ready service.
func New(st store.Store, logger zerolog.Logger) (*Service, error) {
	led, err := ledger.New(st)
	if err != nil {
		return nil, err
	}
	hist, err := history.New(st, led)
	if err != nil {
		return nil, err
	}
	return &Service{store: st, ledger: led, history: hist, log: logger}, nil
}

// AddStockInput carries the fields of a manual stock entry.
type AddStockInput struct {
	MaterialName    string
	SerialLotNumber string
	UbbCode         string
	ExpiryDate      string
	Quantity        int
	From            string
	To              string
	MaterialCode    string
}

// AddStock validates and records a manual stock entry. A second entry
// with the same material name and serial/lot pair is rejected.
func (s *Service) AddStock(input AddStockInput) (domain.StockItem, error) {
	input.MaterialName = strings.TrimSpace(input.MaterialName)
	input.SerialLotNumber = strings.TrimSpace(input.SerialLotNumber)
	if input.MaterialName == "" {
		return domain.StockItem{}, fmt.Errorf("malzeme adı boş olamaz")
	}
	if input.SerialLotNumber == "" {
		return domain.StockItem{}, fmt.Errorf("seri/lot numarası boş olamaz")
	}
	if input.Quantity <= 0 {
		return domain.StockItem{}, fmt.Errorf("miktar pozitif olmalı")
	}
	if s.ledger.CheckDuplicate(input.MaterialName, input.SerialLotNumber) {
		return domain.StockItem{}, fmt.Errorf("bu malzeme ve seri/lot numarası zaten kayıtlı: %s / %s", input.MaterialName, input.SerialLotNumber)
	}

	item := domain.StockItem{
		ID:              uuid.NewString(),
		MaterialName:    input.MaterialName,
		SerialLotNumber: input.SerialLotNumber,
		UbbCode:         strings.TrimSpace(input.UbbCode),
		ExpiryDate:      strings.TrimSpace(input.ExpiryDate),
		Quantity:        input.Quantity,
		DateAdded:       today(),
		From:            strings.TrimSpace(input.From),
		To:              strings.TrimSpace(input.To),
		MaterialCode:    strings.TrimSpace(input.MaterialCode),
	}
	if err := s.ledger.Add(item); err != nil {
		return domain.StockItem{}, err
	}

	description := fmt.Sprintf("Stok eklendi: %s (SN: %s, %d adet)", item.MaterialName, item.SerialLotNumber, item.Quantity)
	if _, err := s.history.Append(domain.HistoryStockAdd, description, domain.HistoryDetails{Item: &item}); err != nil {
		return domain.StockItem{}, err
	}
	s.log.Info().Str("material", item.MaterialName).Int("quantity", item.Quantity).Msg("stock added")
	return item, nil
}

// RemoveStock decrements the first ledger item matching the material
// name and serial/lot pair by the given quantity. The removed snapshot
// goes into the history log so the removal can be undone.
func (s *Service) RemoveStock(materialName, serialLotNumber string, quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("miktar pozitif olmalı")
	}
	item, ok := s.ledger.Find(materialName, serialLotNumber)
	if !ok {
		return fmt.Errorf("eşleşen stok bulunamadı: %s / %s", materialName, serialLotNumber)
	}

	entry := domain.RemoveEntry{MaterialName: materialName, SerialLotNumber: serialLotNumber, Quantity: quantity}
	if err := s.ledger.Remove([]domain.RemoveEntry{entry}); err != nil {
		return err
	}

	snapshot := item
	if quantity < item.Quantity {
		// A partial removal leaves the source item in the ledger; the
		// snapshot stands on its own so undo re-adds it as a new entry
		// instead of overwriting what remains.
		snapshot.ID = uuid.NewString()
		snapshot.Quantity = quantity
	}
	description := fmt.Sprintf("Stok düşüldü: %s (SN: %s, %d adet)", item.MaterialName, item.SerialLotNumber, snapshot.Quantity)
	if _, err := s.history.Append(domain.HistoryStockRemove, description, domain.HistoryDetails{Item: &snapshot}); err != nil {
		return err
	}
	s.log.Info().Str("material", item.MaterialName).Int("quantity", snapshot.Quantity).Msg("stock removed")
	return nil
}

// EditStockInput carries optional overrides; empty strings and zero
// quantities leave the current value in place.
type EditStockInput struct {
	MaterialName    string
	SerialLotNumber string
	UbbCode         string
	ExpiryDate      string
	Quantity        int
}

// EditStock updates an item in place. The pre-edit snapshot is logged
// so the old version can be restored.
func (s *Service) EditStock(id string, input EditStockInput) (domain.StockItem, error) {
	current, ok := s.ledger.Get(id)
	if !ok {
		return domain.StockItem{}, fmt.Errorf("stok kaydı bulunamadı: %s", id)
	}

	updated := current
	if v := strings.TrimSpace(input.MaterialName); v != "" {
		updated.MaterialName = v
	}
	if v := strings.TrimSpace(input.SerialLotNumber); v != "" {
		updated.SerialLotNumber = v
	}
	if v := strings.TrimSpace(input.UbbCode); v != "" {
		updated.UbbCode = v
	}
	if v := strings.TrimSpace(input.ExpiryDate); v != "" {
		updated.ExpiryDate = v
	}
	if input.Quantity > 0 {
		updated.Quantity = input.Quantity
	}

	if err := s.ledger.UpdateByID(id, updated); err != nil {
		return domain.StockItem{}, err
	}

	description := fmt.Sprintf("Stok düzenlendi: %s (SN: %s)", current.MaterialName, current.SerialLotNumber)
	if _, err := s.history.Append(domain.HistoryStockRemove, description, domain.HistoryDetails{Item: &current}); err != nil {
		return domain.StockItem{}, err
	}
	s.log.Info().Str("id", id).Msg("stock edited")
	return updated, nil
}

// DeleteStock removes an item entirely, whatever its quantity.
func (s *Service) DeleteStock(id string) error {
	item, ok := s.ledger.Get(id)
	if !ok {
		return fmt.Errorf("stok kaydı bulunamadı: %s", id)
	}
	if err := s.ledger.DeleteByID(id); err != nil {
		return err
	}
	description := fmt.Sprintf("Stok silindi: %s (SN: %s, %d adet)", item.MaterialName, item.SerialLotNumber, item.Quantity)
	if _, err := s.history.Append(domain.HistoryStockDelete, description, domain.HistoryDetails{Item: &item}); err != nil {
		return err
	}
	s.log.Info().Str("material", item.MaterialName).Msg("stock deleted")
	return nil
}

// FindBySerial resolves a serial/lot fragment to the single matching
// item, for prefilling case materials. Ambiguous fragments resolve to
// nothing.
func (s *Service) FindBySerial(fragment string) (domain.StockItem, bool) {
	return s.ledger.FindBySerialFragment(fragment)
}

// CaseInput carries a procedure record and the materials it consumed.
type CaseInput struct {
	Date         string
	HospitalName string
	DoctorName   string
	PatientName  string
	Notes        string
	Materials    []domain.CaseMaterial
}

// CreateCase validates the input, checks every material is in stock in
// sufficient quantity, then decrements the ledger and records the case
// atomically with one history entry.
func (s *Service) CreateCase(input CaseInput) (domain.CaseRecord, error) {
	input.HospitalName = strings.TrimSpace(input.HospitalName)
	input.DoctorName = strings.TrimSpace(input.DoctorName)
	input.PatientName = strings.TrimSpace(input.PatientName)
	if input.HospitalName == "" || input.DoctorName == "" || input.PatientName == "" {
		return domain.CaseRecord{}, fmt.Errorf("hastane, doktor ve hasta adı zorunludur")
	}

	var materials []domain.CaseMaterial
	for _, material := range input.Materials {
		material.MaterialName = strings.TrimSpace(material.MaterialName)
		material.SerialLotNumber = strings.TrimSpace(material.SerialLotNumber)
		if material.MaterialName == "" || material.SerialLotNumber == "" || material.Quantity <= 0 {
			continue
		}
		materials = append(materials, material)
	}
	if len(materials) == 0 {
		return domain.CaseRecord{}, fmt.Errorf("en az bir malzeme girilmelidir")
	}

	for _, material := range materials {
		item, ok := s.ledger.Find(material.MaterialName, material.SerialLotNumber)
		if !ok {
			return domain.CaseRecord{}, fmt.Errorf("stokta bulunamadı: %s / %s", material.MaterialName, material.SerialLotNumber)
		}
		if item.Quantity < material.Quantity {
			return domain.CaseRecord{}, fmt.Errorf("yetersiz stok: %s (mevcut %d, istenen %d)", material.MaterialName, item.Quantity, material.Quantity)
		}
	}

	entries := make([]domain.RemoveEntry, 0, len(materials))
	for _, material := range materials {
		entries = append(entries, domain.RemoveEntry{
			MaterialName:    material.MaterialName,
			SerialLotNumber: material.SerialLotNumber,
			Quantity:        material.Quantity,
		})
	}
	if err := s.ledger.Remove(entries); err != nil {
		return domain.CaseRecord{}, err
	}

	date := strings.TrimSpace(input.Date)
	if date == "" {
		date = today()
	}
	caseRecord := domain.CaseRecord{
		ID:           uuid.NewString(),
		Date:         date,
		HospitalName: input.HospitalName,
		DoctorName:   input.DoctorName,
		PatientName:  input.PatientName,
		Notes:        strings.TrimSpace(input.Notes),
		Materials:    materials,
	}

	cases, err := s.store.GetCases()
	if err != nil {
		return domain.CaseRecord{}, fmt.Errorf("load cases: %w", err)
	}
	cases = append(cases, caseRecord)
	if err := s.store.SetCases(cases); err != nil {
		return domain.CaseRecord{}, fmt.Errorf("persist cases: %w", err)
	}

	description := fmt.Sprintf("Vaka kaydedildi: %s - %s (%d malzeme)", caseRecord.HospitalName, caseRecord.PatientName, len(materials))
	if _, err := s.history.Append(domain.HistoryCase, description, domain.HistoryDetails{Case: &caseRecord}); err != nil {
		return domain.CaseRecord{}, err
	}
	s.log.Info().Str("hospital", caseRecord.HospitalName).Int("materials", len(materials)).Msg("case recorded")
	return caseRecord, nil
}

// ListCases returns all recorded cases.
func (s *Service) ListCases() ([]domain.CaseRecord, error) {
	return s.store.GetCases()
}

// ImportResult reports the outcome of a bulk stock import.
type ImportResult struct {
	Added   int
	Skipped int
}

// ImportStock loads a stock spreadsheet. Rows whose material name and
// serial/lot pair already exist are skipped, the rest are added under a
// single history entry.
func (s *Service) ImportStock(r io.Reader) (ImportResult, error) {
	items, err := excel.ImportStock(r)
	if err != nil {
		return ImportResult{}, err
	}
	if len(items) == 0 {
		return ImportResult{}, fmt.Errorf("dosyada içe aktarılacak satır bulunamadı")
	}

	var added []domain.StockItem
	result := ImportResult{}
	for _, item := range items {
		if s.ledger.CheckDuplicate(item.MaterialName, item.SerialLotNumber) {
			result.Skipped++
			continue
		}
		if err := s.ledger.Add(item); err != nil {
			return result, err
		}
		added = append(added, item)
		result.Added++
	}

	if len(added) > 0 {
		description := fmt.Sprintf("Excel'den %d malzeme içe aktarıldı", len(added))
		if _, err := s.history.Append(domain.HistoryStockAdd, description, domain.HistoryDetails{Items: added}); err != nil {
			return result, err
		}
	}
	s.log.Info().Int("added", result.Added).Int("skipped", result.Skipped).Msg("stock imported")
	return result, nil
}

// ExportStock writes the whole ledger as a spreadsheet.
func (s *Service) ExportStock(w io.Writer) error {
	items := s.ledger.Items()
	if len(items) == 0 {
		return fmt.Errorf("dışa aktarılacak stok yok")
	}
	f, err := excel.ExportStock(items)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write spreadsheet: %w", err)
	}
	s.log.Info().Int("items", len(items)).Msg("stock exported")
	return nil
}

// ImportChecklist loads a patient checklist spreadsheet and opens it as
// the active checklist. Only one checklist may be active at a time.
func (s *Service) ImportChecklist(r io.Reader) (domain.ChecklistRecord, error) {
	active, err := s.ActiveChecklist()
	if err != nil {
		return domain.ChecklistRecord{}, err
	}
	if active != nil {
		return domain.ChecklistRecord{}, fmt.Errorf("zaten aktif bir kontrol listesi var, önce onu tamamlayın")
	}

	patients, err := excel.ImportChecklist(r)
	if err != nil {
		return domain.ChecklistRecord{}, err
	}
	if len(patients) == 0 {
		return domain.ChecklistRecord{}, fmt.Errorf("dosyada hasta satırı bulunamadı")
	}

	record := domain.ChecklistRecord{
		ID:          uuid.NewString(),
		Title:       "Kontrol Listesi - " + time.Now().Format("02.01.2006"),
		CreatedDate: today(),
		Patients:    patients,
	}

	checklists, err := s.store.GetChecklists()
	if err != nil {
		return domain.ChecklistRecord{}, fmt.Errorf("load checklists: %w", err)
	}
	checklists = append(checklists, record)
	if err := s.store.SetChecklists(checklists); err != nil {
		return domain.ChecklistRecord{}, fmt.Errorf("persist checklists: %w", err)
	}
	s.log.Info().Int("patients", len(patients)).Msg("checklist imported")
	return record, nil
}

// ActiveChecklist returns the open checklist, or nil when none is
// active.
func (s *Service) ActiveChecklist() (*domain.ChecklistRecord, error) {
	checklists, err := s.store.GetChecklists()
	if err != nil {
		return nil, fmt.Errorf("load checklists: %w", err)
	}
	for i := range checklists {
		if !checklists[i].IsCompleted {
			return &checklists[i], nil
		}
	}
	return nil, nil
}

// Checklists returns every checklist, completed ones included.
func (s *Service) Checklists() ([]domain.ChecklistRecord, error) {
	return s.store.GetChecklists()
}

// TogglePatient flips the checked state of one patient on the active
// checklist.
func (s *Service) TogglePatient(patientID string) error {
	checklists, err := s.store.GetChecklists()
	if err != nil {
		return fmt.Errorf("load checklists: %w", err)
	}
	for i := range checklists {
		if checklists[i].IsCompleted {
			continue
		}
		for j := range checklists[i].Patients {
			if checklists[i].Patients[j].ID != patientID {
				continue
			}
			checklists[i].Patients[j].Checked = !checklists[i].Patients[j].Checked
			if err := s.store.SetChecklists(checklists); err != nil {
				return fmt.Errorf("persist checklists: %w", err)
			}
			return nil
		}
	}
	return fmt.Errorf("aktif listede hasta bulunamadı: %s", patientID)
}

// CompleteResult reports the outcome of a checklist completion
// attempt.
type CompleteResult struct {
	Completed    bool
	NeedsConfirm bool
	Checked      int
	Total        int
}

// CompleteChecklist seals the active checklist. When patients remain
// unchecked the caller must pass confirm to proceed; the result then
// reports NeedsConfirm instead of an error so the caller can prompt.
func (s *Service) CompleteChecklist(confirm bool) (CompleteResult, error) {
	checklists, err := s.store.GetChecklists()
	if err != nil {
		return CompleteResult{}, fmt.Errorf("load checklists: %w", err)
	}

	for i := range checklists {
		if checklists[i].IsCompleted {
			continue
		}
		record := &checklists[i]
		checked := record.CheckedCount()
		total := len(record.Patients)

		if checked < total && !confirm {
			return CompleteResult{NeedsConfirm: true, Checked: checked, Total: total}, nil
		}

		record.IsCompleted = true
		record.CompletedDate = today()
		if err := s.store.SetChecklists(checklists); err != nil {
			return CompleteResult{}, fmt.Errorf("persist checklists: %w", err)
		}

		snapshot := *record
		description := fmt.Sprintf("Kontrol listesi tamamlandı - %d/%d hasta kontrol edildi", checked, total)
		if _, err := s.history.Append(domain.HistoryChecklist, description, domain.HistoryDetails{Checklist: &snapshot}); err != nil {
			return CompleteResult{}, err
		}
		s.log.Info().Int("checked", checked).Int("total", total).Msg("checklist completed")
		return CompleteResult{Completed: true, Checked: checked, Total: total}, nil
	}
	return CompleteResult{}, fmt.Errorf("aktif kontrol listesi yok")
}

// StockView is the grouped, filtered read model of the ledger.
type StockView struct {
	Groups    []classify.PrefixGroup
	Summaries []classify.Summary
	Items     int
	Total     int
}

// ListStock applies the search text and category filters, then groups
// and summarizes the surviving items.
func (s *Service) ListStock(search string, filters []query.Key) StockView {
	items := query.Filter(s.ledger.Items(), search, filters)
	return StockView{
		Groups:    classify.Group(items),
		Summaries: classify.Summarize(items),
		Items:     len(items),
		Total:     query.TotalQuantity(items),
	}
}

// ListHistory returns history records filtered by type and inclusive
// day range; empty arguments mean no filtering.
func (s *Service) ListHistory(recordType domain.HistoryType, from, to string) []domain.HistoryRecord {
	if recordType == "" && from == "" && to == "" {
		return s.history.List()
	}
	return s.history.Filter(recordType, from, to)
}

// Undo reverses the history record with the given ID.
func (s *Service) Undo(historyID string) error {
	if err := s.history.Undo(historyID); err != nil {
		return err
	}
	s.log.Info().Str("id", historyID).Msg("history record undone")
	return nil
}

// Login records the current user. There is no password; the name tags
// activity only.
func (s *Service) Login(username string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return fmt.Errorf("kullanıcı adı boş olamaz")
	}
	return s.store.SetUser(domain.User{Username: username, LoginDate: today()})
}

// Logout clears the current user.
func (s *Service) Logout() error {
	return s.store.ClearUser()
}

// CurrentUser returns the signed-in user, or nil.
func (s *Service) CurrentUser() (*domain.User, error) {
	return s.store.GetUser()
}

// Stats summarizes the size of every collection.
type Stats struct {
	Items         int
	TotalQuantity int
	Cases         int
	History       int
	Checklists    int
}

// CollectStats counts the stored records.
func (s *Service) CollectStats() (Stats, error) {
	cases, err := s.store.GetCases()
	if err != nil {
		return Stats{}, err
	}
	checklists, err := s.store.GetChecklists()
	if err != nil {
		return Stats{}, err
	}
	items := s.ledger.Items()
	return Stats{
		Items:         len(items),
		TotalQuantity: query.TotalQuantity(items),
		Cases:         len(cases),
		History:       len(s.history.List()),
		Checklists:    len(checklists),
	}, nil
}

// ClearStock empties the ledger without logging history.
func (s *Service) ClearStock() error {
	if err := s.ledger.Clear(); err != nil {
		return err
	}
	s.log.Warn().Msg("stock cleared")
	return nil
}

// ClearHistory empties the history log.
func (s *Service) ClearHistory() error {
	if err := s.history.Clear(); err != nil {
		return err
	}
	s.log.Warn().Msg("history cleared")
	return nil
}

// ClearAll wipes every collection.
func (s *Service) ClearAll() error {
	if err := s.ClearStock(); err != nil {
		return err
	}
	if err := s.ClearHistory(); err != nil {
		return err
	}
	if err := s.store.SetCases(nil); err != nil {
		return err
	}
	if err := s.store.SetChecklists(nil); err != nil {
		return err
	}
	s.log.Warn().Msg("all data cleared")
	return nil
}

func today() string {
	return time.Now().Format("2006-01-02")
}
