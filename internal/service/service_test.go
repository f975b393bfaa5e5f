package service

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/Seyyahtar/Stok73/domain"
	"github.com/Seyyahtar/Stok73/internal/store"
)

func newService(t *testing.T) (*Service, store.Store) {
	t.Helper()
	st := store.NewMemory()
	svc, err := New(st, zerolog.Nop())
	require.NoError(t, err)
	return svc, st
}

func buildSheet(t *testing.T, rows [][]interface{}) *bytes.Reader {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		for j, value := range row {
			cell, err := excelize.CoordinatesToCellName(j+1, i+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue("Sheet1", cell, value))
		}
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return bytes.NewReader(buf.Bytes())
}

func TestAddStockValidation(t *testing.T) {
	svc, _ := newService(t)

	_, err := svc.AddStock(AddStockInput{SerialLotNumber: "A1", Quantity: 1})
	assert.ErrorContains(t, err, "malzeme adı")

	_, err = svc.AddStock(AddStockInput{MaterialName: "Solia S60", Quantity: 1})
	assert.ErrorContains(t, err, "seri/lot")

	_, err = svc.AddStock(AddStockInput{MaterialName: "Solia S60", SerialLotNumber: "A1", Quantity: 0})
	assert.ErrorContains(t, err, "miktar")
}

func TestAddStockRejectsDuplicates(t *testing.T) {
	svc, _ := newService(t)

	_, err := svc.AddStock(AddStockInput{MaterialName: "Solia S60", SerialLotNumber: "A1", Quantity: 1})
	require.NoError(t, err)

	_, err = svc.AddStock(AddStockInput{MaterialName: "SOLIA S60", SerialLotNumber: "a1", Quantity: 3})
	assert.ErrorContains(t, err, "zaten kayıtlı")

	records := svc.ListHistory("", "", "")
	require.Len(t, records, 1)
	assert.Equal(t, domain.HistoryStockAdd, records[0].Type)
	require.NotNil(t, records[0].Details.Item)
	assert.Equal(t, "Solia S60", records[0].Details.Item.MaterialName)
}

func TestRemoveStockAndUndo(t *testing.T) {
	svc, _ := newService(t)

	_, err := svc.AddStock(AddStockInput{MaterialName: "Solia S60", SerialLotNumber: "A1", Quantity: 3})
	require.NoError(t, err)

	require.NoError(t, svc.RemoveStock("solia s60", "a1", 2))
	view := svc.ListStock("", nil)
	assert.Equal(t, 1, view.Total)

	records := svc.ListHistory(domain.HistoryStockRemove, "", "")
	require.Len(t, records, 1)
	require.NotNil(t, records[0].Details.Item)
	assert.Equal(t, 2, records[0].Details.Item.Quantity, "the snapshot carries the removed quantity")

	require.NoError(t, svc.Undo(records[0].ID))
	view = svc.ListStock("", nil)
	assert.Equal(t, 3, view.Total)
	assert.Equal(t, 2, view.Items, "the remaining item and the restored units coexist")
	assert.Empty(t, svc.ListHistory(domain.HistoryStockRemove, "", ""))
}

func TestRemoveStockMissing(t *testing.T) {
	svc, _ := newService(t)
	err := svc.RemoveStock("Yok", "X", 1)
	assert.ErrorContains(t, err, "bulunamadı")
}

func TestEditStockLogsOldSnapshot(t *testing.T) {
	svc, _ := newService(t)

	item, err := svc.AddStock(AddStockInput{MaterialName: "Solia S60", SerialLotNumber: "A1", Quantity: 2})
	require.NoError(t, err)

	updated, err := svc.EditStock(item.ID, EditStockInput{SerialLotNumber: "B2", Quantity: 5})
	require.NoError(t, err)
	assert.Equal(t, "B2", updated.SerialLotNumber)
	assert.Equal(t, "Solia S60", updated.MaterialName, "empty fields keep their value")
	assert.Equal(t, 5, updated.Quantity)

	records := svc.ListHistory(domain.HistoryStockRemove, "", "")
	require.Len(t, records, 1)
	require.NotNil(t, records[0].Details.Item)
	assert.Equal(t, "A1", records[0].Details.Item.SerialLotNumber)
}

func TestDeleteStockAndUndo(t *testing.T) {
	svc, _ := newService(t)

	item, err := svc.AddStock(AddStockInput{MaterialName: "Solia S60", SerialLotNumber: "A1", Quantity: 4})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteStock(item.ID))
	assert.Zero(t, svc.ListStock("", nil).Items)

	records := svc.ListHistory(domain.HistoryStockDelete, "", "")
	require.Len(t, records, 1)
	require.NoError(t, svc.Undo(records[0].ID))
	assert.Equal(t, 4, svc.ListStock("", nil).Total)
}

func TestCreateCaseValidation(t *testing.T) {
	svc, _ := newService(t)

	_, err := svc.CreateCase(CaseInput{DoctorName: "Dr. Kaya", PatientName: "A. Yılmaz"})
	assert.ErrorContains(t, err, "zorunludur")

	base := CaseInput{HospitalName: "Şehir Hastanesi", DoctorName: "Dr. Kaya", PatientName: "A. Yılmaz"}
	_, err = svc.CreateCase(base)
	assert.ErrorContains(t, err, "en az bir malzeme")

	base.Materials = []domain.CaseMaterial{{MaterialName: "Yok", SerialLotNumber: "X", Quantity: 1}}
	_, err = svc.CreateCase(base)
	assert.ErrorContains(t, err, "stokta bulunamadı")
}

func TestCreateCaseInsufficientStock(t *testing.T) {
	svc, _ := newService(t)

	_, err := svc.AddStock(AddStockInput{MaterialName: "Solia S60", SerialLotNumber: "A1", Quantity: 1})
	require.NoError(t, err)

	_, err = svc.CreateCase(CaseInput{
		HospitalName: "Şehir Hastanesi",
		DoctorName:   "Dr. Kaya",
		PatientName:  "A. Yılmaz",
		Materials:    []domain.CaseMaterial{{MaterialName: "Solia S60", SerialLotNumber: "A1", Quantity: 2}},
	})
	assert.ErrorContains(t, err, "yetersiz stok")
	assert.Equal(t, 1, svc.ListStock("", nil).Total, "a failed case leaves the ledger untouched")
}

func TestCreateCaseConsumesStockAndUndoRestores(t *testing.T) {
	svc, st := newService(t)

	_, err := svc.AddStock(AddStockInput{MaterialName: "Solia S60", SerialLotNumber: "A1", Quantity: 2})
	require.NoError(t, err)
	_, err = svc.AddStock(AddStockInput{MaterialName: "Amvia Sky DR-T", SerialLotNumber: "B2", Quantity: 1})
	require.NoError(t, err)

	record, err := svc.CreateCase(CaseInput{
		HospitalName: "Şehir Hastanesi",
		DoctorName:   "Dr. Kaya",
		PatientName:  "A. Yılmaz",
		Materials: []domain.CaseMaterial{
			{MaterialName: "Solia S60", SerialLotNumber: "A1", Quantity: 1},
			{MaterialName: "Amvia Sky DR-T", SerialLotNumber: "B2", Quantity: 1},
			{MaterialName: "", SerialLotNumber: "eksik", Quantity: 1},
		},
	})
	require.NoError(t, err)
	assert.Len(t, record.Materials, 2, "incomplete material rows are dropped")

	view := svc.ListStock("", nil)
	assert.Equal(t, 1, view.Total, "the pacemaker is gone, one lead remains")

	cases, err := st.GetCases()
	require.NoError(t, err)
	require.Len(t, cases, 1)

	histories := svc.ListHistory(domain.HistoryCase, "", "")
	require.Len(t, histories, 1)

	require.NoError(t, svc.Undo(histories[0].ID))
	assert.Equal(t, 3, svc.ListStock("", nil).Total)

	// The case documentation survives; only the stock movement reverses.
	cases, err = st.GetCases()
	require.NoError(t, err)
	require.Len(t, cases, 1)
	assert.Equal(t, record.ID, cases[0].ID)
}

func TestEditStockUndoRevertsWithoutDuplication(t *testing.T) {
	svc, _ := newService(t)

	item, err := svc.AddStock(AddStockInput{MaterialName: "Solia S60", SerialLotNumber: "A1", Quantity: 2})
	require.NoError(t, err)

	_, err = svc.EditStock(item.ID, EditStockInput{SerialLotNumber: "B2", Quantity: 5})
	require.NoError(t, err)

	records := svc.ListHistory(domain.HistoryStockRemove, "", "")
	require.Len(t, records, 1)
	require.NoError(t, svc.Undo(records[0].ID))

	view := svc.ListStock("", nil)
	assert.Equal(t, 1, view.Items, "undoing an edit must not grow the ledger")
	assert.Equal(t, 2, view.Total)

	restored, ok := svc.FindBySerial("A1")
	require.True(t, ok)
	assert.Equal(t, item.ID, restored.ID)
	_, ok = svc.FindBySerial("B2")
	assert.False(t, ok, "the edited variant is gone")
}

func TestImportStockSkipsDuplicates(t *testing.T) {
	svc, _ := newService(t)

	_, err := svc.AddStock(AddStockInput{MaterialName: "Solia S60", SerialLotNumber: "1234", Quantity: 1})
	require.NoError(t, err)

	r := buildSheet(t, [][]interface{}{
		{"Sıra", "Malzeme", "Malzeme Açıklaması", "Açıklama", "Miktar"},
		{1, "K-100", "Solia S60", `SERI:1234`, 2},
		{2, "K-101", "Sentus QP", `LOT:L-77\SKT:01.02.2027`, 1},
		{3, "K-102", "Plexa S65", `SERI:555`, 3},
	})

	result, err := svc.ImportStock(r)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Added)
	assert.Equal(t, 1, result.Skipped)

	records := svc.ListHistory(domain.HistoryStockAdd, "", "")
	require.Len(t, records, 2, "manual add plus one bulk import entry")
	assert.Len(t, records[0].Details.Items, 2)
	assert.Contains(t, records[0].Description, "2 malzeme")
}

func TestExportStockEmpty(t *testing.T) {
	svc, _ := newService(t)
	var buf bytes.Buffer
	err := svc.ExportStock(&buf)
	assert.ErrorContains(t, err, "dışa aktarılacak stok yok")
}

func TestChecklistLifecycle(t *testing.T) {
	svc, _ := newService(t)

	sheet := [][]interface{}{
		{"İsim", "Not", "Telefon", "Şehir", "Hastane", "Tarih", "Saat"},
		{"Ayşe Yılmaz", "", "0555", "Ankara", "Şehir Hastanesi", "12.05.2026", "10:30"},
		{"", "isimsiz", "", "", "", "", ""},
		{"Mehmet Demir", "", "", "", "", "", ""},
	}

	record, err := svc.ImportChecklist(buildSheet(t, sheet))
	require.NoError(t, err)
	require.Len(t, record.Patients, 2)
	assert.True(t, strings.HasPrefix(record.Title, "Kontrol Listesi - "))

	_, err = svc.ImportChecklist(buildSheet(t, sheet))
	assert.ErrorContains(t, err, "aktif bir kontrol listesi var")

	active, err := svc.ActiveChecklist()
	require.NoError(t, err)
	require.NotNil(t, active)

	// Completing with an unchecked patient asks for confirmation first.
	result, err := svc.CompleteChecklist(false)
	require.NoError(t, err)
	assert.True(t, result.NeedsConfirm)
	assert.False(t, result.Completed)

	for _, p := range active.Patients {
		require.NoError(t, svc.TogglePatient(p.ID))
	}

	result, err = svc.CompleteChecklist(false)
	require.NoError(t, err)
	assert.True(t, result.Completed)
	assert.Equal(t, 2, result.Checked)
	assert.Equal(t, 2, result.Total)

	active, err = svc.ActiveChecklist()
	require.NoError(t, err)
	assert.Nil(t, active)

	histories := svc.ListHistory(domain.HistoryChecklist, "", "")
	require.Len(t, histories, 1)
	assert.Contains(t, histories[0].Description, "2/2")

	err = svc.Undo(histories[0].ID)
	assert.Error(t, err, "checklist completions cannot be undone")

	// A new checklist can open once the previous one is sealed.
	_, err = svc.ImportChecklist(buildSheet(t, sheet))
	require.NoError(t, err)
}

func TestTogglePatientMissing(t *testing.T) {
	svc, _ := newService(t)
	err := svc.TogglePatient("no-such-patient")
	assert.ErrorContains(t, err, "bulunamadı")
}

func TestCompleteChecklistWithoutActive(t *testing.T) {
	svc, _ := newService(t)
	_, err := svc.CompleteChecklist(true)
	assert.ErrorContains(t, err, "aktif kontrol listesi yok")
}

func TestListStockFiltersAndSummaries(t *testing.T) {
	svc, _ := newService(t)

	seed := []AddStockInput{
		{MaterialName: "Solia S60", SerialLotNumber: "L1", Quantity: 2},
		{MaterialName: "Amvia Sky DR-T", SerialLotNumber: "P1", Quantity: 1},
		{MaterialName: "Intica 7 VR-T", SerialLotNumber: "I1", Quantity: 1},
	}
	for _, input := range seed {
		_, err := svc.AddStock(input)
		require.NoError(t, err)
	}

	view := svc.ListStock("", nil)
	assert.Equal(t, 3, view.Items)
	assert.Equal(t, 4, view.Total)
	require.Len(t, view.Summaries, 3)
	assert.Equal(t, 1, view.Summaries[0].Total)

	view = svc.ListStock("solia", nil)
	assert.Equal(t, 1, view.Items)
	require.Len(t, view.Groups, 1)
	assert.Equal(t, "Solia", view.Groups[0].Prefix)
}

func TestLoginLogout(t *testing.T) {
	svc, _ := newService(t)

	user, err := svc.CurrentUser()
	require.NoError(t, err)
	assert.Nil(t, user)

	require.Error(t, svc.Login("  "))
	require.NoError(t, svc.Login("Seyyah"))

	user, err = svc.CurrentUser()
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "Seyyah", user.Username)
	assert.NotEmpty(t, user.LoginDate)

	require.NoError(t, svc.Logout())
	user, err = svc.CurrentUser()
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestCollectStatsAndClearAll(t *testing.T) {
	svc, _ := newService(t)

	_, err := svc.AddStock(AddStockInput{MaterialName: "Solia S60", SerialLotNumber: "A1", Quantity: 2})
	require.NoError(t, err)

	stats, err := svc.CollectStats()
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Items)
	assert.Equal(t, 2, stats.TotalQuantity)
	assert.Equal(t, 1, stats.History)

	require.NoError(t, svc.ClearAll())
	stats, err = svc.CollectStats()
	require.NoError(t, err)
	assert.Zero(t, stats.Items)
	assert.Zero(t, stats.History)
}
