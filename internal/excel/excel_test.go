package excel

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/Seyyahtar/Stok73/domain"
)

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

func TestParsePackedDescription(t *testing.T) {
	serial, expiry, ubb := ParsePackedDescription(`SERI:1234\SKT:10.03.2025\UBB:UBBX`)
	assert.Equal(t, "1234", serial)
	assert.Equal(t, "2025-03-10", expiry)
	assert.Equal(t, "UBBX", ubb)

	serial, expiry, ubb = ParsePackedDescription(`lot:AB-99\skt:5/6/2027`)
	assert.Equal(t, "AB-99", serial, "prefixes match regardless of case")
	assert.Equal(t, "2027-06-05", expiry, "day and month get zero padded")
	assert.Empty(t, ubb)

	serial, expiry, ubb = ParsePackedDescription("serbest metin açıklama")
	assert.Equal(t, "serbest metin açıklama", serial, "unrecognized cells are kept verbatim")
	assert.Empty(t, expiry)
	assert.Empty(t, ubb)

	serial, _, _ = ParsePackedDescription("")
	assert.Empty(t, serial)
}

func TestFormatPackedDescription(t *testing.T) {
	packed := FormatPackedDescription(domain.StockItem{
		SerialLotNumber: "1234",
		ExpiryDate:      "2025-03-10",
		UbbCode:         "UBBX",
	})
	assert.Equal(t, `SERI:1234\SKT:10.03.2025\UBB:UBBX`, packed)

	packed = FormatPackedDescription(domain.StockItem{SerialLotNumber: "AB-99"})
	assert.Equal(t, "LOT:AB-99", packed, "non-digit serials export as LOT")

	assert.Empty(t, FormatPackedDescription(domain.StockItem{}))
}

func TestImportStockPositional(t *testing.T) {
	r := buildSheet(t, [][]interface{}{
		{"Sıra", "Malzeme", "Malzeme Açıklaması", "Açıklama", "Miktar"},
		{1, "K-100", "Solia S60", `SERI:1234\SKT:10.03.2025\UBB:UBBX`, 2},
		{2, "", "", "boş isim atlanır", 5},
		{3, "K-101", "Sentus QP", "LOT:L-77", 0},
		{4, "K-102", "Plexa S65", "düz açıklama", 1},
	})

	items, err := ImportStock(r)
	require.NoError(t, err)
	require.Len(t, items, 2)

	first := items[0]
	assert.NotEmpty(t, first.ID)
	assert.Equal(t, "Solia S60", first.MaterialName)
	assert.Equal(t, "1234", first.SerialLotNumber)
	assert.Equal(t, "2025-03-10", first.ExpiryDate)
	assert.Equal(t, "UBBX", first.UbbCode)
	assert.Equal(t, 2, first.Quantity)
	assert.Equal(t, "K-100", first.MaterialCode)
	assert.Equal(t, ImportSource, first.From)
	assert.NotEmpty(t, first.DateAdded)

	second := items[1]
	assert.Equal(t, "Plexa S65", second.MaterialName)
	assert.Equal(t, "düz açıklama", second.SerialLotNumber)
}

func TestImportStockHeaderContract(t *testing.T) {
	r := buildSheet(t, [][]interface{}{
		{"MaterialName", "SerialLotNumber", "UbbCode", "ExpiryDate", "Quantity", "Location"},
		{"Solia S60", "ABC123", "UBB-1", "2025-03-10", 2, "Depo"},
		{"Sentus QP", "XYZ", "", "10.03.2025", 1, ""},
		{"", "ignored", "", "", 4, ""},
	})

	items, err := ImportStock(r)
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, "ABC123", items[0].SerialLotNumber)
	assert.Equal(t, "2025-03-10", items[0].ExpiryDate)
	assert.Equal(t, "Depo", items[0].To)
	assert.Equal(t, "2025-03-10", items[1].ExpiryDate, "dotted dates normalize to ISO")
}

func TestExportThenImportRoundTrip(t *testing.T) {
	items := []domain.StockItem{
		{MaterialName: "Solia S60", SerialLotNumber: "1234", UbbCode: "UBBX", ExpiryDate: "2025-03-10", Quantity: 2, MaterialCode: "K-100"},
		{MaterialName: "Sentus QP", SerialLotNumber: "AB-99", Quantity: 1},
	}

	f, err := ExportStock(items)
	require.NoError(t, err)
	defer f.Close()
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	back, err := ImportStock(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.Len(t, back, 2)

	assert.Equal(t, "Solia S60", back[0].MaterialName)
	assert.Equal(t, "1234", back[0].SerialLotNumber)
	assert.Equal(t, "2025-03-10", back[0].ExpiryDate)
	assert.Equal(t, "UBBX", back[0].UbbCode)
	assert.Equal(t, 2, back[0].Quantity)
	assert.Equal(t, "K-100", back[0].MaterialCode)

	assert.Equal(t, "AB-99", back[1].SerialLotNumber)
	assert.Empty(t, back[1].ExpiryDate)
}

func TestImportChecklist(t *testing.T) {
	r := buildSheet(t, [][]interface{}{
		{"İsim", "Not", "Telefon", "Şehir", "Hastane", "Tarih", "Saat"},
		{"Ayşe Yılmaz", "kontrol", "0555", "Ankara", "Şehir Hastanesi", "12.05.2026", 0.4375},
		{"", "isimsiz satır atlanır", "", "", "", "", ""},
		{"Mehmet Demir", "", "", "", "", "", "14:30:00"},
		{"Fatma Kaya", "", "", "", "", "", "09:15"},
	})

	patients, err := ImportChecklist(r)
	require.NoError(t, err)
	require.Len(t, patients, 3)

	assert.Equal(t, "Ayşe Yılmaz", patients[0].Name)
	assert.Equal(t, "Şehir Hastanesi", patients[0].Hospital)
	assert.Equal(t, "10:30", patients[0].Time, "day fraction converts to HH:MM")
	assert.False(t, patients[0].Checked)
	assert.NotEmpty(t, patients[0].ID)

	assert.Equal(t, "14:30", patients[1].Time, "trailing seconds are stripped")
	assert.Equal(t, "09:15", patients[2].Time)
}

func TestImportStockRejectsGarbage(t *testing.T) {
	_, err := ImportStock(bytes.NewReader([]byte("bu bir xlsx değil")))
	require.Error(t, err)
}
