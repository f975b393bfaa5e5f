// Package excel maps spreadsheet files to stock and checklist records
// and back. Stock import understands two layouts: the header-name
// contract (MaterialName, SerialLotNumber, UbbCode, ExpiryDate,
// Quantity, Location) and, when no MaterialName column exists, the
// legacy positional layout whose packed description cell encodes
// lot/serial, expiry and UBB code in one backslash-delimited value.
package excel

import (
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/Seyyahtar/Stok73/domain"
)

// ImportSource marks items created through spreadsheet import.
const ImportSource = "Excel İçe Aktarma"

const exportSheet = "Stok Listesi"

// ImportStock reads stock items from the first worksheet. The whole
// file is parsed before anything is returned, so a failure imports
// nothing.
func ImportStock(r io.Reader) ([]domain.StockItem, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open spreadsheet: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, fmt.Errorf("spreadsheet has no worksheet")
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read worksheet: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	if columns, ok := headerIndex(rows[0]); ok {
		return importByHeader(rows[1:], columns), nil
	}
	return importPositional(rows[1:]), nil
}

// headerIndex maps lower-cased header names to column positions. The
// header contract applies only when a MaterialName column is present.
func headerIndex(header []string) (map[string]int, bool) {
	columns := make(map[string]int)
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		if _, seen := columns[name]; !seen {
			columns[name] = i
		}
	}
	_, ok := columns["materialname"]
	return columns, ok
}

func importByHeader(rows [][]string, columns map[string]int) []domain.StockItem {
	var items []domain.StockItem
	for _, row := range rows {
		materialName := strings.TrimSpace(cellAt(row, columns["materialname"]))
		if materialName == "" {
			continue
		}
		quantity := parseQuantity(cellByName(row, columns, "quantity"))
		if quantity <= 0 {
			continue
		}
		items = append(items, domain.StockItem{
			ID:              uuid.NewString(),
			MaterialName:    materialName,
			SerialLotNumber: strings.TrimSpace(cellByName(row, columns, "seriallotnumber")),
			UbbCode:         strings.TrimSpace(cellByName(row, columns, "ubbcode")),
			ExpiryDate:      normalizeDate(cellByName(row, columns, "expirydate")),
			Quantity:        quantity,
			DateAdded:       today(),
			From:            ImportSource,
			To:              strings.TrimSpace(cellByName(row, columns, "location")),
		})
	}
	return items
}

// importPositional parses the legacy layout: column B material code,
// C material name, D packed description, E quantity. Row 0 was the
// header and has already been dropped.
func importPositional(rows [][]string) []domain.StockItem {
	var items []domain.StockItem
	for _, row := range rows {
		materialCode := strings.TrimSpace(cellAt(row, 1))
		materialName := strings.TrimSpace(cellAt(row, 2))
		description := strings.TrimSpace(cellAt(row, 3))
		quantity := parseQuantity(cellAt(row, 4))

		if materialName == "" || quantity <= 0 {
			continue
		}

		serial, expiry, ubb := ParsePackedDescription(description)
		items = append(items, domain.StockItem{
			ID:              uuid.NewString(),
			MaterialName:    materialName,
			SerialLotNumber: serial,
			UbbCode:         ubb,
			ExpiryDate:      expiry,
			Quantity:        quantity,
			DateAdded:       today(),
			From:            ImportSource,
			MaterialCode:    materialCode,
		})
	}
	return items
}

// ParsePackedDescription splits a packed description cell into its
// serial/lot, expiry (YYYY-MM-DD) and UBB code parts. Segments are
// backslash-delimited and tagged LOT:, SERI:, SKT: or UBB:, matched
// without regard to case. A cell with no recognizable segment is kept
// verbatim as the serial/lot number.
func ParsePackedDescription(description string) (serial, expiry, ubb string) {
	for _, part := range strings.Split(description, "\\") {
		part = strings.TrimSpace(part)
		switch {
		case hasFold(part, "LOT:"):
			serial = strings.TrimSpace(part[len("LOT:"):])
		case hasFold(part, "SERI:"):
			serial = strings.TrimSpace(part[len("SERI:"):])
		case hasFold(part, "SKT:"):
			expiry = reformatExpiry(strings.TrimSpace(part[len("SKT:"):]))
		case hasFold(part, "UBB:"):
			ubb = strings.TrimSpace(part[len("UBB:"):])
		}
	}
	if serial == "" && description != "" {
		serial = description
	}
	return serial, expiry, ubb
}

// FormatPackedDescription is the inverse of ParsePackedDescription for
// values this codec produced: SERI: for all-digit serials, LOT:
// otherwise, then SKT:DD.MM.YYYY and UBB: when present.
func FormatPackedDescription(item domain.StockItem) string {
	var parts []string
	if item.SerialLotNumber != "" {
		if isDigits(item.SerialLotNumber) {
			parts = append(parts, "SERI:"+item.SerialLotNumber)
		} else {
			parts = append(parts, "LOT:"+item.SerialLotNumber)
		}
	}
	if item.ExpiryDate != "" {
		if formatted := formatExpiry(item.ExpiryDate); formatted != "" {
			parts = append(parts, "SKT:"+formatted)
		}
	}
	if item.UbbCode != "" {
		parts = append(parts, "UBB:"+item.UbbCode)
	}
	return strings.Join(parts, "\\")
}

// ExportStock writes one row per item in the legacy positional layout,
// so the output round-trips through ImportStock.
func ExportStock(items []domain.StockItem) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return nil, fmt.Errorf("prepare worksheet: %w", err)
	}

	headers := []string{"Sıra", "Malzeme", "Malzeme Açıklaması", "Açıklama", "Miktar"}
	widths := []float64{8, 15, 30, 50, 10}
	for i, h := range headers {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetCellValue(exportSheet, col+"1", h); err != nil {
			return nil, fmt.Errorf("write header: %w", err)
		}
		if err := f.SetColWidth(exportSheet, col, col, widths[i]); err != nil {
			return nil, fmt.Errorf("size column: %w", err)
		}
	}

	for i, item := range items {
		row := i + 2
		values := []interface{}{i + 1, item.MaterialCode, item.MaterialName, FormatPackedDescription(item), item.Quantity}
		for j, value := range values {
			cell, err := excelize.CoordinatesToCellName(j+1, row)
			if err != nil {
				return nil, fmt.Errorf("write row: %w", err)
			}
			if err := f.SetCellValue(exportSheet, cell, value); err != nil {
				return nil, fmt.Errorf("write row: %w", err)
			}
		}
	}
	return f, nil
}

// ImportChecklist reads patient rows from the first worksheet:
// name, note, phone, city, hospital, date, time by position. Raw cell
// values are requested so spreadsheet time encodings (fraction of a
// day) survive to be converted here.
func ImportChecklist(r io.Reader) ([]domain.ChecklistPatient, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open spreadsheet: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, fmt.Errorf("spreadsheet has no worksheet")
	}
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read worksheet: %w", err)
	}

	var patients []domain.ChecklistPatient
	for i, row := range rows {
		if i == 0 {
			continue
		}
		name := strings.TrimSpace(cellAt(row, 0))
		if name == "" {
			continue
		}
		patients = append(patients, domain.ChecklistPatient{
			ID:       uuid.NewString(),
			Name:     name,
			Note:     strings.TrimSpace(cellAt(row, 1)),
			Phone:    strings.TrimSpace(cellAt(row, 2)),
			City:     strings.TrimSpace(cellAt(row, 3)),
			Hospital: strings.TrimSpace(cellAt(row, 4)),
			Date:     strings.TrimSpace(cellAt(row, 5)),
			Time:     formatChecklistTime(cellAt(row, 6)),
		})
	}
	return patients, nil
}

var trailingSeconds = regexp.MustCompile(`:\d{2}$`)

// formatChecklistTime converts a spreadsheet time value to HH:MM. A
// fractional number below 1 is a fraction of the day; anything else is
// textual and only loses a trailing :SS suffix.
func formatChecklistTime(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	if fraction, err := strconv.ParseFloat(value, 64); err == nil && fraction < 1 {
		totalMinutes := int(fraction*24*60 + 0.5)
		return fmt.Sprintf("%02d:%02d", totalMinutes/60, totalMinutes%60)
	}
	if strings.Count(value, ":") >= 2 {
		return trailingSeconds.ReplaceAllString(value, "")
	}
	return value
}

func cellAt(row []string, index int) string {
	if index < 0 || index >= len(row) {
		return ""
	}
	return row[index]
}

func cellByName(row []string, columns map[string]int, name string) string {
	index, ok := columns[name]
	if !ok {
		return ""
	}
	return cellAt(row, index)
}

func parseQuantity(value string) int {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	if n, err := strconv.Atoi(value); err == nil {
		return n
	}
	// Quantity cells sometimes carry a float rendering such as "3.0".
	if f, err := strconv.ParseFloat(value, 64); err == nil {
		return int(f)
	}
	return 0
}

// reformatExpiry turns DD.MM.YYYY or DD/MM/YYYY into YYYY-MM-DD.
// Unparseable values yield an empty expiry.
func reformatExpiry(value string) string {
	parts := strings.FieldsFunc(value, func(r rune) bool { return r == '.' || r == '/' })
	if len(parts) != 3 {
		return ""
	}
	day, month, year := pad2(parts[0]), pad2(parts[1]), parts[2]
	return year + "-" + month + "-" + day
}

// normalizeDate accepts the formats seen in header-contract files and
// returns YYYY-MM-DD, or empty when nothing parses.
func normalizeDate(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	for _, layout := range []string{"2006-01-02", "02.01.2006", "02/01/2006", "01-02-06", "2006/01/02"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return ""
}

// formatExpiry turns YYYY-MM-DD into DD.MM.YYYY for the packed cell.
func formatExpiry(value string) string {
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return ""
	}
	return t.Format("02.01.2006")
}

func pad2(s string) string {
	if len(s) == 1 {
		return "0" + s
	}
	return s
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func hasFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}

func today() string {
	return time.Now().Format("2006-01-02")
}
