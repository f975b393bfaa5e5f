package domain

import "strings"

// ChecklistPatient is one row of an imported patient checklist.
type ChecklistPatient struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Note     string `json:"note,omitempty"`
	Phone    string `json:"phone,omitempty"`
	City     string `json:"city,omitempty"`
	Hospital string `json:"hospital,omitempty"`
	Date     string `json:"date,omitempty"`
	Time     string `json:"time,omitempty"`
	Checked  bool   `json:"checked"`
}

// ShortHospital abbreviates the common hospital suffix for compact
// list output.
func (p ChecklistPatient) ShortHospital() string {
	return strings.Replace(p.Hospital, "EĞİTİM VE ARAŞTIRMA HASTANESİ", "EAH", 1)
}

// FormatPhone strips everything but digits and restores the leading
// zero that spreadsheet number cells drop.
func (p ChecklistPatient) FormatPhone() string {
	var digits strings.Builder
	for _, r := range p.Phone {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	cleaned := digits.String()
	if cleaned == "" {
		return ""
	}
	if !strings.HasPrefix(cleaned, "0") {
		return "0" + cleaned
	}
	return cleaned
}

// ChecklistRecord is a patient checklist. At most one record has
// IsCompleted == false at a time; that record is the active checklist.
type ChecklistRecord struct {
	ID            string             `json:"id"`
	Title         string             `json:"title"`
	CreatedDate   string             `json:"createdDate"`
	CompletedDate string             `json:"completedDate,omitempty"`
	Patients      []ChecklistPatient `json:"patients"`
	IsCompleted   bool               `json:"isCompleted"`
}

// CheckedCount returns how many patients have been checked off.
func (c ChecklistRecord) CheckedCount() int {
	n := 0
	for _, p := range c.Patients {
		if p.Checked {
			n++
		}
	}
	return n
}
