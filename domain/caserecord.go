package domain

// CaseMaterial is one material consumed by a case, copied out of the
// ledger at the time the case is recorded.
type CaseMaterial struct {
	MaterialName    string `json:"materialName"`
	SerialLotNumber string `json:"serialLotNumber"`
	UbbCode         string `json:"ubbCode"`
	Quantity        int    `json:"quantity"`
}

// CaseRecord documents a procedure that consumed stock. It is created
// atomically with the compensating ledger decrement and is immutable
// afterwards except through undo.
type CaseRecord struct {
	ID           string         `json:"id"`
	Date         string         `json:"date"`
	HospitalName string         `json:"hospitalName"`
	DoctorName   string         `json:"doctorName"`
	PatientName  string         `json:"patientName"`
	Notes        string         `json:"notes,omitempty"`
	Materials    []CaseMaterial `json:"materials"`
}
