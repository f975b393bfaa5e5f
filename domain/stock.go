package domain

// StockItem is one ledger entry for an implantable device, lead or
// consumable. Dates are YYYY-MM-DD strings; an empty ExpiryDate means
// the expiry is unknown. An item with Quantity <= 0 is removed from
// the ledger, never stored at zero.
type StockItem struct {
	ID              string `json:"id"`
	MaterialName    string `json:"materialName"`
	SerialLotNumber string `json:"serialLotNumber"`
	UbbCode         string `json:"ubbCode"`
	ExpiryDate      string `json:"expiryDate"`
	Quantity        int    `json:"quantity"`
	DateAdded       string `json:"dateAdded"`
	From            string `json:"from,omitempty"`
	To              string `json:"to,omitempty"`
	MaterialCode    string `json:"materialCode,omitempty"`
}

// RemoveEntry identifies stock to decrement when a case or a manual
// removal consumes it.
type RemoveEntry struct {
	MaterialName    string `json:"materialName"`
	SerialLotNumber string `json:"serialLotNumber"`
	Quantity        int    `json:"quantity"`
}
