// Package models defines the invoice records exchanged between the two
// form stages and forwarded to the external recorder.
package models

// StageOne holds the basic invoice fields captured in the first modal.
// All fields are required. It exists only as an encoded token (or a
// keyed session entry) between the two submissions; it is never written
// to durable storage.
type StageOne struct {
	Date     string `json:"invoice_date"`
	Number   string `json:"invoice_number"`
	Customer string `json:"customer_name"`
	Subject  string `json:"subject"`
}

// StageTwo holds the line-item fields captured in the second modal.
// Remarks is the only optional field.
type StageTwo struct {
	Description string `json:"description"`
	Quantity    string `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
	Remarks     string `json:"remarks,omitempty"`
}

// FinalRecord is the complete invoice handed to the recorder: both
// stages plus the derived payment due date and a registration timestamp.
type FinalRecord struct {
	StageOne
	StageTwo
	PaymentDueDate string `json:"payment_due_date"`
	RegisteredAt   string `json:"registered_at"`
}
