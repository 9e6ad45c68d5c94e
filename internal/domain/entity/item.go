package entity

import "time"

// ExpenseItem represents a single line item of an expense report. Items are
// exclusively owned by their report and have no independent lifecycle.
//
// Description is only meaningful for the sentinel category (CategoryOther);
// the submission workflow nulls it for every other category before
// persisting. ReceiptRef is an opaque reference to an externally stored
// file; nothing in this codebase inspects its content.
type ExpenseItem struct {
	ID          int64     `json:"id"`
	ReportID    int64     `json:"report_id"`
	ExpenseDate time.Time `json:"expense_date"`
	AmountCents int64     `json:"amount_cents"`
	Category    string    `json:"category"`
	Description *string   `json:"description,omitempty"`
	ReceiptRef  *string   `json:"receipt_ref,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
