package entity

import "time"

// ExpenseReport represents an itemized expense report submitted for review.
// TotalAmountCents is derived: it is recomputed from the surviving items on
// every save and must always equal their sum.
type ExpenseReport struct {
	ID               int64     `json:"id"`
	OwnerID          string    `json:"owner_id"`
	Status           string    `json:"status"`
	TotalAmountCents int64     `json:"total_amount_cents"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}
