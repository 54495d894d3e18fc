package models

import (
	"time"
)

// Transaction types
const (
	TransactionTypePayment = "PAYMENT"
	TransactionTypeRefund  = "REFUND"
)

// Transaction is the materialized projection row for a payment or a refund.
// It is keyed by (external id, transaction type) and rewritten wholesale on
// every derivation; it is never deleted.
//
// Refund rows additionally carry the refunding party and a best-effort link
// to the parent payment row. ParentTransactionID stays nil until the parent
// payment has been ingested.
type Transaction struct {
	ID                  uint      `gorm:"primaryKey" json:"id"`
	ExternalID          string    `gorm:"uniqueIndex:idx_transactions_external_id_type" json:"external_id"`
	TransactionType     string    `gorm:"uniqueIndex:idx_transactions_external_id_type" json:"transaction_type"`
	GatewayAccountID    string    `gorm:"index" json:"gateway_account_id"`
	Amount              *int64    `json:"amount"`
	State               string    `gorm:"index" json:"state"`
	Reference           string    `json:"reference"`
	Description         string    `json:"description"`
	Email               string    `json:"email"`
	CardholderName      string    `json:"cardholder_name"`
	Language            string    `json:"language"`
	ReturnURL           string    `json:"return_url"`
	PaymentProvider     string    `json:"payment_provider"`
	DelayedCapture      bool      `json:"delayed_capture"`
	Moto                bool      `json:"moto"`
	Live                bool      `json:"live"`
	Source              string    `json:"source"`
	RefundedBy          string    `json:"refunded_by"`
	RefundedByUserEmail string    `json:"refunded_by_user_email"`
	ParentExternalID    string    `gorm:"index" json:"parent_external_id"`
	ParentTransactionID *uint     `json:"parent_transaction_id"`
	EventCount          int       `json:"event_count"`
	CreatedDate         time.Time `gorm:"index" json:"created_date"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}
