package projections

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"example.com/backstage/services/ledger/models"
)

// SearchParams filters transaction queries.
type SearchParams struct {
	GatewayAccountID string
	State            string
	TransactionType  string
	FromDate         *time.Time
	ToDate           *time.Time
	Limit            int
	Offset           int
}

// TransactionStore is the interface for the materialized transaction view
type TransactionStore interface {
	// Upsert creates or replaces the projection row keyed by
	// (external id, transaction type).
	Upsert(ctx context.Context, transaction *models.Transaction) error

	// FindByExternalID returns the projection row for an external id and type.
	FindByExternalID(ctx context.Context, externalID, transactionType string) (*models.Transaction, error)

	// Search returns projection rows matching the params.
	Search(ctx context.Context, params SearchParams) ([]models.Transaction, error)

	// UnresolvedRefunds returns refund rows whose parent payment has not been
	// linked yet, for the reconciliation sweep.
	UnresolvedRefunds(ctx context.Context, limit int) ([]models.Transaction, error)
}

// GormTransactionStore implements TransactionStore using GORM
type GormTransactionStore struct {
	db *gorm.DB
}

// NewGormTransactionStore creates a new GORM transaction store
func NewGormTransactionStore(db *gorm.DB) *GormTransactionStore {
	return &GormTransactionStore{db: db}
}

// Upsert writes the projection row, creating it on first sight of the
// resource and otherwise replacing every derived column. The row is the
// output of a full re-derivation, so replacing wholesale is safe.
func (s *GormTransactionStore) Upsert(ctx context.Context, transaction *models.Transaction) error {
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "external_id"}, {Name: "transaction_type"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"gateway_account_id", "amount", "state", "reference", "description",
				"email", "cardholder_name", "language", "return_url", "payment_provider",
				"delayed_capture", "moto", "live", "source", "refunded_by",
				"refunded_by_user_email", "parent_external_id", "parent_transaction_id",
				"event_count", "created_date", "updated_at",
			}),
		}).
		Create(transaction).Error
	if err != nil {
		return fmt.Errorf("failed to upsert transaction: %w", err)
	}
	return nil
}

// FindByExternalID returns the projection row for an external id and type.
func (s *GormTransactionStore) FindByExternalID(ctx context.Context, externalID, transactionType string) (*models.Transaction, error) {
	var transaction models.Transaction
	err := s.db.WithContext(ctx).
		Where("external_id = ? AND transaction_type = ?", externalID, transactionType).
		First(&transaction).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find transaction: %w", err)
	}
	return &transaction, nil
}

// Search returns projection rows matching the params.
func (s *GormTransactionStore) Search(ctx context.Context, params SearchParams) ([]models.Transaction, error) {
	query := s.db.WithContext(ctx).Model(&models.Transaction{})

	if params.GatewayAccountID != "" {
		query = query.Where("gateway_account_id = ?", params.GatewayAccountID)
	}
	if params.State != "" {
		query = query.Where("state = ?", params.State)
	}
	if params.TransactionType != "" {
		query = query.Where("transaction_type = ?", params.TransactionType)
	}
	if params.FromDate != nil {
		query = query.Where("created_date >= ?", *params.FromDate)
	}
	if params.ToDate != nil {
		query = query.Where("created_date < ?", *params.ToDate)
	}
	if params.Limit > 0 {
		query = query.Limit(params.Limit)
	}
	if params.Offset > 0 {
		query = query.Offset(params.Offset)
	}

	var transactions []models.Transaction
	if err := query.Order("created_date DESC, id DESC").Find(&transactions).Error; err != nil {
		return nil, fmt.Errorf("failed to search transactions: %w", err)
	}
	return transactions, nil
}

// UnresolvedRefunds returns refund rows that reference a parent external id
// but have no parent transaction linked yet.
func (s *GormTransactionStore) UnresolvedRefunds(ctx context.Context, limit int) ([]models.Transaction, error) {
	var refunds []models.Transaction
	err := s.db.WithContext(ctx).
		Where("transaction_type = ?", models.TransactionTypeRefund).
		Where("parent_external_id <> ''").
		Where("parent_transaction_id IS NULL").
		Order("id ASC").
		Limit(limit).
		Find(&refunds).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load unresolved refunds: %w", err)
	}
	return refunds, nil
}
