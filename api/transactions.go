package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"example.com/backstage/services/ledger/cache"
	"example.com/backstage/services/ledger/models"
	"example.com/backstage/services/ledger/projections"
)

type getTransactionQuery struct {
	AccountID       string `form:"account_id"`
	TransactionType string `form:"transaction_type" binding:"omitempty,oneof=PAYMENT REFUND"`
}

type searchTransactionsQuery struct {
	AccountID       string `form:"account_id"`
	State           string `form:"state"`
	TransactionType string `form:"transaction_type" binding:"omitempty,oneof=PAYMENT REFUND"`
	FromDate        string `form:"from_date" binding:"omitempty"`
	ToDate          string `form:"to_date" binding:"omitempty"`
	Limit           int    `form:"limit" binding:"omitempty,min=1,max=500"`
	Offset          int    `form:"offset" binding:"omitempty,min=0"`
}

// getTransaction serves a single transaction by external id, read-through the
// cache. An account_id filter that does not match the stored row behaves like
// a missing row so one account cannot read another's transactions.
func (s *Server) getTransaction(c *gin.Context) {
	var query getTransactionQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	externalID := c.Param("externalId")
	transactionType := query.TransactionType
	if transactionType == "" {
		transactionType = models.TransactionTypePayment
	}

	transaction, err := s.cache.GetTransaction(c.Request.Context(), externalID, transactionType)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			log.Warn().Err(err).Str("externalID", externalID).Msg("Transaction cache read failed")
		}

		transaction, err = s.transactions.FindByExternalID(c.Request.Context(), externalID, transactionType)
		if err != nil {
			if errors.Is(err, projections.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "transaction not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load transaction"})
			return
		}

		if err := s.cache.SetTransaction(c.Request.Context(), transaction); err != nil {
			log.Warn().Err(err).Str("externalID", externalID).Msg("Transaction cache write failed")
		}
	}

	if query.AccountID != "" && transaction.GatewayAccountID != query.AccountID {
		c.JSON(http.StatusNotFound, gin.H{"error": "transaction not found"})
		return
	}

	c.JSON(http.StatusOK, transactionResponse(transaction))
}

// searchTransactions serves filtered transaction listings.
func (s *Server) searchTransactions(c *gin.Context) {
	var query searchTransactionsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	params := projections.SearchParams{
		GatewayAccountID: query.AccountID,
		State:            query.State,
		TransactionType:  query.TransactionType,
		Limit:            query.Limit,
		Offset:           query.Offset,
	}
	if params.Limit == 0 {
		params.Limit = 100
	}

	var err error
	if params.FromDate, err = parseDateParam(query.FromDate); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid from_date"})
		return
	}
	if params.ToDate, err = parseDateParam(query.ToDate); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid to_date"})
		return
	}

	transactions, err := s.transactions.Search(c.Request.Context(), params)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to search transactions"})
		return
	}

	results := make([]gin.H, len(transactions))
	for i := range transactions {
		results[i] = transactionResponse(&transactions[i])
	}

	c.JSON(http.StatusOK, gin.H{
		"total":   len(results),
		"results": results,
	})
}

func transactionResponse(t *models.Transaction) gin.H {
	response := gin.H{
		"transaction_id":     t.ExternalID,
		"transaction_type":   t.TransactionType,
		"gateway_account_id": t.GatewayAccountID,
		"state":              t.State,
		"reference":          t.Reference,
		"description":        t.Description,
		"language":           t.Language,
		"return_url":         t.ReturnURL,
		"payment_provider":   t.PaymentProvider,
		"delayed_capture":    t.DelayedCapture,
		"moto":               t.Moto,
		"live":               t.Live,
		"source":             t.Source,
		"email":              t.Email,
		"cardholder_name":    t.CardholderName,
		"event_count":        t.EventCount,
		"created_date":       t.CreatedDate.Format(time.RFC3339Nano),
	}
	if t.Amount != nil {
		response["amount"] = *t.Amount
	}
	if t.TransactionType == models.TransactionTypeRefund {
		response["refunded_by"] = t.RefundedBy
		response["refunded_by_user_email"] = t.RefundedByUserEmail
		response["parent_transaction_id"] = t.ParentExternalID
		response["parent_resolved"] = t.ParentTransactionID != nil
	}
	return response
}

func parseDateParam(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}
