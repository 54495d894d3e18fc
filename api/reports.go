package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"example.com/backstage/services/ledger/reports"
)

type reportQuery struct {
	AccountID string `form:"account_id"`
	State     string `form:"state"`
	FromDate  string `form:"from_date" binding:"omitempty"`
	ToDate    string `form:"to_date" binding:"omitempty"`
}

func (s *Server) bindReportParams(c *gin.Context) (reports.PaymentsReportParams, bool) {
	var query reportQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return reports.PaymentsReportParams{}, false
	}

	params := reports.PaymentsReportParams{
		GatewayAccountID: query.AccountID,
		State:            query.State,
	}

	var err error
	if params.FromDate, err = parseDateParam(query.FromDate); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid from_date"})
		return params, false
	}
	if params.ToDate, err = parseDateParam(query.ToDate); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid to_date"})
		return params, false
	}

	return params, true
}

func (s *Server) getPaymentCountsByState(c *gin.Context) {
	params, ok := s.bindReportParams(c)
	if !ok {
		return
	}

	counts, err := s.reports.CountsByState(c.Request.Context(), params)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute report"})
		return
	}

	c.JSON(http.StatusOK, counts)
}

func (s *Server) getPerformanceReport(c *gin.Context) {
	params, ok := s.bindReportParams(c)
	if !ok {
		return
	}

	report, err := s.reports.Performance(c.Request.Context(), params)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute report"})
		return
	}

	c.JSON(http.StatusOK, report)
}

func (s *Server) getGatewayPerformanceReport(c *gin.Context) {
	params, ok := s.bindReportParams(c)
	if !ok {
		return
	}

	report, err := s.reports.MonthlyGatewayPerformance(c.Request.Context(), params)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute report"})
		return
	}

	c.JSON(http.StatusOK, report)
}
