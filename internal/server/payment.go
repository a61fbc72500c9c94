package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type recordPaymentRequest struct {
	Amount int64  `json:"amount"`
	Method string `json:"method"`
}

func (s *Server) RecordPayment(c *gin.Context) {
	invoiceID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req recordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	p, err := s.paymentSvc.RecordPayment(c.Request.Context(), invoiceID, req.Amount, req.Method)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"payment": p})
}

func (s *Server) ListInvoicePayments(c *gin.Context) {
	invoiceID, ok := parseID(c, "id")
	if !ok {
		return
	}

	payments, err := s.paymentSvc.ListByInvoice(c.Request.Context(), invoiceID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"payments": payments})
}

func (s *Server) GetPayment(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	p, err := s.paymentSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"payment": p})
}

func (s *Server) CompletePayment(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	p, err := s.paymentSvc.CompletePayment(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"payment": p})
}

func (s *Server) FailPayment(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := s.paymentSvc.FailPayment(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "failed"})
}

type refundRequest struct {
	Amount int64  `json:"amount"`
	Reason string `json:"reason"`
	Actor  string `json:"actor"`
}

func (s *Server) RefundPayment(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req refundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	p, err := s.paymentSvc.Refund(c.Request.Context(), id, req.Amount, req.Reason, req.Actor)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"payment": p})
}

func (s *Server) ListRefunds(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	refunds, err := s.paymentSvc.ListRefunds(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"refunds": refunds})
}
