package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
)

type generateInvoiceRequest struct {
	SubscriptionID string    `json:"subscription_id"`
	PeriodStart    time.Time `json:"period_start"`
	PeriodEnd      time.Time `json:"period_end"`
}

func (s *Server) GenerateInvoice(c *gin.Context) {
	var req generateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	subID, err := snowflake.ParseString(req.SubscriptionID)
	if err != nil || subID == 0 {
		AbortWithError(c, newValidationError("subscription_id", "invalid_id", "invalid id"))
		return
	}

	inv, err := s.invoiceSvc.Generate(c.Request.Context(), subID, req.PeriodStart, req.PeriodEnd)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"invoice": inv})
}

func (s *Server) GetInvoice(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	inv, err := s.invoiceSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"invoice": inv})
}

func (s *Server) ListOrgInvoices(c *gin.Context) {
	orgID, ok := parseID(c, "id")
	if !ok {
		return
	}

	invoices, err := s.invoiceSvc.ListByOrg(c.Request.Context(), orgID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"invoices": invoices})
}

func (s *Server) MarkInvoiceSent(c *gin.Context) {
	s.invoiceTransition(c, s.invoiceSvc.MarkSent)
}

func (s *Server) MarkInvoiceProcessing(c *gin.Context) {
	s.invoiceTransition(c, s.invoiceSvc.MarkProcessing)
}

func (s *Server) MarkInvoiceCompleted(c *gin.Context) {
	s.invoiceTransition(c, s.invoiceSvc.MarkCompleted)
}

func (s *Server) MarkInvoiceFailed(c *gin.Context) {
	s.invoiceTransition(c, s.invoiceSvc.MarkFailed)
}

func (s *Server) CancelInvoice(c *gin.Context) {
	s.invoiceTransition(c, s.invoiceSvc.Cancel)
}

func (s *Server) invoiceTransition(c *gin.Context, apply func(ctx context.Context, id snowflake.ID) error) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := apply(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}

	inv, err := s.invoiceSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"invoice": inv})
}
