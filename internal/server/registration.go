package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	registrationdomain "github.com/kilatlabs/nusabill/internal/registration/domain"
)

func (s *Server) Register(c *gin.Context) {
	var req registrationdomain.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	result, err := s.registrationSvc.Register(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp := gin.H{
		"organization_id": result.Organization.ID.String(),
		"subscription_id": result.Subscription.ID.String(),
		"user_id":         result.AdminUser.ID.String(),
		"trial_end_date":  result.Subscription.EndDate,
	}
	if result.Warning != "" {
		resp["warning"] = result.Warning
	}
	c.JSON(http.StatusCreated, resp)
}
