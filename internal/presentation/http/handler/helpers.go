package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sinapseerp/engine/internal/application/service"
	"github.com/sinapseerp/engine/internal/presentation/http/dto/request"
)

// GetUserID extracts the user ID from the Gin context
func GetUserID(c *gin.Context) *uuid.UUID {
	userIDVal, exists := c.Get("user_id")
	if !exists {
		return nil
	}
	userID, ok := userIDVal.(uuid.UUID)
	if !ok {
		return nil
	}
	return &userID
}

// GetUserRole extracts the user role from the Gin context
func GetUserRole(c *gin.Context) string {
	role, exists := c.Get("user_role")
	if !exists {
		return ""
	}
	return role.(string)
}

// parseOverride converts the request proof into the service form. A
// malformed approval id yields a proof that will not verify, matching the
// invalid-secret behavior.
func parseOverride(req *request.OverrideRequest) *service.Override {
	if req == nil {
		return nil
	}
	override := &service.Override{Secret: req.Secret}
	if req.ApprovalID != nil {
		if id, err := uuid.Parse(*req.ApprovalID); err == nil {
			override.ApprovalID = &id
		}
	}
	return override
}

// parseUUIDPtr parses an optional uuid string, nil on absence or garbage
func parseUUIDPtr(s *string) *uuid.UUID {
	if s == nil || *s == "" {
		return nil
	}
	id, err := uuid.Parse(*s)
	if err != nil {
		return nil
	}
	return &id
}
