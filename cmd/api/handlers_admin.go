package main

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/davidgq/ecom-api/internal/auth"
	"github.com/davidgq/ecom-api/internal/httpx"
	"github.com/davidgq/ecom-api/internal/user"
)

type roleUpdateRequest struct {
	Role string `json:"role" binding:"required,userrole"`
}

// updateUserRoleHandler changes another user's role. Super admin only
// (enforced by middleware); the self-demotion guard lives here because
// it needs both the actor and the target.
func updateUserRoleHandler(users user.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := httpx.IdentityFrom(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "could not validate credentials"})
			return
		}
		var req roleUpdateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		role, err := user.ParseRole(req.Role)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		targetID := c.Param("id")
		if err := auth.CheckRoleChange(actor, targetID, role); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		u, err := users.UpdateRole(c.Request.Context(), targetID, role)
		if err != nil {
			if errors.Is(err, user.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update role"})
			return
		}
		c.JSON(http.StatusOK, u)
	}
}
