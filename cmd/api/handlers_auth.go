package main

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/davidgq/ecom-api/internal/auth"
	"github.com/davidgq/ecom-api/internal/user"
)

type registerRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required,min=8"`
	FullName string `json:"full_name"`
}

// registerHandler creates a customer account. New users always start as
// customers; roles are only changed through the admin surface.
func registerHandler(users user.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req registerRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		hash, err := auth.HashPassword(req.Password)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not register user"})
			return
		}
		u := &user.User{
			ID:             uuid.NewString(),
			Email:          req.Email,
			Username:       req.Username,
			HashedPassword: hash,
			FullName:       req.FullName,
			IsActive:       true,
			Role:           user.RoleCustomer,
			CreatedAt:      time.Now().UTC(),
		}
		if err := users.Create(c.Request.Context(), u); err != nil {
			if errors.Is(err, user.ErrAlreadyExist) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "email or username already registered"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not register user"})
			return
		}
		c.JSON(http.StatusOK, u)
	}
}

type loginForm struct {
	Username string `form:"username" binding:"required"`
	Password string `form:"password" binding:"required"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

func tokenHandler(svc *auth.Service, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		var form loginForm
		if err := c.ShouldBind(&form); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		u, err := svc.Authenticate(c.Request.Context(), form.Username, form.Password)
		if err != nil {
			c.Header("WWW-Authenticate", "Bearer")
			c.JSON(http.StatusUnauthorized, gin.H{"error": "incorrect username or password"})
			return
		}
		token, err := svc.IssueToken(u, ttl)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not issue token"})
			return
		}
		c.JSON(http.StatusOK, tokenResponse{AccessToken: token, TokenType: "bearer"})
	}
}
