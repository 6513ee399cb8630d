package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/myhealth-dev/myhealth/internal/authstate"
	"github.com/myhealth-dev/myhealth/internal/docstore"
	"github.com/myhealth-dev/myhealth/internal/identity"
)

// RegisterRequest represents a new-account request
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Name     string `json:"name" binding:"required,plaintext"`
}

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// AuthResponse represents a successful register or login
type AuthResponse struct {
	Token string      `json:"token"`
	User  *UserDetail `json:"user"`
}

// UserDetail represents user information returned in responses
type UserDetail struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// @Summary Register
// @Description Create an account and its role/profile document
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "Register request"
// @Success 201 {object} AuthResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /api/auth/register [post]
func (s *Server) register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Reject duplicate emails before hashing
	var existing docstore.Account
	err := s.docs.DB().Where("email = ?", req.Email).First(&existing).Error
	if err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Email already registered"})
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error().Err(err).Msg("Failed to check existing account")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	passwordHash, err := identity.HashPassword(req.Password)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to hash password")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create account"})
		return
	}

	account := &docstore.Account{
		Email:        req.Email,
		PasswordHash: passwordHash,
		Name:         req.Name,
	}
	if err := s.docs.DB().Create(account).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to create account")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create account"})
		return
	}

	// Role/profile document; new accounts always start as plain users
	profile := map[string]any{
		"email": account.Email,
		"name":  account.Name,
		"role":  string(authstate.RoleUser),
	}
	if err := s.docs.Put(c.Request.Context(), "users", account.ID, profile); err != nil {
		s.logger.Error().Err(err).Str("uid", account.ID).Msg("Failed to create profile document")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create account"})
		return
	}

	token, err := s.tokens.Generate(account.ID, account.Email)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to generate token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	s.logger.Info().Str("uid", account.ID).Str("email", account.Email).Msg("Account created")

	c.JSON(http.StatusCreated, AuthResponse{
		Token: token,
		User: &UserDetail{
			ID:        account.ID,
			Email:     account.Email,
			Name:      account.Name,
			Role:      string(authstate.RoleUser),
			CreatedAt: account.CreatedAt,
		},
	})
}

// @Summary Login
// @Description Authenticate with email and password
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login request"
// @Success 200 {object} AuthResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Router /api/auth/login [post]
func (s *Server) login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var account docstore.Account
	if err := s.docs.DB().Where("email = ?", req.Email).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to find account")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if err := identity.VerifyPassword(req.Password, account.PasswordHash); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}

	token, err := s.tokens.Generate(account.ID, account.Email)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to generate token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	s.logger.Info().Str("uid", account.ID).Str("email", account.Email).Msg("User logged in")

	c.JSON(http.StatusOK, AuthResponse{
		Token: token,
		User: &UserDetail{
			ID:        account.ID,
			Email:     account.Email,
			Name:      account.Name,
			Role:      s.lookupRole(c, account.ID),
			CreatedAt: account.CreatedAt,
		},
	})
}

// @Summary Get current user
// @Description Get information about the currently authenticated user
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} UserDetail
// @Failure 401 {object} map[string]interface{}
// @Router /api/auth/me [get]
func (s *Server) getCurrentUser(c *gin.Context) {
	caller, exists := GetCaller(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var account docstore.Account
	if err := s.docs.DB().Where("id = ?", caller.UID).First(&account).Error; err != nil {
		s.logger.Error().Err(err).Str("uid", caller.UID).Msg("Failed to find account")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, UserDetail{
		ID:        account.ID,
		Email:     account.Email,
		Name:      account.Name,
		Role:      s.lookupRole(c, account.ID),
		CreatedAt: account.CreatedAt,
	})
}

// lookupRole reads the role from the profile document, defaulting to
// "user" when the document or field is absent.
func (s *Server) lookupRole(c *gin.Context, uid string) string {
	profile, err := s.docs.Get(c.Request.Context(), "users", uid)
	if err != nil {
		if !errors.Is(err, docstore.ErrNotFound) {
			s.logger.Warn().Err(err).Str("uid", uid).Msg("Failed to read profile document")
		}
		return string(authstate.RoleUser)
	}
	if role, ok := profile["role"].(string); ok && role != "" {
		return role
	}
	return string(authstate.RoleUser)
}
