package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/xelth-com/eckassets/internal/access"
	"github.com/xelth-com/eckassets/internal/models"
	"github.com/xelth-com/eckassets/internal/utils"
)

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// login handles user login
func (r *Router) login(w http.ResponseWriter, req *http.Request) {
	var loginReq LoginRequest
	if err := decodeJSON(req, &loginReq); err != nil {
		r.respondError(w, req, err)
		return
	}

	// 1. Find User
	var user models.User
	err := r.db.WithContext(req.Context()).
		Where("email = ?", strings.TrimSpace(loginReq.Email)).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		invalidCredentials(w)
		return
	}
	if err != nil {
		r.respondError(w, req, err)
		return
	}

	// 2. Check Password
	if !user.IsActive || !utils.CheckPasswordHash(loginReq.Password, user.Password) {
		invalidCredentials(w)
		return
	}

	// 3. Update Last Login
	now := time.Now().UTC()
	if err := r.db.WithContext(req.Context()).Model(&user).Update("last_login", now).Error; err != nil {
		r.log.Warn("Failed to record last login", zap.Uint("user_id", user.ID), zap.Error(err))
	}

	// 4. Generate Token
	id := access.Identity{UserID: user.ID, CompanyID: user.CompanyID, Role: user.Role}
	token, err := utils.GenerateToken(id, r.jwtSecret, utils.AccessTokenTTL)
	if err != nil {
		r.respondError(w, req, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"accessToken": token,
		"expiresIn":   int(utils.AccessTokenTTL.Seconds()),
		"user":        user,
	})
}

func invalidCredentials(w http.ResponseWriter) {
	respondJSON(w, http.StatusUnauthorized, map[string]string{
		"error":   "unauthorized",
		"message": "Invalid credentials",
	})
}
