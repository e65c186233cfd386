package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/akozlov/clothes-shop/internal/apperr"
	"github.com/akozlov/clothes-shop/internal/hash"
	"github.com/akozlov/clothes-shop/internal/logging"
	"github.com/akozlov/clothes-shop/internal/models"
	"github.com/akozlov/clothes-shop/internal/mykafka"
	"github.com/akozlov/clothes-shop/internal/tokens"
)

type AuthHandler struct {
	DB        *gorm.DB
	JWTSecret []byte
	TokenTTL  time.Duration
	// Secure marks the token cookie Secure; set only in production.
	Secure   bool
	Producer *mykafka.Producer
}

func CreateCookie(name, value string, exp time.Time, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  exp,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}

type credentials struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

func (h *AuthHandler) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_register")

	var req credentials
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid body")
	}

	// Hashing happens here, before any store write.
	pwHash, err := hash.HashPassword(req.Password)
	if err != nil {
		return apperr.Upstream("Failed to create user", err)
	}

	user := models.User{
		Email:        req.Email,
		PasswordHash: pwHash,
	}
	if err := h.DB.WithContext(ctx).Create(&user).Error; err != nil {
		// Covers the unique-email violation too; no pre-check here.
		l.Warn("user create failed", "error", err)
		return apperr.Upstream("Failed to create user", err)
	}

	h.publish(c, map[string]any{
		"type":   "user_registered",
		"userID": user.ID,
		"email":  user.Email,
	})

	l.Info("user registered", "user_id", user.ID)
	return h.sendToken(c, user.ID, http.StatusOK)
}

func (h *AuthHandler) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_login")

	var req credentials
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid body")
	}
	if req.Email == "" || req.Password == "" {
		return apperr.Validation("Please enter email & password")
	}

	var user models.User
	if err := h.DB.WithContext(ctx).Where("email = ?", req.Email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Same message as the wrong-password case below.
			return apperr.Unauthorized("Invalid email or password")
		}
		return apperr.Upstream("Failed to log in", err)
	}
	if !hash.CheckPassword(user.PasswordHash, req.Password) {
		return apperr.Unauthorized("Invalid email or password")
	}

	h.publish(c, map[string]any{
		"type":   "user_logged_in",
		"userID": user.ID,
		"email":  user.Email,
	})

	l.Info("login successful", "user_id", user.ID)
	return h.sendToken(c, user.ID, http.StatusOK)
}

// sendToken issues the JWT and delivers it over both channels: the JSON
// body and an httpOnly cookie.
func (h *AuthHandler) sendToken(c echo.Context, userID uint, status int) error {
	token, err := tokens.Sign(userID, h.JWTSecret, h.TokenTTL)
	if err != nil {
		return apperr.Upstream("Failed to issue token", err)
	}

	c.SetCookie(CreateCookie("token", token, time.Now().Add(h.TokenTTL), h.Secure))

	return c.JSON(status, echo.Map{
		"success": true,
		"token":   token,
	})
}

func (h *AuthHandler) publish(c echo.Context, event map[string]any) {
	if h.Producer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "user_events", fmt.Sprint(event["userID"]), event); err != nil {
		logging.FromContext(c.Request().Context()).Error("kafka publish failed", "error", err)
	}
}
