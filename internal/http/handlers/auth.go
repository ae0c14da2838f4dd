package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/geocoder89/storefront/internal/credentials"
	"github.com/geocoder89/storefront/internal/domain/user"
	"github.com/gin-gonic/gin"
)

// AuthService is the part of credentials.Service the auth endpoints use.
type AuthService interface {
	Register(ctx context.Context, req credentials.RegisterRequest) (credentials.Session, error)
	Login(ctx context.Context, identifier, password string) (credentials.Session, error)
	Logout(ctx context.Context) string
	CurrentUser(ctx context.Context, cookieHeader string) (user.Public, error)
	VerifyEmail(ctx context.Context, token string) (user.Public, error)
	Now() time.Time
}

type AuthHandler struct {
	svc     AuthService
	timeout time.Duration
}

func NewAuthHandler(svc AuthService) *AuthHandler {
	return &AuthHandler{svc: svc, timeout: 5 * time.Second}
}

type LoginRequest struct {
	// Email also accepts a phone number.
	Email    string `json:"email"`
	Password string `json:"password"`
}

type VerifyEmailRequest struct {
	Token string `json:"token"`
}

func (h *AuthHandler) Register(ctx *gin.Context) {
	var req credentials.RegisterRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	sess, err := h.svc.Register(cctx, req)
	if err != nil {
		respondServiceError(ctx, err, h.svc.Now(), "Could not create account")
		return
	}

	ctx.Writer.Header().Add("Set-Cookie", sess.Cookie)
	ctx.JSON(http.StatusCreated, gin.H{"user": sess.User})
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req LoginRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	sess, err := h.svc.Login(cctx, req.Email, req.Password)
	if err != nil {
		respondServiceError(ctx, err, h.svc.Now(), "Could not sign in")
		return
	}

	ctx.Writer.Header().Add("Set-Cookie", sess.Cookie)
	ctx.JSON(http.StatusOK, gin.H{"user": sess.User})
}

func (h *AuthHandler) Logout(ctx *gin.Context) {
	ctx.Writer.Header().Add("Set-Cookie", h.svc.Logout(ctx.Request.Context()))
	ctx.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

func (h *AuthHandler) Me(ctx *gin.Context) {
	cctx, cancel := context.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	u, err := h.svc.CurrentUser(cctx, ctx.GetHeader("Cookie"))
	if err != nil {
		RespondUnauthorized(ctx, "not_authenticated", "Not authenticated")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"user": u})
}

func (h *AuthHandler) VerifyEmail(ctx *gin.Context) {
	var req VerifyEmailRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	u, err := h.svc.VerifyEmail(cctx, req.Token)
	if err != nil {
		respondServiceError(ctx, err, h.svc.Now(), "Could not verify email")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"user": u})
}
