package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/geocoder89/storefront/internal/auth"
	"github.com/geocoder89/storefront/internal/credentials"
	"github.com/geocoder89/storefront/internal/domain/user"
	"github.com/geocoder89/storefront/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

type ProfileService interface {
	UserByID(ctx context.Context, id string) (user.Public, error)
	UpdateProfile(ctx context.Context, userID string, upd credentials.ProfileUpdate) (user.Public, error)
	Now() time.Time
}

// AccountHandler serves /account routes. The access gate has already
// resolved the caller by the time these run.
type AccountHandler struct {
	svc     ProfileService
	timeout time.Duration
}

func NewAccountHandler(svc ProfileService) *AccountHandler {
	return &AccountHandler{svc: svc, timeout: 5 * time.Second}
}

func (h *AccountHandler) GetProfile(ctx *gin.Context) {
	id, ok := middlewares.IdentityFromContext(ctx)
	if !ok {
		RespondUnauthorized(ctx, "not_authenticated", "Not authenticated")
		return
	}

	// managed-auth users have no local record
	if id.Provider == auth.ProviderManaged {
		ctx.JSON(http.StatusOK, gin.H{"user": user.Public{ID: id.UserID, Email: id.Email, Role: id.Role}})
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	u, err := h.svc.UserByID(cctx, id.UserID)
	if err != nil {
		respondServiceError(ctx, err, h.svc.Now(), "Could not load profile")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"user": u})
}

func (h *AccountHandler) UpdateProfile(ctx *gin.Context) {
	id, ok := middlewares.IdentityFromContext(ctx)
	if !ok {
		RespondUnauthorized(ctx, "not_authenticated", "Not authenticated")
		return
	}
	if id.Provider == auth.ProviderManaged {
		RespondForbidden(ctx, "managed_account", "Profile is managed by the external identity provider")
		return
	}

	var req credentials.ProfileUpdate
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	u, err := h.svc.UpdateProfile(cctx, id.UserID, req)
	if err != nil {
		respondServiceError(ctx, err, h.svc.Now(), "Could not update profile")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"user": u})
}
