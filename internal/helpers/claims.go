package helpers

import (
	"github.com/google/uuid"
	"github.com/joshua-takyi/nearby/internal/models"
)

const (
	RoleAdmin = "admin"
	RoleGuest = "guest"
)

type EnhancedClaims struct {
	*CustomClaims
	Role         string      `json:"role"`
	UserID       string      `json:"id"`
	Email        string      `json:"email,omitempty"`
	Username     string      `json:"username,omitempty"`
	Fullname     string      `json:"fullname,omitempty"`
	AvatarURL    string      `json:"avatar_url,omitempty"`
	OwnedShopIDs []uuid.UUID `json:"owned_shop_ids,omitempty"`
}

func (ec *EnhancedClaims) IsAdmin() bool {
	return ec.Role == RoleAdmin
}

func (ec *EnhancedClaims) IsOwner(userID string) bool {
	return ec.UserID == userID
}

func (ec *EnhancedClaims) GetSafeRole() string {
	if ec.Role == "" {
		return RoleGuest
	}
	return ec.Role
}

// Actor converts the claims into the identity used for privilege checks. An
// unparsable subject yields an anonymous actor.
func (ec *EnhancedClaims) Actor() models.Actor {
	if ec == nil {
		return models.Actor{}
	}
	id, err := uuid.Parse(ec.UserID)
	if err != nil {
		return models.Actor{}
	}
	return models.Actor{
		UserID:       id,
		IsAdmin:      ec.IsAdmin(),
		OwnedShopIDs: ec.OwnedShopIDs,
		AvatarURL:    ec.AvatarURL,
	}
}
