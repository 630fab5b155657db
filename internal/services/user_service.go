package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/joshua-takyi/nearby/internal/models"
	"github.com/supabase-community/gotrue-go/types"
)

type UserService struct {
	userRepo  models.UserRepo
	shopsRepo models.ShopsRepo
}

func NewUserService(userRepo models.UserRepo, shopsRepo models.ShopsRepo) *UserService {
	return &UserService{
		userRepo:  userRepo,
		shopsRepo: shopsRepo,
	}
}

func (us *UserService) AuthenticateUser(ctx context.Context, email, password string) (*types.TokenResponse, error) {
	if err := models.Validate.Var(email, "required,email"); err != nil {
		return nil, &models.ValidationError{Field: "email", Reason: "must be a valid email"}
	}
	if err := models.Validate.Var(password, "required,min=8"); err != nil {
		return nil, &models.ValidationError{Field: "password", Reason: "must be at least 8 characters"}
	}
	response, err := us.userRepo.AuthenticateUser(ctx, email, password)
	if err != nil {
		return nil, fmt.Errorf("authentication failed: %w", err)
	}

	return response, nil
}

func (us *UserService) RefreshToken(ctx context.Context, refreshToken string) (*types.TokenResponse, error) {
	if refreshToken == "" {
		return nil, &models.ValidationError{Field: "refresh_token", Reason: "is required"}
	}
	response, err := us.userRepo.RefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, fmt.Errorf("token refresh failed: %w", err)
	}
	return response, nil
}

func (us *UserService) GetUser(ctx context.Context, id uuid.UUID, accessToken string) (*models.User, error) {
	res, err := us.userRepo.GetUser(ctx, id, accessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return res, nil
}

// ResolveActor builds the identity used for privilege checks: the caller's
// id, whether they are a global admin, and the shops they own.
func (us *UserService) ResolveActor(ctx context.Context, userID uuid.UUID, isAdmin bool, avatarURL string) (models.Actor, error) {
	actor := models.Actor{UserID: userID, IsAdmin: isAdmin, AvatarURL: avatarURL}
	if userID == uuid.Nil {
		return actor, nil
	}

	owned, err := us.shopsRepo.ListShopIDsByOwner(ctx, userID)
	if err != nil {
		return actor, fmt.Errorf("failed to load owned shops: %w", err)
	}
	actor.OwnedShopIDs = owned
	return actor, nil
}
