package commands

import (
	"context"

	"gearbook/internal/domain/user"
	"gearbook/internal/infra"
	"gearbook/internal/pkg/errs"
	"gearbook/internal/pkg/jwt"
	"gearbook/internal/pkg/password"
	"gearbook/internal/usecase/shared"

	"github.com/google/uuid"
)

var (
	ErrInvalidCredentials   = errs.New("invalid credentials")
	ErrUserBanned           = errs.New("user is banned")
	ErrAuthenticationFailed = errs.New("authentication failed")
	ErrTokenGeneration      = errs.New("token generation failed")
	ErrTokenValidation      = errs.New("token validation failed")
)

type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

type LoginResult struct {
	UserID    uuid.UUID
	TokenPair *TokenPair
}

type AuthCommands interface {
	Login(ctx context.Context, login, rawPassword string) (*LoginResult, error)
	RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error)
}

type authCommandsImpl struct {
	uow        shared.UnitOfWork
	jwtService *jwt.Service
}

func NewAuthCommands(uow shared.UnitOfWork, jwtService *jwt.Service) AuthCommands {
	return &authCommandsImpl{uow: uow, jwtService: jwtService}
}

func (a *authCommandsImpl) Login(ctx context.Context, login, rawPassword string) (*LoginResult, error) {
	loginVO, err := user.NewLogin(login)
	if err != nil {
		return nil, errs.Mark(err, ErrAuthenticationFailed)
	}

	snap, err := a.uow.Reads().UserByLogin(ctx, loginVO.Value())
	if err != nil {
		// Unknown login and wrong password are indistinguishable to the caller.
		return nil, ErrInvalidCredentials
	}
	if snap.Banned {
		return nil, ErrUserBanned
	}

	if err := password.ComparePassword(snap.PasswordHash, rawPassword); err != nil {
		return nil, ErrInvalidCredentials
	}

	pair, err := a.issueTokens(snap.ID, snap.Role)
	if err != nil {
		return nil, err
	}

	return &LoginResult{UserID: snap.ID, TokenPair: pair}, nil
}

func (a *authCommandsImpl) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := a.jwtService.ValidateToken(refreshToken)
	if err != nil {
		return nil, errs.Mark(err, ErrTokenValidation)
	}

	// The role in the claims may be stale; re-read the user.
	snap, err := a.uow.Reads().UserByID(ctx, claims.UserID)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if snap.Banned {
		return nil, ErrUserBanned
	}

	return a.issueTokens(snap.ID, snap.Role)
}

func (a *authCommandsImpl) issueTokens(userID uuid.UUID, role user.Role) (*TokenPair, error) {
	accessToken, err := a.jwtService.GenerateAccessToken(userID, role)
	if err != nil {
		return nil, errs.Mark(err, ErrTokenGeneration)
	}
	refreshToken, err := a.jwtService.GenerateRefreshToken(userID, role)
	if err != nil {
		return nil, errs.Mark(err, ErrTokenGeneration)
	}
	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}
