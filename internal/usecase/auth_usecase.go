package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"storefront/internal/config"
	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

// accesstokenの有効期限
const accessTokenTTL = 24 * time.Hour

// ゲストカートの併合窓口。ログイン成立時に1回呼ぶ。
type GuestCartMerger interface {
	MergeGuestCart(ctx context.Context, guestToken string, userID int64) error
}

type AuthUsecase struct {
	cfg    config.Config
	users  repo.UserRepository
	merger GuestCartMerger
	logger *zap.Logger
}

func NewAuthUsecase(cfg config.Config, users repo.UserRepository, merger GuestCartMerger, logger *zap.Logger) *AuthUsecase {
	return &AuthUsecase{cfg: cfg, users: users, merger: merger, logger: logger}
}

type RegisterInput struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required,max=255"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	// リクエスト時点のゲストトークン。あれば登録完了時にカートを併合する。
	GuestToken string `json:"-"`
}

type LoginInput struct {
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required"`
	GuestToken string `json:"-"`
}

type UserDTO struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

type AuthResponse struct {
	User        UserDTO   `json:"user"`
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func (u *AuthUsecase) Register(ctx context.Context, in RegisterInput) (AuthResponse, error) {
	// パスワードは必ずハッシュ化して保存
	pwHash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return AuthResponse{}, errInternal()
	}

	user := &model.User{
		Email:        strings.ToLower(strings.TrimSpace(in.Email)),
		Name:         strings.TrimSpace(in.Name),
		PasswordHash: string(pwHash),
		Role:         model.RoleUser,
		IsActive:     true,
	}

	if err := u.users.Create(ctx, user); err != nil {
		if errors.Is(err, repo.ErrConflict) {
			return AuthResponse{}, NewHTTPError(http.StatusConflict, CodeConflict, "email already used")
		}
		u.logger.Error("user create failed", zap.Error(err))
		return AuthResponse{}, errInternal()
	}

	return u.issue(ctx, *user, in.GuestToken)
}

func (u *AuthUsecase) Login(ctx context.Context, in LoginInput) (AuthResponse, error) {
	user, err := u.users.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(in.Email)))
	if errors.Is(err, repo.ErrNotFound) {
		return AuthResponse{}, errUnauthorized()
	}
	if err != nil {
		u.logger.Error("user lookup failed", zap.Error(err))
		return AuthResponse{}, errInternal()
	}

	// 停止ユーザーはログイン不可
	if !user.IsActive {
		return AuthResponse{}, NewHTTPError(http.StatusForbidden, CodeForbidden, "forbidden")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return AuthResponse{}, errUnauthorized()
	}

	if err := u.users.UpdateLastLogin(ctx, user.ID); err != nil {
		u.logger.Warn("last login update failed", zap.Int64("user_id", user.ID), zap.Error(err))
	}

	return u.issue(ctx, user, in.GuestToken)
}

// トークン発行と、ゲストカートの併合。
// 併合はログイン成立のこのタイミングでだけ走る。
func (u *AuthUsecase) issue(ctx context.Context, user model.User, guestToken string) (AuthResponse, error) {
	if guestToken != "" {
		if err := u.merger.MergeGuestCart(ctx, guestToken, user.ID); err != nil {
			return AuthResponse{}, err
		}
	}

	now := time.Now()
	expiresAt := now.Add(accessTokenTTL)

	claims := jwt.MapClaims{
		"sub":  user.ID,
		"role": string(user.Role),
		"iat":  now.Unix(),
		"exp":  expiresAt.Unix(),
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString([]byte(u.cfg.JWTSecret))
	if err != nil {
		u.logger.Error("jwt sign failed", zap.Error(err))
		return AuthResponse{}, errInternal()
	}

	return AuthResponse{
		User: UserDTO{
			ID:    user.ID,
			Email: user.Email,
			Name:  user.Name,
			Role:  string(user.Role),
		},
		AccessToken: signed,
		ExpiresAt:   expiresAt,
	}, nil
}
