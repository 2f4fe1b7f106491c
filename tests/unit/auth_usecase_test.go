package unit

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"storefront/internal/config"
	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
	"storefront/internal/usecase"
)

// =====================
// Helper
// =====================

func mustHash(t *testing.T, plain string) string {
	t.Helper()
	b, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("bcrypt failed: %v", err)
	}
	return string(b)
}

func newAuthUC(users *MockUserRepository, merger *MockGuestCartMerger) *usecase.AuthUsecase {
	cfg := config.Config{JWTSecret: "test-secret"}
	return usecase.NewAuthUsecase(cfg, users, merger, zap.NewNop())
}

// =====================
// Test: Login
// =====================

// Test: ログイン成立時にゲストカートが併合される
func TestLoginMergesGuestCart(t *testing.T) {
	users := new(MockUserRepository)
	merger := new(MockGuestCartMerger)
	uc := newAuthUC(users, merger)

	users.On("FindByEmail", mock.Anything, "alice@example.com").
		Return(model.User{
			ID:           1,
			Email:        "alice@example.com",
			Name:         "Alice",
			PasswordHash: mustHash(t, "password123"),
			Role:         model.RoleUser,
			IsActive:     true,
		}, nil)
	users.On("UpdateLastLogin", mock.Anything, int64(1)).Return(nil)
	merger.On("MergeGuestCart", mock.Anything, "guest-token", int64(1)).Return(nil)

	out, err := uc.Login(context.Background(), usecase.LoginInput{
		Email:      "alice@example.com",
		Password:   "password123",
		GuestToken: "guest-token",
	})

	assert.NoError(t, err)
	assert.NotEmpty(t, out.AccessToken)
	merger.AssertExpectations(t)
}

// Test: ゲストトークンが無ければ併合は走らない
func TestLoginWithoutGuestTokenSkipsMerge(t *testing.T) {
	users := new(MockUserRepository)
	merger := new(MockGuestCartMerger)
	uc := newAuthUC(users, merger)

	users.On("FindByEmail", mock.Anything, "alice@example.com").
		Return(model.User{
			ID:           1,
			Email:        "alice@example.com",
			PasswordHash: mustHash(t, "password123"),
			Role:         model.RoleUser,
			IsActive:     true,
		}, nil)
	users.On("UpdateLastLogin", mock.Anything, int64(1)).Return(nil)

	_, err := uc.Login(context.Background(), usecase.LoginInput{
		Email:    "alice@example.com",
		Password: "password123",
	})

	assert.NoError(t, err)
	merger.AssertNotCalled(t, "MergeGuestCart", mock.Anything, mock.Anything, mock.Anything)
}

// Test: パスワード不一致は401（併合もトークン発行もしない）
func TestLoginWrongPassword(t *testing.T) {
	users := new(MockUserRepository)
	merger := new(MockGuestCartMerger)
	uc := newAuthUC(users, merger)

	users.On("FindByEmail", mock.Anything, "alice@example.com").
		Return(model.User{
			ID:           1,
			Email:        "alice@example.com",
			PasswordHash: mustHash(t, "password123"),
			IsActive:     true,
		}, nil)

	_, err := uc.Login(context.Background(), usecase.LoginInput{
		Email:      "alice@example.com",
		Password:   "wrong",
		GuestToken: "guest-token",
	})

	assertHTTPCode(t, err, 401, usecase.CodeUnauthorized)
	merger.AssertNotCalled(t, "MergeGuestCart", mock.Anything, mock.Anything, mock.Anything)
}

func TestLoginUnknownEmail(t *testing.T) {
	users := new(MockUserRepository)
	uc := newAuthUC(users, new(MockGuestCartMerger))

	users.On("FindByEmail", mock.Anything, "nobody@example.com").
		Return(model.User{}, repo.ErrNotFound)

	_, err := uc.Login(context.Background(), usecase.LoginInput{
		Email:    "nobody@example.com",
		Password: "whatever",
	})

	assertHTTPCode(t, err, 401, usecase.CodeUnauthorized)
}

// Test: 停止ユーザーは403
func TestLoginInactiveUser(t *testing.T) {
	users := new(MockUserRepository)
	uc := newAuthUC(users, new(MockGuestCartMerger))

	users.On("FindByEmail", mock.Anything, "alice@example.com").
		Return(model.User{
			ID:           1,
			Email:        "alice@example.com",
			PasswordHash: mustHash(t, "password123"),
			IsActive:     false,
		}, nil)

	_, err := uc.Login(context.Background(), usecase.LoginInput{
		Email:    "alice@example.com",
		Password: "password123",
	})

	assertHTTPCode(t, err, 403, usecase.CodeForbidden)
}

// Test: 発行されたJWTにsub/roleが入っている
func TestLoginTokenClaims(t *testing.T) {
	users := new(MockUserRepository)
	uc := newAuthUC(users, new(MockGuestCartMerger))

	users.On("FindByEmail", mock.Anything, "admin@example.com").
		Return(model.User{
			ID:           42,
			Email:        "admin@example.com",
			PasswordHash: mustHash(t, "password123"),
			Role:         model.RoleAdmin,
			IsActive:     true,
		}, nil)
	users.On("UpdateLastLogin", mock.Anything, int64(42)).Return(nil)

	out, err := uc.Login(context.Background(), usecase.LoginInput{
		Email:    "admin@example.com",
		Password: "password123",
	})
	assert.NoError(t, err)

	token, err := jwt.Parse(out.AccessToken, func(t *jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	assert.NoError(t, err)

	claims := token.Claims.(jwt.MapClaims)
	assert.Equal(t, float64(42), claims["sub"])
	assert.Equal(t, "ADMIN", claims["role"])
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), out.ExpiresAt, time.Minute)
}

// =====================
// Test: Register
// =====================

// Test: 登録はパスワードをハッシュ化し、emailを正規化する
func TestRegisterNormalizesAndHashes(t *testing.T) {
	users := new(MockUserRepository)
	merger := new(MockGuestCartMerger)
	uc := newAuthUC(users, merger)

	users.On("Create", mock.Anything, mock.MatchedBy(func(u *model.User) bool {
		return u.Email == "alice@example.com" &&
			u.Role == model.RoleUser &&
			u.IsActive &&
			u.PasswordHash != "password123" &&
			bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("password123")) == nil
	})).Return(nil)

	out, err := uc.Register(context.Background(), usecase.RegisterInput{
		Email:    "  Alice@Example.COM ",
		Name:     "Alice",
		Password: "password123",
	})

	assert.NoError(t, err)
	assert.NotEmpty(t, out.AccessToken)
	users.AssertExpectations(t)
}

// Test: email重複は409
func TestRegisterDuplicateEmail(t *testing.T) {
	users := new(MockUserRepository)
	uc := newAuthUC(users, new(MockGuestCartMerger))

	users.On("Create", mock.Anything, mock.Anything).Return(repo.ErrConflict)

	_, err := uc.Register(context.Background(), usecase.RegisterInput{
		Email:    "alice@example.com",
		Name:     "Alice",
		Password: "password123",
	})

	assertHTTPCode(t, err, 409, usecase.CodeConflict)
}

// Test: 登録時もゲストカートを引き継ぐ
func TestRegisterMergesGuestCart(t *testing.T) {
	users := new(MockUserRepository)
	merger := new(MockGuestCartMerger)
	uc := newAuthUC(users, merger)

	users.On("Create", mock.Anything, mock.Anything).Return(nil)
	merger.On("MergeGuestCart", mock.Anything, "guest-token", mock.Anything).Return(nil)

	_, err := uc.Register(context.Background(), usecase.RegisterInput{
		Email:      "alice@example.com",
		Name:       "Alice",
		Password:   "password123",
		GuestToken: "guest-token",
	})

	assert.NoError(t, err)
	merger.AssertExpectations(t)
}
