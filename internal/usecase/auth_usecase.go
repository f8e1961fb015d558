package usecase

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/rvmaher/dermatouch-backend/internal/config"
	"github.com/rvmaher/dermatouch-backend/internal/domain/model"
	repo "github.com/rvmaher/dermatouch-backend/internal/repository"
)

// accesstokenの有効期限
const accessTokenTTL = 15 * time.Minute

// refreshtokenの有効期限
const refreshTokenTTL = 30 * 24 * time.Hour

const minPasswordLength = 8

type UserDTO struct {
	ID          int64      `json:"id"`
	Email       string     `json:"email"`
	Role        string     `json:"role"`
	IsActive    bool       `json:"is_active"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

type TokenPairDTO struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

type AuthRegisterInput struct {
	Email    string
	Password string
}

type AuthLoginInput struct {
	Email    string
	Password string
}

type AuthLoginOutput struct {
	User  UserDTO      `json:"user"`
	Token TokenPairDTO `json:"token"`
}

type AuthUsecase struct {
	cfg    config.Config
	users  repo.UserRepository
	rtRepo repo.RefreshTokenRepository
}

func NewAuthUsecase(cfg config.Config, users repo.UserRepository, rtRepo repo.RefreshTokenRepository) *AuthUsecase {
	return &AuthUsecase{cfg: cfg, users: users, rtRepo: rtRepo}
}

// 登録成功時はそのままログイン状態にする（トークンペアも返す）
func (u *AuthUsecase) Register(ctx context.Context, in AuthRegisterInput, userAgent string) (AuthLoginOutput, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if _, err := mail.ParseAddress(email); err != nil {
		return AuthLoginOutput{}, NewHTTPError(http.StatusBadRequest, "invalid email")
	}
	if len(in.Password) < minPasswordLength {
		return AuthLoginOutput{}, NewHTTPError(http.StatusBadRequest, "password must be at least 8 characters")
	}

	//パスワードは必ずハッシュ化して保存（平文保存しない）
	pwHash, err := bcrypt.GenerateFromPassword([]byte(in.Password), u.cfg.BcryptCost)
	if err != nil {
		return AuthLoginOutput{}, NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	user := &model.User{
		Email:        email,
		PasswordHash: string(pwHash),
		Role:         model.RoleUser,
		IsActive:     true,
	}

	if err := u.users.Create(ctx, user); err != nil {
		if err == repo.ErrConflict {
			return AuthLoginOutput{}, NewHTTPError(http.StatusConflict, "email already registered")
		}
		return AuthLoginOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	accessToken, expiresIn, err := u.issueAccessToken(user)
	if err != nil {
		return AuthLoginOutput{}, NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	refreshPlain, err := u.issueRefreshToken(ctx, user.ID, userAgent)
	if err != nil {
		return AuthLoginOutput{}, NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return AuthLoginOutput{
		User: toUserDTO(user),
		Token: TokenPairDTO{
			AccessToken:  accessToken,
			RefreshToken: refreshPlain,
			ExpiresIn:    expiresIn,
		},
	}, nil
}

func (u *AuthUsecase) Login(ctx context.Context, in AuthLoginInput, userAgent string) (AuthLoginOutput, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" || in.Password == "" {
		return AuthLoginOutput{}, NewHTTPError(http.StatusBadRequest, "email and password are required")
	}

	user, err := u.users.FindByEmail(ctx, email)
	if err != nil {
		// ユーザーが居ないこととパスワード違いは区別しない
		return AuthLoginOutput{}, NewHTTPError(http.StatusUnauthorized, "invalid credentials")
	}

	//停止ユーザーはログイン不可
	if !user.IsActive {
		return AuthLoginOutput{}, NewHTTPError(http.StatusForbidden, "account is disabled")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return AuthLoginOutput{}, NewHTTPError(http.StatusUnauthorized, "invalid credentials")
	}

	//last_login更新（失敗してもログインは通す）
	now := time.Now()
	user.LastLoginAt = &now
	_ = u.users.Update(ctx, user)

	accessToken, expiresIn, err := u.issueAccessToken(user)
	if err != nil {
		return AuthLoginOutput{}, NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	refreshPlain, err := u.issueRefreshToken(ctx, user.ID, userAgent)
	if err != nil {
		return AuthLoginOutput{}, NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return AuthLoginOutput{
		User: toUserDTO(user),
		Token: TokenPairDTO{
			AccessToken:  accessToken,
			RefreshToken: refreshPlain,
			ExpiresIn:    expiresIn,
		},
	}, nil
}

// refresh tokenをローテーションして新しいトークンペアを返す。
// 使用済みトークンの再提示はreplay扱いで、そのユーザーの全トークンを落とす。
func (u *AuthUsecase) Refresh(ctx context.Context, refreshTokenPlain string, userAgent string) (TokenPairDTO, error) {
	if strings.TrimSpace(refreshTokenPlain) == "" {
		return TokenPairDTO{}, NewHTTPError(http.StatusUnauthorized, "invalid refresh token")
	}

	rt, err := u.rtRepo.FindByTokenHash(ctx, hashToken(refreshTokenPlain))
	if err != nil {
		return TokenPairDTO{}, NewHTTPError(http.StatusUnauthorized, "invalid refresh token")
	}

	if rt.ExpiresAt.Before(time.Now()) {
		_ = u.rtRepo.Revoke(ctx, rt.ID)
		return TokenPairDTO{}, NewHTTPError(http.StatusUnauthorized, "invalid refresh token")
	}
	if rt.RevokedAt != nil {
		return TokenPairDTO{}, NewHTTPError(http.StatusUnauthorized, "invalid refresh token")
	}

	//used済みが来たら replay → 全削除
	if rt.UsedAt != nil {
		_ = u.rtRepo.DeleteAllByUserID(ctx, rt.UserID)
		return TokenPairDTO{}, NewHTTPError(http.StatusUnauthorized, "invalid refresh token")
	}

	user, err := u.users.FindByID(ctx, rt.UserID)
	if err != nil {
		return TokenPairDTO{}, NewHTTPError(http.StatusUnauthorized, "invalid refresh token")
	}
	if !user.IsActive {
		return TokenPairDTO{}, NewHTTPError(http.StatusForbidden, "account is disabled")
	}

	//旧tokenをusedにする（1回限り）
	if err := u.rtRepo.MarkUsed(ctx, rt.ID); err != nil {
		_ = u.rtRepo.DeleteAllByUserID(ctx, rt.UserID)
		return TokenPairDTO{}, NewHTTPError(http.StatusUnauthorized, "invalid refresh token")
	}

	accessToken, expiresIn, err := u.issueAccessToken(user)
	if err != nil {
		return TokenPairDTO{}, NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	newPlain, err := u.issueRefreshToken(ctx, user.ID, userAgent)
	if err != nil {
		return TokenPairDTO{}, NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return TokenPairDTO{
		AccessToken:  accessToken,
		RefreshToken: newPlain,
		ExpiresIn:    expiresIn,
	}, nil
}

func (u *AuthUsecase) Profile(ctx context.Context, userID int64) (UserDTO, error) {
	if userID <= 0 {
		return UserDTO{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	user, err := u.users.FindByID(ctx, userID)
	if err != nil {
		return UserDTO{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if !user.IsActive {
		return UserDTO{}, NewHTTPError(http.StatusForbidden, "account is disabled")
	}

	return toUserDTO(user), nil
}

// jwt発行
func (u *AuthUsecase) issueAccessToken(user *model.User) (string, int, error) {
	now := time.Now()
	exp := now.Add(accessTokenTTL)

	claims := jwt.MapClaims{
		"sub":   user.ID,
		"email": user.Email,
		"role":  string(user.Role),
		"iat":   now.Unix(),
		"exp":   exp.Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := t.SignedString([]byte(u.cfg.JWTSecret))
	if err != nil {
		return "", 0, err
	}

	return signed, int(accessTokenTTL.Seconds()), nil
}

// refreshは平文を返し、DBにはhashだけ残す
func (u *AuthUsecase) issueRefreshToken(ctx context.Context, userID int64, userAgent string) (string, error) {
	plain, hash, err := newRandomTokenAndHash()
	if err != nil {
		return "", err
	}

	rt := &model.RefreshToken{
		ID:        uuid.NewString(),
		UserID:    userID,
		TokenHash: hash,
		UserAgent: userAgent,
		ExpiresAt: time.Now().Add(refreshTokenTTL),
	}
	if err := u.rtRepo.Create(ctx, rt); err != nil {
		return "", err
	}
	return plain, nil
}

func newRandomTokenAndHash() (plain string, hash string, err error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", "", err
	}

	plain = base64.RawURLEncoding.EncodeToString(b)
	return plain, hashToken(plain), nil
}

func hashToken(plain string) string {
	sum := sha256.Sum256([]byte(plain))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

func toUserDTO(u *model.User) UserDTO {
	return UserDTO{
		ID:          u.ID,
		Email:       u.Email,
		Role:        string(u.Role),
		IsActive:    u.IsActive,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
	}
}
