package repository

import (
	"context"
	"errors"

	"github.com/rvmaher/dermatouch-backend/internal/domain/model"
)

var ErrRefreshTokenNotFound = errors.New("refresh token not found")

// リフレッシュトークンの保存・取得・更新・削除
type RefreshTokenRepository interface {
	Create(ctx context.Context, token *model.RefreshToken) error
	FindByTokenHash(ctx context.Context, tokenHash string) (*model.RefreshToken, error)
	// used_at をセットして使用済みにする（ローテーション用、1回限り）
	MarkUsed(ctx context.Context, tokenID string) error
	Revoke(ctx context.Context, tokenID string) error
	// 再利用検知時に該当ユーザーの全トークンを無効化する
	DeleteAllByUserID(ctx context.Context, userID int64) error
}
