package usecase

import (
	"context"
	"net/http"

	repo "github.com/rvmaher/dermatouch-backend/internal/repository"
)

type UserUsecase struct {
	users repo.UserRepository
}

func NewUserUsecase(users repo.UserRepository) *UserUsecase {
	return &UserUsecase{users: users}
}

// 管理者用のユーザー一覧。password_hashはmodel側でjson:"-"
func (u *UserUsecase) AdminList(ctx context.Context) ([]UserDTO, error) {
	users, err := u.users.List(ctx)
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	outs := make([]UserDTO, 0, len(users))
	for i := range users {
		outs = append(outs, toUserDTO(&users[i]))
	}
	return outs, nil
}
