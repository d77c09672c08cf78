package usecase

import (
	"context"
	"errors"

	"huddle/internal/entity"
	"huddle/internal/repository"
)

type UserUsecase interface {
	Get(ctx context.Context, userId string) (entity.User, error)
	Index(ctx context.Context, filter entity.UserIndexFilter) ([]entity.User, error)
}

type userUsecase struct {
	userRepo repository.UserRepository
}

func NewUserUsecase(userRepo repository.UserRepository) UserUsecase {
	return &userUsecase{
		userRepo: userRepo,
	}
}

func (u *userUsecase) Get(ctx context.Context, userId string) (entity.User, error) {
	user, err := u.userRepo.Get(ctx, userId)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return entity.User{}, ErrNotFound
		}
		return entity.User{}, err
	}

	return user, nil
}

func (u *userUsecase) Index(ctx context.Context, filter entity.UserIndexFilter) ([]entity.User, error) {
	return u.userRepo.Index(ctx, filter)
}
