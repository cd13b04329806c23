// File: internal/repository/user/gorm_user_repository.go
package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/iyunix/go-converse/internal/domain"
	"github.com/iyunix/go-converse/internal/repository"
)

var ErrUserNotFound = errors.New("user not found")

type gormUserRepository struct {
	db *gorm.DB
}

func NewGormUserRepository(db *gorm.DB) UserRepository {
	return &gormUserRepository{db: db}
}

func (r *gormUserRepository) FindByID(ctx context.Context, id uint) (*domain.User, error) {
	if id == 0 {
		return nil, ErrUserNotFound
	}

	var user domain.User
	err := repository.Conn(ctx, r.db).First(&user, id).Error
	return r.handleFindError(err, &user)
}

func (r *gormUserRepository) FindByExternalID(ctx context.Context, externalID string) (*domain.User, error) {
	if externalID == "" {
		return nil, ErrUserNotFound
	}

	var user domain.User
	err := repository.Conn(ctx, r.db).Where("external_id = ?", externalID).First(&user).Error
	return r.handleFindError(err, &user)
}

func (r *gormUserRepository) FindOrCreate(ctx context.Context, user *domain.User) (*domain.User, error) {
	if err := user.IsValid(); err != nil {
		return nil, fmt.Errorf("%w: %v", repository.ErrInvalidInput, err)
	}

	var found domain.User
	result := repository.Conn(ctx, r.db).
		Where(domain.User{ExternalID: user.ExternalID}).
		Attrs(domain.User{
			Email:        user.Email,
			FirstName:    user.FirstName,
			LastName:     user.LastName,
			ProfileColor: user.ProfileColor,
		}).
		FirstOrCreate(&found)
	if result.Error != nil {
		log.Error().Err(result.Error).Msg("[UserRepository] database error provisioning user")
		return nil, errors.New("database error provisioning user")
	}

	log.Debug().Uint("user_id", found.ID).Msg("[UserRepository] user resolved")
	return &found, nil
}

func (r *gormUserRepository) handleFindError(err error, user *domain.User) (*domain.User, error) {
	if err == nil {
		return user, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	log.Error().Err(err).Msg("[UserRepository] database error")
	return nil, errors.New("database query failed")
}
