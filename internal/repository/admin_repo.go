package repository

import (
	"Vitrin/internal/model"
	"context"
	"time"

	"gorm.io/gorm"
)

type AdminRepo interface {
	CreateAdmin(ctx context.Context, admin *model.Admin) error
	GetAdminByUsername(ctx context.Context, username string) (*model.Admin, error)
	GetAdmin(ctx context.Context, id uint64) (*model.Admin, error)
	TouchLastLogin(ctx context.Context, id uint64) error
}

type AdminRepoImpl struct {
	db *gorm.DB
}

func NewAdminRepository(db *gorm.DB) AdminRepo {
	return &AdminRepoImpl{db: db}
}

func (s *AdminRepoImpl) CreateAdmin(ctx context.Context, admin *model.Admin) error {
	return translateError(s.db.WithContext(ctx).Create(admin).Error)
}

func (s *AdminRepoImpl) GetAdminByUsername(ctx context.Context, username string) (*model.Admin, error) {
	var admin model.Admin
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&admin).Error; err != nil {
		return nil, err
	}
	return &admin, nil
}

func (s *AdminRepoImpl) GetAdmin(ctx context.Context, id uint64) (*model.Admin, error) {
	var admin model.Admin
	if err := s.db.WithContext(ctx).First(&admin, id).Error; err != nil {
		return nil, err
	}
	return &admin, nil
}

func (s *AdminRepoImpl) TouchLastLogin(ctx context.Context, id uint64) error {
	return s.db.WithContext(ctx).Model(&model.Admin{}).Where("id = ?", id).Update("last_login", time.Now()).Error
}
