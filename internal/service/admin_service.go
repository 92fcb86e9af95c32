package service

import (
	"Vitrin/internal/api/dto"
	"Vitrin/internal/model"
	"Vitrin/internal/pkg/consts"
	"Vitrin/internal/pkg/redis"
	"Vitrin/internal/pkg/security"
	"Vitrin/internal/pkg/util"
	"Vitrin/internal/repository"
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"strings"
	"time"

	"gorm.io/gorm"
)

type AdminService interface {
	Login(ctx context.Context, req *dto.LoginDTO) (*dto.TokenDTO, error)
	Logout(ctx context.Context, token string) error
	CreateAdmin(ctx context.Context, username, password string, roles []string) (*model.Admin, error)
}

type adminServiceImpl struct {
	adminRepo repository.AdminRepo
}

func NewAdminService(adminRepo repository.AdminRepo) AdminService {
	return &adminServiceImpl{adminRepo: adminRepo}
}

// Login 用户名密码登录，用户不存在与密码错误返回同一个错误
func (s *adminServiceImpl) Login(ctx context.Context, req *dto.LoginDTO) (*dto.TokenDTO, error) {
	if err := util.ValidateDTO(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParamInvalid, err)
	}
	admin, err := s.adminRepo.GetAdminByUsername(ctx, strings.TrimSpace(req.Username))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPasswordIncorrect
	}
	if err != nil {
		return nil, err
	}
	if err = security.CheckPasswordHash(req.Password, admin.Password); err != nil {
		if errors.Is(err, security.ErrInvalidCredentials) {
			return nil, ErrPasswordIncorrect
		}
		return nil, err
	}

	token, err := security.GenerateToken(admin.ID, admin.Roles)
	if err != nil {
		return nil, err
	}
	if err = s.adminRepo.TouchLastLogin(ctx, admin.ID); err != nil {
		log.WarnContext(ctx, "update last login failed", "admin_id", admin.ID, "err", err)
	}
	log.InfoContext(ctx, "admin logged in", "admin_id", admin.ID)
	return &dto.TokenDTO{
		Token:     token,
		ExpiresAt: time.Now().Add(security.TokenTTL()).Unix(),
		Roles:     admin.Roles,
	}, nil
}

// Logout 签名加入黑名单直到 Token 过期
func (s *adminServiceImpl) Logout(ctx context.Context, token string) error {
	signature, err := security.ExtractSignature(token)
	if err != nil {
		return UnauthorizedError
	}
	ttl := security.TokenTTL()
	if claims, err := security.ValidateToken(token); err == nil && claims.ExpiresAt != nil {
		ttl = time.Until(claims.ExpiresAt.Time)
	}
	if ttl <= 0 {
		return nil
	}
	return redis.SetWithExpiration(ctx, consts.TokenBlacklistKey+signature, "1", ttl)
}

// CreateAdmin 初始化后台账号
func (s *adminServiceImpl) CreateAdmin(ctx context.Context, username, password string, roles []string) (*model.Admin, error) {
	req := &dto.LoginDTO{Username: strings.TrimSpace(username), Password: password}
	if err := util.ValidateDTO(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParamInvalid, err)
	}
	hash, err := security.HashPassword(password)
	if err != nil {
		return nil, err
	}
	if len(roles) == 0 {
		roles = []string{consts.RoleAdmin}
	}
	admin := &model.Admin{Username: req.Username, Password: hash, Roles: roles}
	if err = s.adminRepo.CreateAdmin(ctx, admin); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, ErrAdminExist
		}
		return nil, err
	}
	return admin, nil
}
