package service

import (
	"Vitrin/internal/api/config"
	"Vitrin/internal/api/dto"
	"Vitrin/internal/model"
	"Vitrin/internal/pkg/consts"
	"Vitrin/internal/pkg/security"
	"Vitrin/internal/repository"
	"context"
	"errors"
	"testing"

	"gorm.io/gorm"
)

type fakeAdminRepo struct {
	admins  map[string]*model.Admin
	touched uint64
}

func (f *fakeAdminRepo) CreateAdmin(_ context.Context, admin *model.Admin) error {
	if _, ok := f.admins[admin.Username]; ok {
		return repository.ErrDuplicateKey
	}
	admin.ID = uint64(len(f.admins) + 1)
	f.admins[admin.Username] = admin
	return nil
}

func (f *fakeAdminRepo) GetAdminByUsername(_ context.Context, username string) (*model.Admin, error) {
	if a, ok := f.admins[username]; ok {
		return a, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeAdminRepo) GetAdmin(_ context.Context, id uint64) (*model.Admin, error) {
	for _, a := range f.admins {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeAdminRepo) TouchLastLogin(_ context.Context, id uint64) error {
	f.touched = id
	return nil
}

func TestAdminLoginLogout(t *testing.T) {
	mr := setupRedis(t)
	if err := security.InitJWT(config.JWTConfig{Secret: "unit-test", ExpireHours: 1}); err != nil {
		t.Fatal(err)
	}
	repo := &fakeAdminRepo{admins: map[string]*model.Admin{}}
	svc := NewAdminService(repo)
	ctx := context.Background()

	admin, err := svc.CreateAdmin(ctx, "editor", "correct-horse", nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(admin.Roles) != 1 || admin.Roles[0] != consts.RoleAdmin || admin.Password == "correct-horse" {
		t.Fatalf("unexpected admin %+v", admin)
	}
	if _, err = svc.CreateAdmin(ctx, "editor", "another-pass", nil); !errors.Is(err, ErrAdminExist) {
		t.Fatalf("expected ErrAdminExist, got %v", err)
	}

	if _, err = svc.Login(ctx, &dto.LoginDTO{Username: "editor", Password: "wrong-pass"}); !errors.Is(err, ErrPasswordIncorrect) {
		t.Fatalf("expected ErrPasswordIncorrect, got %v", err)
	}
	if _, err = svc.Login(ctx, &dto.LoginDTO{Username: "nobody", Password: "whatever"}); !errors.Is(err, ErrPasswordIncorrect) {
		t.Fatalf("unknown user must look like a wrong password, got %v", err)
	}

	tok, err := svc.Login(ctx, &dto.LoginDTO{Username: "editor", Password: "correct-horse"})
	if err != nil {
		t.Fatal(err)
	}
	if repo.touched != admin.ID || tok.Token == "" {
		t.Fatalf("unexpected login result %+v", tok)
	}

	if err = svc.Logout(ctx, tok.Token); err != nil {
		t.Fatal(err)
	}
	sig, _ := security.ExtractSignature(tok.Token)
	if !mr.Exists(consts.TokenBlacklistKey + sig) {
		t.Fatal("signature must be blacklisted")
	}
	if ttl := mr.TTL(consts.TokenBlacklistKey + sig); ttl <= 0 {
		t.Fatalf("blacklist entry must expire, ttl %v", ttl)
	}
}
