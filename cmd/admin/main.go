package main

import (
	"Vitrin/internal/api/config"
	"Vitrin/internal/pkg/consts"
	"Vitrin/internal/pkg/database"
	"Vitrin/internal/pkg/logger"
	"Vitrin/internal/repository"
	"Vitrin/internal/service"
	"context"
	log "log/slog"
	"os"
	"time"

	"github.com/spf13/pflag"
)

// 创建后台管理员账号
//
//	go run ./cmd/admin --username alice --password secret123 --roles ADMIN
func main() {
	username := pflag.String("username", "", "admin username")
	password := pflag.String("password", "", "admin password, at least 6 characters")
	roles := pflag.StringSlice("roles", []string{consts.RoleAdmin}, "comma separated roles")
	pflag.Parse()

	if *username == "" || *password == "" {
		pflag.Usage()
		os.Exit(2)
	}

	if err := config.LoadConfig(); err != nil {
		log.Error("Fatal error: failed to load configuration", "err", err)
		os.Exit(1)
	}
	logger.InitLogger()

	// 首次部署时表可能还不存在
	dbCfg := config.Cfg.DB
	dbCfg.AutoMigrate = true
	db, err := database.NewGormDB(&dbCfg)
	if err != nil {
		log.Error("Fatal error: failed to create database connection", "err", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	adminService := service.NewAdminService(repository.NewAdminRepository(db))
	admin, err := adminService.CreateAdmin(ctx, *username, *password, *roles)
	if err != nil {
		log.Error("create admin failed", "username", *username, "err", err)
		os.Exit(1)
	}
	log.Info("admin created", "admin_id", admin.ID, "username", admin.Username, "roles", admin.Roles)
}
