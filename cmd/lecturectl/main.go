// lecturectl 运维命令行：数据库迁移与初始管理员
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"lecture-scheduler/backend/config"
	"lecture-scheduler/backend/internal/model"
	"lecture-scheduler/backend/internal/repository"
	"lecture-scheduler/backend/internal/service"
	"lecture-scheduler/backend/pkg/database"
	applogger "lecture-scheduler/backend/pkg/logger"
)

type app struct {
	cfg    *config.Config
	logger *zap.Logger
	db     *gorm.DB
}

func main() {
	var configPath string
	a := &app{}

	root := &cobra.Command{
		Use:           "lecturectl",
		Short:         "Lecture scheduler maintenance commands",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(configPath)
		},
		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			a.close()
		},
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", os.Getenv("LECTURE_CONFIG"), "config file path")

	root.AddCommand(newMigrateCmd(a), newCreateAdminCmd(a))

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "lecturectl:", err)
		os.Exit(1)
	}
}

func (a *app) init(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("加载配置失败: %w", err)
	}
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		return fmt.Errorf("初始化日志失败: %w", err)
	}
	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		return fmt.Errorf("数据库连接失败: %w", err)
	}
	a.cfg, a.logger, a.db = cfg, logger, db
	return nil
}

func (a *app) close() {
	if a.db != nil {
		if sqlDB, err := a.db.DB(); err == nil {
			sqlDB.Close()
		}
	}
	if a.logger != nil {
		a.logger.Sync()
	}
}

// ── migrate ──

func newMigrateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back database migrations",
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sqlDB, err := a.db.DB()
			if err != nil {
				return err
			}
			return database.RunMigrations(sqlDB, a.logger)
		},
	}

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back the given number of migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if steps <= 0 {
				return errors.New("--steps must be positive")
			}
			sqlDB, err := a.db.DB()
			if err != nil {
				return err
			}
			return database.RollbackMigrations(sqlDB, steps, a.logger)
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")

	cmd.AddCommand(up, down)
	return cmd
}

// ── create-admin ──

func newCreateAdminCmd(a *app) *cobra.Command {
	var name, email, password string

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an administrator account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return createAdmin(cmd.Context(), a, name, email, password)
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&email, "email", "", "login email")
	cmd.Flags().StringVar(&password, "password", "", "initial password")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func createAdmin(ctx context.Context, a *app, name, email, password string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if len(password) < a.cfg.Auth.MinPasswordSize {
		return service.ErrPasswordTooShort
	}

	repo := repository.NewRepository(a.db)
	if _, err := repo.User.GetByEmail(ctx, email); err == nil {
		return service.ErrEmailExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hash, err := service.HashPassword(password, a.cfg.Auth.BcryptCost)
	if err != nil {
		return err
	}

	user := &model.User{
		Name:         strings.TrimSpace(name),
		Email:        email,
		PasswordHash: hash,
		Role:         model.RoleAdmin,
	}
	if err := repo.User.Create(ctx, user); err != nil {
		return err
	}

	a.logger.Info("管理员已创建", zap.String("user_id", user.UserID), zap.String("email", email))
	return nil
}
