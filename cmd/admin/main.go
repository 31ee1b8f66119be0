package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"
	"gorm.io/gorm"

	"kidsfolio/internal/auth"
	"kidsfolio/internal/config"
	"kidsfolio/internal/content"
	"kidsfolio/internal/database"
)

const initialPasswordLength = 24

func main() {
	cmd := &cli.Command{
		Name:  "kidsfolio-admin",
		Usage: "后台管理员账号维护工具",
		Flags: databaseFlags(),
		Commands: []*cli.Command{
			{
				Name:   "create-admin",
				Usage:  "创建初始管理员账号（随机密码，首次登录需改密）",
				Action: createAdmin,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "username",
						Aliases:  []string{"u"},
						Usage:    "管理员用户名",
						Required: true,
					},
				},
			},
			{
				Name:   "reset-password",
				Usage:  "重置管理员密码为新的随机密码",
				Action: resetPassword,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "username",
						Aliases:  []string{"u"},
						Usage:    "管理员用户名",
						Required: true,
					},
				},
			},
			{
				Name:   "migrate",
				Usage:  "建表（包括全部内容栏目表）",
				Action: migrate,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("admin command failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func databaseFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "db-host", Value: "localhost", Usage: "数据库 Host", Sources: cli.EnvVars("DATABASE_HOST")},
		&cli.IntFlag{Name: "db-port", Value: 5432, Usage: "数据库 Port", Sources: cli.EnvVars("DATABASE_PORT")},
		&cli.StringFlag{Name: "db-name", Usage: "数据库名", Sources: cli.EnvVars("POSTGRES_DB", "DB_NAME")},
		&cli.StringFlag{Name: "db-user", Usage: "数据库用户", Sources: cli.EnvVars("POSTGRES_USER", "DB_USER")},
		&cli.StringFlag{Name: "db-password", Usage: "数据库密码", Sources: cli.EnvVars("POSTGRES_PASSWORD", "DB_PASSWORD")},
		&cli.StringFlag{Name: "db-sslmode", Value: "disable", Usage: "数据库 SSLMODE", Sources: cli.EnvVars("DATABASE_SSLMODE")},
	}
}

func databaseConfig(cmd *cli.Command) (config.DatabaseConfig, error) {
	cfg := config.DatabaseConfig{
		Host:     strings.TrimSpace(cmd.String("db-host")),
		Port:     int(cmd.Int("db-port")),
		Name:     strings.TrimSpace(cmd.String("db-name")),
		User:     strings.TrimSpace(cmd.String("db-user")),
		Password: cmd.String("db-password"),
		SSLMode:  strings.TrimSpace(cmd.String("db-sslmode")),
	}
	switch {
	case cfg.Name == "":
		return cfg, errors.New("database name is required (POSTGRES_DB)")
	case cfg.User == "":
		return cfg, errors.New("database user is required (POSTGRES_USER)")
	case cfg.Password == "":
		return cfg, errors.New("database password is required (POSTGRES_PASSWORD)")
	case cfg.Port <= 0:
		return cfg, errors.New("database port must be positive")
	}
	return cfg, nil
}

func openDatabase(cmd *cli.Command) (*gorm.DB, error) {
	cfg, err := databaseConfig(cmd)
	if err != nil {
		return nil, fmt.Errorf("load database config: %w", err)
	}
	db, err := database.InitDatabase(cfg)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db, content.Tables()); err != nil {
		return nil, err
	}
	return db, nil
}

func migrate(_ context.Context, cmd *cli.Command) error {
	if _, err := openDatabase(cmd); err != nil {
		return err
	}
	fmt.Println("数据库表已就绪。")
	return nil
}

func createAdmin(ctx context.Context, cmd *cli.Command) error {
	username := strings.TrimSpace(cmd.String("username"))
	db, err := openDatabase(cmd)
	if err != nil {
		return err
	}
	users := database.NewUserRepository(db)

	if _, err := users.FindByUsername(ctx, username); err == nil {
		return fmt.Errorf("user %q already exists", username)
	} else if !errors.Is(err, database.ErrUserNotFound) {
		return fmt.Errorf("query user: %w", err)
	}

	password, hashed, err := newInitialPassword()
	if err != nil {
		return err
	}
	user := database.User{
		Username:           username,
		PasswordHash:       hashed,
		MustChangePassword: true,
	}
	if err := users.Create(ctx, &user); err != nil {
		return fmt.Errorf("create user: %w", err)
	}

	fmt.Printf("已创建初始管理员账号（首次登录需强制改密）：\n")
	printCredentials(username, password)
	return nil
}

func resetPassword(ctx context.Context, cmd *cli.Command) error {
	username := strings.TrimSpace(cmd.String("username"))
	db, err := openDatabase(cmd)
	if err != nil {
		return err
	}
	users := database.NewUserRepository(db)

	user, err := users.FindByUsername(ctx, username)
	if err != nil {
		return fmt.Errorf("query user %q: %w", username, err)
	}

	password, hashed, err := newInitialPassword()
	if err != nil {
		return err
	}
	if err := users.UpdatePassword(ctx, user.ID, hashed, true); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	fmt.Printf("已重置管理员密码（下次登录需强制改密）：\n")
	printCredentials(username, password)
	return nil
}

func newInitialPassword() (string, string, error) {
	password, err := auth.GenerateRandomPassword(initialPasswordLength)
	if err != nil {
		return "", "", err
	}
	hashed, err := auth.HashPassword(password)
	if err != nil {
		return "", "", err
	}
	return password, hashed, nil
}

func printCredentials(username, password string) {
	fmt.Printf("用户名: %s\n", username)
	fmt.Printf("初始密码: %s\n", password)
	fmt.Printf("提示：请立即登录并修改密码（该密码仅显示一次）。\n")
}
