package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"mostrador/internal/auth"
	"mostrador/internal/domain"
	"mostrador/internal/user/repository"
)

var userFlags struct {
	name     string
	email    string
	password string
	role     string
}

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage staff accounts",
}

var userCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a staff account that can log in",
	Args:  cobra.NoArgs,
	RunE:  runUserCreate,
}

func init() {
	f := userCreateCmd.Flags()
	f.StringVar(&userFlags.name, "name", "", "display name, used in folios and audit entries")
	f.StringVar(&userFlags.email, "email", "", "login email")
	f.StringVar(&userFlags.password, "password", "", "login password")
	f.StringVar(&userFlags.role, "role", string(domain.RoleSalesperson), "ADMIN or SALESPERSON")
	for _, name := range []string{"name", "email", "password"} {
		_ = userCreateCmd.MarkFlagRequired(name)
	}

	userCmd.AddCommand(userCreateCmd)
	rootCmd.AddCommand(userCmd)
}

func runUserCreate(cmd *cobra.Command, _ []string) error {
	role := domain.Role(strings.ToUpper(strings.TrimSpace(userFlags.role)))
	if !role.Valid() {
		return fmt.Errorf("invalid role %q: must be ADMIN or SALESPERSON", userFlags.role)
	}
	name := strings.TrimSpace(userFlags.name)
	if name == "" {
		return fmt.Errorf("name must not be empty")
	}
	if len(userFlags.password) < 8 {
		return fmt.Errorf("password must be at least 8 characters")
	}

	_, zapLogger, db, err := bootstrap()
	if err != nil {
		return err
	}
	defer db.Close()
	defer zapLogger.Sync()

	hash, err := auth.HashPassword(userFlags.password)
	if err != nil {
		return err
	}

	id, err := repository.NewMySQLUserRepository(db).Insert(cmd.Context(), &domain.User{
		Name:         name,
		Email:        userFlags.email,
		PasswordHash: hash,
		Role:         role,
	})
	if err != nil {
		return err
	}

	zapLogger.Info("user created", zap.Uint("userId", id), zap.String("name", name), zap.String("role", string(role)))
	return nil
}
