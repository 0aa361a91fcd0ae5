package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/k4sper1love/school-service/internal/cache"
	"github.com/k4sper1love/school-service/internal/models"
	"github.com/k4sper1love/school-service/internal/repositories/postgres"
	"github.com/k4sper1love/school-service/internal/services"
	"github.com/k4sper1love/school-service/internal/validator"
)

var (
	adminEmail    string
	adminPassword string
	adminUsername string
)

var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Register an administrator account",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := loadEnvironment()
		if err != nil {
			return err
		}
		defer env.close()

		users := services.NewUserService(services.Dependencies{
			Repo:      postgres.NewPostgreSQLRepository(env.db),
			Cache:     cache.NewLayer(nil, env.cfg.CacheTTL, env.logger),
			Logger:    env.logger,
			Validator: validator.NewBusinessValidator(),
		})

		user, err := users.Register(cmd.Context(), &models.UserCreateRequest{
			Email:    adminEmail,
			Username: adminUsername,
			Password: adminPassword,
			Role:     string(models.RoleAdmin),
		})
		if err != nil {
			return fmt.Errorf("failed to create admin: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Created admin %s (id %d)\n", user.Email, user.ID)
		return nil
	},
}

func init() {
	createAdminCmd.Flags().StringVar(&adminEmail, "email", "", "admin email address")
	createAdminCmd.Flags().StringVar(&adminPassword, "password", "", "admin password (min 8 characters)")
	createAdminCmd.Flags().StringVar(&adminUsername, "username", "", "username, defaults to the local part of the email")
	_ = createAdminCmd.MarkFlagRequired("email")
	_ = createAdminCmd.MarkFlagRequired("password")
}
