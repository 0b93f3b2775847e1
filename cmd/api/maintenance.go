package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alokkksharmaa/EduSphere/internal/database"
	"github.com/alokkksharmaa/EduSphere/internal/jobs"
	"github.com/alokkksharmaa/EduSphere/internal/models"
	"github.com/alokkksharmaa/EduSphere/internal/service"
)

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			a, err := bootstrap(ctx, false)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := database.Migrate(ctx, a.db); err != nil {
				return err
			}
			a.log.Info().Msg("migrations applied")
			return nil
		},
	}
}

func purgeTokensCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "purge-tokens",
		Short: "Delete expired remember-me tokens now",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			a, err := bootstrap(ctx, false)
			if err != nil {
				return err
			}
			defer a.Close()

			n, err := jobs.NewScheduler(a.remember, "", a.metrics, a.log).RunPurge(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %d expired tokens\n", n)
			return nil
		},
	}
}

func userCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage accounts",
	}
	cmd.AddCommand(userCreateCmd())
	return cmd
}

func userCreateCmd() *cobra.Command {
	var (
		email    string
		username string
		role     string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an account; the password is read from stdin",
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && password == "" {
				return errors.New("password must be supplied on stdin")
			}
			password = strings.TrimRight(password, "\r\n")

			ctx := commandContext(cmd)
			a, err := bootstrap(ctx, false)
			if err != nil {
				return err
			}
			defer a.Close()

			user, err := a.authService.CreateUser(ctx, service.CreateUserInput{
				Email:    email,
				Username: username,
				Password: password,
				Role:     models.UserRole(role),
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created user %d (%s, %s)\n", user.ID, user.Email, user.Role)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Login email")
	cmd.Flags().StringVar(&username, "username", "", "Display name")
	cmd.Flags().StringVar(&role, "role", string(models.UserRoleStudent), "One of student, teacher, admin")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("username")

	return cmd
}
