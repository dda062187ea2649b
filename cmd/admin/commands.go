package main

import (
	"context"
	"fmt"
	"strconv"
	"text/tabwriter"
	"time"

	"recipebox/internal/database"
	"recipebox/internal/repository"
	"recipebox/internal/service"
	"recipebox/internal/validation"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// connector opens the database lazily so --help works without one.
type connector func() (*gorm.DB, error)

func newRootCommand(connect connector) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "recipebox-admin",
		Short:         "Recipebox administration",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	cmd.AddCommand(newUsersCommand(connect))
	cmd.AddCommand(newMigrateCommand(connect))
	return cmd
}

func newUsersCommand(connect connector) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage user accounts",
	}

	var email, password string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a user account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := connect()
			if err != nil {
				return err
			}
			auth := service.NewAuthService(repository.NewUserRepository(db), nil, service.AuthConfig{
				Secret: "admin-cli-does-not-issue-tokens",
				MaxAge: time.Hour,
			})
			user, err := auth.Register(cmd.Context(), validation.RegistrationInput{
				Email:           email,
				Password:        password,
				ConfirmPassword: password,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✅ Created user %s (ID: %s)\n", user.Email, user.ID)
			return nil
		},
	}
	create.Flags().StringVar(&email, "email", "", "account email")
	create.Flags().StringVar(&password, "password", "", "account password (6-32 characters)")
	_ = create.MarkFlagRequired("email")
	_ = create.MarkFlagRequired("password")

	var limit, offset int
	list := &cobra.Command{
		Use:   "list",
		Short: "List user accounts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := connect()
			if err != nil {
				return err
			}
			users, err := repository.NewUserRepository(db).List(cmd.Context(), limit, offset)
			if err != nil {
				return err
			}
			if len(users) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No users found")
				return nil
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tEMAIL\tCREATED")
			for _, u := range users {
				fmt.Fprintf(w, "%s\t%s\t%s\n", u.ID, u.Email, u.CreatedAt.Format(time.RFC3339))
			}
			return w.Flush()
		},
	}
	list.Flags().IntVar(&limit, "limit", 50, "maximum users to show")
	list.Flags().IntVar(&offset, "offset", 0, "users to skip")

	cmd.AddCommand(create, list)
	return cmd
}

func newMigrateCommand(connect connector) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply, inspect or roll back SQL migrations",
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := connect()
			if err != nil {
				return err
			}
			if err := database.RunMigrations(ctxOf(cmd), db); err != nil {
				return fmt.Errorf("sql migrations failed: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "sql migrations applied")
			return nil
		},
	}

	status := &cobra.Command{
		Use:   "status",
		Short: "Show applied and pending migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := connect()
			if err != nil {
				return err
			}
			all, err := database.Status(ctxOf(cmd), db)
			if err != nil {
				return fmt.Errorf("schema status failed: %w", err)
			}
			for _, m := range all {
				state := "pending"
				if m.Applied {
					state = "applied"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", state, m.Migration)
			}
			return nil
		},
	}

	rollback := &cobra.Command{
		Use:   "rollback <version>",
		Short: "Roll back one applied migration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			version, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid version %q: %w", args[0], err)
			}
			db, err := connect()
			if err != nil {
				return err
			}
			if err := database.RollbackMigration(ctxOf(cmd), db, version); err != nil {
				return fmt.Errorf("rollback failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "rolled back migration %d\n", version)
			return nil
		},
	}

	cmd.AddCommand(up, status, rollback)
	return cmd
}

func ctxOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
