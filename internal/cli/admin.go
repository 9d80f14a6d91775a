package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sakif/codelab/internal/auth"
	"github.com/sakif/codelab/internal/service"
)

func newMigrateCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			// Opening the database migrates it.
			db, err := a.openDB()
			if err != nil {
				return err
			}
			defer db.Close()
			fmt.Fprintf(cmd.OutOrStdout(), "database %s is up to date\n", a.cfg.DB.Path)
			return nil
		},
	}
}

func newSeedCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Upsert exercises from a YAML catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("file")
			if path == "" {
				path = a.cfg.Catalog.File
			}
			if path == "" {
				return errors.New("no catalog given: pass --file or set catalog.file")
			}

			db, err := a.openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			return importCatalog(cmd, service.NewExerciseService(db, a.logger), path)
		},
	}
	cmd.Flags().StringP("file", "f", "", "catalog file")
	return cmd
}

func newTokenCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an API token for a user id",
		RunE: func(cmd *cobra.Command, args []string) error {
			user, _ := cmd.Flags().GetString("user")
			ttl, _ := cmd.Flags().GetDuration("ttl")

			tokens, err := auth.NewTokenService(a.cfg.Auth.JWTSecret, a.cfg.Auth.TokenTTL)
			if err != nil {
				return err
			}

			var token string
			if ttl > 0 {
				token, err = tokens.GenerateWithDuration(user, ttl)
			} else {
				token, err = tokens.Generate(user)
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringP("user", "u", "", "user id placed in the token subject")
	cmd.Flags().Duration("ttl", 0, "token lifetime (defaults to auth.token_ttl)")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
