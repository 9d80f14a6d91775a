package cli

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/sakif/codelab/internal/auth"
	"github.com/sakif/codelab/internal/catalog"
	"github.com/sakif/codelab/internal/grading"
	"github.com/sakif/codelab/internal/repository/sqlite"
	"github.com/sakif/codelab/internal/sandbox"
	"github.com/sakif/codelab/internal/server"
	"github.com/sakif/codelab/internal/service"
)

func newServeCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serve(cmd)
		},
	}
	cmd.Flags().Int("port", 0, "override http.port")
	_ = a.v.BindPFlag("http.port", cmd.Flags().Lookup("port"))
	return cmd
}

func (a *app) serve(cmd *cobra.Command) error {
	if a.cfg.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret is required to serve the API (set CODELAB_AUTH_JWT_SECRET)")
	}

	db, err := a.openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	exercises := service.NewExerciseService(db, a.logger)
	if a.cfg.Catalog.File != "" {
		if err := importCatalog(cmd, exercises, a.cfg.Catalog.File); err != nil {
			return err
		}
	}

	tokens, err := auth.NewTokenService(a.cfg.Auth.JWTSecret, a.cfg.Auth.TokenTTL)
	if err != nil {
		return err
	}

	srv := server.NewAPI(server.Config{
		Port:         a.cfg.HTTP.Port,
		ReadTimeout:  a.cfg.HTTP.ReadTimeout,
		WriteTimeout: a.cfg.HTTP.WriteTimeout,
		CORSOrigins:  a.cfg.HTTP.CORSOrigins,
	}, a.apiDeps(db, exercises, tokens), a.logger)

	a.logger.Info("sandbox backends configured",
		slog.String("managed_url", a.cfg.Sandbox.ManagedURL),
		slog.String("custom_url", a.cfg.Sandbox.CustomURL),
		slog.Int("grading_concurrency", a.cfg.Grading.Concurrency),
	)
	return srv.Start()
}

func (a *app) apiDeps(db *sqlite.DB, exercises *service.ExerciseService, tokens *auth.TokenService) server.APIDeps {
	sc := a.cfg.Sandbox
	dispatcher := sandbox.NewFromConfig(sandbox.Config{
		Managed: sandbox.ManagedConfig{
			URL:                sc.ManagedURL,
			Language:           sc.Language,
			Version:            sc.Version,
			FileName:           sc.FileName,
			CompileTimeoutMS:   sc.CompileTimeoutMS,
			RunTimeoutMS:       sc.RunTimeoutMS,
			CompileMemoryLimit: sc.CompileMemoryLimit,
			RunMemoryLimit:     sc.RunMemoryLimit,
		},
		CustomURL:      sc.CustomURL,
		RequestTimeout: sc.RequestTimeout,
	}, a.logger)

	grader := grading.NewRunner(a.cfg.Grading.Concurrency, a.logger)
	executions := service.NewExecutionService(db, db, dispatcher, grader, a.logger)
	submissions := service.NewSubmissionService(db, db, executions, a.cfg.Grading.EmptySuiteCorrect, a.logger)

	return server.APIDeps{
		Executions:  executions,
		Submissions: submissions,
		Exercises:   exercises,
		Tokens:      tokens,
		Ping:        db.Ping,
	}
}

func importCatalog(cmd *cobra.Command, exercises *service.ExerciseService, path string) error {
	list, err := catalog.Load(path)
	if err != nil {
		return err
	}
	n, err := exercises.Import(cmd.Context(), list)
	if err != nil {
		return fmt.Errorf("importing %s: %w", path, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "imported %d exercises from %s\n", n, path)
	return nil
}
