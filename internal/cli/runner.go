package cli

import (
	"github.com/spf13/cobra"

	"github.com/sakif/codelab/internal/executor/docker"
	"github.com/sakif/codelab/internal/server"
)

func newRunnerCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runner",
		Short: "Start the bundled custom sandbox backend (needs a Docker daemon)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runner()
		},
	}
	cmd.Flags().Int("port", 0, "override runner.port")
	_ = a.v.BindPFlag("runner.port", cmd.Flags().Lookup("port"))
	return cmd
}

func (a *app) runner() error {
	rc := a.cfg.Runner
	exec, err := docker.New(docker.ConfigFromLimits(rc.Image, rc.MemoryLimitMB, rc.CPULimit, rc.Timeout, rc.PoolSize), a.logger)
	if err != nil {
		return err
	}
	defer exec.Close()

	srv := server.NewRunner(server.Config{
		Port:         rc.Port,
		ReadTimeout:  a.cfg.HTTP.ReadTimeout,
		WriteTimeout: a.cfg.HTTP.WriteTimeout,
	}, exec, a.logger)
	return srv.Start()
}
