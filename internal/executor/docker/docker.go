// Package docker runs Python programs in throwaway containers drawn from a
// pre-warmed pool.
package docker

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"

	"github.com/sakif/codelab/internal/executor"
)

var _ executor.Executor = (*Executor)(nil)

type Executor struct {
	cli    *client.Client
	config Config
	logger *slog.Logger
	pool   *Pool
}

// New connects to the Docker daemon from the environment, pulls the image
// and starts the warm pool.
func New(cfg Config, logger *slog.Logger) (*Executor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("docker: creating client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	logger.Info("ensuring docker image is available", slog.String("image", cfg.Image))
	reader, err := cli.ImagePull(ctx, cfg.Image, image.PullOptions{})
	if err != nil {
		cli.Close()
		return nil, fmt.Errorf("docker: pulling image %s: %w", cfg.Image, err)
	}
	defer reader.Close()
	// The pull only completes once the progress stream is drained.
	if _, err := io.Copy(io.Discard, reader); err != nil {
		cli.Close()
		return nil, fmt.Errorf("docker: pulling image %s: %w", cfg.Image, err)
	}
	logger.Info("docker image is ready", slog.String("image", cfg.Image))

	e := &Executor{
		cli:    cli,
		config: cfg,
		logger: logger,
		pool:   NewPool(cli, cfg, logger),
	}
	e.pool.Start()

	return e, nil
}

func (e *Executor) Close() error {
	e.pool.Stop()
	return e.cli.Close()
}

// Execute runs job.Code with `python -c`, streaming job.Stdin into the
// process. A run that outlives the configured timeout is abandoned with exit
// code 124 and the timeout message appended to stderr.
func (e *Executor) Execute(ctx context.Context, job executor.Job) (*executor.Result, error) {
	start := time.Now()

	containerID, err := e.pool.GetContainer(ctx)
	if err != nil {
		return nil, fmt.Errorf("docker: waiting for a container: %w", err)
	}

	// Containers are single use.
	defer e.pool.removeContainer(containerID)

	runCtx, cancel := context.WithTimeout(ctx, e.config.Timeout)
	defer cancel()

	execResp, err := e.cli.ContainerExecCreate(runCtx, containerID, container.ExecOptions{
		AttachStdin:  true,
		AttachStdout: true,
		AttachStderr: true,
		Cmd:          []string{"python", "-c", job.Code},
	})
	if err != nil {
		return nil, fmt.Errorf("docker: creating exec: %w", err)
	}

	attachResp, err := e.cli.ContainerExecAttach(runCtx, execResp.ID, container.ExecStartOptions{})
	if err != nil {
		return nil, fmt.Errorf("docker: attaching to exec: %w", err)
	}
	defer attachResp.Close()

	go func() {
		if job.Stdin != "" {
			if _, err := io.Copy(attachResp.Conn, strings.NewReader(job.Stdin)); err != nil {
				e.logger.Debug("stdin write interrupted", slog.String("error", err.Error()))
			}
		}
		_ = attachResp.CloseWrite()
	}()

	var stdout, stderr bytes.Buffer
	done := make(chan struct{})
	go func() {
		_, _ = stdcopy.StdCopy(&stdout, &stderr, attachResp.Reader)
		close(done)
	}()

	exitCode := 0
	select {
	case <-done:
		inspect, err := e.cli.ContainerExecInspect(ctx, execResp.ID)
		if err != nil {
			e.logger.Warn("failed to inspect exec", slog.String("error", err.Error()))
		} else {
			exitCode = inspect.ExitCode
		}
	case <-runCtx.Done():
		// Closing the hijacked connection makes StdCopy return.
		attachResp.Close()
		<-done
		exitCode = executor.ExitCodeTimeout
		stderr.WriteString("\n" + executor.TimeoutMessage + "\n")
	}

	result := &executor.Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: exitCode,
		Duration: time.Since(start),
	}

	e.logger.Debug("program finished",
		slog.String("container", containerID),
		slog.Int("exit_code", result.ExitCode),
		slog.Duration("duration", result.Duration),
	)

	return result, nil
}
