package docker

import (
	"fmt"
	"time"
)

// Config holds the container limits for one runner process.
type Config struct {
	// Image must provide a `python` binary.
	Image string
	// MemoryLimit is in bytes.
	MemoryLimit int64
	// CPULimit is a fraction of one CPU.
	CPULimit float64
	// Timeout bounds a single program run.
	Timeout time.Duration
	// PoolSize is the number of pre-warmed containers kept ready.
	PoolSize int
}

func DefaultConfig() Config {
	return Config{
		Image:       "python:3.12-alpine",
		MemoryLimit: 128 * 1024 * 1024,
		CPULimit:    0.5,
		Timeout:     5 * time.Second,
		PoolSize:    3,
	}
}

// ConfigFromLimits converts the runner settings (memory in megabytes).
func ConfigFromLimits(image string, memoryMB int, cpu float64, timeout time.Duration, poolSize int) Config {
	return Config{
		Image:       image,
		MemoryLimit: int64(memoryMB) * 1024 * 1024,
		CPULimit:    cpu,
		Timeout:     timeout,
		PoolSize:    poolSize,
	}
}

func (c Config) Validate() error {
	switch {
	case c.Image == "":
		return fmt.Errorf("docker: image is required")
	case c.MemoryLimit <= 0:
		return fmt.Errorf("docker: memory limit must be positive, got %d", c.MemoryLimit)
	case c.CPULimit <= 0:
		return fmt.Errorf("docker: cpu limit must be positive, got %g", c.CPULimit)
	case c.Timeout <= 0:
		return fmt.Errorf("docker: timeout must be positive, got %s", c.Timeout)
	case c.PoolSize < 1:
		return fmt.Errorf("docker: pool size must be at least 1, got %d", c.PoolSize)
	}
	return nil
}
