// Package fssync asks the operating system to flush buffered writes to disk.
package fssync

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
)

// Syncer runs the platform sync command
type Syncer struct {
	command string
}

// New returns a Syncer using the system "sync" binary
func New() *Syncer {
	return &Syncer{command: "sync"}
}

// Sync flushes filesystem buffers. Platforms without a sync command are a no-op.
func (s *Syncer) Sync(ctx context.Context) error {
	if runtime.GOOS == "windows" {
		return nil
	}
	if err := exec.CommandContext(ctx, s.command).Run(); err != nil {
		return fmt.Errorf("failed to run %s: %w", s.command, err)
	}
	return nil
}
