package ports

import (
	"context"
)

// Pinner defines the port for the remote content-addressed pinning service.
// Implementations perform exactly one attempt per call; retrying is the caller's job.
type Pinner interface {
	// PinFile uploads a single file and returns its CID
	PinFile(ctx context.Context, path string) (string, error)

	// PinDirectory uploads a directory tree and returns the CID of its root
	PinDirectory(ctx context.Context, dir string) (string, error)
}

// Authenticator defines the port for verifying pinning credentials
type Authenticator interface {
	// Authenticate checks that the configured credentials are accepted
	Authenticate(ctx context.Context) error
}

// Syncer defines the port for flushing filesystem buffers before an upload.
// Failures are reported but never fatal to a run.
type Syncer interface {
	Sync(ctx context.Context) error
}
