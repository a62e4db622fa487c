package mocks

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// PinCall records one invocation of the mock pinner
type PinCall struct {
	Kind string // "file" or "directory"
	Path string
	// Files holds the file names present in a pinned directory at call time
	Files []string
}

// MockPinner is a mock implementation of the Pinner interface for testing.
// CIDs are derived from the path base name so they are stable across calls.
type MockPinner struct {
	mu    sync.Mutex
	calls []PinCall

	// Errors are returned in order, one per call, before any success
	Errors []error
	// CIDs overrides the generated CID for a given path base name
	CIDs map[string]string
	// Block makes every call wait for context cancellation
	Block bool
}

// NewMockPinner creates a new mock pinner
func NewMockPinner() *MockPinner {
	return &MockPinner{CIDs: make(map[string]string)}
}

// PinFile records the call and returns a fake CID
func (m *MockPinner) PinFile(ctx context.Context, path string) (string, error) {
	return m.pin(ctx, PinCall{Kind: "file", Path: path})
}

// PinDirectory records the call along with the directory listing
func (m *MockPinner) PinDirectory(ctx context.Context, dir string) (string, error) {
	call := PinCall{Kind: "directory", Path: dir}
	if entries, err := os.ReadDir(dir); err == nil {
		for _, e := range entries {
			call.Files = append(call.Files, e.Name())
		}
	}
	return m.pin(ctx, call)
}

func (m *MockPinner) pin(ctx context.Context, call PinCall) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, call)
	var err error
	if len(m.Errors) > 0 {
		err = m.Errors[0]
		m.Errors = m.Errors[1:]
	}
	block := m.Block
	m.mu.Unlock()

	if block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if err != nil {
		return "", err
	}
	return m.CIDFor(call.Path), nil
}

// CIDFor returns the CID the mock reports for path
func (m *MockPinner) CIDFor(path string) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	base := filepath.Base(path)
	if cid, ok := m.CIDs[base]; ok {
		return cid
	}
	sum := sha256.Sum256([]byte(base))
	return fmt.Sprintf("bafymock%s", hex.EncodeToString(sum[:8]))
}

// Calls returns a copy of every recorded call
func (m *MockPinner) Calls() []PinCall {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]PinCall, len(m.calls))
	copy(out, m.calls)
	return out
}

// MockSyncer counts sync requests and optionally fails them
type MockSyncer struct {
	mu    sync.Mutex
	Count int
	Err   error
}

// Sync records the request
func (s *MockSyncer) Sync(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Count++
	return s.Err
}

// MockAuthenticator returns Err from every Authenticate call
type MockAuthenticator struct {
	Err   error
	Calls int
}

// Authenticate records the call
func (a *MockAuthenticator) Authenticate(ctx context.Context) error {
	a.Calls++
	return a.Err
}
