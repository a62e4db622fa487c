package services

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/metacore/nftup/internal/core/ports/mocks"
	"github.com/metacore/nftup/pkg/workspace"
)

var fixedNow = time.Date(2024, 3, 9, 14, 30, 15, 42_000_000, time.UTC)

func fastPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
		Timeout:      time.Second,
	}
}

func newTestWorkspace(t *testing.T) *workspace.Workspace {
	t.Helper()
	ws := workspace.New(t.TempDir(), "", "")
	if err := ws.Initialize(); err != nil {
		t.Fatalf("failed to initialize workspace: %v", err)
	}
	return ws
}

func writeFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("image:"+name), 0644); err != nil {
			t.Fatal(err)
		}
	}
}

type testServices struct {
	pinner   *mocks.MockPinner
	syncer   *mocks.MockSyncer
	upload   *UploadService
	retry    *RetryService
	metadata *MetadataService
	recorder *RecorderService
	inspect  *InspectorService
}

func newTestServices(opts MetadataOptions) *testServices {
	pinner := mocks.NewMockPinner()
	syncer := &mocks.MockSyncer{}
	inspect := NewInspectorService(nil)
	return &testServices{
		pinner:   pinner,
		syncer:   syncer,
		upload:   NewUploadService(pinner, nil),
		retry:    NewRetryService(fastPolicy(), nil),
		metadata: NewMetadataService(opts, inspect, syncer, nil),
		recorder: NewRecorderService("", nil),
		inspect:  inspect,
	}
}

func listNames(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("failed to read %s: %v", dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}
