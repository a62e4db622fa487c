package services

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/metacore/nftup/internal/core/domain"
)

func TestPrepareRunDirIsExclusive(t *testing.T) {
	rec := NewRecorderService("", nil)
	runDir := filepath.Join(t.TempDir(), "output", "batch-upload-x")

	if err := rec.PrepareRunDir(runDir); err != nil {
		t.Fatalf("PrepareRunDir failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(runDir, ResultsDirName)); err != nil {
		t.Errorf("expected results directory: %v", err)
	}

	err := rec.PrepareRunDir(runDir)
	if !errors.Is(err, domain.ErrIO) {
		t.Errorf("expected IO error for existing run dir, got %v", err)
	}
}

func TestRecordBatch(t *testing.T) {
	rec := NewRecorderService("https://gw.example/ipfs", nil)
	runDir := filepath.Join(t.TempDir(), "batch-upload-x")
	if err := rec.PrepareRunDir(runDir); err != nil {
		t.Fatal(err)
	}

	metaDir := filepath.Join(t.TempDir(), "meta")
	writeFiles(t, metaDir, "1", "2")
	if err := os.Mkdir(filepath.Join(metaDir, "nested"), 0755); err != nil {
		t.Fatal(err)
	}

	record := domain.RunRecord{
		RunID:                    "run-1",
		Mode:                     domain.ModeBatch,
		Timestamp:                fixedNow,
		ImagesCID:                "bafyimages",
		MetadataWithoutSuffixCID: "bafymeta",
		TotalFiles:               2,
		Status:                   domain.StatusCompleted,
	}

	resp, err := rec.Record(context.Background(), RecordRequest{Record: record, RunDir: runDir, MetadataDir: metaDir})
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if resp.Copied != 2 {
		t.Errorf("expected 2 copied files, got %d", resp.Copied)
	}

	data, err := os.ReadFile(resp.ResultPath)
	if err != nil {
		t.Fatal(err)
	}
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		t.Fatalf("result is not valid JSON: %v", err)
	}
	if fields["images_cid"] != "bafyimages" {
		t.Errorf("expected images_cid bafyimages, got %v", fields["images_cid"])
	}
	if fields["status"] != "completed" {
		t.Errorf("expected status completed, got %v", fields["status"])
	}
	if with, ok := fields["metadata_with_suffix_cid"]; !ok || with != nil {
		t.Errorf("expected null with-suffix CID, got %v (present %v)", with, ok)
	}
	if _, ok := fields["token_id"]; ok {
		t.Error("expected token_id to be omitted in batch mode")
	}

	readme, err := os.ReadFile(resp.ReadmePath)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		"# Batch Upload Results",
		"**Metadata with suffix CID**: `N/A`",
		"Use `ipfs://bafymeta/`",
		"https://gw.example/ipfs/bafyimages/",
	} {
		if !strings.Contains(string(readme), want) {
			t.Errorf("expected README to contain %q, got:\n%s", want, readme)
		}
	}

	entries, _ := os.ReadDir(runDir)
	for _, e := range entries {
		if strings.Contains(e.Name(), ".tmp-") {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}
}

func TestReadmeSingle(t *testing.T) {
	rec := NewRecorderService("", nil)
	id := uint64(7)
	readme := rec.Readme(domain.RunRecord{
		Mode:        domain.ModeSingle,
		Timestamp:   fixedNow,
		ImageCID:    "bafyimg",
		MetadataCID: "bafymeta",
		TokenID:     &id,
	})

	for _, want := range []string{
		"# Single File Upload Results",
		"**Token ID**: 7",
		"Token URI for this NFT is: `ipfs://bafymeta`",
		DefaultGatewayURL + "bafyimg",
	} {
		if !strings.Contains(readme, want) {
			t.Errorf("expected README to contain %q, got:\n%s", want, readme)
		}
	}
}

func TestWriteFileAtomicReplaces(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	if err := os.WriteFile(path, []byte("old"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := WriteFileAtomic(path, []byte("new"), 0600); err != nil {
		t.Fatalf("WriteFileAtomic failed: %v", err)
	}

	data, _ := os.ReadFile(path)
	if string(data) != "new" {
		t.Errorf("expected 'new', got %q", data)
	}
	info, _ := os.Stat(path)
	if info.Mode().Perm() != 0600 {
		t.Errorf("expected mode 0600, got %v", info.Mode().Perm())
	}
}
