package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Default directory names, relative to the workspace root
const (
	DefaultAssetsDir   = "assets"
	DefaultOutputDir   = "output"
	BatchImagesDirName = "batch_images"
	SingleImageDirName = "image"
)

// Workspace represents the directory layout a run reads from and writes to
type Workspace struct {
	RootPath        string
	AssetsPath      string
	BatchImagesPath string
	SingleImagePath string
	OutputPath      string
}

// New creates a Workspace. Relative assetsDir and outputDir are resolved against root.
func New(root, assetsDir, outputDir string) *Workspace {
	if assetsDir == "" {
		assetsDir = DefaultAssetsDir
	}
	if outputDir == "" {
		outputDir = DefaultOutputDir
	}

	assets := resolve(root, assetsDir)
	return &Workspace{
		RootPath:        root,
		AssetsPath:      assets,
		BatchImagesPath: filepath.Join(assets, BatchImagesDirName),
		SingleImagePath: filepath.Join(assets, SingleImageDirName),
		OutputPath:      resolve(root, outputDir),
	}
}

// Resolve makes a relative path absolute against the workspace root
func (w *Workspace) Resolve(path string) string {
	return resolve(w.RootPath, path)
}

func resolve(root, path string) string {
	if filepath.IsAbs(path) || root == "" {
		return path
	}
	return filepath.Join(root, path)
}

// RunTimestamp formats t for run directory names
// Format: 2006-01-02T15-04-05-000Z (UTC, millisecond precision)
func RunTimestamp(t time.Time) string {
	t = t.UTC()
	return fmt.Sprintf("%s-%03dZ", t.Format("2006-01-02T15-04-05"), t.Nanosecond()/int(time.Millisecond))
}

// FolderTimestamp formats t for generated metadata folder names
// Format: 20060102_150405
func FolderTimestamp(t time.Time) string {
	return t.UTC().Format("20060102_150405")
}

// RunDir returns the output directory of a run, e.g. output/batch-upload-<ts>
func (w *Workspace) RunDir(mode string, t time.Time) string {
	return filepath.Join(w.OutputPath, fmt.Sprintf("%s-upload-%s", mode, RunTimestamp(t)))
}

// MetadataDir returns a generation target for the batch images collection.
// variant is "" for single-version runs, or "with-suffix" / "without-suffix".
func (w *Workspace) MetadataDir(variant string, t time.Time) string {
	name := BatchImagesDirName + "-metadata"
	if variant != "" {
		name += "-" + variant
	}
	return filepath.Join(w.OutputPath, fmt.Sprintf("%s-%s", name, FolderTimestamp(t)))
}

// Initialize creates the input and output directories if they don't exist
func (w *Workspace) Initialize() error {
	directories := []string{
		w.BatchImagesPath,
		w.SingleImagePath,
		w.OutputPath,
	}

	for _, dir := range directories {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

// Exists checks if dir is an existing directory
func Exists(dir string) bool {
	info, err := os.Stat(dir)
	if err != nil {
		return false
	}
	return info.IsDir()
}
