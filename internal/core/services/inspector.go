package services

import (
	"os"
	"path/filepath"

	"github.com/shirou/gopsutil/disk"
	"go.uber.org/zap"

	"github.com/metacore/nftup/internal/core/domain"
)

// InspectorService reports folder sizes and free disk space before uploads.
// Its results are informational only.
type InspectorService struct {
	log *zap.Logger
}

func NewInspectorService(log *zap.Logger) *InspectorService {
	if log == nil {
		log = zap.NewNop()
	}
	return &InspectorService{log: log}
}

// FolderSize sums the sizes of all regular files under dir.
// Any unreadable entry aborts the walk.
func (s *InspectorService) FolderSize(dir string) (uint64, error) {
	var size uint64
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.Mode().IsRegular() {
			size += uint64(info.Size())
		}
		return nil
	})
	if err != nil {
		return 0, domain.IO("calculate folder size", dir, err)
	}
	return size, nil
}

// FreeSpace returns the free bytes on the volume holding path
func (s *InspectorService) FreeSpace(path string) (uint64, error) {
	usage, err := disk.Usage(path)
	if err != nil {
		return 0, domain.IO("disk usage", path, err)
	}
	return usage.Free, nil
}

// Preflight logs the size of dir and the free space under outputDir.
// Failures are logged and swallowed.
func (s *InspectorService) Preflight(dir, outputDir string) {
	size, err := s.FolderSize(dir)
	if err != nil {
		s.log.Warn("folder size check failed", zap.String("path", dir), zap.Error(err))
	} else {
		s.log.Info("folder size before upload",
			zap.String("path", dir),
			zap.Uint64("bytes", size),
			zap.String("size", formatMB(size)),
		)
	}

	if outputDir == "" {
		return
	}
	free, err := s.FreeSpace(nearestExisting(outputDir))
	if err != nil {
		s.log.Debug("free space check failed", zap.String("path", outputDir), zap.Error(err))
		return
	}
	s.log.Info("free space on output volume", zap.String("path", outputDir), zap.String("free", formatMB(free)))
}

// nearestExisting walks up from path until it finds something that exists
func nearestExisting(path string) string {
	for {
		if _, err := os.Stat(path); err == nil {
			return path
		}
		parent := filepath.Dir(path)
		if parent == path {
			return path
		}
		path = parent
	}
}
