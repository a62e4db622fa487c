package services

import (
	"context"
	"errors"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/metacore/nftup/internal/core/domain"
	"github.com/metacore/nftup/internal/core/ports"
)

// UploadService performs a single upload attempt against the pinning service
// and reports how long it took. It never retries.
type UploadService struct {
	pinner ports.Pinner
	log    *zap.Logger
	now    func() time.Time
}

func NewUploadService(pinner ports.Pinner, log *zap.Logger) *UploadService {
	if log == nil {
		log = zap.NewNop()
	}
	return &UploadService{pinner: pinner, log: log, now: time.Now}
}

// UploadDirectory pins dir and returns its root CID
func (s *UploadService) UploadDirectory(ctx context.Context, dir string) (string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return "", domain.IO("stat directory", dir, err)
	}
	if !info.IsDir() {
		return "", domain.Validation("upload directory", dir, errors.New("not a directory"))
	}

	start := s.now()
	s.log.Info("uploading folder", zap.String("path", dir), zap.String("started", start.Format("15:04:05")))

	cid, err := s.pinner.PinDirectory(ctx, dir)
	if err != nil {
		return "", classifyRemote(ctx, "pin directory", dir, err)
	}

	elapsed := s.now().Sub(start)
	s.log.Info("folder uploaded",
		zap.String("path", dir),
		zap.String("cid", cid),
		zap.String("elapsed", formatSeconds(elapsed)),
	)
	return cid, nil
}

// UploadFile pins a single file and logs its throughput
func (s *UploadService) UploadFile(ctx context.Context, path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", domain.IO("stat file", path, err)
	}
	if info.IsDir() {
		return "", domain.Validation("upload file", path, errors.New("is a directory"))
	}

	start := s.now()
	s.log.Info("uploading file",
		zap.String("path", path),
		zap.String("started", start.Format("15:04:05")),
		zap.String("size", formatMB(uint64(info.Size()))),
	)

	cid, err := s.pinner.PinFile(ctx, path)
	if err != nil {
		return "", classifyRemote(ctx, "pin file", path, err)
	}

	elapsed := s.now().Sub(start)
	s.log.Info("file uploaded",
		zap.String("path", path),
		zap.String("cid", cid),
		zap.String("elapsed", formatSeconds(elapsed)),
		zap.String("speed", formatThroughput(Throughput(info.Size(), elapsed))),
	)
	return cid, nil
}

// classifyRemote leaves already-classified errors alone and marks everything
// else as a remote failure.
func classifyRemote(ctx context.Context, op, path string, err error) error {
	var classified *domain.Error
	if errors.As(err, &classified) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) && ctx.Err() != nil {
		return domain.Timeout(op, path, err)
	}
	return domain.Remote(op, path, err)
}
