package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/metacore/nftup/internal/core/domain"
	"github.com/metacore/nftup/internal/core/ports"
)

// MetadataOptions are resolved once per workflow and fixed for every pass
type MetadataOptions struct {
	Collection domain.Collection
	Suffix     domain.Suffix // Convention for single-version passes
}

// GenerateRequest describes one generation pass
type GenerateRequest struct {
	Assets      []domain.AssetFile
	FolderCID   string
	Dir         string // Cleared and recreated
	WithSuffix  bool
	DualVersion bool
}

// GenerateResponse lists what a pass produced
type GenerateResponse struct {
	Dir        string
	Files      []string // Produced file names, in asset order
	TotalBytes uint64
}

// MetadataService writes one metadata file per asset and verifies the result
type MetadataService struct {
	opts      MetadataOptions
	inspector *InspectorService
	syncer    ports.Syncer
	log       *zap.Logger
}

func NewMetadataService(opts MetadataOptions, inspector *InspectorService, syncer ports.Syncer, log *zap.Logger) *MetadataService {
	if log == nil {
		log = zap.NewNop()
	}
	if inspector == nil {
		inspector = NewInspectorService(log)
	}
	if opts.Collection.Name == "" {
		opts.Collection = domain.DefaultCollection()
	}
	return &MetadataService{opts: opts, inspector: inspector, syncer: syncer, log: log}
}

// Options returns the resolved generation options
func (s *MetadataService) Options() MetadataOptions {
	return s.opts
}

// Generate clears req.Dir, writes a record for every asset using a single
// filename convention, then re-reads each file to confirm it landed.
func (s *MetadataService) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	if len(req.Assets) == 0 {
		return nil, domain.Validation("generate metadata", req.Dir, domain.ErrNoAssets)
	}

	// Resolve every filename first so a bad asset fails before the directory is touched
	files := make([]string, len(req.Assets))
	seen := make(map[uint64]string, len(req.Assets))
	for i, asset := range req.Assets {
		id, err := domain.ParseTokenID(asset.Stem)
		if err != nil {
			return nil, domain.Validation("generate metadata", asset.Filename, err)
		}
		if id != asset.TokenID {
			return nil, domain.Validation("generate metadata", asset.Filename,
				fmt.Errorf("%w: stem %q is token %d, asset claims %d", domain.ErrInvalidFilename, asset.Stem, id, asset.TokenID))
		}
		if prev, ok := seen[id]; ok {
			return nil, domain.Validation("generate metadata", asset.Filename,
				fmt.Errorf("%w: %d also used by %s", domain.ErrDuplicateTokenID, id, prev))
		}
		seen[id] = asset.Filename
		files[i] = domain.MetadataFilename(asset.Stem, req.WithSuffix, req.DualVersion, s.opts.Suffix)
	}

	if err := resetDir(req.Dir); err != nil {
		return nil, err
	}

	for i, asset := range req.Assets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		record := s.opts.Collection.NewMetadataRecord(asset.TokenID, domain.FolderImageURI(req.FolderCID, asset.Filename))
		path := filepath.Join(req.Dir, files[i])
		if err := WriteRecord(path, record); err != nil {
			return nil, err
		}
		s.log.Debug("created metadata file", zap.String("path", path))
	}

	total, err := s.verify(req.Dir, files)
	if err != nil {
		return nil, err
	}

	s.log.Info("metadata generated",
		zap.String("dir", req.Dir),
		zap.Int("files", len(files)),
		zap.Bool("with_suffix", req.WithSuffix),
		zap.Bool("dual_version", req.DualVersion),
	)

	s.inspector.Preflight(req.Dir, "")
	s.sync(ctx)

	return &GenerateResponse{Dir: req.Dir, Files: files, TotalBytes: total}, nil
}

// WriteRecord serializes record to path
func WriteRecord(path string, record domain.MetadataRecord) error {
	data, err := record.Marshal()
	if err != nil {
		return domain.IO("encode metadata", path, err)
	}

	f, err := os.Create(path)
	if err != nil {
		return domain.IO("create metadata file", path, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return domain.IO("write metadata file", path, err)
	}
	if err := f.Close(); err != nil {
		return domain.IO("close metadata file", path, err)
	}
	return nil
}

// verify re-reads every produced file and checks the directory holds nothing else
func (s *MetadataService) verify(dir string, files []string) (uint64, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, domain.IO("list metadata directory", dir, err)
	}
	if len(entries) != len(files) {
		return 0, domain.IO("verify metadata directory", dir,
			fmt.Errorf("expected %d files, found %d", len(files), len(entries)))
	}

	var total uint64
	for _, name := range files {
		path := filepath.Join(dir, name)
		content, err := os.ReadFile(path)
		if err != nil {
			return 0, domain.IO("read back metadata file", path, err)
		}
		if len(content) == 0 {
			return 0, domain.IO("read back metadata file", path, domain.ErrEmptyFile)
		}
		total += uint64(len(content))
		s.log.Debug("metadata file readable", zap.String("path", path), zap.Int("bytes", len(content)))
	}
	return total, nil
}

func (s *MetadataService) sync(ctx context.Context) {
	if s.syncer == nil {
		return
	}
	if err := s.syncer.Sync(ctx); err != nil {
		s.log.Warn("filesystem sync failed", zap.Error(err))
		return
	}
	s.log.Debug("filesystem sync completed")
}

// resetDir removes dir if present and creates it empty
func resetDir(dir string) error {
	if err := os.RemoveAll(dir); err != nil {
		return domain.IO("clear directory", dir, err)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return domain.IO("create directory", dir, err)
	}
	return nil
}

// GenerateSingle writes the record for one token whose image was uploaded on
// its own, so the image URI is the bare image CID.
func (s *MetadataService) GenerateSingle(ctx context.Context, path string, tokenID uint64, imageCID string) error {
	record := s.opts.Collection.NewMetadataRecord(tokenID, domain.ImageURI(imageCID))
	if err := WriteRecord(path, record); err != nil {
		return err
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return domain.IO("read back metadata file", path, err)
	}
	if len(content) == 0 {
		return domain.IO("read back metadata file", path, domain.ErrEmptyFile)
	}

	s.log.Info("metadata generated", zap.String("path", path), zap.Uint64("token_id", tokenID))
	s.sync(ctx)
	return nil
}
