package services

import (
	"context"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/metacore/nftup/internal/core/domain"
	"github.com/metacore/nftup/pkg/workspace"
)

// BatchRequest selects how metadata is produced for a collection run
type BatchRequest struct {
	// BothVersions uploads a .json-suffixed copy and an unsuffixed copy
	BothVersions bool
}

// BatchResponse describes a completed collection run
type BatchResponse struct {
	Record      domain.RunRecord
	RunDir      string
	MetadataDir string // Retained local metadata folder
	Result      *RecordResponse
}

// BaseURIs returns the contract base URI for each uploaded metadata folder,
// keyed by "with-suffix" / "without-suffix".
func (r *BatchResponse) BaseURIs() map[string]string {
	uris := make(map[string]string)
	if r.Record.MetadataWithSuffixCID != "" {
		uris["with-suffix"] = domain.BaseURI(r.Record.MetadataWithSuffixCID)
	}
	if r.Record.MetadataWithoutSuffixCID != "" {
		uris["without-suffix"] = domain.BaseURI(r.Record.MetadataWithoutSuffixCID)
	}
	return uris
}

// BatchService uploads an image collection, generates and uploads its
// metadata, and records the result. Stages run strictly in sequence and the
// first failure aborts the run; uploaded content is not rolled back.
type BatchService struct {
	workspace *workspace.Workspace
	uploader  *UploadService
	retry     *RetryService
	metadata  *MetadataService
	recorder  *RecorderService
	inspector *InspectorService
	log       *zap.Logger
	now       func() time.Time
	newID     func() string
}

func NewBatchService(
	ws *workspace.Workspace,
	uploader *UploadService,
	retry *RetryService,
	metadata *MetadataService,
	recorder *RecorderService,
	inspector *InspectorService,
	log *zap.Logger,
) *BatchService {
	if log == nil {
		log = zap.NewNop()
	}
	return &BatchService{
		workspace: ws,
		uploader:  uploader,
		retry:     retry,
		metadata:  metadata,
		recorder:  recorder,
		inspector: inspector,
		log:       log,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// Execute runs the batch workflow
func (s *BatchService) Execute(ctx context.Context, req BatchRequest) (*BatchResponse, error) {
	started := s.now()
	imagesDir := s.workspace.BatchImagesPath

	// 1. Validate input
	if !workspace.Exists(imagesDir) {
		return nil, domain.Validation("validate input", imagesDir, domain.ErrMissingDirectory)
	}
	s.inspector.Preflight(imagesDir, s.workspace.OutputPath)

	// 2. Upload images folder
	images, err := s.uploadDir(ctx, "images folder", imagesDir)
	if err != nil {
		return nil, err
	}
	s.log.Info("images folder CID obtained", zap.String("stage", "upload images"), zap.String("cid", images.CID))

	// 3. Enumerate assets
	assets, err := domain.DiscoverAssets(imagesDir)
	if err != nil {
		return nil, err
	}
	s.log.Info("assets discovered", zap.String("stage", "enumerate"), zap.Int("count", len(assets)))

	record := domain.RunRecord{
		RunID:      s.newID(),
		Mode:       domain.ModeBatch,
		ImagesCID:  images.CID,
		TotalFiles: len(assets),
		Status:     domain.StatusCompleted,
	}

	// 4 + 5. Generate and upload metadata
	var retained string
	if req.BothVersions {
		withCID, withoutCID, dir, err := s.bothVersions(ctx, assets, images.CID, started)
		if err != nil {
			return nil, err
		}
		record.MetadataWithSuffixCID = withCID
		record.MetadataWithoutSuffixCID = withoutCID
		retained = dir
	} else {
		withSuffix := s.metadata.Options().Suffix != domain.SuffixNone
		cid, dir, err := s.singleVersion(ctx, assets, images.CID, withSuffix, started)
		if err != nil {
			return nil, err
		}
		if withSuffix {
			record.MetadataWithSuffixCID = cid
		} else {
			record.MetadataWithoutSuffixCID = cid
		}
		retained = dir
	}

	// 6. Persist the run
	runDir := s.workspace.RunDir(string(domain.ModeBatch), started)
	if err := s.recorder.PrepareRunDir(runDir); err != nil {
		return nil, err
	}
	record.Timestamp = s.now().UTC()

	result, err := s.recorder.Record(ctx, RecordRequest{
		Record:      record,
		RunDir:      runDir,
		MetadataDir: retained,
	})
	if err != nil {
		return nil, err
	}

	resp := &BatchResponse{Record: record, RunDir: runDir, MetadataDir: retained, Result: result}
	for variant, uri := range resp.BaseURIs() {
		s.log.Info("contract base URI", zap.String("variant", variant), zap.String("uri", uri))
	}
	return resp, nil
}

func (s *BatchService) bothVersions(ctx context.Context, assets []domain.AssetFile, imagesCID string, ts time.Time) (string, string, string, error) {
	withDir := s.workspace.MetadataDir("with-suffix", ts)
	withoutDir := s.workspace.MetadataDir("without-suffix", ts)

	if _, err := s.metadata.Generate(ctx, GenerateRequest{
		Assets:      assets,
		FolderCID:   imagesCID,
		Dir:         withDir,
		WithSuffix:  true,
		DualVersion: true,
	}); err != nil {
		return "", "", "", err
	}
	with, err := s.uploadDir(ctx, "metadata folder with suffix", withDir)
	if err != nil {
		return "", "", "", err
	}

	if _, err := s.metadata.Generate(ctx, GenerateRequest{
		Assets:      assets,
		FolderCID:   imagesCID,
		Dir:         withoutDir,
		WithSuffix:  false,
		DualVersion: true,
	}); err != nil {
		return "", "", "", err
	}
	without, err := s.uploadDir(ctx, "metadata folder without suffix", withoutDir)
	if err != nil {
		return "", "", "", err
	}

	// Only the unsuffixed copy is kept locally
	if err := os.RemoveAll(withDir); err != nil {
		return "", "", "", domain.IO("remove metadata directory", withDir, err)
	}

	return with.CID, without.CID, withoutDir, nil
}

func (s *BatchService) singleVersion(ctx context.Context, assets []domain.AssetFile, imagesCID string, withSuffix bool, ts time.Time) (string, string, error) {
	dir := s.workspace.MetadataDir("", ts)

	if _, err := s.metadata.Generate(ctx, GenerateRequest{
		Assets:     assets,
		FolderCID:  imagesCID,
		Dir:        dir,
		WithSuffix: withSuffix,
	}); err != nil {
		return "", "", err
	}

	res, err := s.uploadDir(ctx, "metadata folder", dir)
	if err != nil {
		return "", "", err
	}
	return res.CID, dir, nil
}

func (s *BatchService) uploadDir(ctx context.Context, name, dir string) (*domain.UploadResult, error) {
	return s.retry.Do(ctx, name, func(ctx context.Context) (string, error) {
		return s.uploader.UploadDirectory(ctx, dir)
	})
}
