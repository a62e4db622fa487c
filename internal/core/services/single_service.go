package services

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/metacore/nftup/internal/core/domain"
	"github.com/metacore/nftup/pkg/workspace"
)

// DefaultTokenID is used when a single run does not name one
const DefaultTokenID uint64 = 1

// SingleRequest configures a single-asset run
type SingleRequest struct {
	TokenID *uint64
}

// SingleResponse describes a completed single-asset run
type SingleResponse struct {
	Record       domain.RunRecord
	RunDir       string
	ImagePath    string
	MetadataPath string
	Result       *RecordResponse
}

// TokenURI is the value a contract stores for this token
func (r *SingleResponse) TokenURI() string {
	return domain.ImageURI(r.Record.MetadataCID)
}

// SingleService uploads one image and a metadata record that points straight at it
type SingleService struct {
	workspace *workspace.Workspace
	uploader  *UploadService
	retry     *RetryService
	metadata  *MetadataService
	recorder  *RecorderService
	log       *zap.Logger
	now       func() time.Time
	newID     func() string
}

func NewSingleService(
	ws *workspace.Workspace,
	uploader *UploadService,
	retry *RetryService,
	metadata *MetadataService,
	recorder *RecorderService,
	log *zap.Logger,
) *SingleService {
	if log == nil {
		log = zap.NewNop()
	}
	return &SingleService{
		workspace: ws,
		uploader:  uploader,
		retry:     retry,
		metadata:  metadata,
		recorder:  recorder,
		log:       log,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// Execute runs the single-asset workflow
func (s *SingleService) Execute(ctx context.Context, req SingleRequest) (resp *SingleResponse, err error) {
	started := s.now()
	imageDir := s.workspace.SingleImagePath

	// 1. Pick the image; nothing touches the network until this succeeds
	paths, err := domain.ListImageFiles(imageDir)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, domain.Validation("select image", imageDir, domain.ErrNoAssets)
	}
	imagePath := paths[0]

	tokenID := DefaultTokenID
	if req.TokenID != nil {
		tokenID = *req.TokenID
	}
	s.log.Info("image selected", zap.String("stage", "select"), zap.String("path", imagePath), zap.Uint64("token_id", tokenID))

	// 2. Upload the image itself
	image, err := s.uploadFile(ctx, "image file", imagePath)
	if err != nil {
		return nil, err
	}

	// 3. Generate its metadata inside the run directory
	runDir := s.workspace.RunDir(string(domain.ModeSingle), started)
	if err := s.recorder.PrepareRunDir(runDir); err != nil {
		return nil, err
	}
	// A failed run leaves no run directory behind
	defer func() {
		if err == nil {
			return
		}
		if rmErr := os.RemoveAll(runDir); rmErr != nil {
			s.log.Warn("failed to remove incomplete run directory", zap.String("path", runDir), zap.Error(rmErr))
		}
	}()
	metadataPath := filepath.Join(runDir, domain.FileStem(filepath.Base(imagePath))+string(domain.SuffixJSON))
	if err := s.metadata.GenerateSingle(ctx, metadataPath, tokenID, image.CID); err != nil {
		return nil, err
	}

	// 4. Upload the metadata file
	meta, err := s.uploadFile(ctx, "metadata file", metadataPath)
	if err != nil {
		return nil, err
	}

	// 5. Persist the run
	record := domain.RunRecord{
		RunID:       s.newID(),
		Mode:        domain.ModeSingle,
		Timestamp:   s.now().UTC(),
		ImageCID:    image.CID,
		MetadataCID: meta.CID,
		TokenID:     &tokenID,
		TotalFiles:  1,
		Status:      domain.StatusCompleted,
	}
	result, err := s.recorder.Record(ctx, RecordRequest{Record: record, RunDir: runDir})
	if err != nil {
		return nil, err
	}

	resp = &SingleResponse{
		Record:       record,
		RunDir:       runDir,
		ImagePath:    imagePath,
		MetadataPath: metadataPath,
		Result:       result,
	}
	s.log.Info("token URI", zap.String("uri", resp.TokenURI()))
	return resp, nil
}

func (s *SingleService) uploadFile(ctx context.Context, name, path string) (*domain.UploadResult, error) {
	return s.retry.Do(ctx, name, func(ctx context.Context) (string, error) {
		return s.uploader.UploadFile(ctx, path)
	})
}
