package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/metacore/nftup/internal/core/domain"
)

// Output layout inside a run directory
const (
	ResultsDirName  = "results"
	ResultFileName  = "upload-result.json"
	ReadmeFileName  = "README.md"
	MetadataDirName = "metadata"

	DefaultGatewayURL = "https://gateway.pinata.cloud/ipfs/"
)

// RecordRequest is everything the recorder persists for one run
type RecordRequest struct {
	Record      domain.RunRecord
	RunDir      string
	MetadataDir string // Optional, copied into RunDir/metadata
}

// RecordResponse lists the files written
type RecordResponse struct {
	ResultPath  string
	ReadmePath  string
	MetadataDir string
	Copied      int
}

// RecorderService persists run results. It never retries; a failure here
// fails the run even though the uploads already succeeded.
type RecorderService struct {
	gatewayURL string
	log        *zap.Logger
}

func NewRecorderService(gatewayURL string, log *zap.Logger) *RecorderService {
	if log == nil {
		log = zap.NewNop()
	}
	if gatewayURL == "" {
		gatewayURL = DefaultGatewayURL
	}
	if !strings.HasSuffix(gatewayURL, "/") {
		gatewayURL += "/"
	}
	return &RecorderService{gatewayURL: gatewayURL, log: log}
}

// PrepareRunDir creates runDir and its results subdirectory.
// The run directory must not already exist.
func (s *RecorderService) PrepareRunDir(runDir string) error {
	if err := os.MkdirAll(filepath.Dir(runDir), 0755); err != nil {
		return domain.IO("create output directory", filepath.Dir(runDir), err)
	}
	if err := os.Mkdir(runDir, 0755); err != nil {
		return domain.IO("create run directory", runDir, err)
	}
	if err := os.Mkdir(filepath.Join(runDir, ResultsDirName), 0755); err != nil {
		return domain.IO("create results directory", runDir, err)
	}
	return nil
}

// Record writes the structured result, copies retained metadata and writes
// the narrative summary.
func (s *RecorderService) Record(ctx context.Context, req RecordRequest) (*RecordResponse, error) {
	resp := &RecordResponse{
		ResultPath: filepath.Join(req.RunDir, ResultsDirName, ResultFileName),
		ReadmePath: filepath.Join(req.RunDir, ReadmeFileName),
	}

	data, err := json.MarshalIndent(req.Record, "", "  ")
	if err != nil {
		return nil, domain.IO("encode run record", resp.ResultPath, err)
	}
	if err := os.MkdirAll(filepath.Dir(resp.ResultPath), 0755); err != nil {
		return nil, domain.IO("create results directory", filepath.Dir(resp.ResultPath), err)
	}
	if err := WriteFileAtomic(resp.ResultPath, data, 0644); err != nil {
		return nil, err
	}

	if req.MetadataDir != "" {
		dest := filepath.Join(req.RunDir, MetadataDirName)
		n, err := s.copyMetadata(ctx, req.MetadataDir, dest)
		if err != nil {
			return nil, err
		}
		resp.MetadataDir = dest
		resp.Copied = n
		s.log.Info("metadata folder saved", zap.String("path", dest), zap.Int("files", n))
	}

	readme := s.Readme(req.Record)
	if err := WriteFileAtomic(resp.ReadmePath, []byte(readme), 0644); err != nil {
		return nil, err
	}

	s.log.Info("results saved", zap.String("path", req.RunDir))
	return resp, nil
}

// copyMetadata replaces dest with a flat copy of the regular files in src
func (s *RecorderService) copyMetadata(ctx context.Context, src, dest string) (int, error) {
	entries, err := os.ReadDir(src)
	if err != nil {
		return 0, domain.IO("read metadata directory", src, err)
	}
	if err := resetDir(dest); err != nil {
		return 0, err
	}

	copied := 0
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return copied, err
		}
		if !entry.Type().IsRegular() {
			continue
		}
		from := filepath.Join(src, entry.Name())
		to := filepath.Join(dest, entry.Name())
		if err := copyFile(from, to); err != nil {
			return copied, err
		}
		s.log.Debug("copied metadata file", zap.String("path", to))
		copied++
	}
	return copied, nil
}

// Readme renders the narrative summary for record
func (s *RecorderService) Readme(record domain.RunRecord) string {
	if record.Mode == domain.ModeSingle {
		return s.singleReadme(record)
	}
	return s.batchReadme(record)
}

func (s *RecorderService) batchReadme(r domain.RunRecord) string {
	var b strings.Builder
	b.WriteString("# Batch Upload Results\n\n")
	b.WriteString("## Upload Information\n")
	fmt.Fprintf(&b, "- **Run ID**: %s\n", r.RunID)
	fmt.Fprintf(&b, "- **Timestamp**: %s\n", r.Timestamp.Format("2006-01-02T15:04:05.000Z07:00"))
	fmt.Fprintf(&b, "- **Images CID**: `%s`\n", r.ImagesCID)
	fmt.Fprintf(&b, "- **Metadata with suffix CID**: `%s`\n", orNA(r.MetadataWithSuffixCID))
	fmt.Fprintf(&b, "- **Metadata without suffix CID**: `%s`\n", orNA(r.MetadataWithoutSuffixCID))
	fmt.Fprintf(&b, "- **Total files**: %d\n\n", r.TotalFiles)

	b.WriteString("## Usage\n")
	if r.MetadataWithSuffixCID != "" {
		fmt.Fprintf(&b, "- For contracts expecting a file suffix: Use `%s`\n", domain.BaseURI(r.MetadataWithSuffixCID))
	}
	if r.MetadataWithoutSuffixCID != "" {
		fmt.Fprintf(&b, "- For contracts without suffix: Use `%s`\n", domain.BaseURI(r.MetadataWithoutSuffixCID))
	}
	b.WriteString("\n## Files\n")
	fmt.Fprintf(&b, "- Images are available at: `%s`\n", domain.BaseURI(r.ImagesCID))
	fmt.Fprintf(&b, "- Images gateway: %s%s/\n", s.gatewayURL, r.ImagesCID)
	b.WriteString("- Metadata files are available at the respective CIDs above.\n")
	b.WriteString("- Local metadata files are saved in the `metadata/` folder for reference.\n")
	return b.String()
}

func (s *RecorderService) singleReadme(r domain.RunRecord) string {
	var tokenID uint64
	if r.TokenID != nil {
		tokenID = *r.TokenID
	}

	var b strings.Builder
	b.WriteString("# Single File Upload Results\n\n")
	b.WriteString("## Upload Information\n")
	fmt.Fprintf(&b, "- **Run ID**: %s\n", r.RunID)
	fmt.Fprintf(&b, "- **Timestamp**: %s\n", r.Timestamp.Format("2006-01-02T15:04:05.000Z07:00"))
	fmt.Fprintf(&b, "- **Image CID**: `%s`\n", r.ImageCID)
	fmt.Fprintf(&b, "- **Metadata CID**: `%s`\n", r.MetadataCID)
	fmt.Fprintf(&b, "- **Token ID**: %d\n\n", tokenID)

	b.WriteString("## Usage\n")
	fmt.Fprintf(&b, "- The Token URI for this NFT is: `%s`\n\n", domain.ImageURI(r.MetadataCID))

	b.WriteString("## Files\n")
	fmt.Fprintf(&b, "- Image is available at: `%s%s`\n", s.gatewayURL, r.ImageCID)
	fmt.Fprintf(&b, "- Metadata is available at: `%s%s`\n", s.gatewayURL, r.MetadataCID)
	return b.String()
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

// WriteFileAtomic writes data to a temp file next to path and renames it
// into place, so readers never observe a partial file.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return domain.IO("create temp file", path, err)
	}
	tmpName := tmp.Name()
	defer func() {
		_ = os.Remove(tmpName) // clean up if rename failed
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return domain.IO("write temp file", path, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return domain.IO("sync temp file", path, err)
	}
	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		return domain.IO("chmod temp file", path, err)
	}
	if err := tmp.Close(); err != nil {
		return domain.IO("close temp file", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return domain.IO("rename temp file", path, err)
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return domain.IO("open file", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return domain.IO("create file", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return domain.IO("copy file", dst, err)
	}
	if err := out.Close(); err != nil {
		return domain.IO("close file", dst, err)
	}
	return nil
}
