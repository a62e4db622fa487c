package domain

import (
	"encoding/json"
	"time"
)

// Mode identifies which workflow produced a run
type Mode string

const (
	ModeBatch  Mode = "batch"
	ModeSingle Mode = "single"
)

// StatusCompleted is the only status ever persisted; failed runs write no record.
const StatusCompleted = "completed"

// UploadResult is the outcome of one orchestrated upload.
type UploadResult struct {
	CID      string
	Elapsed  time.Duration
	Attempts int
}

// RunRecord is the durable result of a workflow run. Written once, never updated.
type RunRecord struct {
	RunID     string    `json:"run_id"`
	Mode      Mode      `json:"mode"`
	Timestamp time.Time `json:"timestamp"`

	// Batch mode
	ImagesCID                string `json:"images_cid,omitempty"`
	MetadataWithSuffixCID    string `json:"metadata_with_suffix_cid,omitempty"`
	MetadataWithoutSuffixCID string `json:"metadata_without_suffix_cid,omitempty"`

	// Single mode
	ImageCID    string  `json:"image_cid,omitempty"`
	MetadataCID string  `json:"metadata_cid,omitempty"`
	TokenID     *uint64 `json:"token_id,omitempty"`

	TotalFiles int    `json:"total_files"`
	Status     string `json:"status"`
}

// MarshalJSON always writes both metadata keys for batch runs, as null when
// that variant was not uploaded. Single runs omit them.
func (r RunRecord) MarshalJSON() ([]byte, error) {
	type plain RunRecord
	if r.Mode != ModeBatch {
		return json.Marshal(plain(r))
	}
	return json.Marshal(struct {
		plain
		MetadataWithSuffixCID    *string `json:"metadata_with_suffix_cid"`
		MetadataWithoutSuffixCID *string `json:"metadata_without_suffix_cid"`
	}{
		plain:                    plain(r),
		MetadataWithSuffixCID:    nullable(r.MetadataWithSuffixCID),
		MetadataWithoutSuffixCID: nullable(r.MetadataWithoutSuffixCID),
	})
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// MetadataCIDs returns every metadata CID in the record
func (r RunRecord) MetadataCIDs() []string {
	var cids []string
	for _, c := range []string{r.MetadataCID, r.MetadataWithSuffixCID, r.MetadataWithoutSuffixCID} {
		if c != "" {
			cids = append(cids, c)
		}
	}
	return cids
}
