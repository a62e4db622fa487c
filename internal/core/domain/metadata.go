package domain

import (
	"encoding/json"
	"fmt"
)

// Default collection values
const (
	DefaultCollectionName = "MetaCore"
	DefaultDescription    = "A unique member of the MetaCore collection."
)

// Attribute is a single trait of a token
type Attribute struct {
	TraitType string `json:"trait_type"`
	Value     any    `json:"value"`
}

// MetadataRecord is the JSON document a token URI resolves to.
// Attribute order is preserved on output.
type MetadataRecord struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Image       string      `json:"image"`
	Attributes  []Attribute `json:"attributes"`
}

// Collection holds the naming used for every record of a run
type Collection struct {
	Name        string
	Description string
}

// DefaultCollection returns the MetaCore collection
func DefaultCollection() Collection {
	return Collection{Name: DefaultCollectionName, Description: DefaultDescription}
}

// FolderImageURI points at a file inside an uploaded folder
// ("ipfs://<cid>/<filename>")
func FolderImageURI(folderCID, filename string) string {
	return fmt.Sprintf("ipfs://%s/%s", folderCID, filename)
}

// ImageURI points directly at an uploaded file ("ipfs://<cid>")
func ImageURI(cid string) string {
	return "ipfs://" + cid
}

// BaseURI is what a contract stores as the base for token URIs
func BaseURI(folderCID string) string {
	return "ipfs://" + folderCID + "/"
}

// NewMetadataRecord builds the record for tokenID pointing at imageURI.
func (c Collection) NewMetadataRecord(tokenID uint64, imageURI string) MetadataRecord {
	return MetadataRecord{
		Name:        fmt.Sprintf("%s #%d", c.Name, tokenID),
		Description: c.Description,
		Image:       imageURI,
		Attributes: []Attribute{
			{TraitType: "ID", Value: tokenID},
		},
	}
}

// Marshal renders the record as indented JSON
func (m MetadataRecord) Marshal() ([]byte, error) {
	return json.MarshalIndent(m, "", "  ")
}
