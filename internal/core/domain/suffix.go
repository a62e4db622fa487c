package domain

import "fmt"

// Suffix is a metadata filename convention.
// It only changes file names; content is always JSON.
type Suffix string

const (
	SuffixNone Suffix = ""
	SuffixJSON Suffix = ".json"
	SuffixYAML Suffix = ".yaml"
	SuffixYML  Suffix = ".yml"

	// DefaultSuffix matches the usual unsuffixed NFT layout
	DefaultSuffix = SuffixNone
)

// SupportedSuffixes lists every accepted convention
var SupportedSuffixes = []Suffix{SuffixNone, SuffixJSON, SuffixYAML, SuffixYML}

// ParseSuffix validates raw against the supported conventions.
func ParseSuffix(raw string) (Suffix, error) {
	for _, s := range SupportedSuffixes {
		if string(s) == raw {
			return s, nil
		}
	}
	return DefaultSuffix, fmt.Errorf("unsupported metadata format %q", raw)
}

// MetadataFilename applies the naming rule for one generation pass:
//   - no suffix requested: bare stem
//   - suffix requested in dual-version mode: always "<stem>.json"
//   - suffix requested otherwise: "<stem><configured>"
func MetadataFilename(stem string, withSuffix, dualVersion bool, configured Suffix) string {
	if !withSuffix {
		return stem
	}
	if dualVersion {
		return stem + string(SuffixJSON)
	}
	return stem + string(configured)
}
