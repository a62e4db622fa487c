package domain

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// AssetFile is an image resource discovered in an input directory.
// It is never modified or deleted by the tool.
type AssetFile struct {
	Path     string // Full path on disk
	Filename string // e.g. "12.png"
	Stem     string // e.g. "12"
	TokenID  uint64 // Parsed from Stem
	Size     int64
}

// ParseTokenID parses a filename stem as an unsigned integer token id.
func ParseTokenID(stem string) (uint64, error) {
	if stem == "" || strings.TrimSpace(stem) != stem {
		return 0, fmt.Errorf("%w: %q is not a token id", ErrInvalidFilename, stem)
	}
	id, err := strconv.ParseUint(stem, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a token id", ErrInvalidFilename, stem)
	}
	return id, nil
}

// FileStem returns the filename without its final extension
// "12.png" -> "12"
func FileStem(filename string) string {
	return strings.TrimSuffix(filename, filepath.Ext(filename))
}

// ListImageFiles returns the regular, non-hidden files directly inside dir,
// in lexical filename order.
func ListImageFiles(dir string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, Validation("list images", dir, ErrMissingDirectory)
		}
		return nil, IO("stat directory", dir, err)
	}
	if !info.IsDir() {
		return nil, Validation("list images", dir, fmt.Errorf("%w: not a directory", ErrMissingDirectory))
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, IO("read directory", dir, err)
	}

	var paths []string
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		if !entry.Type().IsRegular() {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}

	sort.Strings(paths)
	return paths, nil
}

// NewAssetFile stats path and parses its token id.
func NewAssetFile(path string) (AssetFile, error) {
	filename := filepath.Base(path)
	stem := FileStem(filename)

	id, err := ParseTokenID(stem)
	if err != nil {
		return AssetFile{}, Validation("parse token id", filename, err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return AssetFile{}, IO("stat asset", path, err)
	}

	return AssetFile{
		Path:     path,
		Filename: filename,
		Stem:     stem,
		TokenID:  id,
		Size:     info.Size(),
	}, nil
}

// ParseAssets turns file paths into assets ordered by token id.
// A single unparseable or duplicated id fails the whole list.
func ParseAssets(paths []string) ([]AssetFile, error) {
	assets := make([]AssetFile, 0, len(paths))
	seen := make(map[uint64]string, len(paths))

	for _, p := range paths {
		asset, err := NewAssetFile(p)
		if err != nil {
			return nil, err
		}
		if prev, ok := seen[asset.TokenID]; ok {
			return nil, Validation("parse assets", asset.Filename,
				fmt.Errorf("%w: %d also used by %s", ErrDuplicateTokenID, asset.TokenID, prev))
		}
		seen[asset.TokenID] = asset.Filename
		assets = append(assets, asset)
	}

	SortAssets(assets)
	return assets, nil
}

// SortAssets orders assets by token id, then filename
func SortAssets(assets []AssetFile) {
	sort.SliceStable(assets, func(i, j int) bool {
		if assets[i].TokenID != assets[j].TokenID {
			return assets[i].TokenID < assets[j].TokenID
		}
		return assets[i].Filename < assets[j].Filename
	})
}

// DiscoverAssets lists and parses every image in dir.
func DiscoverAssets(dir string) ([]AssetFile, error) {
	paths, err := ListImageFiles(dir)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, Validation("discover assets", dir, ErrNoAssets)
	}
	return ParseAssets(paths)
}
