package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// supportedExt lists the file types the loader can read.
var supportedExt = map[string]bool{
	".txt": true,
	".md":  true,
	".pdf": true,
}

// ScannedFile represents a document found during a data directory scan.
type ScannedFile struct {
	RelPath string // Relative path from the data directory (e.g., "ws25/schedule.pdf")
	AbsPath string // Absolute file path
	Kind    Kind
}

// Scan walks root and returns every supported document, ordered by relative path.
func Scan(ctx context.Context, root string) ([]ScannedFile, error) {
	var scannedFiles []ScannedFile

	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return fmt.Errorf("failed to access path %s: %w", path, err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if info.IsDir() {
			if path != root && isHidden(info.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if isHidden(info.Name()) || !supportedExt[strings.ToLower(filepath.Ext(path))] {
			return nil
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return fmt.Errorf("failed to compute relative path for %s: %w", path, err)
		}
		relPath = filepath.ToSlash(relPath)

		scannedFiles = append(scannedFiles, ScannedFile{
			RelPath: relPath,
			AbsPath: path,
			Kind:    Classify(relPath),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", root, err)
	}

	sort.Slice(scannedFiles, func(i, j int) bool {
		return scannedFiles[i].RelPath < scannedFiles[j].RelPath
	})
	return scannedFiles, nil
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}
