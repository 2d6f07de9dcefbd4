// Package walker expands batch arguments (files, directories and glob
// patterns) into the list of inputs to process.
package walker

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultMaxFileSize is the maximum text file size to process (1 MB).
const DefaultMaxFileSize int64 = 1 << 20

// FileInfo holds metadata about a single input file.
type FileInfo struct {
	Path        string // Absolute path on disk.
	RelPath     string // Path as the user would recognize it.
	Size        int64  // File size in bytes.
	Media       Media  // Text or image.
	ContentHash string // SHA-256 hex digest of the file content.
}

// Config controls the behaviour of Expand.
type Config struct {
	Media       Media    // Which inputs to keep.
	Exclude     []string // Glob patterns; matching files are skipped.
	MaxFileSize int64    // Files larger than this are skipped (0 = use default).
}

// Expand resolves each argument to files. An argument naming a file is
// taken as is, a directory is walked recursively, and anything else is
// treated as a doublestar glob. Files with identical content are returned
// once, in sorted path order.
func Expand(args []string, config Config) ([]FileInfo, error) {
	maxSize := config.MaxFileSize
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}
	if config.Media == "" {
		config.Media = MediaText
	}

	seen := make(map[string]bool)
	var files []FileInfo

	add := func(path, rel string) {
		f, ok := inspect(path, rel, config, maxSize)
		if !ok || seen[f.ContentHash] {
			return
		}
		seen[f.ContentHash] = true
		files = append(files, f)
	}

	for _, arg := range args {
		info, err := os.Stat(arg)
		switch {
		case err == nil && info.IsDir():
			if err := walkDir(arg, add); err != nil {
				return nil, err
			}
		case err == nil:
			add(arg, filepath.ToSlash(arg))
		default:
			if !doublestar.ValidatePattern(filepath.ToSlash(arg)) {
				return nil, fmt.Errorf("walker: invalid pattern %q", arg)
			}
			matches, err := doublestar.FilepathGlob(arg)
			if err != nil {
				return nil, fmt.Errorf("walker: glob %q: %w", arg, err)
			}
			for _, m := range matches {
				if fi, err := os.Stat(m); err == nil && !fi.IsDir() {
					add(m, filepath.ToSlash(m))
				}
			}
		}
	}

	sort.Slice(files, func(i, j int) bool { return files[i].RelPath < files[j].RelPath })
	return files, nil
}

func walkDir(root string, add func(path, rel string)) error {
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			// Skip entries we cannot read instead of aborting.
			return nil
		}
		if d.IsDir() {
			if path != root && shouldExcludeDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		add(path, filepath.ToSlash(path))
		return nil
	})
	if err != nil {
		return fmt.Errorf("walker: traversal: %w", err)
	}
	return nil
}

// inspect applies the filters to one file.
func inspect(path, rel string, config Config, maxSize int64) (FileInfo, bool) {
	if MatchesExclude(rel, config.Exclude) {
		return FileInfo{}, false
	}
	media := DetectMedia(path)
	if media != config.Media {
		return FileInfo{}, false
	}

	info, err := os.Stat(path)
	if err != nil || info.Size() == 0 {
		return FileInfo{}, false
	}
	// Images have their own cap, enforced when they are read.
	if media == MediaText && info.Size() > maxSize {
		return FileInfo{}, false
	}
	if media == MediaText && isBinary(path) {
		return FileInfo{}, false
	}

	hash, err := hashFile(path)
	if err != nil {
		return FileInfo{}, false
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return FileInfo{
		Path:        abs,
		RelPath:     rel,
		Size:        info.Size(),
		Media:       media,
		ContentHash: hash,
	}, true
}

// isBinary reads the first 512 bytes of a file and checks for NUL bytes,
// which is a simple but effective heuristic for binary content.
func isBinary(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return true // treat unreadable files as binary
	}
	defer f.Close()

	buf := make([]byte, 512)
	n, err := f.Read(buf)
	if err != nil && err != io.EOF {
		return true
	}

	for i := 0; i < n; i++ {
		if buf[i] == 0 {
			return true
		}
	}
	return false
}

// hashFile computes the SHA-256 digest of the given file.
func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
