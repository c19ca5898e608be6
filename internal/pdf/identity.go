package pdf

import (
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"

	"github.com/cespare/xxhash/v2"

	"github.com/a3tai/mcp-pdf-areas/internal/extract"
)

var _ extract.Document = (*Document)(nil)

// IdentityOf describes the file at path for cache fingerprinting. With
// contentHash set the file is also hashed, so a replaced file with the same
// size and modification time is still told apart. The name is the cleaned
// absolute path, so equal copies in different directories differ.
func IdentityOf(path string, contentHash bool) (extract.Identity, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return extract.Identity{}, fmt.Errorf("cannot resolve path: %w", err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return extract.Identity{}, fmt.Errorf("cannot access file: %w", err)
	}

	id := extract.Identity{
		Name:      abs,
		Size:      info.Size(),
		ModTime:   info.ModTime(),
		MediaType: mediaType(path),
	}

	if contentHash {
		sum, err := hashFile(abs)
		if err != nil {
			return extract.Identity{}, err
		}
		id.ContentHash = sum
	}

	return id, nil
}

func mediaType(path string) string {
	if t := mime.TypeByExtension(filepath.Ext(path)); t != "" {
		return t
	}
	return "application/octet-stream"
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open file for hashing: %w", err)
	}
	defer f.Close()

	h := xxhash.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to hash file: %w", err)
	}
	return fmt.Sprintf("%016x", h.Sum64()), nil
}
