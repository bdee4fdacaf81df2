package uploads

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Store is a disk-backed blob store for uploaded media. The rest of the
// system references stored blobs only by URL.
type Store struct {
	Dir     string
	BaseURL string
}

func NewStore(dir, baseURL string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating upload dir: %w", err)
	}
	return &Store{Dir: dir, BaseURL: strings.TrimSuffix(baseURL, "/")}, nil
}

// Save streams an uploaded file to disk under a random name, keeping
// the original extension, and returns the public URL.
func (s *Store) Save(file multipart.File, header *multipart.FileHeader) (string, error) {
	ext := filepath.Ext(header.Filename)
	name := uuid.New().String() + ext

	dst, err := os.Create(filepath.Join(s.Dir, name))
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		os.Remove(dst.Name())
		return "", err
	}

	return s.BaseURL + "/" + name, nil
}
