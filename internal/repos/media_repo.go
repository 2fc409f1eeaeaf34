package repos

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// MediaRepo keeps uploaded product images as flat files in Dir.
type MediaRepo struct{ Dir string }

func NewMediaRepo(dir string) (*MediaRepo, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("media dir: %w", err)
	}
	return &MediaRepo{Dir: dir}, nil
}

// Path maps a stored name to its file. Only the base name is used, so a name
// can never point outside Dir.
func (r *MediaRepo) Path(name string) string {
	return filepath.Join(r.Dir, filepath.Base(name))
}

func (r *MediaRepo) Save(name string, src io.Reader) error {
	f, err := os.OpenFile(r.Path(name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, src); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return err
	}
	return f.Close()
}

// Remove deletes a stored file. A file that is already gone is not an error.
func (r *MediaRepo) Remove(name string) error {
	err := os.Remove(r.Path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
