package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ErrOutsideRoot is returned for a ref that does not live under a managed directory.
var ErrOutsideRoot = errors.New("document ref is outside the storage directories")

// Files keeps uploaded sources and rendered solutions on local disk. A ref
// is the file's path.
type Files struct {
	uploadDir    string
	solutionsDir string
}

// NewFiles creates both directories when missing.
func NewFiles(uploadDir, solutionsDir string) (*Files, error) {
	for _, dir := range []string{uploadDir, solutionsDir} {
		if dir == "" {
			return nil, errors.New("storage directory is required")
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir %q: %w", dir, err)
		}
	}
	return &Files{uploadDir: uploadDir, solutionsDir: solutionsDir}, nil
}

// SaveUpload writes the source document as <token>.pdf.
func (f *Files) SaveUpload(token string, data []byte) (string, error) {
	path := filepath.Join(f.uploadDir, token+".pdf")
	if err := writeAtomic(path, data); err != nil {
		return "", fmt.Errorf("save upload: %w", err)
	}
	return path, nil
}

// SaveSolution writes the rendered document as <token>/<name>.
func (f *Files) SaveSolution(token, name string, data []byte) (string, error) {
	dir := filepath.Join(f.solutionsDir, token)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("save solution: %w", err)
	}
	path := filepath.Join(dir, filepath.Base(name))
	if err := writeAtomic(path, data); err != nil {
		// Only succeeds while the directory is still empty.
		_ = os.Remove(dir)
		return "", fmt.Errorf("save solution: %w", err)
	}
	return path, nil
}

// Open opens a stored document for reading.
func (f *Files) Open(ref string) (*os.File, error) {
	if !f.owns(ref) {
		return nil, ErrOutsideRoot
	}
	file, err := os.Open(ref)
	if err != nil {
		return nil, fmt.Errorf("open document: %w", err)
	}
	return file, nil
}

// Remove deletes a stored document. Solution directories left empty are
// removed too. A missing file is not an error.
func (f *Files) Remove(ref string) error {
	if ref == "" {
		return nil
	}
	if !f.owns(ref) {
		return ErrOutsideRoot
	}
	if err := os.Remove(ref); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove document: %w", err)
	}
	if dir := filepath.Dir(ref); filepath.Clean(filepath.Dir(dir)) == filepath.Clean(f.solutionsDir) {
		_ = os.Remove(dir)
	}
	return nil
}

func (f *Files) owns(ref string) bool {
	return within(f.uploadDir, ref) || within(f.solutionsDir, ref)
}

func within(root, path string) bool {
	rel, err := filepath.Rel(filepath.Clean(root), filepath.Clean(path))
	if err != nil {
		return false
	}
	return rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// writeAtomic writes data next to path and renames it into place.
func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
