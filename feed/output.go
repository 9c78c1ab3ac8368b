package feed

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
)

// DefaultContentType используется Emit, если тип не передан.
const DefaultContentType = "application/xml"

// WriteError возвращается Save, если файл не удалось создать или записать.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write feed to %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// WriteTo пишет документ в w.
func (f *Feed) WriteTo(w io.Writer) (int64, error) {
	if err := f.Err(); err != nil {
		return 0, err
	}
	n, err := io.WriteString(w, f.String())
	return int64(n), err
}

// Emit выставляет Content-Type и пишет документ в тело ответа.
func (f *Feed) Emit(w http.ResponseWriter, contentType string) error {
	if err := f.Err(); err != nil {
		return err
	}
	if contentType == "" {
		contentType = DefaultContentType
	}
	body := f.String()
	w.Header().Set("Content-Type", contentType)
	_, err := io.WriteString(w, body)
	return err
}

// Save записывает документ в path. Документ пишется во временный файл в том же
// каталоге и переименовывается, поэтому читатель видит либо старый файл, либо новый.
func (f *Feed) Save(path string) error {
	if err := f.Err(); err != nil {
		return err
	}
	if err := writeFileAtomic(path, []byte(f.String())); err != nil {
		return &WriteError{Path: path, Err: err}
	}
	return nil
}

func writeFileAtomic(path string, data []byte) error {
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
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
