package credential

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"strings"
)

// FileTokenSource reads the access token from a file maintained by the
// authentication layer. A missing file means signed out.
type FileTokenSource struct {
	Path string
}

// Token returns the file contents with surrounding whitespace trimmed, or ""
// when the file does not exist.
func (s *FileTokenSource) Token(ctx context.Context) (string, error) {
	b, err := os.ReadFile(s.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}

// Clear removes the token file. Removing an absent file is a no-op.
func (s *FileTokenSource) Clear(ctx context.Context) error {
	err := os.Remove(s.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

var _ TokenSource = (*FileTokenSource)(nil)
