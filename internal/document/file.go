package document

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spigell/job-assistant/internal/utils"

	"github.com/ledongthuc/pdf"
)

// Files reads resumes from local .pdf, .txt, .md or .html files.
type Files struct{}

func (Files) FetchText(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return "", fmt.Errorf("read %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		text, err := pdfText(data)
		if err != nil {
			return "", fmt.Errorf("extract pdf text from %s: %w", path, err)
		}
		return text, nil
	case ".html", ".htm":
		return utils.HTMLToText(bytes.NewReader(data)), nil
	case ".txt", ".md", "":
		return string(data), nil
	default:
		return "", fmt.Errorf("unsupported resume file type %q", filepath.Ext(path))
	}
}

func pdfText(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", err
	}
	return buf.String(), nil
}
