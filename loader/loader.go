package loader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"
)

var (
	ErrFetch             = errors.New("fetch error")
	ErrParse             = errors.New("parse error")
	ErrUnsupportedFormat = errors.New("unsupported format")
)

type DocumentType string

const (
	TypePDF     DocumentType = "pdf"
	TypeText    DocumentType = "txt"
	TypeUnknown DocumentType = "unknown"
)

// Loader fetches a document's raw bytes by its stored file reference and
// extracts plain text. Supported formats: PDF and plain text.
type Loader struct {
	client *http.Client
}

func New(timeout time.Duration) *Loader {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Loader{
		client: &http.Client{Timeout: timeout},
	}
}

func (l *Loader) Load(ctx context.Context, fileURL string) (string, error) {
	data, err := l.fetch(ctx, fileURL)
	if err != nil {
		return "", err
	}

	switch DetectType(fileURL, data) {
	case TypePDF:
		text, err := extractPDFText(data)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrParse, err)
		}
		return text, nil
	case TypeText:
		return decodeText(data), nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, fileURL)
	}
}

// fetch reads the document bytes from an http(s) URL or a local path.
func (l *Loader) fetch(ctx context.Context, fileURL string) ([]byte, error) {
	if strings.HasPrefix(fileURL, "http://") || strings.HasPrefix(fileURL, "https://") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrFetch, err)
		}
		resp, err := l.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrFetch, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("%w: HTTP %d for %s", ErrFetch, resp.StatusCode, fileURL)
		}
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrFetch, err)
		}
		return data, nil
	}

	data, err := os.ReadFile(fileURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	return data, nil
}

// DetectType inspects the URL extension first, then the content: %PDF magic
// bytes, then a UTF-8 decode attempt.
func DetectType(fileURL string, content []byte) DocumentType {
	ext := strings.ToLower(filepath.Ext(fileURL))
	if u, err := url.Parse(fileURL); err == nil && u.Path != "" {
		ext = strings.ToLower(filepath.Ext(u.Path))
	}

	switch ext {
	case ".pdf":
		return TypePDF
	case ".txt":
		return TypeText
	}

	if bytes.HasPrefix(content, []byte("%PDF")) {
		return TypePDF
	}
	if utf8.Valid(content) {
		return TypeText
	}
	return TypeUnknown
}

// decodeText returns the bytes as UTF-8, falling back to a Latin-1
// interpretation when the content is not valid UTF-8.
func decodeText(data []byte) string {
	if utf8.Valid(data) {
		return string(data)
	}
	runes := make([]rune, len(data))
	for i, b := range data {
		runes[i] = rune(b)
	}
	return string(runes)
}
