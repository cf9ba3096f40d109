// Package textsource turns uploaded documents and web pages into plain text.
package textsource

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"contractlens/internal/config"
	"contractlens/internal/domain"
)

const userAgent = "Mozilla/5.0 (compatible; contractlens/1.0)"

// Extractor implements port.TextSource.
type Extractor struct {
	client   *http.Client
	maxBytes int64
	logger   *zap.Logger
}

// New creates an Extractor from the input limits.
func New(cfg config.LimitsConfig, logger *zap.Logger) *Extractor {
	timeout := cfg.URLFetchTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	maxBytes := cfg.MaxURLBytes
	if maxBytes <= 0 {
		maxBytes = 5 << 20
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{
		client:   &http.Client{Timeout: timeout},
		maxBytes: maxBytes,
		logger:   logger.Named("textsource"),
	}
}

// DetectFileType resolves the upload type from the filename extension,
// falling back to the declared content type.
func DetectFileType(contentType, filename string) (domain.FileType, error) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	if ft, ok := domain.AllowedExtensions[ext]; ok {
		return ft, nil
	}
	if mt, _, err := mime.ParseMediaType(contentType); err == nil {
		if ft, ok := domain.AllowedContentTypes[mt]; ok {
			return ft, nil
		}
	}
	return "", fmt.Errorf("%w: %s", domain.ErrUnsupportedFileType, filename)
}

// FromUpload extracts text from an uploaded pdf, docx or plain-text file.
func (e *Extractor) FromUpload(data []byte, contentType, filename string) (string, error) {
	ft, err := DetectFileType(contentType, filename)
	if err != nil {
		return "", err
	}

	var text string
	switch ft {
	case domain.FileTypePDF:
		text, err = FromPDF(data)
	case domain.FileTypeDOCX:
		text, err = FromDOCX(data)
	case domain.FileTypeTXT:
		if !utf8.Valid(data) {
			err = fmt.Errorf("text file is not valid UTF-8")
		}
		text = string(data)
	}
	if err != nil {
		e.logger.Warn("extraction failed", zap.String("filename", filename), zap.String("type", string(ft)), zap.Error(err))
		return "", fmt.Errorf("%w: %s: %v", domain.ErrSourceUnavailable, ft, err)
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: %s contains no text", domain.ErrSourceUnavailable, filename)
	}
	return text, nil
}

// FromURL fetches an http(s) page and returns its visible text.
func (e *Extractor) FromURL(ctx context.Context, rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("%w: invalid url %q", domain.ErrSourceUnavailable, rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), http.NoBody)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrSourceUnavailable, err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,text/plain;q=0.9")

	resp, err := e.client.Do(req)
	if err != nil {
		e.logger.Warn("fetch failed", zap.String("url", u.String()), zap.Error(err))
		return "", fmt.Errorf("%w: fetching %s: %v", domain.ErrSourceUnavailable, u.Host, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		e.logger.Warn("fetch returned non-2xx", zap.String("url", u.String()), zap.Int("status", resp.StatusCode))
		return "", fmt.Errorf("%w: %s returned status %d", domain.ErrSourceUnavailable, u.Host, resp.StatusCode)
	}

	body := io.LimitReader(resp.Body, e.maxBytes)
	var text string
	if mt, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type")); mt == "text/plain" {
		var raw []byte
		raw, err = io.ReadAll(body)
		text = string(raw)
	} else {
		text, err = FromHTML(body)
	}
	if err != nil {
		return "", fmt.Errorf("%w: reading %s: %v", domain.ErrSourceUnavailable, u.Host, err)
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: %s has no visible text", domain.ErrSourceUnavailable, u.Host)
	}
	return text, nil
}
