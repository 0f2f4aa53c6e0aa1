// Package extract converts uploaded attachments into plain text for prompts.
package extract

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/capitalize-ai/email-composer/internal/model"
	"github.com/capitalize-ai/email-composer/pkg/logger"
	"github.com/capitalize-ai/email-composer/pkg/metrics"
)

// DefaultMaxFileSize is the per-file upload limit.
const DefaultMaxFileSize int64 = 5 * 1024 * 1024

var (
	// ErrFileTooLarge is returned when the declared size exceeds the limit.
	ErrFileTooLarge = errors.New("file exceeds size limit")
	// ErrUnsupportedType is returned for extensions outside the supported set.
	ErrUnsupportedType = errors.New("unsupported file type")
)

type handlerFunc func(data []byte) (string, error)

var handlers = map[string]handlerFunc{
	"pdf":  extractPDF,
	"docx": extractDOCX,
	"xlsx": extractXLSX,
	"xls":  extractXLS,
	"txt":  extractText,
	"jpg":  nil,
	"jpeg": nil,
	"png":  nil,
}

// SupportedExtensions lists the accepted file extensions without the dot.
func SupportedExtensions() []string {
	return []string{"pdf", "docx", "xlsx", "xls", "txt", "jpg", "png", "jpeg"}
}

// Result is the text extracted from one attachment. When Err is set, Text
// holds the inline error placeholder instead.
type Result struct {
	Filename string `json:"filename"`
	Text     string `json:"text"`
	Err      error  `json:"-"`
}

// Extractor dispatches attachments to format handlers by extension.
type Extractor struct {
	maxSize int64
	logger  *logger.Logger
}

// New creates an extractor with the given per-file size limit.
func New(maxSize int64, log *logger.Logger) *Extractor {
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}
	return &Extractor{
		maxSize: maxSize,
		logger:  log,
	}
}

// MaxSize returns the per-file size limit in bytes.
func (e *Extractor) MaxSize() int64 {
	return e.maxSize
}

// Extension returns the lower-cased extension of filename without the dot.
func Extension(filename string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
}

// Check validates the declared size and extension without reading content.
func (e *Extractor) Check(filename string, size int64) error {
	if size > e.maxSize {
		return fmt.Errorf("%w: %s is %s, limit is %s", ErrFileTooLarge, filename, formatSize(size), formatSize(e.maxSize))
	}
	ext := Extension(filename)
	if _, ok := handlers[ext]; !ok {
		return fmt.Errorf("%w %q", ErrUnsupportedType, "."+ext)
	}
	return nil
}

// Screen splits attachments into those that pass Check and a warning for
// each rejected one.
func (e *Extractor) Screen(attachments []model.Attachment) ([]model.Attachment, []string) {
	accepted := make([]model.Attachment, 0, len(attachments))
	var warnings []string

	for _, att := range attachments {
		if err := e.Check(att.Filename, att.Size); err != nil {
			e.logger.Warn("attachment rejected",
				zap.String("filename", att.Filename),
				zap.Int64("size", att.Size),
				zap.Error(err),
			)
			metrics.RecordExtraction(extensionLabel(Extension(att.Filename)), "rejected")
			warnings = append(warnings, fmt.Sprintf("%s was skipped: %v", att.Filename, err))
			continue
		}
		accepted = append(accepted, att)
	}

	return accepted, warnings
}

// Extract returns the plain text of one file. It never fails: rejected or
// unreadable files yield an "[Error processing ...]" placeholder.
func (e *Extractor) Extract(filename string, data []byte, size int64) Result {
	ext := Extension(filename)

	if err := e.Check(filename, size); err != nil {
		metrics.RecordExtraction(extensionLabel(ext), "rejected")
		if errors.Is(err, ErrUnsupportedType) {
			return Result{
				Filename: filename,
				Text:     fmt.Sprintf("[Unsupported file type .%s: %s]", ext, filename),
				Err:      err,
			}
		}
		return errorResult(filename, err)
	}

	handler := handlers[ext]
	if handler == nil {
		metrics.RecordExtraction(ext, "image")
		return Result{
			Filename: filename,
			Text:     fmt.Sprintf("[Image file %s: image content is not extracted]", filename),
		}
	}

	text, err := safeCall(handler, data)
	if err != nil {
		e.logger.Warn("attachment extraction failed",
			zap.String("filename", filename),
			zap.Error(err),
		)
		metrics.RecordExtraction(ext, "error")
		return errorResult(filename, err)
	}

	metrics.RecordExtraction(ext, "ok")
	return Result{Filename: filename, Text: text}
}

// ExtractAll extracts every attachment in order. One failing file does not
// affect the others.
func (e *Extractor) ExtractAll(attachments []model.Attachment) []Result {
	results := make([]Result, 0, len(attachments))
	for _, att := range attachments {
		results = append(results, e.Extract(att.Filename, att.Data, att.Size))
	}
	return results
}

func errorResult(filename string, err error) Result {
	return Result{
		Filename: filename,
		Text:     fmt.Sprintf("[Error processing %s: %v]", filename, err),
		Err:      err,
	}
}

// safeCall runs a format handler, turning parser panics into errors.
// Some third-party decoders panic on malformed input.
func safeCall(fn handlerFunc, data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed document: %v", r)
		}
	}()
	return fn(data)
}

func extractText(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", errors.New("file is not valid UTF-8 text")
	}
	return string(data), nil
}

// extensionLabel bounds metric label cardinality to the supported set.
func extensionLabel(ext string) string {
	if _, ok := handlers[ext]; ok {
		return ext
	}
	return "other"
}

func formatSize(n int64) string {
	const mb = 1024 * 1024
	if n >= mb {
		return fmt.Sprintf("%.1f MB", float64(n)/mb)
	}
	return fmt.Sprintf("%d bytes", n)
}
