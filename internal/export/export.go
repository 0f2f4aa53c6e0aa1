// Package export renders email text as downloadable documents.
package export

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode"

	"github.com/go-pdf/fpdf"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/sfnt"

	"github.com/capitalize-ai/email-composer/pkg/metrics"
)

// Content types of the exported artifacts.
const (
	ContentTypeText = "text/plain; charset=utf-8"
	ContentTypePDF  = "application/pdf"
)

// LineKind classifies a line of email text for PDF styling.
type LineKind int

const (
	LineBody LineKind = iota
	LineBlank
	LineHeading
	LineSubheading
)

var closings = []string{"Best regards,", "Sincerely,", "Regards,"}

// ClassifyLine applies the fixed prefix rules used for PDF styling.
func ClassifyLine(line string) LineKind {
	trimmed := strings.TrimSpace(line)
	switch {
	case trimmed == "":
		return LineBlank
	case strings.HasPrefix(trimmed, "Subject:"):
		return LineHeading
	case strings.HasPrefix(trimmed, "Dear"):
		return LineSubheading
	}
	for _, c := range closings {
		if strings.HasPrefix(trimmed, c) {
			return LineSubheading
		}
	}
	return LineBody
}

// ToPlainText returns content encoded as UTF-8, untransformed.
func ToPlainText(content string) []byte {
	metrics.RecordExport("txt", "ok")
	return []byte(content)
}

// ErrUnrenderable is returned when content holds characters the embedded
// font has no glyph for, such as CJK scripts.
var ErrUnrenderable = errors.New("text cannot be rendered in PDF")

// fontFamily is the embedded Go font family, registered per document.
const fontFamily = "go"

var glyphFont = sync.OnceValues(func() (*sfnt.Font, error) {
	return sfnt.Parse(goregular.TTF)
})

// checkGlyphs reports the first rune of text the font cannot draw.
func checkGlyphs(text string) error {
	f, err := glyphFont()
	if err != nil {
		return fmt.Errorf("load font: %w", err)
	}

	var buf sfnt.Buffer
	for _, r := range text {
		if unicode.IsControl(r) {
			continue
		}
		idx, err := f.GlyphIndex(&buf, r)
		if err != nil {
			return fmt.Errorf("font lookup: %w", err)
		}
		if idx == 0 {
			return fmt.Errorf("%w: no glyph for %q (U+%04X)", ErrUnrenderable, r, r)
		}
	}
	return nil
}

// Page layout, in millimetres and points.
const (
	marginMM       = 20.0
	lineHeightMM   = 6.0
	headingSize    = 14.0
	subheadingSize = 12.0
	bodySize       = 11.0
	titleSize      = 9.0
)

// ToPDF renders content as a paginated Letter-size PDF. Lines starting with
// "Subject:" become headings, greetings and closings become sub-headings,
// blank lines only advance the layout. Text is drawn with the embedded Go
// fonts; content outside their coverage yields ErrUnrenderable.
func ToPDF(content, title string) ([]byte, error) {
	content = strings.ReplaceAll(strings.ReplaceAll(content, "\r\n", "\n"), "\t", "    ")
	if err := checkGlyphs(title + content); err != nil {
		metrics.RecordExport("pdf", "error")
		return nil, err
	}

	pdf := fpdf.New("P", "mm", "Letter", "")
	pdf.SetMargins(marginMM, marginMM, marginMM)
	pdf.SetAutoPageBreak(true, marginMM)
	pdf.SetCreator("email-composer", true)
	pdf.AddUTF8FontFromBytes(fontFamily, "", goregular.TTF)
	pdf.AddUTF8FontFromBytes(fontFamily, "B", gobold.TTF)
	pdf.AddUTF8FontFromBytes(fontFamily, "I", goitalic.TTF)
	if title != "" {
		pdf.SetTitle(title, true)
	}
	pdf.AddPage()

	if title != "" {
		pdf.SetFont(fontFamily, "I", titleSize)
		pdf.SetTextColor(110, 110, 110)
		pdf.MultiCell(0, lineHeightMM, title, "", "L", false)
		pdf.Ln(lineHeightMM / 2)
		pdf.SetTextColor(0, 0, 0)
	}

	for _, line := range strings.Split(content, "\n") {
		switch ClassifyLine(line) {
		case LineBlank:
			pdf.Ln(lineHeightMM)
			continue
		case LineHeading:
			pdf.SetFont(fontFamily, "B", headingSize)
		case LineSubheading:
			pdf.SetFont(fontFamily, "B", subheadingSize)
		default:
			pdf.SetFont(fontFamily, "", bodySize)
		}
		pdf.MultiCell(0, lineHeightMM, strings.TrimRightFunc(line, unicode.IsSpace), "", "L", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		metrics.RecordExport("pdf", "error")
		return nil, fmt.Errorf("render PDF: %w", err)
	}

	metrics.RecordExport("pdf", "ok")
	return buf.Bytes(), nil
}

// Filename builds the download name for an export from the recipient's
// name, with spaces replaced by underscores.
func Filename(recipient, ext string) string {
	name := strings.ReplaceAll(strings.TrimSpace(recipient), " ", "_")
	name = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '-' || r == '.' {
			return r
		}
		return -1
	}, name)
	if name == "" {
		return "generated_email." + ext
	}
	return "email_to_" + name + "." + ext
}
