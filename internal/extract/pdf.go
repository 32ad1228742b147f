package extract

import (
	"os"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	pdfmodel "github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// EmptyTextSentinel is returned when a document parses fine but yields
// no extractable text. Callers must treat it as a valid, degenerate
// result, not a failure.
const EmptyTextSentinel = "The PDF contained no extractable text."

var (
	// ErrNotFound means the document path does not exist.
	ErrNotFound = eris.New("document not found")
	// ErrUnreadable means the binary could not be parsed as a PDF.
	ErrUnreadable = eris.New("unreadable document")
)

// Extractor converts a binary document into normalized plain text.
// It is called exactly once per job; the result is shared across
// all pipeline stages.
type Extractor interface {
	Extract(path string) (string, error)
}

// PDFExtractor extracts plain text from PDF documents.
type PDFExtractor struct {
	conf *pdfmodel.Configuration
	log  *zap.Logger
}

func NewPDFExtractor(log *zap.Logger) *PDFExtractor {
	conf := pdfmodel.NewDefaultConfiguration()
	conf.ValidationMode = pdfmodel.ValidationRelaxed
	return &PDFExtractor{conf: conf, log: log}
}

var excessBlankLines = regexp.MustCompile(`\n{3,}`)

// normalize collapses runs of three or more newlines down to two,
// preserving paragraph breaks while dropping excessive whitespace.
func normalize(text string) string {
	return strings.TrimSpace(excessBlankLines.ReplaceAllString(text, "\n\n"))
}

// Extract reads the document at path and returns its full text with
// page texts concatenated in page order and runs of three or more
// newlines collapsed to two.
func (e *PDFExtractor) Extract(path string) (string, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return "", eris.Wrapf(ErrNotFound, "no document at %q", path)
	}

	// Structural validation first: a corrupt upload should fail with a
	// parse error, not a half-extracted page.
	if err := api.ValidateFile(path, e.conf); err != nil {
		return "", eris.Wrapf(ErrUnreadable, "validate %q: %v", path, err)
	}

	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", eris.Wrapf(ErrUnreadable, "open %q: %v", path, err)
	}
	defer f.Close()

	var b strings.Builder
	pages := reader.NumPage()
	for i := 1; i <= pages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			e.log.Warn("skipping unparseable page",
				zap.String("path", path),
				zap.Int("page", i),
				zap.Error(err))
			continue
		}
		b.WriteString(text)
		b.WriteString("\n")
	}

	out := normalize(b.String())
	if out == "" {
		e.log.Warn("document yielded no extractable text", zap.String("path", path))
		return EmptyTextSentinel, nil
	}

	e.log.Info("document extracted",
		zap.String("path", path),
		zap.Int("pages", pages),
		zap.Int("chars", len(out)))
	return out, nil
}
