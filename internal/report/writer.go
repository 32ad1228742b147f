// Package report persists the human-readable report file written for
// each completed analysis.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

const (
	namePrefixLen = 50
	idPrefixLen   = 8
)

// Writer writes one plain-text artifact per completed job into a
// designated output directory.
type Writer struct {
	dir string
}

func NewWriter(dir string) *Writer {
	return &Writer{dir: dir}
}

// Write persists the report and returns its path. The filename derives
// from a sanitized prefix of the source name plus a short prefix of the
// job id; overwriting an artifact with the same derived name is fine
// since a job only ever completes once.
func (w *Writer) Write(jobID, sourceName, query, result string) (string, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", eris.Wrap(err, "create outputs dir")
	}

	path := filepath.Join(w.dir, fmt.Sprintf("%s_%s.txt", safeName(sourceName), idPrefix(jobID)))

	var b strings.Builder
	b.WriteString("Financial Document Analysis Report\n")
	b.WriteString("Analysis ID : " + jobID + "\n")
	b.WriteString("Source File : " + sourceName + "\n")
	b.WriteString("Query       : " + query + "\n")
	b.WriteString("Generated   : " + time.Now().UTC().Format(time.RFC3339) + "\n")
	b.WriteString("\n")
	b.WriteString(result)

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return "", eris.Wrap(err, "write report file")
	}
	return path, nil
}

// safeName strips the extension, replaces spaces, and caps the length
// so the artifact name stays filesystem-friendly.
func safeName(sourceName string) string {
	base := filepath.Base(sourceName)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = strings.ReplaceAll(base, " ", "_")
	if r := []rune(base); len(r) > namePrefixLen {
		base = string(r[:namePrefixLen])
	}
	return base
}

func idPrefix(jobID string) string {
	if len(jobID) > idPrefixLen {
		return jobID[:idPrefixLen]
	}
	return jobID
}
