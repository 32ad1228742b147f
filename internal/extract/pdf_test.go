package extract

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestExtract_MissingFile(t *testing.T) {
	e := NewPDFExtractor(zap.NewNop())

	_, err := e.Extract(filepath.Join(t.TempDir(), "nope.pdf"))
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrNotFound))
	assert.False(t, eris.Is(err, ErrUnreadable))
}

func TestExtract_GarbageFile(t *testing.T) {
	e := NewPDFExtractor(zap.NewNop())

	path := filepath.Join(t.TempDir(), "garbage.pdf")
	require.NoError(t, os.WriteFile(path, []byte("this is not a pdf at all"), 0o644))

	_, err := e.Extract(path)
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrUnreadable))
}

func TestNormalize(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"trims surrounding whitespace", "  text \n", "text"},
		{"keeps single paragraph break", "a\n\nb", "a\n\nb"},
		{"collapses triple newline", "a\n\n\nb", "a\n\nb"},
		{"collapses long runs", "a\n\n\n\n\n\nb", "a\n\nb"},
		{"empty input", "\n\n\n", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, normalize(tc.in))
		})
	}
}
