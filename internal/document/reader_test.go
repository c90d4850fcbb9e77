package document

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestReadTextFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inv-001.txt")
	require.NoError(t, os.WriteFile(path, []byte("COMMERCIAL INVOICE\nSKU# 1 2 PCS\n"), 0o644))

	doc, err := NewReader(zap.NewNop()).Read(path)
	require.NoError(t, err)
	assert.Equal(t, "inv-001", doc.ID)
	assert.Contains(t, doc.Text, "COMMERCIAL INVOICE")
}

func TestReadMissingFile(t *testing.T) {
	_, err := NewReader(zap.NewNop()).Read(filepath.Join(t.TempDir(), "absent.txt"))
	assert.ErrorContains(t, err, "not found")
}

func TestReadUnsupportedType(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.docx")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	_, err := NewReader(zap.NewNop()).Read(path)
	assert.ErrorContains(t, err, "unsupported file type")
}
