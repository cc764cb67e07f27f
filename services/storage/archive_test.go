package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaperKey(t *testing.T) {
	assert.Equal(t, "papers/b1/1-dsa-2021.pdf", PaperKey("b1", 1, "dsa-2021.pdf"))
	assert.Equal(t, "papers/b1/2-exam.pdf", PaperKey("b1", 2, "../../etc/exam.pdf"))
	assert.Equal(t, "papers/b1/3-exam.pdf", PaperKey("b1", 3, `C:\uploads\exam.pdf`))
	assert.Equal(t, "papers/b1/4-paper.pdf", PaperKey("b1", 4, ""))
}

func TestPaperKeyKeepsSameNamedUploadsApart(t *testing.T) {
	first := PaperKey("b1", 1, "uploads/a/exam.pdf")
	second := PaperKey("b1", 2, "uploads/b/exam.pdf")
	assert.NotEqual(t, first, second)
	assert.Equal(t, BatchPrefix("b1"), first[:len(BatchPrefix("b1"))])
}

func TestArchivePaper(t *testing.T) {
	var (
		mu          sync.Mutex
		gotMethod   string
		gotPath     string
		gotBody     []byte
		contentType string
	)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		gotMethod = r.Method
		gotPath = r.URL.Path
		contentType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	archive, err := NewPaperArchive(ArchiveConfig{
		AccessKey:      "key",
		SecretKey:      "secret",
		Bucket:         "pyq",
		Region:         "us-east-1",
		Endpoint:       ts.URL,
		ForcePathStyle: true,
	})
	require.NoError(t, err)

	key, err := archive.ArchivePaper(context.Background(), "batch-1", 1, "os-2022.pdf", []byte("%PDF-1.4"))
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "papers/batch-1/1-os-2022.pdf", key)
	assert.Equal(t, http.MethodPut, gotMethod)
	assert.Equal(t, "/pyq/papers/batch-1/1-os-2022.pdf", gotPath)
	assert.Equal(t, "application/pdf", contentType)
	assert.Equal(t, []byte("%PDF-1.4"), gotBody)
}

func TestNewPaperArchiveRequiresBucket(t *testing.T) {
	_, err := NewPaperArchive(ArchiveConfig{Region: "us-east-1"})
	assert.Error(t, err)
}
