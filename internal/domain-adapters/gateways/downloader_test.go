package gateways

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ochairo/sqlitefetch/internal/domain/entities"
)

func fixedClock(year int) func() time.Time {
	return func() time.Time {
		return time.Date(year, time.January, 2, 0, 0, 0, 0, time.UTC)
	}
}

// newArtifactServer serves body at /{year}/{filename} and 404 elsewhere
func newArtifactServer(t *testing.T, path string, body []byte) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc(path, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Length", strconv.Itoa(len(body)))
		_, _ = w.Write(body)
	})
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts
}

func TestDownloader_BuildDownloadURL(t *testing.T) {
	d := NewDownloader(nil, DownloaderConfig{}, nil)

	tests := []struct {
		name     string
		template string
		base     string
		year     int
		filename string
		want     string
	}{
		{
			name:     "sqlite default layout",
			template: entities.DefaultURLTemplate,
			base:     "https://www.sqlite.org",
			year:     2024,
			filename: "sqlite-tools-linux-x64-3450100.zip",
			want:     "https://www.sqlite.org/2024/sqlite-tools-linux-x64-3450100.zip",
		},
		{
			name:     "trailing slash on base",
			template: entities.DefaultURLTemplate,
			base:     "https://mirror.example.com/sqlite/",
			year:     2023,
			filename: "sqlite-autoconf-3440000.tar.gz",
			want:     "https://mirror.example.com/sqlite/2023/sqlite-autoconf-3440000.tar.gz",
		},
		{
			name:     "signature next to artifact",
			template: "{base}/{year}/{filename}.asc",
			base:     "https://www.sqlite.org",
			year:     2024,
			filename: "sqlite.zip",
			want:     "https://www.sqlite.org/2024/sqlite.zip.asc",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := d.BuildDownloadURL(tt.template, tt.base, tt.year, tt.filename)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDownloader_ResolveURL_Year(t *testing.T) {
	t.Run("derived from clock", func(t *testing.T) {
		d := NewDownloader(nil, DownloaderConfig{BaseURL: "https://www.sqlite.org", Now: fixedClock(2025)}, nil)
		assert.Equal(t, "https://www.sqlite.org/2025/a.zip", d.ResolveURL(entities.DefaultURLTemplate, "a.zip"))
	})

	t.Run("override wins over clock after rollover", func(t *testing.T) {
		d := NewDownloader(nil, DownloaderConfig{BaseURL: "https://www.sqlite.org", Year: 2024, Now: fixedClock(2025)}, nil)
		assert.Equal(t, "https://www.sqlite.org/2024/a.zip", d.ResolveURL(entities.DefaultURLTemplate, "a.zip"))
	})
}

func TestDownloader_Download_StagesThenPromotes(t *testing.T) {
	content := bytes.Repeat([]byte("sqlite"), 5000)
	ts := newArtifactServer(t, "/2024/sqlite.zip", content)
	destDir := filepath.Join(t.TempDir(), "Downloads")

	d := NewDownloader(ts.Client(), DownloaderConfig{BaseURL: ts.URL, Year: 2024, ChunkSize: 4096}, nil)

	artifact, err := d.Download(context.Background(), "sqlite.zip", destDir)
	require.NoError(t, err)

	assert.Equal(t, ts.URL+"/2024/sqlite.zip", artifact.URL)
	assert.Equal(t, filepath.Join(destDir, "sqlite.zip"), artifact.LocalPath)
	assert.Equal(t, int64(len(content)), artifact.ByteLength)
	assert.False(t, artifact.Promoted())

	// Nothing at the final path until promoted
	_, err = os.Stat(artifact.LocalPath)
	assert.True(t, os.IsNotExist(err), "final path must not exist before Promote")

	staged, err := os.ReadFile(artifact.StagingPath)
	require.NoError(t, err)
	assert.Equal(t, content, staged)
	assert.Equal(t, destDir, filepath.Dir(artifact.StagingPath))

	require.NoError(t, d.Promote(artifact))
	assert.True(t, artifact.Promoted())

	final, err := os.ReadFile(artifact.LocalPath)
	require.NoError(t, err)
	assert.Equal(t, content, final)

	entries, err := os.ReadDir(destDir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "staging file must be gone after promotion")
}

func TestDownloader_Discard(t *testing.T) {
	ts := newArtifactServer(t, "/2024/sqlite.zip", []byte("payload"))
	destDir := t.TempDir()

	d := NewDownloader(ts.Client(), DownloaderConfig{BaseURL: ts.URL, Year: 2024}, nil)
	artifact, err := d.Download(context.Background(), "sqlite.zip", destDir)
	require.NoError(t, err)

	staging := artifact.StagingPath
	require.NoError(t, d.Discard(artifact))

	_, err = os.Stat(staging)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(artifact.LocalPath)
	assert.True(t, os.IsNotExist(err))

	// Discarding twice is harmless
	assert.NoError(t, d.Discard(artifact))
}

func TestDownloader_Download_NonOKStatus(t *testing.T) {
	ts := newArtifactServer(t, "/2024/sqlite.zip", []byte("payload"))
	destDir := t.TempDir()

	// Year 2025 is not served, the vendor still files the release under 2024
	d := NewDownloader(ts.Client(), DownloaderConfig{BaseURL: ts.URL, Now: fixedClock(2025)}, nil)
	artifact, err := d.Download(context.Background(), "sqlite.zip", destDir)
	require.Error(t, err)
	assert.Nil(t, artifact)

	var httpErr *entities.HTTPError
	require.True(t, errors.As(err, &httpErr), "want *entities.HTTPError, got %T", err)
	assert.Equal(t, http.StatusNotFound, httpErr.StatusCode)
	assert.Equal(t, ts.URL+"/2025/sqlite.zip", httpErr.URL)

	entries, err := os.ReadDir(destDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "no file may be left behind on HTTP failure")
}

func TestDownloader_Download_UnsafeFilename(t *testing.T) {
	d := NewDownloader(nil, DownloaderConfig{BaseURL: "http://127.0.0.1:0"}, nil)

	for _, name := range []string{"", ".", "..", "../etc/passwd", "a/b.zip", `a\b.zip`} {
		t.Run(name, func(t *testing.T) {
			_, err := d.Download(context.Background(), name, t.TempDir())
			var extractionErr *entities.ExtractionError
			assert.True(t, errors.As(err, &extractionErr), "want *entities.ExtractionError, got %T", err)
		})
	}
}

func TestDownloader_Download_DestinationNotWritable(t *testing.T) {
	ts := newArtifactServer(t, "/2024/sqlite.zip", []byte("payload"))

	// A regular file where the destination directory should be
	blocker := filepath.Join(t.TempDir(), "Downloads")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0600))

	d := NewDownloader(ts.Client(), DownloaderConfig{BaseURL: ts.URL, Year: 2024}, nil)
	_, err := d.Download(context.Background(), "sqlite.zip", blocker)

	var ioErr *entities.IOError
	require.True(t, errors.As(err, &ioErr), "want *entities.IOError, got %T", err)
	assert.Equal(t, blocker, ioErr.Path)
}

func TestDownloader_Download_Progress(t *testing.T) {
	content := []byte(strings.Repeat("x", 10000))
	ts := newArtifactServer(t, "/2024/sqlite.zip", content)

	var seen bytes.Buffer
	var total int64
	d := NewDownloader(ts.Client(), DownloaderConfig{
		BaseURL: ts.URL,
		Year:    2024,
		Progress: func(n int64) io.Writer {
			total = n
			return &seen
		},
	}, nil)

	artifact, err := d.Download(context.Background(), "sqlite.zip", t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Discard(artifact) })

	assert.Equal(t, int64(len(content)), total)
	assert.Equal(t, content, seen.Bytes())
}

func TestDownloader_Download_ContextCanceled(t *testing.T) {
	ts := newArtifactServer(t, "/2024/sqlite.zip", []byte("payload"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d := NewDownloader(ts.Client(), DownloaderConfig{BaseURL: ts.URL, Year: 2024}, nil)
	_, err := d.Download(ctx, "sqlite.zip", t.TempDir())
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}
