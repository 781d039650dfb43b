package gateways

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/ochairo/sqlitefetch/internal/domain/entities"
	"github.com/ochairo/sqlitefetch/internal/domain/interfaces"
)

// ProgressFunc returns a writer that observes downloaded bytes.
// total is -1 when the server sent no Content-Length.
type ProgressFunc func(total int64) io.Writer

// DownloaderConfig holds the URL layout and streaming parameters
type DownloaderConfig struct {
	BaseURL     string
	URLTemplate string
	Year        int // 0 derives the year from Now
	ChunkSize   int
	Now         func() time.Time
	Progress    ProgressFunc
}

// Downloader handles downloading artifacts from URLs
type Downloader struct {
	httpClient  *http.Client
	baseURL     string
	urlTemplate string
	year        int
	chunkSize   int
	now         func() time.Time
	progress    ProgressFunc
	logger      interfaces.Logger
}

// NewDownloader creates a new downloader
func NewDownloader(client *http.Client, cfg DownloaderConfig, logger interfaces.Logger) *Downloader {
	if client == nil {
		client = http.DefaultClient
	}
	if cfg.URLTemplate == "" {
		cfg.URLTemplate = entities.DefaultURLTemplate
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = entities.DefaultChunkSize
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Downloader{
		httpClient:  client,
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		urlTemplate: cfg.URLTemplate,
		year:        cfg.Year,
		chunkSize:   cfg.ChunkSize,
		now:         cfg.Now,
		progress:    cfg.Progress,
		logger:      interfaces.OrNoOp(logger),
	}
}

// BuildDownloadURL performs template substitution (exported for testing)
func (d *Downloader) BuildDownloadURL(template, base string, year int, filename string) string {
	url := template
	url = strings.ReplaceAll(url, "{base}", strings.TrimRight(base, "/"))
	url = strings.ReplaceAll(url, "{year}", strconv.Itoa(year))
	url = strings.ReplaceAll(url, "{filename}", filename)
	return url
}

// ResolveURL substitutes this downloader's base URL and year into template.
// sqlite.org files a release under the year it was published, so a December
// release is still under the old year in January; Year pins it.
func (d *Downloader) ResolveURL(template, filename string) string {
	year := d.year
	if year == 0 {
		year = d.now().Year()
	}
	return d.BuildDownloadURL(template, d.baseURL, year, filename)
}

// Download streams filename into a staging file inside destDir.
// The returned artifact must be passed to Promote or Discard.
func (d *Downloader) Download(ctx context.Context, filename, destDir string) (*entities.DownloadedArtifact, error) {
	if err := validateFilename(filename); err != nil {
		return nil, err
	}

	url := d.ResolveURL(d.urlTemplate, filename)

	if err := os.MkdirAll(destDir, 0750); err != nil {
		return nil, &entities.IOError{Op: "create directory", Path: destDir, Err: err}
	}

	artifact := &entities.DownloadedArtifact{
		URL:       url,
		LocalPath: filepath.Join(destDir, filename),
	}

	start := time.Now()
	stagingPath, written, err := d.downloadFile(ctx, url, destDir, filename)
	if err != nil {
		return nil, err
	}
	artifact.StagingPath = stagingPath
	artifact.ByteLength = written

	d.logger.Info("artifact downloaded",
		interfaces.F("url", url),
		interfaces.F("size", humanize.Bytes(uint64(written))),
		interfaces.F("elapsed", time.Since(start).Round(time.Millisecond).String()))

	return artifact, nil
}

// Promote renames the staged file onto its final path
func (d *Downloader) Promote(artifact *entities.DownloadedArtifact) error {
	if artifact.Promoted() {
		return nil
	}
	if err := os.Rename(artifact.StagingPath, artifact.LocalPath); err != nil {
		return &entities.IOError{Op: "rename", Path: artifact.LocalPath, Err: err}
	}
	artifact.StagingPath = ""
	return nil
}

// Discard removes the staged file. The final path is never touched.
func (d *Downloader) Discard(artifact *entities.DownloadedArtifact) error {
	if artifact == nil || artifact.Promoted() {
		return nil
	}
	if err := os.Remove(artifact.StagingPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return &entities.IOError{Op: "remove", Path: artifact.StagingPath, Err: err}
	}
	artifact.StagingPath = ""
	return nil
}

// downloadFile downloads url into a new staging file in dir and returns its path
func (d *Downloader) downloadFile(ctx context.Context, url, dir, filename string) (string, int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", 0, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("HTTP request failed: %w", err)
	}
	//nolint:errcheck // Defer close on HTTP response body
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", 0, &entities.HTTPError{URL: url, StatusCode: resp.StatusCode}
	}

	out, err := os.CreateTemp(dir, "."+filename+".*.partial")
	if err != nil {
		return "", 0, &entities.IOError{Op: "create", Path: filepath.Join(dir, filename), Err: err}
	}
	stagingPath := out.Name()

	written, err := d.stream(out, resp)
	if err == nil {
		if syncErr := out.Sync(); syncErr != nil {
			err = &entities.IOError{Op: "sync", Path: stagingPath, Err: syncErr}
		}
	}
	if closeErr := out.Close(); closeErr != nil && err == nil {
		err = &entities.IOError{Op: "close", Path: stagingPath, Err: closeErr}
	}
	if err != nil {
		_ = os.Remove(stagingPath)
		return "", 0, err
	}

	return stagingPath, written, nil
}

// stream copies the body in chunkSize pieces. Write failures become
// *entities.IOError; read failures are network errors and stay wrapped.
func (d *Downloader) stream(out *os.File, resp *http.Response) (int64, error) {
	fw := &fileWriter{f: out}
	var w io.Writer = fw
	if d.progress != nil {
		if pw := d.progress(resp.ContentLength); pw != nil {
			w = io.MultiWriter(fw, pw)
		}
	}

	buf := make([]byte, d.chunkSize)
	// Wrapping both sides keeps io.CopyBuffer from bypassing buf via
	// ReaderFrom/WriterTo.
	written, err := io.CopyBuffer(struct{ io.Writer }{w}, struct{ io.Reader }{resp.Body}, buf)
	if err != nil {
		if fw.err != nil {
			return written, &entities.IOError{Op: "write", Path: out.Name(), Err: fw.err}
		}
		return written, fmt.Errorf("failed to read response body: %w", err)
	}
	return written, nil
}

type fileWriter struct {
	f   *os.File
	err error
}

func (w *fileWriter) Write(p []byte) (int, error) {
	n, err := w.f.Write(p)
	if err != nil {
		w.err = err
	}
	return n, err
}

// validateFilename rejects anything that is not a plain file name, since the
// name comes from a remote page and is joined onto a local directory
func validateFilename(name string) error {
	if name == "" || name == "." || name == ".." ||
		strings.ContainsAny(name, `/\`) || name != filepath.Base(name) {
		return &entities.ExtractionError{Reason: fmt.Sprintf("unsafe artifact filename %q", name)}
	}
	return nil
}
