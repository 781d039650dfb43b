package gateways

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/ochairo/sqlitefetch/internal/domain/entities"
	"github.com/ochairo/sqlitefetch/internal/domain/interfaces"
	"github.com/ochairo/sqlitefetch/internal/domain/interfaces/gateways"
)

// maxPageSize caps how much of the release page is read into memory
const maxPageSize = 8 * 1024 * 1024

// PageExtractor fetches the release page once and hands the body to a
// MarkupExtractor
type PageExtractor struct {
	httpClient *http.Client
	markup     gateways.MarkupExtractor
	logger     interfaces.Logger
}

// NewPageExtractor creates a page extractor
func NewPageExtractor(client *http.Client, markup gateways.MarkupExtractor, logger interfaces.Logger) *PageExtractor {
	if client == nil {
		client = http.DefaultClient
	}
	return &PageExtractor{
		httpClient: client,
		markup:     markup,
		logger:     interfaces.OrNoOp(logger),
	}
}

// FetchAndExtract fetches pageURL and extracts the artifact reference from it
func (p *PageExtractor) FetchAndExtract(ctx context.Context, pageURL string) (*entities.ArtifactReference, error) {
	page, err := p.FetchPage(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	ref, err := p.markup.Extract(page.Body)
	if err != nil {
		return nil, err
	}

	p.logger.Info("release page parsed",
		interfaces.F("url", page.URL),
		interfaces.F("filename", ref.Filename),
		interfaces.F("expected_hash", ref.ExpectedHash))

	return ref, nil
}

// FetchPage performs the GET and returns the page snapshot.
// Any status other than 200 is an *entities.HTTPError.
func (p *PageExtractor) FetchPage(ctx context.Context, pageURL string) (*entities.ReleasePage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	//nolint:errcheck // Defer close
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &entities.HTTPError{URL: pageURL, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	return &entities.ReleasePage{
		URL:        pageURL,
		StatusCode: resp.StatusCode,
		Body:       body,
	}, nil
}
