// Package gateways defines interfaces for external service adapters.
package gateways

import (
	"context"

	"github.com/ochairo/sqlitefetch/internal/domain/entities"
)

// PageExtractor fetches the vendor release page and pulls the artifact
// reference out of it
type PageExtractor interface {
	FetchAndExtract(ctx context.Context, pageURL string) (*entities.ArtifactReference, error)
}

// MarkupExtractor isolates knowledge of one page layout.
// Implementations must return either a complete reference or an
// *entities.ExtractionError.
type MarkupExtractor interface {
	Extract(body []byte) (*entities.ArtifactReference, error)
}

// ArtifactDownloader streams an artifact to a staging file and later moves
// it into place
type ArtifactDownloader interface {
	ResolveURL(template, filename string) string
	Download(ctx context.Context, filename, destDir string) (*entities.DownloadedArtifact, error)
	Promote(artifact *entities.DownloadedArtifact) error
	Discard(artifact *entities.DownloadedArtifact) error
}

// IntegrityVerifier recomputes an artifact digest and compares it
type IntegrityVerifier interface {
	Verify(ctx context.Context, filePath, expectedSum string) (*entities.VerificationResult, error)
}

// SignatureVerifier checks a detached signature published next to the artifact
type SignatureVerifier interface {
	VerifySignature(ctx context.Context, filePath, sigURL string) error
}
