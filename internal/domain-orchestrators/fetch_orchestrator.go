// Package orchestrators coordinates complex workflows across multiple domain services.
package orchestrators

import (
	"context"
	"fmt"
	"time"

	"github.com/ochairo/sqlitefetch/internal/domain/entities"
	"github.com/ochairo/sqlitefetch/internal/domain/interfaces"
	"github.com/ochairo/sqlitefetch/internal/domain/interfaces/gateways"
)

// FetchOrchestrator runs the extract, download, verify pipeline once
type FetchOrchestrator struct {
	extractor     gateways.PageExtractor
	downloader    gateways.ArtifactDownloader
	verifier      gateways.IntegrityVerifier
	sigVerifier   gateways.SignatureVerifier
	pageURL       string
	destination   string
	signatureTmpl string
	logger        interfaces.Logger
}

// FetchOrchestratorConfig holds configuration for the orchestrator
type FetchOrchestratorConfig struct {
	PageURL     string
	Destination string
	// SignatureURLTemplate is only used when a SignatureVerifier is supplied
	SignatureURLTemplate string
}

// NewFetchOrchestrator creates a new fetch orchestrator. sigVerifier may be nil.
func NewFetchOrchestrator(
	extractor gateways.PageExtractor,
	downloader gateways.ArtifactDownloader,
	verifier gateways.IntegrityVerifier,
	sigVerifier gateways.SignatureVerifier,
	config FetchOrchestratorConfig,
	logger interfaces.Logger,
) *FetchOrchestrator {
	pageURL := config.PageURL
	if pageURL == "" {
		pageURL = entities.DefaultPageURL
	}

	return &FetchOrchestrator{
		extractor:     extractor,
		downloader:    downloader,
		verifier:      verifier,
		sigVerifier:   sigVerifier,
		pageURL:       pageURL,
		destination:   config.Destination,
		signatureTmpl: config.SignatureURLTemplate,
		logger:        interfaces.OrNoOp(logger),
	}
}

// FetchResult contains the result of a fetch run
type FetchResult struct {
	Reference         *entities.ArtifactReference
	Artifact          *entities.DownloadedArtifact
	Verification      *entities.VerificationResult
	SignatureVerified bool
	DownloadDuration  time.Duration
	TotalDuration     time.Duration
	Success           bool
	Error             error
}

// Run extracts the artifact reference once and threads it through download
// and verification. The artifact only reaches its final path after every
// check has passed.
func (o *FetchOrchestrator) Run(ctx context.Context) (*FetchResult, error) {
	startTime := time.Now()
	result := &FetchResult{}
	fail := func(err error) (*FetchResult, error) {
		result.Error = err
		result.TotalDuration = time.Since(startTime)
		o.logger.Error("fetch failed",
			interfaces.F("kind", string(entities.KindOf(err))),
			interfaces.F("error", err.Error()))
		return result, err
	}

	// Step 1: Extract filename and expected hash
	ref, err := o.extractor.FetchAndExtract(ctx, o.pageURL)
	if err != nil {
		return fail(fmt.Errorf("failed to read release page: %w", err))
	}
	result.Reference = ref

	// Step 2: Download to a staging file
	downloadStart := time.Now()
	artifact, err := o.downloader.Download(ctx, ref.Filename, o.destination)
	result.DownloadDuration = time.Since(downloadStart)
	if err != nil {
		return fail(fmt.Errorf("failed to download %s: %w", ref.Filename, err))
	}
	result.Artifact = artifact

	// Step 3: Verify the staged bytes against the hash from step 1
	verification, err := o.verifier.Verify(ctx, artifact.StagingPath, ref.ExpectedHash)
	if err != nil {
		o.discard(artifact)
		return fail(fmt.Errorf("failed to verify %s: %w", ref.Filename, err))
	}
	result.Verification = verification
	if !verification.Matched {
		o.discard(artifact)
		return fail(&entities.IntegrityError{Expected: verification.Expected, Actual: verification.Actual})
	}

	// Step 4: Optional detached signature
	if o.sigVerifier != nil && o.signatureTmpl != "" {
		sigURL := o.downloader.ResolveURL(o.signatureTmpl, ref.Filename)
		if err := o.sigVerifier.VerifySignature(ctx, artifact.StagingPath, sigURL); err != nil {
			o.discard(artifact)
			return fail(&entities.SignatureError{Err: err})
		}
		result.SignatureVerified = true
	}

	// Step 5: Move into place
	if err := o.downloader.Promote(artifact); err != nil {
		o.discard(artifact)
		return fail(err)
	}

	result.Success = true
	result.TotalDuration = time.Since(startTime)

	o.logger.Info("artifact verified",
		interfaces.F("path", artifact.LocalPath),
		interfaces.F("sha3_256", verification.Actual),
		interfaces.F("signature", result.SignatureVerified))

	return result, nil
}

func (o *FetchOrchestrator) discard(artifact *entities.DownloadedArtifact) {
	if err := o.downloader.Discard(artifact); err != nil {
		o.logger.Warn("failed to remove staging file", interfaces.F("error", err.Error()))
	}
}
