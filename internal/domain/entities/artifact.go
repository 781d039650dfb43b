// Package entities defines core domain models and data structures.
package entities

// ArtifactReference is what extraction yields from a release page.
// Both fields are non-empty whenever extraction succeeds.
type ArtifactReference struct {
	Filename     string
	ExpectedHash string
}

// DownloadedArtifact represents an artifact written to local disk
type DownloadedArtifact struct {
	URL         string
	LocalPath   string // final location, valid once promoted
	StagingPath string // where the bytes were actually streamed to
	ByteLength  int64
}

// Promoted reports whether the staged file has been moved onto LocalPath
func (a *DownloadedArtifact) Promoted() bool {
	return a.StagingPath == ""
}
