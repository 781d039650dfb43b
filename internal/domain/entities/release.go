package entities

// ReleasePage is a snapshot of one fetch of the vendor downloads page
type ReleasePage struct {
	URL        string
	StatusCode int
	Body       []byte
}

// VerificationResult is the outcome of comparing a recomputed digest
// against the published one
type VerificationResult struct {
	Matched  bool
	Expected string
	Actual   string
}
