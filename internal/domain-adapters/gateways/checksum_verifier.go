package gateways

import (
	"context"
	"encoding/hex"
	"io"
	"os"

	"golang.org/x/crypto/sha3"

	"github.com/ochairo/sqlitefetch/internal/domain/entities"
)

// ChecksumVerifier implements SHA3-256 verification, reading files in
// fixed-size chunks
type ChecksumVerifier struct {
	chunkSize int
}

// NewChecksumVerifier creates a new checksum verifier
func NewChecksumVerifier(chunkSize int) *ChecksumVerifier {
	if chunkSize <= 0 {
		chunkSize = entities.DefaultChunkSize
	}
	return &ChecksumVerifier{chunkSize: chunkSize}
}

// Verify recomputes the digest of filePath and compares it with expectedSum.
// A mismatch is reported in the result, not as an error.
func (v *ChecksumVerifier) Verify(_ context.Context, filePath, expectedSum string) (*entities.VerificationResult, error) {
	actualSum, err := v.CalculateChecksum(filePath)
	if err != nil {
		return nil, err
	}

	return &entities.VerificationResult{
		Matched:  actualSum == expectedSum,
		Expected: expectedSum,
		Actual:   actualSum,
	}, nil
}

// VerifyChecksum is the fail-fast form of Verify: a mismatch is an
// *entities.IntegrityError
func (v *ChecksumVerifier) VerifyChecksum(ctx context.Context, filePath, expectedSum string) error {
	result, err := v.Verify(ctx, filePath, expectedSum)
	if err != nil {
		return err
	}
	if !result.Matched {
		return &entities.IntegrityError{Expected: result.Expected, Actual: result.Actual}
	}
	return nil
}

// CalculateChecksum calculates the lowercase hex SHA3-256 of a file
func (v *ChecksumVerifier) CalculateChecksum(filePath string) (string, error) {
	//nolint:gosec // G304: File path is user-provided for checksum calculation
	f, err := os.Open(filePath)
	if err != nil {
		return "", &entities.IOError{Op: "open", Path: filePath, Err: err}
	}
	//nolint:errcheck // Defer close on read-only file
	defer f.Close()

	sum, err := DigestReader(f, v.chunkSize)
	if err != nil {
		return "", &entities.IOError{Op: "read", Path: filePath, Err: err}
	}
	return sum, nil
}

// DigestReader feeds r into SHA3-256 chunkSize bytes at a time
func DigestReader(r io.Reader, chunkSize int) (string, error) {
	if chunkSize <= 0 {
		chunkSize = entities.DefaultChunkSize
	}

	h := sha3.New256()
	buf := make([]byte, chunkSize)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			h.Write(buf[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}
