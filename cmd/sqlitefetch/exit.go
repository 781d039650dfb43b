package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/ochairo/sqlitefetch/internal/domain/entities"
	"github.com/ochairo/sqlitefetch/internal/domain/services"
)

// Exit codes, one per error kind so scripts can tell "vendor unreachable"
// from "page layout changed" from "disk problem" from "bad artifact"
const (
	exitOK         = 0
	exitFailure    = 1
	exitConfig     = 2
	exitHTTP       = 3
	exitExtraction = 4
	exitIO         = 5
	exitIntegrity  = 6
	exitSignature  = 7
)

func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	if errors.Is(err, services.ErrInvalidConfig) {
		return exitConfig
	}

	switch entities.KindOf(err) {
	case entities.KindHTTP:
		return exitHTTP
	case entities.KindExtraction:
		return exitExtraction
	case entities.KindIO:
		return exitIO
	case entities.KindIntegrity:
		return exitIntegrity
	case entities.KindSignature:
		return exitSignature
	default:
		return exitFailure
	}
}

func reportError(w io.Writer, err error) {
	fmt.Fprintf(w, "❌ Error: %v\n", err)

	var integrityErr *entities.IntegrityError
	var httpErr *entities.HTTPError
	switch {
	case errors.As(err, &integrityErr):
		fmt.Fprintf(w, "   expected: %s\n", integrityErr.Expected)
		fmt.Fprintf(w, "   actual:   %s\n", integrityErr.Actual)
	case errors.As(err, &httpErr):
		fmt.Fprintf(w, "   status:   %d\n", httpErr.StatusCode)
		fmt.Fprintf(w, "   url:      %s\n", httpErr.URL)
	}
}
