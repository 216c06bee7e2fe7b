package app

import (
	"errors"
	"fmt"

	"bvc-go/internal/bvc"
)

// Diagnose turns an error from the service layer into a short message for
// the user and, where one exists, a remediation hint. The full error chain
// still goes to the log; this is only the console rendering.
func Diagnose(err error) (msg, hint string) {
	var nf *bvc.NotFoundError
	var cnf *bvc.CommitNotFoundError
	var ir *bvc.InvalidRangeError
	var ru *bvc.RemoteUnavailableError
	var ua *bvc.UnauthorizedError
	var cm *bvc.ConfigurationMissingError

	switch {
	case errors.Is(err, bvc.ErrEmptyCommit):
		return "nothing to commit", "stage files with 'bvc add' first"
	case errors.As(err, &nf):
		return fmt.Sprintf("path not found: %s", nf.Path), ""
	case errors.As(err, &cnf):
		return fmt.Sprintf("no commit matches %q", cnf.Ref), "see 'bvc log' for commit ids"
	case errors.As(err, &ir):
		return fmt.Sprintf("invalid range: %s comes after %s", ir.From, ir.To), ""
	case errors.As(err, &ru):
		return fmt.Sprintf("remote unavailable: %s", ru.Endpoint), "check your network and the endpoints in the user configuration"
	case errors.As(err, &ua):
		return fmt.Sprintf("not authorized to %s", ua.Op), "the configured key does not own this repository"
	case errors.As(err, &cm):
		return fmt.Sprintf("missing configuration: %s", cm.Key), "run 'bvc config --setup'"
	}
	return err.Error(), ""
}
