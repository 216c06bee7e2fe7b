package bvc

import (
	"errors"
	"fmt"
)

// ErrEmptyCommit is returned when a commit or checkpoint is attempted with
// nothing to operate on (empty staging set, or an empty commit chain).
var ErrEmptyCommit = errors.New("nothing to commit")

// NotFoundError reports a missing local file or repository.
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("not found: %s", e.Path)
}

// CommitNotFoundError reports a commit reference (possibly abbreviated) that
// matched nothing in the local chain.
type CommitNotFoundError struct {
	Ref string
}

func (e *CommitNotFoundError) Error() string {
	return fmt.Sprintf("no commit matching %q", e.Ref)
}

// InvalidRangeError reports a checkpoint range whose from-commit occurs
// after its to-commit in chain order.
type InvalidRangeError struct {
	From string
	To   string
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("invalid range: %s occurs after %s", e.From, e.To)
}

// RemoteUnavailableError reports a connectivity failure against the ledger
// or the content store.
type RemoteUnavailableError struct {
	Endpoint string
	Err      error
}

func (e *RemoteUnavailableError) Error() string {
	return fmt.Sprintf("remote unavailable at %s: %v", e.Endpoint, e.Err)
}

func (e *RemoteUnavailableError) Unwrap() error { return e.Err }

// UnauthorizedError reports that the caller is not the registered owner of
// the remote repository. The check is enforced by the contract; this type
// only surfaces it.
type UnauthorizedError struct {
	Op string
}

func (e *UnauthorizedError) Error() string {
	return fmt.Sprintf("%s rejected: caller is not the repository owner", e.Op)
}

// ConfigurationMissingError reports an absent credential or endpoint that
// the requested operation requires.
type ConfigurationMissingError struct {
	Key string
}

func (e *ConfigurationMissingError) Error() string {
	return fmt.Sprintf("missing configuration: %s", e.Key)
}
