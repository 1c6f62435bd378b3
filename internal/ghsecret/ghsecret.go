// Package ghsecret stores repository secrets on GitHub.
//
// Two backends implement tunnel.SecretStore:
//   - CLIStore shells out to the gh CLI, piping the value on stdin
//   - APIStore calls the REST API through go-github, sealing the value with
//     the repository's public key
//
// Failures are classified with sentinel errors so callers can tell a missing
// tool from an unauthenticated one from a rejected write.
package ghsecret

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrCLINotFound means the gh executable could not be run.
	ErrCLINotFound = errors.New("gh CLI not found")

	// ErrNotAuthenticated means gh is installed but not logged in, or no
	// API token was supplied.
	ErrNotAuthenticated = errors.New("not authenticated to GitHub")

	// ErrTimeout means a step did not finish within its deadline.
	ErrTimeout = errors.New("timed out")

	// ErrWriteFailed means the secret write itself was rejected.
	ErrWriteFailed = errors.New("secret write failed")

	// ErrInvalidRepo means the repository is not in owner/repo form.
	ErrInvalidRepo = errors.New("repository must be owner/repo")
)

// SplitRepo splits an owner/repo identifier.
func SplitRepo(repo string) (owner, name string, err error) {
	owner, name, ok := strings.Cut(repo, "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidRepo, repo)
	}
	return owner, name, nil
}
