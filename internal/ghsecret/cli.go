package ghsecret

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/agentivo/overlap/internal/config"
)

// CLIStore sets secrets with `gh secret set`.
type CLIStore struct {
	// Binary is the gh executable (default "gh").
	Binary string

	// ProbeTimeout bounds `--version` and `auth status`.
	ProbeTimeout time.Duration

	// WriteTimeout bounds `secret set`.
	WriteTimeout time.Duration
}

// NewCLIStore returns a CLIStore with the default binary and timeouts.
func NewCLIStore() *CLIStore {
	return &CLIStore{
		Binary:       "gh",
		ProbeTimeout: config.ProbeTimeout,
		WriteTimeout: config.SecretWriteTimeout,
	}
}

// Set checks gh is installed and authenticated, then stores value as the
// secret name on repo. The value is written to gh's stdin only.
func (s *CLIStore) Set(ctx context.Context, name, value, repo string) error {
	if _, _, err := SplitRepo(repo); err != nil {
		return err
	}

	if _, err := s.run(ctx, s.ProbeTimeout, nil, "--version"); err != nil {
		return classify(err, ErrCLINotFound)
	}

	if _, err := s.run(ctx, s.ProbeTimeout, nil, "auth", "status"); err != nil {
		return classify(err, ErrNotAuthenticated)
	}

	out, err := s.run(ctx, s.WriteTimeout, strings.NewReader(value), "secret", "set", name, "--repo", repo)
	if err != nil {
		return classify(err, ErrWriteFailed)
	}

	log.Debug().Str("secret", name).Str("repo", repo).Str("output", strings.TrimSpace(out)).Msg("gh secret set")
	return nil
}

// exitError carries a failed command's combined output.
type exitError struct {
	args   []string
	output string
	err    error
}

func (e *exitError) Error() string {
	msg := fmt.Sprintf("gh %s: %v", strings.Join(e.args, " "), e.err)
	if e.output != "" {
		msg += ": " + e.output
	}
	return msg
}

func (e *exitError) Unwrap() error { return e.err }

func (s *CLIStore) run(ctx context.Context, timeout time.Duration, stdin *strings.Reader, args ...string) (string, error) {
	binary := s.Binary
	if binary == "" {
		binary = "gh"
	}
	if timeout <= 0 {
		timeout = config.ProbeTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, binary, args...)
	if stdin != nil {
		cmd.Stdin = stdin
	}
	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output
	cmd.WaitDelay = time.Second

	err := cmd.Run()
	if ctxErr := ctx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			return "", fmt.Errorf("gh %s: %w", strings.Join(args, " "), ErrTimeout)
		}
		return "", fmt.Errorf("gh %s: %w", strings.Join(args, " "), ctxErr)
	}
	if err != nil {
		return "", &exitError{args: args, output: strings.TrimSpace(output.String()), err: err}
	}
	return output.String(), nil
}

// classify maps a run error onto the sentinel for the failing step. A
// missing executable is ErrCLINotFound whatever the step.
func classify(err error, step error) error {
	switch {
	case errors.Is(err, ErrTimeout):
		return fmt.Errorf("%w: %w", step, err)
	case errors.Is(err, exec.ErrNotFound), errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%w: %w", ErrCLINotFound, err)
	default:
		return fmt.Errorf("%w: %w", step, err)
	}
}
