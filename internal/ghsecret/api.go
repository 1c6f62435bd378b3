package ghsecret

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/http"
	"time"

	"github.com/google/go-github/v81/github"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/nacl/box"

	"github.com/agentivo/overlap/internal/config"
)

// APIStore sets Actions secrets through the GitHub REST API.
type APIStore struct {
	client  *github.Client
	timeout time.Duration
}

// NewAPIStore returns an APIStore authenticated with token. A nil
// httpClient uses http.DefaultClient.
func NewAPIStore(token string, httpClient *http.Client) (*APIStore, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: GITHUB_TOKEN is not set", ErrNotAuthenticated)
	}
	return &APIStore{
		client:  github.NewClient(httpClient).WithAuthToken(token),
		timeout: config.SecretWriteTimeout,
	}, nil
}

// Set encrypts value with the repository public key and stores it as name.
func (s *APIStore) Set(ctx context.Context, name, value, repo string) error {
	owner, repoName, err := SplitRepo(repo)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	key, resp, err := s.client.Actions.GetRepoPublicKey(ctx, owner, repoName)
	if err != nil {
		if resp != nil && resp.Response != nil && (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden) {
			return fmt.Errorf("%w: %w", ErrNotAuthenticated, err)
		}
		return fmt.Errorf("%w: failed to get public key for %s: %w", ErrWriteFailed, repo, err)
	}

	encrypted, err := seal(key.GetKey(), value)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}

	_, err = s.client.Actions.CreateOrUpdateRepoSecret(ctx, owner, repoName, &github.EncryptedSecret{
		Name:           name,
		KeyID:          key.GetKeyID(),
		EncryptedValue: encrypted,
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}

	log.Debug().Str("secret", name).Str("repo", repo).Msg("secret stored via API")
	return nil
}

// seal encrypts value for the base64 Curve25519 public key as a libsodium
// sealed box, the format GitHub expects for secrets.
func seal(publicKey, value string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(publicKey)
	if err != nil {
		return "", fmt.Errorf("failed to decode public key: %w", err)
	}
	if len(raw) != 32 {
		return "", fmt.Errorf("public key must be 32 bytes, got %d", len(raw))
	}

	var recipient [32]byte
	copy(recipient[:], raw)

	sealed, err := box.SealAnonymous(nil, []byte(value), &recipient, rand.Reader)
	if err != nil {
		return "", fmt.Errorf("failed to encrypt secret: %w", err)
	}
	return base64.StdEncoding.EncodeToString(sealed), nil
}
