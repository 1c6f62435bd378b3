package ghsecret

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/nacl/box"
)

type fakeGitHub struct {
	publicKey  *[32]byte
	privateKey *[32]byte

	keyStatus int
	putStatus int

	putPath string
	putBody map[string]string
	auth    string
}

func newFakeGitHub(t *testing.T) (*fakeGitHub, *APIStore) {
	t.Helper()

	pub, priv, err := box.GenerateKey(rand.Reader)
	require.NoError(t, err)

	f := &fakeGitHub{publicKey: pub, privateKey: priv, keyStatus: http.StatusOK, putStatus: http.StatusCreated}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/octo/demo/actions/secrets/public-key", func(w http.ResponseWriter, r *http.Request) {
		f.auth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(f.keyStatus)
		if f.keyStatus != http.StatusOK {
			_, _ = w.Write([]byte(`{"message":"Bad credentials"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{
			"key_id": "key-1",
			"key":    base64.StdEncoding.EncodeToString(f.publicKey[:]),
		})
	})
	mux.HandleFunc("PUT /repos/octo/demo/actions/secrets/{name}", func(w http.ResponseWriter, r *http.Request) {
		f.putPath = r.URL.Path
		f.putBody = map[string]string{}
		_ = json.NewDecoder(r.Body).Decode(&f.putBody)
		w.WriteHeader(f.putStatus)
		if f.putStatus >= 300 {
			_, _ = w.Write([]byte(`{"message":"nope"}`))
		}
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	store, err := NewAPIStore("gh-token", srv.Client())
	require.NoError(t, err)
	store.client.BaseURL, err = url.Parse(srv.URL + "/")
	require.NoError(t, err)

	return f, store
}

func TestNewAPIStoreRequiresToken(t *testing.T) {
	_, err := NewAPIStore("", nil)
	assert.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestAPIStoreSet(t *testing.T) {
	f, store := newFakeGitHub(t)

	require.NoError(t, store.Set(context.Background(), "TUNNEL_TOKEN", "tok-secret", "octo/demo"))

	assert.Equal(t, "Bearer gh-token", f.auth)
	assert.Equal(t, "/repos/octo/demo/actions/secrets/TUNNEL_TOKEN", f.putPath)
	assert.Equal(t, "key-1", f.putBody["key_id"])

	sealed, err := base64.StdEncoding.DecodeString(f.putBody["encrypted_value"])
	require.NoError(t, err)
	plain, ok := box.OpenAnonymous(nil, sealed, f.publicKey, f.privateKey)
	require.True(t, ok, "sealed box must open with the repository key")
	assert.Equal(t, "tok-secret", string(plain))
}

func TestAPIStoreUnauthorized(t *testing.T) {
	f, store := newFakeGitHub(t)
	f.keyStatus = http.StatusUnauthorized

	err := store.Set(context.Background(), "TUNNEL_TOKEN", "tok", "octo/demo")
	assert.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestAPIStoreWriteRejected(t *testing.T) {
	f, store := newFakeGitHub(t)
	f.putStatus = http.StatusUnprocessableEntity

	err := store.Set(context.Background(), "TUNNEL_TOKEN", "tok", "octo/demo")
	assert.ErrorIs(t, err, ErrWriteFailed)
}

func TestAPIStoreInvalidRepo(t *testing.T) {
	_, store := newFakeGitHub(t)

	err := store.Set(context.Background(), "TUNNEL_TOKEN", "tok", "not-a-repo")
	assert.ErrorIs(t, err, ErrInvalidRepo)
}

func TestSealRejectsBadKeys(t *testing.T) {
	_, err := seal("!!!", "v")
	assert.Error(t, err)

	_, err = seal(base64.StdEncoding.EncodeToString([]byte("short")), "v")
	assert.Error(t, err)
}

func TestSplitRepo(t *testing.T) {
	owner, name, err := SplitRepo("agentivo/overlap")
	require.NoError(t, err)
	assert.Equal(t, "agentivo", owner)
	assert.Equal(t, "overlap", name)

	for _, bad := range []string{"", "overlap", "/overlap", "agentivo/", "a/b/c"} {
		_, _, err := SplitRepo(bad)
		assert.ErrorIs(t, err, ErrInvalidRepo, bad)
	}
}
