package tunnel

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecord() Record {
	return Record{
		TunnelID:    "t1",
		TunnelName:  "overlap-overlap",
		TunnelToken: "secret-token",
		Subdomain:   "overlap",
		Domain:      "neevs.io",
		URL:         "https://overlap.neevs.io",
		ServiceURL:  "http://localhost:3000",
	}
}

func TestSaveRecordFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tunnel.json")
	require.NoError(t, SaveRecord(path, sampleRecord()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	want := `{
  "tunnel_id": "t1",
  "tunnel_name": "overlap-overlap",
  "tunnel_token": "secret-token",
  "subdomain": "overlap",
  "domain": "neevs.io",
  "url": "https://overlap.neevs.io",
  "service_url": "http://localhost:3000"
}
`
	assert.Equal(t, want, string(data))

	if runtime.GOOS != "windows" {
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
	}
}

func TestSaveRecordOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tunnel.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"tunnel_id":"old","extra":"field"}`), 0644))

	r := sampleRecord()
	r.TunnelID = "new"
	require.NoError(t, SaveRecord(path, r))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "extra")

	loaded, err := LoadRecord(path)
	require.NoError(t, err)
	assert.Equal(t, r, loaded)
}

func TestSaveRecordCreatesDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "tunnel.json")
	require.NoError(t, SaveRecord(path, sampleRecord()))
	assert.FileExists(t, path)
}

func TestLoadRecordErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadRecord(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{"), 0600))
	_, err = LoadRecord(bad)
	assert.Error(t, err)
}

func TestRedacted(t *testing.T) {
	r := sampleRecord()
	red := r.Redacted()

	assert.Equal(t, "[redacted]", red.TunnelToken)
	assert.Equal(t, "secret-token", r.TunnelToken, "original must be untouched")
	assert.Equal(t, r.URL, red.URL)

	assert.Empty(t, Record{}.Redacted().TunnelToken)
}

func TestURLHelpers(t *testing.T) {
	assert.Equal(t, "demo.example.com", Hostname("demo", "example.com"))
	assert.Equal(t, "https://demo.example.com", PublicURL("demo", "example.com"))
	assert.Equal(t, "http://localhost:3000", ServiceURL("3000"))
}
