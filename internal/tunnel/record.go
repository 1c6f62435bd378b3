package tunnel

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/agentivo/overlap/internal/config"
)

// Record is the persisted tunnel configuration.
type Record struct {
	TunnelID    string `json:"tunnel_id"`
	TunnelName  string `json:"tunnel_name"`
	TunnelToken string `json:"tunnel_token"`
	Subdomain   string `json:"subdomain"`
	Domain      string `json:"domain"`
	URL         string `json:"url"`
	ServiceURL  string `json:"service_url"`
}

// Redacted returns a copy of r that is safe to print.
func (r Record) Redacted() Record {
	if r.TunnelToken != "" {
		r.TunnelToken = "[redacted]"
	}
	return r
}

// SaveRecord overwrites path with r as two-space indented JSON.
// The write goes through a temp file and rename while holding path.lock.
func SaveRecord(path string, r Record) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal tunnel config: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, config.DefaultDirPerms); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}

	lock := flock.New(path + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("failed to lock %s: %w", path, err)
	}
	defer lock.Unlock()

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Chmod(config.SecretFilePerms); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to chmod temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// LoadRecord reads a record written by SaveRecord.
func LoadRecord(path string) (Record, error) {
	var r Record

	data, err := os.ReadFile(path)
	if err != nil {
		return r, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &r); err != nil {
		return r, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return r, nil
}
