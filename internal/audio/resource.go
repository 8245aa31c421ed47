package audio

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"time"
)

// Resource is the alarm sound, prepared once and reused for every ring.
type Resource struct {
	Source string
	// Path is the local file to play. Empty until Prepare succeeds.
	Path string
}

// Prepare resolves source to a local file. Remote sources are downloaded
// into cacheDir once and reused on later runs.
func Prepare(ctx context.Context, source, cacheDir string, client *http.Client) (*Resource, error) {
	res := &Resource{Source: source}
	if source == "" {
		return res, nil
	}

	u, err := url.Parse(source)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		if _, err := os.Stat(source); err != nil {
			return res, fmt.Errorf("audio file not found: %w", err)
		}
		res.Path = source
		return res, nil
	}

	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return res, fmt.Errorf("failed to create audio cache: %w", err)
	}

	sum := sha256.Sum256([]byte(source))
	target := filepath.Join(cacheDir, hex.EncodeToString(sum[:8])+path.Ext(u.Path))
	if info, err := os.Stat(target); err == nil && info.Size() > 0 {
		res.Path = target
		return res, nil
	}

	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if err := download(ctx, client, source, target); err != nil {
		return res, err
	}
	res.Path = target
	return res, nil
}

// Ready reports whether a local file is available.
func (r *Resource) Ready() bool {
	return r != nil && r.Path != ""
}

func download(ctx context.Context, client *http.Client, source, target string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return fmt.Errorf("failed to build audio request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch audio: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to fetch audio: %s", resp.Status)
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), ".audio-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create audio file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write audio file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, target)
}
