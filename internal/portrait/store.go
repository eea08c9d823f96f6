package portrait

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
)

// Kind selects the content-store subdirectory and file name prefix.
type Kind string

const (
	KindCharacter Kind = "characters"
	KindGM        Kind = "gm"
)

// stableID is the durable file stem for an entity's portrait.
func stableID(kind Kind, id uint) string {
	if kind == KindGM {
		return fmt.Sprintf("gm_%d", id)
	}
	return fmt.Sprintf("character_%d", id)
}

// promote downloads a provider-hosted image and writes it into the content
// store, returning the local relative path. Provider URLs are ephemeral, so
// the local copy becomes the durable reference. URLs that do not match the
// provider blob host pattern are returned unchanged; so is the original URL
// when the download fails.
func (g *Generator) promote(ctx context.Context, rawURL string, kind Kind, id uint) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || !g.blobHost.MatchString(parsed.Host) {
		return rawURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return rawURL
	}
	resp, err := g.downloader.Do(req)
	if err != nil {
		g.log.Warn("portrait download failed, keeping remote URL", "kind", string(kind), "id", id, "error", err)
		return rawURL
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		g.log.Warn("portrait download failed, keeping remote URL", "kind", string(kind), "id", id, "status", resp.StatusCode)
		return rawURL
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		g.log.Warn("portrait download failed, keeping remote URL", "kind", string(kind), "id", id, "error", err)
		return rawURL
	}

	dir := filepath.Join(g.opts.ContentRoot, string(kind))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		g.log.Error("failed to create content store directory", "dir", dir, "error", err)
		return rawURL
	}

	fileName := stableID(kind, id) + ".png"
	if err := os.WriteFile(filepath.Join(dir, fileName), data, 0o644); err != nil {
		g.log.Error("failed to write portrait file", "file", fileName, "error", err)
		return rawURL
	}

	// References use forward slashes regardless of platform.
	local := path.Join(g.opts.ContentRoot, string(kind), fileName)
	g.log.Info("portrait promoted to content store", "kind", string(kind), "id", id, "path", local)
	return local
}
