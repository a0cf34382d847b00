package docsync

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

var (
	markdownLinkPattern  = regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`)
	invalidFilenameChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)
)

const (
	maxFilenameLen = 100
	// Single-rune ellipsis so a truncated name survives the trailing-dot trim
	// when sanitized again.
	ellipsis = "…"
)

// Link is one [label](url) pair extracted from a manifest.
type Link struct {
	Label string
	URL   string
}

// Document is one downloaded file staged for upload, labeled by its manifest
// link text.
type Document struct {
	Label string
	Path  string
}

// ExtractMarkdownLinks returns every markdown-style link in content whose
// target ends in .md. Anything else in the manifest is ignored.
func ExtractMarkdownLinks(content string) []Link {
	var links []Link
	for _, m := range markdownLinkPattern.FindAllStringSubmatch(content, -1) {
		if strings.HasSuffix(m[2], ".md") {
			links = append(links, Link{Label: m[1], URL: m[2]})
		}
	}
	return links
}

// CleanFilename turns a link label into a safe local filename: characters
// illegal in filesystem names become underscores, surrounding spaces and dots
// are trimmed, and names over 100 bytes are cut to 97 plus an ellipsis marker.
// Sanitizing an already-sanitized name is a no-op.
func CleanFilename(label string) string {
	clean := invalidFilenameChars.ReplaceAllString(label, "_")
	clean = strings.Trim(clean, ". ")
	if len(clean) > maxFilenameLen {
		cut := maxFilenameLen - len(ellipsis)
		for cut > 0 && !utf8.RuneStart(clean[cut]) {
			cut--
		}
		clean = clean[:cut] + ellipsis
	}
	return clean
}

// Fetcher downloads manifest-listed markdown documents into a local scratch
// directory. It never mutates remote state.
type Fetcher struct {
	http *http.Client
}

func NewFetcher() *Fetcher {
	return &Fetcher{http: &http.Client{Timeout: 60 * time.Second}}
}

// Download fetches the manifest at manifestURL, downloads every .md link into
// destDir, and returns the (label, path) pairs. Any failed download aborts
// the whole fetch; entries with a blank URL are skipped.
func (f *Fetcher) Download(ctx context.Context, manifestURL, destDir string) ([]Document, error) {
	body, err := f.get(ctx, manifestURL)
	if err != nil {
		return nil, fmt.Errorf("download manifest: %w", err)
	}
	links := ExtractMarkdownLinks(strings.TrimSpace(string(body)))
	log.Printf("[docsync] manifest %s lists %d markdown files", manifestURL, len(links))

	docs := make([]Document, 0, len(links))
	for i, link := range links {
		if strings.TrimSpace(link.URL) == "" {
			continue
		}
		log.Printf("[docsync] downloading file %d/%d: %s", i+1, len(links), link.URL)
		content, err := f.get(ctx, link.URL)
		if err != nil {
			return nil, fmt.Errorf("download %q: %w", link.Label, err)
		}
		path := filepath.Join(destDir, CleanFilename(link.Label)+".md")
		if err := os.WriteFile(path, content, 0o644); err != nil {
			return nil, fmt.Errorf("write %s: %w", path, err)
		}
		docs = append(docs, Document{Label: link.Label, Path: path})
	}
	return docs, nil
}

func (f *Fetcher) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("GET %s: unexpected status %s", rawURL, resp.Status)
	}
	return io.ReadAll(resp.Body)
}
