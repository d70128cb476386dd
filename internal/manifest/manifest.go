// Package manifest records what a build consumed and produced. The manifest
// is written to the output root as build-manifest.json.
package manifest

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/fundsite/internal/content"
	"git.home.luguber.info/inful/fundsite/internal/fsutil"
	"git.home.luguber.info/inful/fundsite/internal/git"
)

// FileName is the manifest's name in the output root.
const FileName = "build-manifest.json"

// BuildManifest represents a complete record of a build's inputs and outputs.
type BuildManifest struct {
	ID        string       `json:"id"`
	Timestamp time.Time    `json:"timestamp"`
	Version   string       `json:"version"`
	Revision  git.Revision `json:"revision"`
	Inputs    Inputs       `json:"inputs"`
	Outputs   Outputs      `json:"outputs"`
	Status    string       `json:"status"`
	Duration  int64        `json:"duration_ms"`
}

// Inputs captures the content snapshot the build rendered.
type Inputs struct {
	Source      string         `json:"source"`
	FetchedAt   time.Time      `json:"fetched_at"`
	ContentHash string         `json:"content_hash"`
	ConfigHash  string         `json:"config_hash,omitempty"`
	Collections map[string]int `json:"collections"`
}

// FailedRoute is a route whose page could not be rendered.
type FailedRoute struct {
	Path  string `json:"path"`
	Kind  string `json:"kind"`
	Error string `json:"error"`
}

// Outputs captures the emitted artifacts.
type Outputs struct {
	Pages          int               `json:"pages"`
	PagesByKind    map[string]int    `json:"pages_by_kind,omitempty"`
	Routes         []string          `json:"routes"`
	Failed         []FailedRoute     `json:"failed,omitempty"`
	SitemapURLs    int               `json:"sitemap_urls"`
	SitemapFiles   []string          `json:"sitemap_files,omitempty"`
	ArtifactHashes map[string]string `json:"artifact_hashes,omitempty"`
}

// New starts a manifest with a fresh build ID.
func New(version string, now time.Time) *BuildManifest {
	return &BuildManifest{ID: uuid.NewString(), Timestamp: now.UTC(), Version: version, Status: "running"}
}

// SetInputs fills Inputs from a content snapshot.
func (m *BuildManifest) SetInputs(source string, snap *content.Snapshot) error {
	h, err := ContentHash(snap.Collections)
	if err != nil {
		return err
	}
	m.Inputs.Source = source
	m.Inputs.FetchedAt = snap.FetchedAt.UTC()
	m.Inputs.ContentHash = h
	m.Inputs.Collections = snap.Counts()
	return nil
}

// ContentHash is the hex SHA-256 of the collections' JSON encoding.
func ContentHash(c content.Collections) (string, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("marshal collections: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// HashFiles returns the hex SHA-256 of each named file below root. Missing
// files are skipped.
func HashFiles(root string, names []string) (map[string]string, error) {
	out := make(map[string]string, len(names))
	for _, name := range names {
		f, err := os.Open(filepath.Join(root, filepath.Clean(name)))
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, err
		}
		h := sha256.New()
		_, err = io.Copy(h, f)
		_ = f.Close()
		if err != nil {
			return nil, fmt.Errorf("hash %s: %w", name, err)
		}
		out[name] = hex.EncodeToString(h.Sum(nil))
	}
	return out, nil
}

// ToJSON serializes the manifest to JSON.
func (m *BuildManifest) ToJSON() ([]byte, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal manifest: %w", err)
	}
	return data, nil
}

// FromJSON deserializes a manifest from JSON.
func FromJSON(data []byte) (*BuildManifest, error) {
	var m BuildManifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("unmarshal manifest: %w", err)
	}
	return &m, nil
}

// Write persists the manifest atomically as FileName below root.
func (m *BuildManifest) Write(root string) error {
	data, err := m.ToJSON()
	if err != nil {
		return err
	}
	return fsutil.WriteFileAtomic(filepath.Join(root, FileName), data, 0o644)
}

// Read loads the manifest from root.
func Read(root string) (*BuildManifest, error) {
	data, err := os.ReadFile(filepath.Join(root, FileName))
	if err != nil {
		return nil, err
	}
	return FromJSON(data)
}

// Hash computes a deterministic hash of the manifest's inputs and revision.
// Two builds with equal hashes rendered identical content from the same tree.
func (m *BuildManifest) Hash() (string, error) {
	keys := make([]string, 0, len(m.Inputs.Collections))
	for k := range m.Inputs.Collections {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	hashInput := struct {
		Source      string   `json:"source"`
		ContentHash string   `json:"content_hash"`
		ConfigHash  string   `json:"config_hash"`
		Commit      string   `json:"commit"`
		Version     string   `json:"version"`
		Collections []string `json:"collections"`
	}{
		Source:      m.Inputs.Source,
		ContentHash: m.Inputs.ContentHash,
		ConfigHash:  m.Inputs.ConfigHash,
		Commit:      m.Revision.Commit,
		Version:     m.Version,
		Collections: keys,
	}

	data, err := json.Marshal(hashInput)
	if err != nil {
		return "", fmt.Errorf("marshal for hash: %w", err)
	}

	hash := sha256.Sum256(data)
	return fmt.Sprintf("%x", hash), nil
}
