package config

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strconv"
	"strings"
)

// Snapshot computes a stable hash of the configuration fields that affect
// emitted output. Runtime-only settings (metrics, notify, daemon) are left out
// so toggling them does not change the hash. Slice fields are order-insensitive.
func (c *Config) Snapshot() string {
	if c == nil {
		return ""
	}
	h := sha256.New()
	w := func(parts ...string) { h.Write([]byte(strings.Join(parts, "="))); h.Write([]byte{0}) }
	w("site.base_url", c.Site.BaseURL)
	w("site.name", c.Site.Name)
	w("site.description", c.Site.Description)
	w("content.source", string(c.Content.Source))
	w("build.assets_dir", c.Build.AssetsDir)
	w("sitemap.max_urls_per_file", strconv.Itoa(c.Sitemap.MaxURLsPerFile))
	w("sitemap.disk_audit", strconv.FormatBool(c.Sitemap.DiskAuditEnabled()))
	w("sitemap.verify_pass", strconv.FormatBool(c.Sitemap.VerifyPassEnabled()))
	w("validation.rich_min_bytes", strconv.Itoa(c.Validation.RichMinBytes))
	w("validation.min_bytes", strconv.Itoa(c.Validation.MinBytes))
	w("team.min_bio_length", strconv.Itoa(c.Team.MinBioLength))
	if len(c.Team.RemovedIDs) > 0 {
		ids := append([]string{}, c.Team.RemovedIDs...)
		sort.Strings(ids)
		w("team.removed_ids", strings.Join(ids, ","))
	}
	return hex.EncodeToString(h.Sum(nil))
}
