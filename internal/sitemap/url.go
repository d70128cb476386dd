// Package sitemap builds the XML sitemap set and robots.txt for an emitted
// site: candidate collection, an optional audit of the output tree,
// de-duplication, an optional verification pass, deterministic ordering and
// chunking.
package sitemap

import (
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// MaxURLsPerFile is the sitemap protocol limit.
const MaxURLsPerFile = 50000

// ChangeFreq is the sitemap changefreq enumeration.
type ChangeFreq string

const (
	Always  ChangeFreq = "always"
	Hourly  ChangeFreq = "hourly"
	Daily   ChangeFreq = "daily"
	Weekly  ChangeFreq = "weekly"
	Monthly ChangeFreq = "monthly"
	Yearly  ChangeFreq = "yearly"
	Never   ChangeFreq = "never"
)

// URL is one sitemap entry.
type URL struct {
	Loc        string
	LastMod    time.Time
	ChangeFreq ChangeFreq
	Priority   float64
}

// File describes one emitted URL set file.
type File struct {
	Filename string    `json:"filename"`
	URLCount int       `json:"url_count"`
	LastMod  time.Time `json:"lastmod"`
}

// NormalizeLoc is the de-duplication key for a location: scheme and host
// lowercased, fragment dropped, trailing slash removed except for the root.
func NormalizeLoc(loc string) string {
	loc = strings.TrimSpace(loc)
	u, err := url.Parse(loc)
	if err != nil || u.Host == "" {
		if t := strings.TrimRight(loc, "/"); t != "" {
			return t
		}
		return loc
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.RawFragment = ""
	p := strings.TrimRight(u.EscapedPath(), "/")
	if p == "" {
		p = "/"
	}
	out := u.Scheme + "://" + u.Host + p
	if u.RawQuery != "" {
		out += "?" + u.RawQuery
	}
	return out
}

// FormatPriority renders p with one decimal, rounding half up and clamping to [0,1].
func FormatPriority(p float64) string {
	p = math.Floor(p*10+0.5+1e-9) / 10
	if p < 0 {
		p = 0
	}
	if p > 1 {
		p = 1
	}
	return strconv.FormatFloat(p, 'f', 1, 64)
}

// FormatDate renders t as a W3C date (YYYY-MM-DD) in UTC.
func FormatDate(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
