package sitemap

import (
	"bytes"
	"encoding/xml"
)

const xmlns = "http://www.sitemaps.org/schemas/sitemap/0.9"

type urlSet struct {
	XMLName xml.Name `xml:"urlset"`
	XMLNS   string   `xml:"xmlns,attr"`
	URLs    []xmlURL `xml:"url"`
}

type xmlURL struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod,omitempty"`
	ChangeFreq string `xml:"changefreq,omitempty"`
	Priority   string `xml:"priority,omitempty"`
}

type sitemapIndex struct {
	XMLName  xml.Name     `xml:"sitemapindex"`
	XMLNS    string       `xml:"xmlns,attr"`
	Sitemaps []xmlSitemap `xml:"sitemap"`
}

type xmlSitemap struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

func encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// EncodeURLSet renders a <urlset> document.
func EncodeURLSet(urls []URL) ([]byte, error) {
	set := urlSet{XMLNS: xmlns, URLs: make([]xmlURL, 0, len(urls))}
	for _, u := range urls {
		x := xmlURL{Loc: u.Loc, ChangeFreq: string(u.ChangeFreq), Priority: FormatPriority(u.Priority)}
		if !u.LastMod.IsZero() {
			x.LastMod = FormatDate(u.LastMod)
		}
		set.URLs = append(set.URLs, x)
	}
	return encode(set)
}

// EncodeIndex renders a <sitemapindex> document referencing files below baseURL.
func EncodeIndex(baseURL string, files []File) ([]byte, error) {
	idx := sitemapIndex{XMLNS: xmlns, Sitemaps: make([]xmlSitemap, 0, len(files))}
	for _, f := range files {
		idx.Sitemaps = append(idx.Sitemaps, xmlSitemap{Loc: baseURL + "/" + f.Filename, LastMod: FormatDate(f.LastMod)})
	}
	return encode(idx)
}

// ParseLocs returns the <loc> values of a urlset or sitemapindex document
// and whether it was an index.
func ParseLocs(data []byte) (locs []string, isIndex bool, err error) {
	var probe struct {
		XMLName  xml.Name
		URLs     []xmlURL     `xml:"url"`
		Sitemaps []xmlSitemap `xml:"sitemap"`
	}
	if err := xml.Unmarshal(data, &probe); err != nil {
		return nil, false, err
	}
	if probe.XMLName.Local == "sitemapindex" {
		for _, s := range probe.Sitemaps {
			locs = append(locs, s.Loc)
		}
		return locs, true, nil
	}
	for _, u := range probe.URLs {
		locs = append(locs, u.Loc)
	}
	return locs, false, nil
}
