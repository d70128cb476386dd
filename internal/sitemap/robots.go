package sitemap

import "strings"

var (
	robotsAgents    = []string{"*", "Googlebot", "Bingbot"}
	robotsDisallows = []string{"/admin/", "/auth/", "/api/", "/account/"}
)

// Robots renders robots.txt with one block per crawler class and a trailing
// Sitemap line for each given sitemap URL.
func Robots(sitemapURLs ...string) string {
	var b strings.Builder
	for i, agent := range robotsAgents {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("User-agent: " + agent + "\n")
		b.WriteString("Allow: /\n")
		for _, d := range robotsDisallows {
			b.WriteString("Disallow: " + d + "\n")
		}
	}
	if len(sitemapURLs) > 0 {
		b.WriteByte('\n')
	}
	for _, u := range sitemapURLs {
		b.WriteString("Sitemap: " + u + "\n")
	}
	return b.String()
}
