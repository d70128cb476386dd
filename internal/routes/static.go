package routes

// Hub and static page names, in emission order.
var hubNames = []string{
	"funds", "categories", "tags", "managers", "team", "compare",
	"faq", "about", "methodology", "contact", "privacy", "terms",
}

// Content-type prefixes. A content slug must only ever appear beneath its prefix.
const (
	PrefixFunds      = "/funds"
	PrefixCategories = "/categories"
	PrefixTags       = "/tags"
	PrefixManagers   = "/managers"
	PrefixTeam       = "/team"
	PrefixCompare    = "/compare"
)

// NotFoundPath is the output-relative location of the 404 document.
const NotFoundPath = "/404.html"

// StaticPaths returns the fixed site paths: home followed by every hub page.
func StaticPaths() []string {
	out := make([]string, 0, len(hubNames)+1)
	out = append(out, "/")
	for _, n := range hubNames {
		out = append(out, "/"+n)
	}
	return out
}

// IsStaticPath reports whether p is one of the fixed site paths.
func IsStaticPath(p string) bool {
	if p == "/" {
		return true
	}
	for _, n := range hubNames {
		if p == "/"+n {
			return true
		}
	}
	return false
}

// HubNames returns the hub page names in emission order.
func HubNames() []string { return append([]string(nil), hubNames...) }

// AbsURL joins the site base URL (no trailing slash) and a route path.
// The root path keeps its trailing slash.
func AbsURL(baseURL, path string) string {
	if path == "" || path == "/" {
		return baseURL + "/"
	}
	return baseURL + path
}
