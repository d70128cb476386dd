package render

import "html/template"

type link struct {
	Label string
	Href  string
	Note  string
}

type fact struct {
	Label string
	Value string
}

type section struct {
	Heading string
	Text    string
	Links   []link
}

type qa struct {
	Question string
	Answer   string
}

// view is the data passed to the layout template.
type view struct {
	SiteName    string
	SEO         SEO
	JSONLD      []template.JS
	Nav         []link
	Breadcrumbs []link
	Heading     string
	Lead        string
	Body        template.HTML
	Facts       []fact
	Sections    []section
	FAQ         []qa
	Year        int
}

const layoutHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.SEO.Title}}</title>
<meta name="description" content="{{.SEO.Description}}">
<meta name="robots" content="{{.SEO.Robots}}">
{{- if .SEO.CanonicalURL}}
<link rel="canonical" href="{{.SEO.CanonicalURL}}">
<meta property="og:url" content="{{.SEO.CanonicalURL}}">
{{- end}}
<meta property="og:title" content="{{.SEO.Title}}">
<meta property="og:description" content="{{.SEO.Description}}">
<meta property="og:site_name" content="{{.SiteName}}">
{{- range .JSONLD}}
<script type="application/ld+json">{{.}}</script>
{{- end}}
<style>
:root{--ink:#1d2733;--muted:#5b6776;--line:#dde3ea;--accent:#0b5cad;--bg:#ffffff;--panel:#f5f7fa}
*{box-sizing:border-box}
body{margin:0;font-family:system-ui,-apple-system,"Segoe UI",Roboto,sans-serif;color:var(--ink);background:var(--bg);line-height:1.6}
a{color:var(--accent);text-decoration:none}
a:hover{text-decoration:underline}
header.site,footer.site{background:var(--panel);border-bottom:1px solid var(--line)}
header.site nav,main,footer.site div{max-width:64rem;margin:0 auto;padding:1rem 1.25rem}
header.site nav a{margin-right:1rem;font-weight:600}
nav.crumbs{font-size:.875rem;color:var(--muted)}
nav.crumbs a::after{content:" / ";color:var(--muted)}
h1{font-size:2rem;line-height:1.2;margin:.5rem 0 1rem}
h2{font-size:1.35rem;margin:2rem 0 .75rem;border-bottom:1px solid var(--line);padding-bottom:.25rem}
p.lead{font-size:1.125rem;color:var(--muted)}
dl.facts{display:grid;grid-template-columns:max-content 1fr;gap:.25rem 1.5rem}
dl.facts dt{font-weight:600}
ul.links{list-style:none;padding:0;columns:2}
ul.links li{padding:.2rem 0;break-inside:avoid}
section.faq details{border:1px solid var(--line);border-radius:.375rem;padding:.5rem .75rem;margin:.5rem 0}
section.faq summary{font-weight:600;cursor:pointer}
footer.site{border-top:1px solid var(--line);border-bottom:0;font-size:.8125rem;color:var(--muted);margin-top:3rem}
@media (max-width:40rem){ul.links{columns:1}h1{font-size:1.6rem}}
</style>
</head>
<body>
<header class="site"><nav aria-label="Main">
<a href="/">{{.SiteName}}</a>
{{- range .Nav}}
<a href="{{.Href}}">{{.Label}}</a>
{{- end}}
</nav></header>
<main>
{{- if .Breadcrumbs}}
<nav class="crumbs" aria-label="Breadcrumb">{{range .Breadcrumbs}}<a href="{{.Href}}">{{.Label}}</a>{{end}}</nav>
{{- end}}
<article>
<h1>{{.Heading}}</h1>
{{- if .Lead}}
<p class="lead">{{.Lead}}</p>
{{- end}}
{{- if .Facts}}
<dl class="facts">
{{- range .Facts}}
<dt>{{.Label}}</dt><dd>{{.Value}}</dd>
{{- end}}
</dl>
{{- end}}
{{- if .Body}}
<div class="body">{{.Body}}</div>
{{- end}}
{{- range .Sections}}
<section>
<h2>{{.Heading}}</h2>
{{- if .Text}}
<p>{{.Text}}</p>
{{- end}}
{{- if .Links}}
<ul class="links">
{{- range .Links}}
<li><a href="{{.Href}}">{{.Label}}</a>{{if .Note}} <small>{{.Note}}</small>{{end}}</li>
{{- end}}
</ul>
{{- end}}
</section>
{{- end}}
{{- if .FAQ}}
<section class="faq">
<h2>Frequently asked questions</h2>
{{- range .FAQ}}
<details><summary>{{.Question}}</summary><p>{{.Answer}}</p></details>
{{- end}}
</section>
{{- end}}
</article>
</main>
<footer class="site"><div>
<p><strong>Important information.</strong> The fund profiles, comparisons and manager pages on {{.SiteName}} are provided for general
information only and do not constitute investment advice, an offer, or a solicitation to buy or sell any security. Figures such as
expense ratios and assets under management are taken from the most recent data supplied to us and may be out of date. Past performance
is not a reliable indicator of future results, and the value of investments can fall as well as rise. Please read each fund's
official documentation and consider speaking to a qualified adviser before making investment decisions.</p>
<p>Our editorial team reviews every profile against a published methodology. Inclusion in the directory does not imply endorsement,
and we do not accept payment for placement. If you spot an error, please let us know through the contact page.</p>
<p><a href="/about">About</a> · <a href="/methodology">Methodology</a> · <a href="/contact">Contact</a> · <a href="/privacy">Privacy</a> · <a href="/terms">Terms</a> · © {{.Year}} {{.SiteName}}</p>
</div></footer>
</body>
</html>
`

var layout = template.Must(template.New("layout").Parse(layoutHTML))
