package render

import (
	"encoding/json"
	"html/template"
)

const schemaContext = "https://schema.org"

type ldNode map[string]any

func ldFAQ(items []qa) ldNode {
	entities := make([]ldNode, 0, len(items))
	for _, it := range items {
		entities = append(entities, ldNode{
			"@type":          "Question",
			"name":           it.Question,
			"acceptedAnswer": ldNode{"@type": "Answer", "text": it.Answer},
		})
	}
	return ldNode{"@context": schemaContext, "@type": "FAQPage", "mainEntity": entities}
}

func ldBreadcrumbs(baseURL string, crumbs []link) ldNode {
	items := make([]ldNode, 0, len(crumbs))
	for i, c := range crumbs {
		items = append(items, ldNode{"@type": "ListItem", "position": i + 1, "name": c.Label, "item": baseURL + c.Href})
	}
	return ldNode{"@context": schemaContext, "@type": "BreadcrumbList", "itemListElement": items}
}

func ldItemList(baseURL string, links []link) ldNode {
	items := make([]ldNode, 0, len(links))
	for i, l := range links {
		items = append(items, ldNode{"@type": "ListItem", "position": i + 1, "name": l.Label, "url": baseURL + l.Href})
	}
	return ldNode{"@context": schemaContext, "@type": "ItemList", "numberOfItems": len(links), "itemListElement": items}
}

// encodeLD marshals nodes for the SEO result and the template. json.Marshal
// escapes <, > and & so the output is safe inside a script element.
func encodeLD(nodes []ldNode) ([]json.RawMessage, []template.JS, error) {
	raw := make([]json.RawMessage, 0, len(nodes))
	js := make([]template.JS, 0, len(nodes))
	for _, n := range nodes {
		b, err := json.Marshal(n)
		if err != nil {
			return nil, nil, err
		}
		raw = append(raw, b)
		js = append(js, template.JS(b)) // #nosec G203 -- marshalled JSON with HTML-escaped characters
	}
	return raw, js, nil
}
