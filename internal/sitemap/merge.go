package sitemap

import "sort"

// Merge concatenates lists and drops later entries whose normalized loc has
// already been seen.
func Merge(lists ...[]URL) []URL {
	seen := make(map[string]struct{})
	var out []URL
	for _, l := range lists {
		for _, u := range l {
			k := NormalizeLoc(u.Loc)
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			out = append(out, u)
		}
	}
	return out
}

// Keys returns the set of normalized locs in urls.
func Keys(urls []URL) map[string]struct{} {
	out := make(map[string]struct{}, len(urls))
	for _, u := range urls {
		out[NormalizeLoc(u.Loc)] = struct{}{}
	}
	return out
}

// Sort orders urls by loc using plain byte comparison.
func Sort(urls []URL) {
	sort.SliceStable(urls, func(i, j int) bool { return urls[i].Loc < urls[j].Loc })
}

// Chunk splits urls into consecutive groups of at most size entries.
func Chunk(urls []URL, size int) [][]URL {
	if size <= 0 {
		size = MaxURLsPerFile
	}
	var out [][]URL
	for len(urls) > size {
		out = append(out, urls[:size:size])
		urls = urls[size:]
	}
	if len(urls) > 0 {
		out = append(out, urls)
	}
	return out
}
