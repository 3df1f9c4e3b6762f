package gateway

import (
	"sort"
	"strings"
)

// Route maps a path prefix to an upstream base URL.
type Route struct {
	Prefix   string
	Upstream string
}

// Table resolves inbound paths to upstreams. Matching is longest-prefix
// wins, so declaration order never changes routing.
type Table struct {
	routes []Route
}

// NewTable builds a table from routes. Prefixes are normalized to a single
// leading slash with no trailing slash (except the root catch-all).
func NewTable(routes []Route) *Table {
	normalized := make([]Route, 0, len(routes))
	for _, r := range routes {
		r.Prefix = normalizePrefix(r.Prefix)
		r.Upstream = strings.TrimRight(r.Upstream, "/")
		normalized = append(normalized, r)
	}
	sort.SliceStable(normalized, func(i, j int) bool {
		return len(normalized[i].Prefix) > len(normalized[j].Prefix)
	})
	return &Table{routes: normalized}
}

// Match returns the route whose prefix is the longest one matching path.
// A prefix matches only on a segment boundary: /api/tasks matches
// /api/tasks and /api/tasks/42 but not /api/tasksearch.
func (t *Table) Match(path string) (Route, bool) {
	if path == "" {
		path = "/"
	}
	for _, r := range t.routes {
		if matchesPrefix(path, r.Prefix) {
			return r, true
		}
	}
	return Route{}, false
}

func matchesPrefix(path, prefix string) bool {
	if prefix == "/" {
		return true
	}
	if !strings.HasPrefix(path, prefix) {
		return false
	}
	return len(path) == len(prefix) || path[len(prefix)] == '/' || path[len(prefix)] == '?'
}

func normalizePrefix(prefix string) string {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" || prefix == "/" {
		return "/"
	}
	if !strings.HasPrefix(prefix, "/") {
		prefix = "/" + prefix
	}
	return strings.TrimRight(prefix, "/")
}
