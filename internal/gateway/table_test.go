package gateway

import "testing"

func TestTableMatch_LongestPrefixWins(t *testing.T) {
	// Deliberately declared shortest-first; order must not matter.
	table := NewTable([]Route{
		{Prefix: "/", Upstream: "http://frontend:8083"},
		{Prefix: "/api/auth", Upstream: "http://auth:8081"},
		{Prefix: "/api/tasks", Upstream: "http://tasks:8082"},
	})

	tests := []struct {
		name     string
		path     string
		upstream string
	}{
		{"auth prefix", "/api/auth/login", "http://auth:8081"},
		{"auth exact", "/api/auth", "http://auth:8081"},
		{"tasks prefix", "/api/tasks/42", "http://tasks:8082"},
		{"tasks nested", "/api/tasks/42/status", "http://tasks:8082"},
		{"root catch-all", "/", "http://frontend:8083"},
		{"unknown path falls to catch-all", "/login", "http://frontend:8083"},
		{"api without known service", "/api/other", "http://frontend:8083"},
		{"no partial segment match", "/api/tasksearch", "http://frontend:8083"},
		{"empty path", "", "http://frontend:8083"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			route, ok := table.Match(tt.path)
			if !ok {
				t.Fatalf("Match(%q) returned no route", tt.path)
			}
			if route.Upstream != tt.upstream {
				t.Errorf("Match(%q) = %q, want %q", tt.path, route.Upstream, tt.upstream)
			}
		})
	}
}

func TestTableMatch_NoCatchAll(t *testing.T) {
	table := NewTable([]Route{
		{Prefix: "/api/auth", Upstream: "http://auth:8081"},
	})

	if _, ok := table.Match("/somewhere"); ok {
		t.Error("expected no match without a catch-all route")
	}
	if _, ok := table.Match("/api/auth/login"); !ok {
		t.Error("expected declared prefix to match")
	}
}

func TestNewTable_NormalizesPrefixes(t *testing.T) {
	table := NewTable([]Route{
		{Prefix: "api/auth/", Upstream: "http://auth:8081/"},
	})

	route, ok := table.Match("/api/auth/login")
	if !ok {
		t.Fatal("normalized prefix did not match")
	}
	if route.Upstream != "http://auth:8081" {
		t.Errorf("upstream trailing slash not trimmed: %q", route.Upstream)
	}
}
