package httpapi

import (
	"testing"

	"pkt.systems/codebridge/schema"
)

func TestNormalizeBasePath(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"/", ""},
		{"codebridge", "/codebridge"},
		{"/codebridge", "/codebridge"},
		{"/codebridge/", "/codebridge"},
	}
	for _, tc := range cases {
		if got := normalizeBasePath(tc.in); got != tc.want {
			t.Fatalf("normalizeBasePath(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestBuildBaseHref(t *testing.T) {
	cases := []struct {
		baseURL  string
		basePath string
		want     string
	}{
		{"", "", ""},
		{"", "/codebridge", "/codebridge/"},
		{"https://example.com/", "codebridge", "https://example.com/codebridge/"},
		{"https://example.com/base", "/x", "https://example.com/base/x/"},
	}
	for _, tc := range cases {
		if got := buildBaseHref(tc.baseURL, tc.basePath); got != tc.want {
			t.Fatalf("buildBaseHref(%q, %q) = %q, want %q", tc.baseURL, tc.basePath, got, tc.want)
		}
	}
}

func TestPageURL(t *testing.T) {
	cases := []struct {
		origin   string
		basePath string
		mode     schema.Mode
		want     string
	}{
		{"http://127.0.0.1:8740", "", schema.ModeDocument, "http://127.0.0.1:8740/editor?session=s1"},
		{"http://127.0.0.1:8740/", "/cb/", schema.ModeDiff, "http://127.0.0.1:8740/cb/diff?session=s1"},
		{"http://h", "cb", schema.ModeCompare, "http://h/cb/compare?session=s1"},
	}
	for _, tc := range cases {
		if got := PageURL(tc.origin, tc.basePath, tc.mode, "s1"); got != tc.want {
			t.Fatalf("PageURL(%q, %q, %s) = %q, want %q", tc.origin, tc.basePath, tc.mode, got, tc.want)
		}
	}
}
