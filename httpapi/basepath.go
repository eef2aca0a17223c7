package httpapi

import (
	"net/url"
	"strings"

	"pkt.systems/codebridge/schema"
)

func normalizeBasePath(value string) string {
	path := strings.TrimSpace(value)
	if path == "" || path == "/" {
		return ""
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	path = strings.TrimRight(path, "/")
	if path == "/" {
		return ""
	}
	return path
}

func buildBaseHref(baseURL, basePath string) string {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	path := normalizeBasePath(basePath)
	if base == "" && path == "" {
		return ""
	}
	if base == "" {
		return ensureTrailingSlash(path)
	}
	return ensureTrailingSlash(base + path)
}

func ensureTrailingSlash(value string) string {
	if value == "" {
		return ""
	}
	if strings.HasSuffix(value, "/") {
		return value
	}
	return value + "/"
}

// PagePath returns the path, relative to the server root, of the engine
// page for a session.
func PagePath(basePath string, mode schema.Mode, id schema.SessionID) string {
	q := url.Values{}
	q.Set("session", string(id))
	return normalizeBasePath(basePath) + "/" + mode.Page() + "?" + q.Encode()
}

// PageURL joins a server origin such as "http://127.0.0.1:8740" with the
// page path of a session.
func PageURL(origin, basePath string, mode schema.Mode, id schema.SessionID) string {
	return strings.TrimRight(strings.TrimSpace(origin), "/") + PagePath(basePath, mode, id)
}
