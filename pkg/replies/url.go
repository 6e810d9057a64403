package replies

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	schemeAuthority = regexp.MustCompile(`(?i)^https?://[^/?#]+`)
	slashRuns       = regexp.MustCompile(`/{2,}`)
)

// CleanURL joins base and path into an absolute URL. Runs of slashes in the
// path are collapsed and a trailing slash is dropped. Scheme and host are
// lowercased. A query or fragment on base is kept after the joined path and
// merged with one on path; query strings are otherwise left untouched. base
// must start with http:// or https:// and a host.
func CleanURL(base, path string) (string, error) {
	base = strings.TrimSpace(base)
	prefix := schemeAuthority.FindString(base)
	if prefix == "" {
		return "", fmt.Errorf("replies: invalid base URI %q", base)
	}

	basePath, baseQuery := splitQuery(base[len(prefix):])
	pathPart, pathQuery := splitQuery(strings.TrimSpace(path))

	rest := slashRuns.ReplaceAllString(basePath+"/"+pathPart, "/")
	rest = strings.TrimSuffix(rest, "/")

	return lowerSchemeHost(prefix) + rest + joinQuery(baseQuery, pathQuery), nil
}

// splitQuery cuts s at the first '?' or '#'.
func splitQuery(s string) (string, string) {
	if i := strings.IndexAny(s, "?#"); i >= 0 {
		return s[:i], s[i:]
	}
	return s, ""
}

func joinQuery(base, path string) string {
	switch {
	case base == "":
		return path
	case path == "":
		return base
	case strings.HasPrefix(base, "?") && strings.HasPrefix(path, "?") && !strings.Contains(base, "#"):
		return base + "&" + path[1:]
	default:
		return base + path
	}
}

// lowerSchemeHost lowercases scheme and host, leaving any userinfo as is.
func lowerSchemeHost(prefix string) string {
	scheme, authority, _ := strings.Cut(prefix, "://")
	if i := strings.LastIndex(authority, "@"); i >= 0 {
		return strings.ToLower(scheme) + "://" + authority[:i+1] + strings.ToLower(authority[i+1:])
	}
	return strings.ToLower(scheme) + "://" + strings.ToLower(authority)
}
