package git

import (
	"net/url"
	"strings"
)

// BaseURL turns a clone URL into the https URL of the repository's web page:
// ssh and scp-style GitHub URLs become https and a trailing ".git" is dropped.
func BaseURL(raw string) string {
	u := strings.TrimSpace(raw)
	switch {
	case strings.HasPrefix(u, "ssh://git@"):
		u = "https://" + strings.TrimPrefix(u, "ssh://git@")
	case strings.HasPrefix(u, "git@") && strings.Contains(u, ":"):
		host, path, _ := strings.Cut(strings.TrimPrefix(u, "git@"), ":")
		u = "https://" + host + "/" + path
	case strings.HasPrefix(u, "http://"):
		u = "https://" + strings.TrimPrefix(u, "http://")
	}
	u = strings.TrimSuffix(strings.TrimSuffix(u, "/"), ".git")
	return u
}

// RepoName returns the last two path segments of the repository URL, e.g.
// "thomasWeise/bookbuilderpy".
func RepoName(raw string) string {
	base := BaseURL(raw)
	path := base
	if u, err := url.Parse(base); err == nil && u.Host != "" {
		path = u.Path
	}
	parts := strings.FieldsFunc(path, func(r rune) bool { return r == '/' })
	switch len(parts) {
	case 0:
		return ""
	case 1:
		return parts[0]
	}
	return parts[len(parts)-2] + "/" + parts[len(parts)-1]
}

// MakeURL links relPath at commit in the repository behind raw. GitLab and
// Gitea hosts get their own path layout, everything else the GitHub one.
func MakeURL(raw, commit, relPath string) string {
	base := BaseURL(raw)
	relPath = strings.TrimPrefix(relPath, "/")
	host := ""
	if u, err := url.Parse(base); err == nil {
		host = strings.ToLower(u.Host)
	}
	switch {
	case strings.Contains(host, "gitlab"):
		return base + "/-/blob/" + commit + "/" + relPath
	case strings.Contains(host, "gitea") || strings.HasPrefix(host, "git."):
		return base + "/src/commit/" + commit + "/" + relPath
	}
	return base + "/blob/" + commit + "/" + relPath
}
