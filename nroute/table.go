package nroute

import (
	"net/http"
	"net/url"
	"strings"
)

func splitPattern(pattern string) []string {
	parts := strings.Split(pattern, "/")
	segments := parts[:0]
	for _, p := range parts {
		if p != "" {
			segments = append(segments, p)
		}
	}
	return segments
}

// splitPath splits the escaped request path so that an encoded "/"
// inside a segment does not create a new segment.  Each segment is
// then unescaped.
func splitPath(u *url.URL) []string {
	parts := strings.Split(u.EscapedPath(), "/")
	segments := make([]string, 0, len(parts))
	for _, p := range parts {
		if p == "" {
			continue
		}
		if unescaped, err := url.PathUnescape(p); err == nil {
			p = unescaped
		}
		segments = append(segments, p)
	}
	return segments
}

// queryMap flattens the query string.  When a key repeats, the last
// value wins.
func queryMap(r *http.Request) map[string]string {
	values := r.URL.Query()
	m := make(map[string]string, len(values))
	for k, v := range values {
		if len(v) > 0 {
			m[k] = v[len(v)-1]
		}
	}
	return m
}

type matchResult struct {
	route  *compiledRoute
	params map[string]string
	// allowed lists the verbs of routes whose path matched when none
	// matched the verb as well
	allowed []string
	// first is the first route whose path matched, regardless of verb
	first *compiledRoute
}

// match scans the table in registration order.  The first route that
// matches both the path and the verb is chosen.  Routes that match
// only the path are remembered so that the caller can tell a 405
// from a 404.
func match(routes []*compiledRoute, method string, segments []string) matchResult {
	var res matchResult
	method = strings.ToUpper(method)
	for _, cr := range routes {
		params, ok := cr.matchPath(segments)
		if !ok {
			continue
		}
		if res.first == nil {
			res.first = cr
		}
		if cr.Verb == method {
			res.route = cr
			res.params = params
			res.allowed = nil
			return res
		}
		res.allowed = appendUnique(res.allowed, cr.Verb)
	}
	return res
}

func appendUnique(list []string, s string) []string {
	for _, x := range list {
		if x == s {
			return list
		}
	}
	return append(list, s)
}
