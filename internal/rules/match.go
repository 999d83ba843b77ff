package rules

import (
	"regexp"
	"strings"
	"sync"

	"harilog/pkg/models"
)

// Matches applies the rule's method and route filters to a request
// context. A rule with both filters empty matches every request; that
// catch-all behavior is intentional and relied on by operators who want a
// rule to fire on all activity.
func (r Rule) Matches(rc models.RequestContext) bool {
	if len(r.Methods) > 0 {
		method := strings.ToUpper(rc.Method)
		found := false
		for _, m := range r.Methods {
			if m == method {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if len(r.RoutePatterns) > 0 {
		bare := strings.TrimPrefix(rc.Path, "/")
		matched := false
		for _, pattern := range r.RoutePatterns {
			if globMatch(pattern, rc.RouteName) || globMatch(pattern, bare) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	return true
}

var (
	globMu    sync.RWMutex
	globCache = map[string]*regexp.Regexp{}
)

// globMatch implements `*`-wildcard matching ("settings.*", "api/*/edit").
// Compiled patterns are cached; rules reload far less often than they
// match.
func globMatch(pattern, value string) bool {
	if pattern == value {
		return true
	}

	globMu.RLock()
	re, ok := globCache[pattern]
	globMu.RUnlock()

	if !ok {
		expr := "^" + strings.ReplaceAll(regexp.QuoteMeta(pattern), `\*`, ".*") + "$"
		var err error
		re, err = regexp.Compile(expr)
		if err != nil {
			return false
		}
		globMu.Lock()
		globCache[pattern] = re
		globMu.Unlock()
	}

	return re.MatchString(value)
}
