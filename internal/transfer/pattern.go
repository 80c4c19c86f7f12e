package transfer

import (
	"path"
	"strings"
	"time"
)

// ExpandPattern substitutes strftime-style date tokens with values from
// now. Supported tokens: %Y %y %m %d %H %M %S. Anything else passes
// through untouched, including glob wildcards.
func ExpandPattern(pattern string, now time.Time) string {
	r := strings.NewReplacer(
		"%Y", now.Format("2006"),
		"%y", now.Format("06"),
		"%m", now.Format("01"),
		"%d", now.Format("02"),
		"%H", now.Format("15"),
		"%M", now.Format("04"),
		"%S", now.Format("05"),
	)
	return r.Replace(pattern)
}

// MatchName reports whether a remote file name matches the pattern
// after date expansion. Patterns with wildcards match as globs,
// anything else as an exact name. Matching is case insensitive.
func MatchName(name, pattern string, now time.Time) bool {
	if pattern == "" {
		return true
	}

	expanded := ExpandPattern(pattern, now)
	if strings.ContainsAny(expanded, "*?[") {
		ok, err := path.Match(strings.ToUpper(expanded), strings.ToUpper(name))
		return err == nil && ok
	}
	return strings.EqualFold(name, expanded)
}

// FilterNames keeps the names matching the pattern, dropping hidden
// files and directory entries. An empty pattern keeps everything.
func FilterNames(names []string, pattern string, now time.Time) []string {
	matched := make([]string, 0, len(names))
	for _, name := range names {
		if name == "" || strings.HasPrefix(name, ".") || strings.HasSuffix(name, "/") {
			continue
		}
		if MatchName(name, pattern, now) {
			matched = append(matched, name)
		}
	}
	return matched
}
