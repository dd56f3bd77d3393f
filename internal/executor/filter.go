package executor

import "strings"

// FilterTags keeps tests carrying any include tag and none of the exclude
// tags (case-insensitive). Files left empty are dropped.
func FilterTags(files []File, include, exclude []string) []File {
	if len(include) == 0 && len(exclude) == 0 {
		return files
	}
	toSet := func(ss []string) map[string]bool {
		m := map[string]bool{}
		for _, s := range ss {
			m[strings.ToLower(s)] = true
		}
		return m
	}
	inc, exc := toSet(include), toSet(exclude)
	hasAny := func(tags []string, m map[string]bool) bool {
		for _, t := range tags {
			if m[strings.ToLower(t)] {
				return true
			}
		}
		return false
	}
	out := make([]File, 0, len(files))
	for _, f := range files {
		kept := make([]Test, 0, len(f.Tests))
		for _, tc := range f.Tests {
			if len(inc) > 0 && !hasAny(tc.Tags, inc) {
				continue
			}
			if len(exc) > 0 && hasAny(tc.Tags, exc) {
				continue
			}
			kept = append(kept, tc)
		}
		if len(kept) > 0 {
			f.Tests = kept
			out = append(out, f)
		}
	}
	return out
}

// FilterGrep keeps tests whose title contains pattern.
func FilterGrep(files []File, pattern string) []File {
	if pattern == "" {
		return files
	}
	out := make([]File, 0, len(files))
	for _, f := range files {
		kept := make([]Test, 0, len(f.Tests))
		for _, tc := range f.Tests {
			if strings.Contains(tc.Title, pattern) {
				kept = append(kept, tc)
			}
		}
		if len(kept) > 0 {
			f.Tests = kept
			out = append(out, f)
		}
	}
	return out
}
