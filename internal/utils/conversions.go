package utils

import "strings"

// SplitList splits a comma separated value, dropping blanks
func SplitList(value string) []string {
	list := make([]string, 0)
	for _, v := range strings.Split(value, ",") {
		if s := strings.TrimSpace(v); s != "" {
			list = append(list, s)
		}
	}
	return list
}

// Unique returns the distinct non-empty strings of slice in first-seen order
func Unique(slice []string) []string {
	seen := make(map[string]struct{}, len(slice))
	out := make([]string, 0, len(slice))
	for _, v := range slice {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
