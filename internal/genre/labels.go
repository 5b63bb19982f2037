package genre

import (
	"sort"
	"strings"
)

// separators split a multi-valued genre field into its labels.
const separators = ",;|/"

// Split breaks a raw genre field into trimmed, non-empty labels.
// "Fantasy, Adventure" -> ["Fantasy", "Adventure"].
func Split(raw string) []string {
	parts := strings.FieldsFunc(raw, func(r rune) bool {
		return strings.ContainsRune(separators, r)
	})

	labels := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			labels = append(labels, p)
		}
	}
	return labels
}

// Labels collects the distinct labels across many genre fields.
// Labels that slugify identically collapse to the first spelling seen.
// The result is sorted case-insensitively.
func Labels(fields []string) []string {
	seen := make(map[string]struct{})
	var labels []string

	for _, field := range fields {
		for _, label := range Split(field) {
			slug := Slugify(label)
			if slug == "" {
				continue
			}
			if _, ok := seen[slug]; ok {
				continue
			}
			seen[slug] = struct{}{}
			labels = append(labels, label)
		}
	}

	sort.SliceStable(labels, func(i, j int) bool {
		return strings.ToLower(labels[i]) < strings.ToLower(labels[j])
	})
	return labels
}
