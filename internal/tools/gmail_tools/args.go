package gmail_tools

import "strings"

// splitAddresses splits a comma-separated address list, trimming
// whitespace and dropping empties.
func splitAddresses(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// splitList splits a comma-separated string argument; non-string or
// missing arguments yield nil.
func splitList(v interface{}) []string {
	s, ok := v.(string)
	if !ok || s == "" {
		return nil
	}
	return splitAddresses(s)
}
