package domain

import "strings"

// Scrum item names ending in a literal "*" mark a key element. The marker is
// metadata, not part of the editable name: it is stripped for display and
// editing and re-appended on save when the item was originally marked.

// IsKeyElement reports whether a stored name carries the key-element marker.
func IsKeyElement(name string) bool {
	return strings.HasSuffix(strings.TrimSpace(name), "*")
}

// CleanName strips the key-element marker for display and editing.
func CleanName(name string) string {
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(name), "*"))
}

// MarkedName re-applies the marker to an edited name when keyElement is set.
func MarkedName(name string, keyElement bool) string {
	name = strings.TrimSpace(name)
	if keyElement {
		return name + "*"
	}
	return name
}
