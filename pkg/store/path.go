package store

import "strings"

// splitPath splits a dot-delimited key into its namespace (first segment)
// and the remaining segments. A bare namespace name is a valid zero-depth
// path with no remainder.
func splitPath(key string) (namespace string, rest []string) {
	segments := strings.Split(key, ".")
	return segments[0], segments[1:]
}

// lookupPath walks rest through nested object containers starting at root.
// It returns nil when any segment fails to resolve; a partial path into a
// scalar or list is simply an absent value, never an error.
func lookupPath(root any, rest []string) any {
	current := root
	for _, segment := range rest {
		obj, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		current, ok = obj[segment]
		if !ok {
			return nil
		}
	}
	return current
}

// setPath writes value at rest below root, creating intermediate object
// containers as needed. Existing non-object values along the path are
// replaced by fresh objects. Returns the (possibly new) root.
func setPath(root any, rest []string, value any) any {
	if len(rest) == 0 {
		return value
	}

	obj, ok := root.(map[string]any)
	if !ok {
		obj = make(map[string]any)
	}

	current := obj
	for _, segment := range rest[:len(rest)-1] {
		next, ok := current[segment].(map[string]any)
		if !ok {
			next = make(map[string]any)
			current[segment] = next
		}
		current = next
	}
	current[rest[len(rest)-1]] = value
	return obj
}
