package directory

// WouldCreateCycle reports whether setting newParentID as the parent of
// departmentID would make the department its own ancestor. parents maps
// department id to its current parent id (empty string for roots). The walk
// is bounded by a visited set so a corrupted chain cannot loop forever.
func WouldCreateCycle(departmentID, newParentID string, parents map[string]string) bool {
	if newParentID == "" {
		return false
	}
	if newParentID == departmentID {
		return true
	}
	visited := map[string]struct{}{}
	current := newParentID
	for current != "" {
		if current == departmentID {
			return true
		}
		if _, seen := visited[current]; seen {
			return false
		}
		visited[current] = struct{}{}
		current = parents[current]
	}
	return false
}
