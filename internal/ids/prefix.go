package ids

import "strings"

// NormalizeUnique lowercases ids and drops empties and duplicates, keeping order.
func NormalizeUnique(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		idLower := strings.ToLower(strings.TrimSpace(id))
		if idLower == "" || seen[idLower] {
			continue
		}
		seen[idLower] = true
		out = append(out, idLower)
	}
	return out
}

// UniquePrefixLengths returns the shortest unique prefix length for each ID.
func UniquePrefixLengths(ids []string) map[string]int {
	uniqueIDs := NormalizeUnique(ids)
	lengths := make(map[string]int, len(uniqueIDs))
	for _, id := range uniqueIDs {
		lengths[id] = uniquePrefixLength(id, uniqueIDs)
	}
	return lengths
}

func uniquePrefixLength(id string, ids []string) int {
	for length := 1; length <= len(id); length++ {
		prefix := id[:length]
		unique := true
		for _, other := range ids {
			if other != id && strings.HasPrefix(other, prefix) {
				unique = false
				break
			}
		}
		if unique {
			return length
		}
	}
	return len(id)
}

// MatchPrefix finds the ID that prefix selects, case-insensitively.
// An exact match always wins over longer IDs sharing the prefix.
func MatchPrefix(ids []string, prefix string) (match string, found bool, ambiguous bool) {
	prefix = strings.ToLower(strings.TrimSpace(prefix))
	if prefix == "" {
		return "", false, false
	}
	for _, id := range ids {
		idLower := strings.ToLower(id)
		if idLower == prefix {
			return id, true, false
		}
		if !strings.HasPrefix(idLower, prefix) {
			continue
		}
		if found && !strings.EqualFold(match, id) {
			ambiguous = true
			continue
		}
		match, found = id, true
	}
	if ambiguous {
		return "", true, true
	}
	return match, found, false
}
