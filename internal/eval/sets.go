package eval

// IsSubset reports whether every element of sub appears in super. An empty
// sub is a subset of anything.
func IsSubset(sub, super []string) bool {
	return len(Missing(sub, super)) == 0
}

// Missing returns the elements of want absent from have, in want order and
// without duplicates.
func Missing(want, have []string) []string {
	present := make(map[string]struct{}, len(have))
	for _, h := range have {
		present[h] = struct{}{}
	}

	var out []string
	seen := make(map[string]struct{})
	for _, w := range want {
		if _, ok := present[w]; ok {
			continue
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	return out
}
