package prompt

// FilterFunc returns true when a rune may appear in a prompt.
type FilterFunc func(rune) bool

// Filter keeps the prompts whose every rune passes keep.
func Filter(prompts []string, keep FilterFunc) []string {
	out := make([]string, 0, len(prompts))
	for _, p := range prompts {
		if typeable(p, keep) {
			out = append(out, p)
		}
	}
	return out
}

func typeable(p string, keep FilterFunc) bool {
	if p == "" {
		return false
	}
	for _, r := range p {
		if !keep(r) {
			return false
		}
	}
	return true
}
