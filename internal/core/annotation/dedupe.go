package annotation

// Dedupe collapses a raw batch into exactly one entry per identifier.
// Policy: first-seen wins - when the batch carries repeats of the same
// identifier (overlapping change notifications), the entry encountered
// earliest in the input keeps its position and content. Entries with an
// empty identifier are dropped; input order is otherwise preserved.
// Pure function; the input slice is not modified.
func Dedupe[T any](batch []T, uid func(T) string) []T {
	if len(batch) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(batch))
	out := make([]T, 0, len(batch))
	for _, item := range batch {
		id := uid(item)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, item)
	}
	return out
}
