package rag

// DedupeSources collapses multiple chunks from the same document into one
// citation. First-seen order is preserved; uniqueness key is the resource id.
func DedupeSources(matches []Match) []Source {
	seen := make(map[string]struct{}, len(matches))
	sources := make([]Source, 0, len(matches))
	for _, m := range matches {
		id := m.Metadata.ResourceID
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		sources = append(sources, Source{ResourceID: id, Title: m.Metadata.Title})
	}
	return sources
}

// SourceResourceIDs projects the citation list down to resource ids for the
// chat-turn audit record.
func SourceResourceIDs(sources []Source) []string {
	ids := make([]string, len(sources))
	for i, s := range sources {
		ids[i] = s.ResourceID
	}
	return ids
}
