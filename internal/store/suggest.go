package store

import (
	"context"
	"sort"
	"strings"

	lev "github.com/agnivade/levenshtein"
)

const maxSuggestions = 3

// Suggest returns up to three stored names closest to name by edit distance,
// for "did you mean" hints after a failed lookup.
func (s *Store) Suggest(ctx context.Context, name string) ([]string, error) {
	stations, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(stations))
	for i, st := range stations {
		names[i] = st.Name
	}
	return closestNames(name, names), nil
}

func closestNames(subject string, candidates []string) []string {
	subject = strings.ToLower(strings.TrimSpace(subject))
	if subject == "" {
		return nil
	}
	limit := len(subject) / 3
	if limit < 2 {
		limit = 2
	}

	type scored struct {
		name string
		dist int
	}
	var hits []scored
	for _, c := range candidates {
		d := lev.ComputeDistance(subject, strings.ToLower(c))
		if d <= limit {
			hits = append(hits, scored{name: c, dist: d})
		}
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].dist != hits[j].dist {
			return hits[i].dist < hits[j].dist
		}
		return hits[i].name < hits[j].name
	})
	if len(hits) > maxSuggestions {
		hits = hits[:maxSuggestions]
	}
	out := make([]string, len(hits))
	for i, h := range hits {
		out[i] = h.name
	}
	return out
}
