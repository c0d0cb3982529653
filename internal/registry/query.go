package registry

import (
	"sort"
	"strings"

	"github.com/MichaelBlackwell/bidfoundry/internal/domain"
)

// Apply evaluates a query against a record set: filter, then stable sort,
// then paginate. Both registry modes produce exactly these semantics; the
// fallback store runs this locally and the remote service implements the
// same contract server-side.
func Apply(docs []domain.GeneratedDocument, q Query) *Page {
	filtered := filter(docs, q)
	sortDocs(filtered, q)

	total := len(filtered)
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	// hasMore is computed against the filtered set, before slicing.
	hasMore := offset+limit < total

	start := offset
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	page := make([]domain.GeneratedDocument, end-start)
	copy(page, filtered[start:end])

	return &Page{Documents: page, Total: total, HasMore: hasMore}
}

func filter(docs []domain.GeneratedDocument, q Query) []domain.GeneratedDocument {
	needle := strings.ToLower(q.Search)

	out := make([]domain.GeneratedDocument, 0, len(docs))
	for _, d := range docs {
		if q.Status != "" && d.Status != q.Status {
			continue
		}
		if q.Type != "" && d.Type != q.Type {
			continue
		}
		if needle != "" &&
			!strings.Contains(strings.ToLower(d.Title), needle) &&
			!strings.Contains(strings.ToLower(string(d.Type)), needle) {
			continue
		}
		out = append(out, d)
	}
	return out
}

// sortDocs orders docs by the requested key, defaulting to updatedAt desc.
// The sort is stable: equal keys keep their original relative order, which
// keeps pagination consistent across calls.
func sortDocs(docs []domain.GeneratedDocument, q Query) {
	field := q.SortBy
	if field == "" {
		field = SortUpdatedAt
	}
	order := q.SortOrder
	if order == "" {
		order = SortDesc
	}

	less := func(a, b domain.GeneratedDocument) int {
		switch field {
		case SortCreatedAt:
			return a.CreatedAt.Compare(b.CreatedAt)
		case SortTitle:
			return strings.Compare(a.Title, b.Title)
		case SortConfidence:
			switch {
			case a.Confidence < b.Confidence:
				return -1
			case a.Confidence > b.Confidence:
				return 1
			default:
				return 0
			}
		default: // SortUpdatedAt
			return a.UpdatedAt.Compare(b.UpdatedAt)
		}
	}

	sort.SliceStable(docs, func(i, j int) bool {
		c := less(docs[i], docs[j])
		if order == SortDesc {
			return c > 0
		}
		return c < 0
	})
}
