package tileset

import (
	"sort"
	"strings"
	"time"
)

// Page size bounds accepted by the list endpoints.
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// SortKey names a Tileset field that list results can be ordered by.
type SortKey int

const (
	SortNone SortKey = iota
	SortUUID
	SortFiletype
	SortDatatype
	SortPrivate
	SortName
	SortCoordSystem
	SortCoordSystem2
	SortCreated
	SortOwner
	SortProjectName
	SortProjectOwner
	SortDescription
	SortDatafile
)

var sortKeyNames = map[SortKey]string{
	SortUUID:         "uuid",
	SortFiletype:     "filetype",
	SortDatatype:     "datatype",
	SortPrivate:      "private",
	SortName:         "name",
	SortCoordSystem:  "coordSystem",
	SortCoordSystem2: "coordSystem2",
	SortCreated:      "created",
	SortOwner:        "owner",
	SortProjectName:  "project_name",
	SortProjectOwner: "project_owner",
	SortDescription:  "description",
	SortDatafile:     "datafile",
}

func (k SortKey) String() string {
	if name, ok := sortKeyNames[k]; ok {
		return name
	}
	return ""
}

// ParseSortKey maps a field name to its SortKey. An empty name yields
// SortNone; unrecognised names report ok=false.
func ParseSortKey(name string) (SortKey, bool) {
	if name == "" {
		return SortNone, true
	}
	for k, n := range sortKeyNames {
		if n == name {
			return k, true
		}
	}
	return SortNone, false
}

// less reports whether a orders before b under k. Missing values (empty
// strings, nil timestamps, false) order lowest.
func (k SortKey) less(a, b *Tileset) bool {
	switch k {
	case SortUUID:
		return a.UUID < b.UUID
	case SortFiletype:
		return a.Filetype < b.Filetype
	case SortDatatype:
		return a.Datatype < b.Datatype
	case SortPrivate:
		return !a.Private && b.Private
	case SortName:
		return a.Name < b.Name
	case SortCoordSystem:
		return a.CoordSystem < b.CoordSystem
	case SortCoordSystem2:
		return a.CoordSystem2 < b.CoordSystem2
	case SortCreated:
		return timeOrZero(a.Created).Before(timeOrZero(b.Created))
	case SortOwner:
		return a.Owner < b.Owner
	case SortProjectName:
		return a.ProjectName < b.ProjectName
	case SortProjectOwner:
		return a.ProjectOwner < b.ProjectOwner
	case SortDescription:
		return a.Description < b.Description
	case SortDatafile:
		return a.Datafile < b.Datafile
	}
	return false
}

func timeOrZero(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}

// ListQuery holds the filter, ordering and pagination of a tileset listing.
type ListQuery struct {
	Autocomplete string
	Filetype     string
	Datatypes    []string
	OrderBy      SortKey
	Reverse      bool
	Page         int
	PageSize     int
}

// Matches reports whether ts passes every filter set on q.
func (q ListQuery) Matches(ts *Tileset) bool {
	if q.Autocomplete != "" {
		if ts.Name == "" || !strings.Contains(strings.ToLower(ts.Name), strings.ToLower(q.Autocomplete)) {
			return false
		}
	}
	if q.Filetype != "" && ts.Filetype != q.Filetype {
		return false
	}
	if len(q.Datatypes) > 0 {
		found := false
		for _, dt := range q.Datatypes {
			if ts.Datatype == dt {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// Apply filters, orders and paginates tilesets (given in insertion order).
// It returns the requested page and the number of matches before
// pagination. The input slice is not modified.
func (q ListQuery) Apply(all []Tileset) ([]Tileset, int) {
	matched := make([]Tileset, 0, len(all))
	for i := range all {
		if q.Matches(&all[i]) {
			matched = append(matched, all[i])
		}
	}

	if q.OrderBy != SortNone {
		key := q.OrderBy
		sort.SliceStable(matched, func(i, j int) bool {
			if q.Reverse {
				return key.less(&matched[j], &matched[i])
			}
			return key.less(&matched[i], &matched[j])
		})
	}

	total := len(matched)
	start, end := q.bounds(total)
	page := make([]Tileset, 0, end-start)
	for _, ts := range matched[start:end] {
		page = append(page, ts.Clone())
	}
	return page, total
}

// bounds returns the clipped [start, end) slice indices of the page.
func (q ListQuery) bounds(total int) (int, int) {
	size := q.PageSize
	if size <= 0 {
		size = DefaultPageSize
	}
	if q.Page < 1 || total == 0 || q.Page-1 > (total-1)/size {
		return 0, 0
	}
	start := (q.Page - 1) * size
	if start >= total {
		return 0, 0
	}
	end := start + size
	if end > total {
		end = total
	}
	return start, end
}
