package catalog

// TrashFilter selects which side of the soft-delete boundary a query sees.
// The zero value excludes trashed assets, matching every default view.
type TrashFilter int

const (
	TrashExclude TrashFilter = iota
	TrashOnly
	TrashAny
)

// AssetFilter narrows a Query. Zero-value fields are ignored.
type AssetFilter struct {
	AlbumID      string
	Trash        TrashFilter
	FavoriteOnly bool
	MinRating    int
	Kind         MediaKind
	Tag          string
	// Search matches file name, tags, and notes, case-insensitively.
	Search string
}

// SortField names the supported orderings.
type SortField string

const (
	SortByDate   SortField = "date"
	SortByRating SortField = "rating"
	SortByName   SortField = "name"
	SortBySize   SortField = "size"
)

// AssetSort is the requested ordering. Ties always break on asset id so
// pagination is stable.
type AssetSort struct {
	Field      SortField
	Descending bool
}

const (
	defaultPageSize = 100
	maxPageSize     = 500
)

// Page is a LIMIT/OFFSET window. Limit <= 0 falls back to the default size.
type Page struct {
	Limit  int
	Offset int
}

func (p Page) bounds() (limit, offset int) {
	limit = p.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	offset = p.Offset
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
