package models

import "github.com/Temutjin2k/taxi-dispatch/pkg/validator"

// Accepted sort values for the requested trips list. Trips are only ever ordered by
// creation time; ties fall back to the trip id.
const (
	SortOldestFirst = "created_at"
	SortNewestFirst = "-created_at"

	MaxPageSize = 100
)

// Filters selects one page of the requested trips list.
type Filters struct {
	Page     int
	PageSize int
	Sort     string
}

func (f Filters) Validate(v *validator.Validator) {
	v.Check(f.Page > 0, "page", "must be greater than zero")
	v.Check(f.Page <= 10_000_000, "page", "must be a maximum of 10 million")
	v.Check(f.PageSize > 0, "page_size", "must be greater than zero")
	v.Check(f.PageSize <= MaxPageSize, "page_size", "must be a maximum of 100")
	v.Check(validator.PermittedValue(f.Sort, SortOldestFirst, SortNewestFirst), "sort", "must be created_at or -created_at")
}

// NewestFirst reports whether the page is ordered by descending creation time.
func (f Filters) NewestFirst() bool {
	return f.Sort == SortNewestFirst
}

func (f Filters) Limit() int {
	return f.PageSize
}

func (f Filters) Offset() int {
	return (f.Page - 1) * f.PageSize
}

// Metadata describes the page returned for Filters. LastPage is 0 when nothing matched.
type Metadata struct {
	CurrentPage  int `json:"current_page"`
	PageSize     int `json:"page_size"`
	LastPage     int `json:"last_page"`
	TotalRecords int `json:"total_records"`
}

func NewMetadata(totalRecords int, f Filters) Metadata {
	m := Metadata{
		CurrentPage:  f.Page,
		PageSize:     f.PageSize,
		TotalRecords: totalRecords,
	}
	if totalRecords > 0 && f.PageSize > 0 {
		m.LastPage = (totalRecords + f.PageSize - 1) / f.PageSize
	}
	return m
}
