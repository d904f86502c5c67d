package models

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Temutjin2k/taxi-dispatch/pkg/validator"
)

func TestFilters_Validate(t *testing.T) {
	tests := []struct {
		name    string
		filters Filters
		invalid []string
	}{
		{name: "defaults", filters: Filters{Page: 1, PageSize: 20, Sort: SortOldestFirst}},
		{name: "newest first", filters: Filters{Page: 3, PageSize: MaxPageSize, Sort: SortNewestFirst}},
		{name: "zero page", filters: Filters{Page: 0, PageSize: 20, Sort: SortOldestFirst}, invalid: []string{"page"}},
		{name: "page too large", filters: Filters{Page: 1, PageSize: MaxPageSize + 1, Sort: SortOldestFirst}, invalid: []string{"page_size"}},
		{name: "unknown sort", filters: Filters{Page: 1, PageSize: 20, Sort: "fare"}, invalid: []string{"sort"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := validator.New()
			tt.filters.Validate(v)
			assert.Len(t, v.Errors, len(tt.invalid))
			for _, key := range tt.invalid {
				assert.Contains(t, v.Errors, key)
			}
		})
	}
}

func TestNewMetadata(t *testing.T) {
	f := Filters{Page: 2, PageSize: 5, Sort: SortOldestFirst}

	assert.Equal(t, Metadata{CurrentPage: 2, PageSize: 5, LastPage: 3, TotalRecords: 12}, NewMetadata(12, f))
	assert.Equal(t, Metadata{CurrentPage: 2, PageSize: 5}, NewMetadata(0, f))
	assert.Zero(t, Filters{Page: 1, PageSize: 5}.Offset())
	assert.Equal(t, 5, f.Offset())
	assert.True(t, Filters{Sort: SortNewestFirst}.NewestFirst())
}
