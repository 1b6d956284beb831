package catalog

import (
	"net/url"
	"strconv"
)

// ListFilters narrows a product listing request. Zero values are omitted from
// the query string.
type ListFilters struct {
	Search       string
	CategoryID   string
	MinPrice     int64
	MaxPrice     int64
	Sizes        []string
	Colors       []string
	Wilayas      []string
	FreeDelivery bool
	ClickCollect bool
	MinRating    int
}

// Query encodes the filters as API query parameters.
func (f ListFilters) Query() url.Values {
	query := url.Values{}
	if f.Search != "" {
		query.Set("search", f.Search)
	}
	if f.CategoryID != "" {
		query.Set("categoryId", f.CategoryID)
	}
	if f.MinPrice > 0 {
		query.Set("minPrice", strconv.FormatInt(f.MinPrice, 10))
	}
	if f.MaxPrice > 0 {
		query.Set("maxPrice", strconv.FormatInt(f.MaxPrice, 10))
	}
	for _, size := range f.Sizes {
		query.Add("sizes", size)
	}
	for _, color := range f.Colors {
		query.Add("colors", color)
	}
	for _, wilaya := range f.Wilayas {
		query.Add("wilayas", wilaya)
	}
	if f.FreeDelivery {
		query.Set("freeDelivery", "true")
	}
	if f.ClickCollect {
		query.Set("clickCollect", "true")
	}
	if f.MinRating > 0 {
		query.Set("minRating", strconv.Itoa(f.MinRating))
	}
	return query
}
