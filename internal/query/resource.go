package query

// Resource describes how a collection may be filtered.
// Only fields listed here can ever reach a storage filter.
type Resource struct {
	Name string
	// PageSize is the fixed number of records per page.
	PageSize int
	// SearchField receives the keyword match. Empty disables keyword search.
	SearchField string
	// CategoryField receives the category match. Empty disables it.
	CategoryField string
	// NumericFields accept equality and range operators.
	NumericFields []string
	// ExactFields accept string equality only.
	ExactFields []string
}

// ProductResource is the public product listing.
func ProductResource(pageSize int) Resource {
	return Resource{
		Name:          "products",
		PageSize:      pageSize,
		SearchField:   "name",
		CategoryField: "category",
		NumericFields: []string{"price", "ratings", "stock"},
	}
}

// OrderResource is the admin order listing.
func OrderResource(pageSize int) Resource {
	return Resource{
		Name:          "orders",
		PageSize:      pageSize,
		NumericFields: []string{"totalPrice"},
		ExactFields:   []string{"orderStatus"},
	}
}

func (r Resource) isNumeric(field string) bool {
	for _, f := range r.NumericFields {
		if f == field {
			return true
		}
	}
	return false
}

func (r Resource) isExact(field string) bool {
	for _, f := range r.ExactFields {
		if f == field {
			return true
		}
	}
	return false
}
