package store

import (
	"casal/src-server/gateway"
	"fmt"
)

// ViewFilter is the tagged union describing which view the store is
// currently showing. Exactly one filter is current at a time; every
// mutation re-derives the visible list from it.
type ViewFilter interface {
	isViewFilter()
	String() string
}

// FilterNone means nothing has been loaded yet.
type FilterNone struct{}

// FilterByYear is a single-variant year view.
type FilterByYear struct {
	Year    int
	Variant gateway.Variant
}

// FilterBundle is the combined all+latest view for one year.
type FilterBundle struct {
	Year int
}

func (FilterNone) isViewFilter()   {}
func (FilterByYear) isViewFilter() {}
func (FilterBundle) isViewFilter() {}

func (FilterNone) String() string {
	return "none"
}

func (f FilterByYear) String() string {
	return fmt.Sprintf("year=%d variant=%s", f.Year, f.Variant)
}

func (f FilterBundle) String() string {
	return fmt.Sprintf("bundle year=%d", f.Year)
}
