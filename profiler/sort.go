package profiler

import (
	"fmt"
	"sort"
)

// SortMethod selects the report ordering used for emission.
type SortMethod int

const (
	// SortByDuration orders reports by elapsed time, longest first. This
	// is the default.
	SortByDuration SortMethod = iota
	// SortByCalls orders reports by completed call count, highest first.
	SortByCalls
)

// ParseSortMethod maps a configuration name onto a selector. The empty
// string selects the default.
func ParseSortMethod(s string) (SortMethod, error) {
	switch s {
	case "", "duration", "time":
		return SortByDuration, nil
	case "count", "calls":
		return SortByCalls, nil
	}
	return SortByDuration, fmt.Errorf("unknown sort method %q", s)
}

// String returns the canonical configuration name for m.
func (m SortMethod) String() string {
	switch m {
	case SortByCalls:
		return "count"
	default:
		return "duration"
	}
}

// comparators dispatches the enumerated selector to a pure less function.
var comparators = map[SortMethod]func(a, b *Report) bool{
	SortByDuration: func(a, b *Report) bool { return a.Elapsed > b.Elapsed },
	SortByCalls:    func(a, b *Report) bool { return a.Calls > b.Calls },
}

// Sort orders reports in place by the selected method. The sort is
// unstable; ties land in arbitrary order. An unknown selector falls back
// to duration ordering.
func Sort(reports []*Report, method SortMethod) {
	less, ok := comparators[method]
	if !ok {
		less = comparators[SortByDuration]
	}
	sort.Slice(reports, func(i, j int) bool { return less(reports[i], reports[j]) })
}
