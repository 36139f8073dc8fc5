package profiler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSortByDurationDescending(t *testing.T) {
	reports := []*Report{
		{Title: "half", Elapsed: 500 * time.Millisecond, Calls: 10},
		{Title: "two", Elapsed: 2 * time.Second, Calls: 1},
		{Title: "one", Elapsed: time.Second, Calls: 5},
	}

	Sort(reports, SortByDuration)

	require.Len(t, reports, 3)
	assert.Equal(t, "two", reports[0].Title)
	assert.Equal(t, "one", reports[1].Title)
	assert.Equal(t, "half", reports[2].Title)
}

func TestSortByCallsDescending(t *testing.T) {
	reports := []*Report{
		{Title: "half", Elapsed: 500 * time.Millisecond, Calls: 10},
		{Title: "two", Elapsed: 2 * time.Second, Calls: 1},
		{Title: "one", Elapsed: time.Second, Calls: 5},
	}

	Sort(reports, SortByCalls)

	assert.Equal(t, []uint64{10, 5, 1}, []uint64{reports[0].Calls, reports[1].Calls, reports[2].Calls})
}

func TestSortEmptyAndNil(t *testing.T) {
	assert.NotPanics(t, func() {
		Sort(nil, SortByDuration)
		Sort([]*Report{}, SortByCalls)
	})
}

func TestSortUnknownMethodFallsBackToDuration(t *testing.T) {
	reports := []*Report{
		{Title: "short", Elapsed: time.Millisecond},
		{Title: "long", Elapsed: time.Second},
	}

	Sort(reports, SortMethod(99))

	assert.Equal(t, "long", reports[0].Title)
}

func TestParseSortMethod(t *testing.T) {
	tests := []struct {
		in      string
		want    SortMethod
		wantErr bool
	}{
		{in: "", want: SortByDuration},
		{in: "duration", want: SortByDuration},
		{in: "time", want: SortByDuration},
		{in: "count", want: SortByCalls},
		{in: "calls", want: SortByCalls},
		{in: "alphabetical", wantErr: true},
	}

	for _, tc := range tests {
		got, err := ParseSortMethod(tc.in)
		if tc.wantErr {
			assert.Error(t, err, "input %q", tc.in)
			continue
		}
		require.NoError(t, err, "input %q", tc.in)
		assert.Equal(t, tc.want, got, "input %q", tc.in)
	}
}

func TestSortMethodString(t *testing.T) {
	assert.Equal(t, "duration", SortByDuration.String())
	assert.Equal(t, "count", SortByCalls.String())
}
