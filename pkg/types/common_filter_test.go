package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScanRequest_Normalize(t *testing.T) {
	r := &ScanRequest{Size: 0, From: -3}
	require.NoError(t, r.Normalize("id"))
	require.Equal(t, DefaultScanSize, r.Size)
	require.Equal(t, 0, r.From)

	r = &ScanRequest{Size: 10_000}
	require.NoError(t, r.Normalize())
	require.Equal(t, MaxScanSize, r.Size)

	r = &ScanRequest{Filters: []*CommonFilter{{Field: "password", Operator: CommonFilterOperatorEq, Values: []any{"x"}}}}
	require.Error(t, r.Normalize("id", "status"))

	r = &ScanRequest{SortBy: "1; drop table employees"}
	require.Error(t, r.Normalize("id"))

	r = &ScanRequest{
		Filters: []*CommonFilter{{Field: "status", Operator: CommonFilterOperatorEq, Values: []any{"completed"}}},
		SortBy:  "created_at",
	}
	require.NoError(t, r.Normalize("status", "created_at"))
}

func TestScanRequest_OrderBy(t *testing.T) {
	r := &ScanRequest{}
	ob := r.OrderBy("created_at")
	require.Len(t, ob.Columns, 1)
	require.Equal(t, "created_at", ob.Columns[0].Column.Name)
	require.True(t, ob.Columns[0].Desc)

	r = &ScanRequest{SortBy: "total_amount", SortOrder: "asc"}
	ob = r.OrderBy("created_at")
	require.Equal(t, "total_amount", ob.Columns[0].Column.Name)
	require.False(t, ob.Columns[0].Desc)
}
