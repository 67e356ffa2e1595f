package excel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAddress(t *testing.T) {
	cases := []struct {
		ref string
		col int
		row int
	}{
		{"A1", 1, 1},
		{"B3", 2, 3},
		{"Z1", 26, 1},
		{"AA1", 27, 1},
		{"AZ1", 52, 1},
		{"BA1", 53, 1},
		{"ZZ1", 702, 1},
		{"AAA1", 703, 1},
		{"XFD1048576", 16384, 1048576},
	}
	for _, tc := range cases {
		t.Run(tc.ref, func(t *testing.T) {
			addr, err := ParseAddress(tc.ref)
			require.NoError(t, err)
			assert.Equal(t, tc.col, addr.Col)
			assert.Equal(t, tc.row, addr.Row)
		})
	}
}

func TestParseAddressRejects(t *testing.T) {
	refs := []string{
		"",
		"1A",
		"A0",
		"a1",
		"A",
		"1",
		"A1:B2",
		"A-1",
		" A1",
		"XFE1",      // one column past the limit
		"A1048577",  // one row past the limit
		"ZZZZ9",     // far past the column limit
	}
	for _, ref := range refs {
		t.Run(ref, func(t *testing.T) {
			_, err := ParseAddress(ref)
			require.Error(t, err)
			assert.Equal(t, KindInvalidAddress, errorKind(err))
		})
	}
}

func TestAddressRoundTrip(t *testing.T) {
	cols := []int{1, 2, 25, 26, 27, 51, 52, 53, 701, 702, 703, 16383, 16384}
	rows := []int{1, 2, 999, 1048575, 1048576}
	for _, col := range cols {
		for _, row := range rows {
			ref := FormatAddress(col, row)
			addr, err := ParseAddress(ref)
			require.NoError(t, err, "round trip of %s", ref)
			assert.Equal(t, col, addr.Col, "column of %s", ref)
			assert.Equal(t, row, addr.Row, "row of %s", ref)
		}
	}
}

func TestColumnName(t *testing.T) {
	assert.Equal(t, "A", columnName(1))
	assert.Equal(t, "Z", columnName(26))
	assert.Equal(t, "AA", columnName(27))
	assert.Equal(t, "ZZ", columnName(702))
	assert.Equal(t, "AAA", columnName(703))
	assert.Equal(t, "XFD", columnName(16384))
}

func TestParseRange(t *testing.T) {
	r, err := ParseRange("A1:B10")
	require.NoError(t, err)
	assert.Equal(t, CellAddress{Col: 1, Row: 1}, r.Start)
	assert.Equal(t, CellAddress{Col: 2, Row: 10}, r.End)
	assert.Equal(t, 10, r.Rows())
	assert.Equal(t, 2, r.Cols())
	assert.Equal(t, "A1:B10", r.String())
}

func TestParseRangeSingleCell(t *testing.T) {
	r, err := ParseRange("C3")
	require.NoError(t, err)
	assert.Equal(t, r.Start, r.End)
	assert.Equal(t, 1, r.Rows())
	assert.Equal(t, 1, r.Cols())
	assert.Equal(t, "C3", r.String())
}

func TestParseRangeRejectsInverted(t *testing.T) {
	for _, ref := range []string{"B10:A1", "A10:A1", "B1:A1"} {
		_, err := ParseRange(ref)
		require.Error(t, err, ref)
		assert.Equal(t, KindInvalidRangeSyntax, errorKind(err))
	}
}

func TestParseRangeRejectsMalformed(t *testing.T) {
	for _, ref := range []string{"", "A1:B2:C3", "A1:", ":B2", "1A:B2", "A1:2B"} {
		_, err := ParseRange(ref)
		require.Error(t, err, ref)
		assert.Equal(t, KindInvalidRangeSyntax, errorKind(err))
	}
}
