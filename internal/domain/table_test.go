package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanManuallySet(t *testing.T) {
	cases := []struct {
		from, to TableStatus
		ok       bool
	}{
		{TableCleaning, TableAvailable, true},
		{TableAvailable, TableReserved, true},
		{TableReserved, TableAvailable, true},

		// Occupied is owned by the order lifecycle.
		{TableOccupied, TableAvailable, false},
		{TableOccupied, TableCleaning, false},
		{TableAvailable, TableOccupied, false},
		{TableAvailable, TableCleaning, false},
		{TableCleaning, TableReserved, false},
	}
	for _, tc := range cases {
		table := &Table{Status: tc.from}
		assert.Equal(t, tc.ok, table.CanManuallySet(tc.to), "%s -> %s", tc.from, tc.to)
	}
}
