package record

import (
	"testing"

	"github.com/lightningnetwork/lnd/tlv"
	"github.com/stretchr/testify/require"
)

// TestNewCustomRecordsFiltersRange checks that only parsed TLV types at or
// above the custom range survive into the resulting CustomSet, and that a
// nil parse result (a known, empty-value type) is dropped rather than
// stored as an empty byte slice.
func TestNewCustomRecordsFiltersRange(t *testing.T) {
	t.Parallel()

	parsed := tlv.TypeMap{
		1:                   []byte("core record"),
		CustomTypeStart:     []byte("first custom"),
		CustomTypeStart + 1: nil,
		CustomTypeStart + 2: []byte("second custom"),
	}

	records := NewCustomRecords(parsed)

	require.Equal(t, CustomSet{
		CustomTypeStart:     []byte("first custom"),
		CustomTypeStart + 2: []byte("second custom"),
	}, records)
}

// TestCustomSetValidateRejectsCoreRange checks that a CustomSet carrying a
// key below the custom type range is rejected.
func TestCustomSetValidateRejectsCoreRange(t *testing.T) {
	t.Parallel()

	valid := CustomSet{CustomTypeStart: []byte("ok")}
	require.NoError(t, valid.Validate())

	invalid := CustomSet{CustomTypeStart - 1: []byte("not ok")}
	require.Error(t, invalid.Validate())
}
