package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOrderQuery(t *testing.T) {
	f := OrderFilter{Status: FilterAll, Side: FilterAll}

	q, err := ParseOrderQuery("2024-03-01", "2024-03-02", f)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.Local), q.Start)
	assert.Equal(t, time.Date(2024, 3, 2, 23, 59, 59, 999999999, time.Local), q.End)
	assert.Equal(t, f, q.Filter)

	q, err = ParseOrderQuery("2024-03-01T10:00:00Z", "", f)
	require.NoError(t, err)
	assert.True(t, q.Start.Equal(time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)))
	assert.True(t, q.End.IsZero())

	q, err = ParseOrderQuery("", "", f)
	require.NoError(t, err)
	assert.True(t, q.Start.IsZero())
	assert.True(t, q.End.IsZero())
}

func TestParseOrderQuery_Errors(t *testing.T) {
	_, err := ParseOrderQuery("yesterday", "", OrderFilter{})
	assert.ErrorContains(t, err, "invalid start")

	_, err = ParseOrderQuery("", "03/01/2024", OrderFilter{})
	assert.ErrorContains(t, err, "invalid end")

	_, err = ParseOrderQuery("2024-03-02", "2024-03-01", OrderFilter{})
	assert.ErrorContains(t, err, "is before start")
}
