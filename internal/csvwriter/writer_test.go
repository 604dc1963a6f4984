package csvwriter

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteTable_ToBuffer(t *testing.T) {
	var buf bytes.Buffer
	w := New(&buf, nil)

	err := w.WriteTable(
		[]string{"Symbol", "Side", "Filled Price"},
		[][]string{
			{"BTC/USD", "Buy", "$50,000.00"},
			{"ETH/USD", "Sell", "Not Filled"},
		},
	)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	want := "Symbol,Side,Filled Price\n" +
		"BTC/USD,Buy,\"$50,000.00\"\n" +
		"ETH/USD,Sell,Not Filled\n"
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Errorf("csv output mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 3, w.Records())
}

func TestNewWriter_CreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exports", "orders.csv")

	w, err := NewWriter(path, nil)
	require.NoError(t, err)
	require.NoError(t, w.Write([]string{"a", "b"}))
	require.NoError(t, w.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a,b\n", string(data))
}

func TestNewWriter_BadPath(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	_, err := NewWriter(filepath.Join(blocker, "orders.csv"), nil)
	assert.Error(t, err)
}
