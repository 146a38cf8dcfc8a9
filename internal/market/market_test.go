package market

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileFeed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"yaml", "prices.yaml", "crnx: 31.50\nMOD: \"110.25\"\nIGNORED: 5\n"},
		{"json", "prices.json", `{"CRNX": 31.50, "MOD": 110.25, "IGNORED": 5}`},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(t.TempDir(), tt.file)
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))

			feed := &FileFeed{Path: path}
			got, err := feed.Prices(context.Background(), []string{"CRNX", "MOD", "GONE"})
			require.NoError(t, err)

			require.Len(t, got, 2)
			assert.Equal(t, "31.5", got["CRNX"].String())
			assert.Equal(t, "110.25", got["MOD"].String())
			_, ok := got["GONE"]
			assert.False(t, ok, "symbols without a price are absent")
		})
	}
}

func TestFileFeed_BadPrice(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prices.yaml")
	require.NoError(t, os.WriteFile(path, []byte("CRNX: abc\n"), 0o644))

	_, err := (&FileFeed{Path: path}).Prices(context.Background(), []string{"CRNX"})
	assert.Error(t, err)
}

func TestFileFeed_MissingFile(t *testing.T) {
	_, err := (&FileFeed{Path: filepath.Join(t.TempDir(), "nope.yaml")}).Prices(context.Background(), nil)
	assert.Error(t, err)
}
