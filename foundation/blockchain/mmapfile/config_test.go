package mmapfile_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ardanlabs/blockstore/foundation/blockchain/codec"
	"github.com/ardanlabs/blockstore/foundation/blockchain/mmapfile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() mmapfile.Config {
	return mmapfile.Config{
		MaxSize:       1 << 24, // 16MB
		GrowthStep:    1 << 20, // 1MB
		MaxObjectSize: 1 << 8,  // 256B
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name  string
		cfg   mmapfile.Config
		valid bool
	}{
		{"default", testConfig(), true},
		{"max size below growth step", mmapfile.Config{MaxSize: 1<<20 - 1, GrowthStep: 1 << 20, MaxObjectSize: 1 << 8}, false},
		{"max size raised", mmapfile.Config{MaxSize: 1 << 27, GrowthStep: 1 << 20, MaxObjectSize: 1 << 8}, true},
		{"growth step below max object size", mmapfile.Config{MaxSize: 1 << 24, GrowthStep: 1<<8 - 1, MaxObjectSize: 1 << 8}, false},
		{"growth step equals max object size", mmapfile.Config{MaxSize: 100, GrowthStep: 10, MaxObjectSize: 10}, false},
		{"growth step one above max object size", mmapfile.Config{MaxSize: 100, GrowthStep: 11, MaxObjectSize: 10}, true},
		{"max size equals growth step", mmapfile.Config{MaxSize: 10, GrowthStep: 10, MaxObjectSize: 3}, false},
		{"max size one above growth step", mmapfile.Config{MaxSize: 11, GrowthStep: 10, MaxObjectSize: 3}, true},
		{"zero max object size", mmapfile.Config{MaxSize: 2, GrowthStep: 1, MaxObjectSize: 0}, true},
		{"negative max object size", mmapfile.Config{MaxSize: 10, GrowthStep: 5, MaxObjectSize: -1}, false},
		{"zero value", mmapfile.Config{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.valid {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, mmapfile.ErrConfig)
		})
	}
}

func TestOpen_InvalidConfigLeavesFilesystemAlone(t *testing.T) {
	path := filepath.Join(t.TempDir(), "invalid_config")

	cfg := testConfig()
	cfg.MaxSize = cfg.GrowthStep

	_, _, err := mmapfile.Open[[]byte](cfg, path, codec.Bytes{})
	require.ErrorIs(t, err, mmapfile.ErrConfig)

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}
