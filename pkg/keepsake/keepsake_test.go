package keepsake

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/keepsake/internal/memory"
	"github.com/mesh-intelligence/keepsake/internal/sqlite"
	"github.com/mesh-intelligence/keepsake/pkg/types"
)

func TestOpen(t *testing.T) {
	tests := []struct {
		name    string
		config  types.Config
		want    any
		wantErr error
	}{
		{"sqlite", types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}, &sqlite.Backend{}, nil},
		{"memory", types.Config{Backend: types.BackendMemory}, &memory.Backend{}, nil},
		{"empty backend", types.Config{}, nil, types.ErrBackendEmpty},
		{"unknown backend", types.Config{Backend: "indexeddb"}, nil, types.ErrBackendUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := Open(tt.config)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			defer store.Close()
			assert.IsType(t, tt.want, store)
			assert.NoError(t, store.Open(context.Background()))
		})
	}
}
