package littlelemon

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/littlelemon/pkg/types"
)

func TestOpenPersistsAcrossReopen(t *testing.T) {
	for _, backend := range []string{types.BackendFile, types.BackendSQLite, types.BackendGORM} {
		t.Run(backend, func(t *testing.T) {
			ctx := context.Background()
			cfg := types.DefaultConfig()
			cfg.Backend = backend
			cfg.DataDir = t.TempDir()

			res, err := Open(ctx, cfg, zerolog.Nop())
			require.NoError(t, err)
			b, err := res.CreateBooking(ctx, types.BookingRequest{Name: "Ann", Guests: 3, Date: "2024-01-01", Time: "19:00"})
			require.NoError(t, err)
			assert.Equal(t, "T3", b.TableID)
			require.NoError(t, res.Close())

			res, err = Open(ctx, cfg, zerolog.Nop())
			require.NoError(t, err)
			defer res.Close()
			require.Len(t, res.Bookings(), 1)
			assert.Equal(t, b.ID, res.Bookings()[0].ID)
		})
	}
}

func TestOpenUsesConfiguredKeysAndSeed(t *testing.T) {
	ctx := context.Background()
	cfg := types.DefaultConfig()
	cfg.Backend = types.BackendMemory
	cfg.Keys = types.KeysConfig{Bookings: "b", Tables: "t"}
	cfg.SeedTables = []types.Table{{ID: "Bar", Seats: 1}}

	res, err := Open(ctx, cfg, zerolog.Nop())
	require.NoError(t, err)
	defer res.Close()

	assert.Equal(t, cfg.SeedTables, res.Tables())
	_, err = res.Store().Read(ctx, "t")
	assert.NoError(t, err)
}

func TestOpenRejectsInvalidConfig(t *testing.T) {
	cfg := types.DefaultConfig()
	cfg.Backend = "paper"

	_, err := Open(context.Background(), cfg, zerolog.Nop())
	assert.ErrorIs(t, err, types.ErrBackendUnknown)
}
