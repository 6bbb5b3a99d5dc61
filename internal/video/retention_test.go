package video

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/videocrop/videocrop-api/internal/asset"
)

func TestSweeper_SweepOnce(t *testing.T) {
	ctx := context.Background()
	store, err := asset.NewStore(t.TempDir())
	require.NoError(t, err)

	// One expired and one fresh asset in each role.
	expired := make(map[asset.Role]string)
	fresh := make(map[asset.Role]string)
	for _, role := range []asset.Role{asset.RoleSource, asset.RoleDerived} {
		oldID := store.NewIdentity("", ".mp4")
		_, err := store.Create(ctx, oldID, role, strings.NewReader("old"))
		require.NoError(t, err)
		oldPath, err := store.Path(oldID, role)
		require.NoError(t, err)
		past := time.Now().Add(-2 * time.Hour)
		require.NoError(t, os.Chtimes(oldPath, past, past))
		expired[role] = oldID

		newID := store.NewIdentity("", ".mp4")
		_, err = store.Create(ctx, newID, role, strings.NewReader("new"))
		require.NoError(t, err)
		fresh[role] = newID
	}

	sweeper := NewSweeper(store, time.Hour, time.Minute, testLogger())
	sweeper.sweepOnce(ctx)

	for _, role := range []asset.Role{asset.RoleSource, asset.RoleDerived} {
		require.False(t, store.Exists(expired[role], role), "expired %s asset survived", role)
		require.True(t, store.Exists(fresh[role], role), "fresh %s asset evicted", role)
	}
}

func TestSweeper_DisabledWithZeroTTL(t *testing.T) {
	store, err := asset.NewStore(t.TempDir())
	require.NoError(t, err)

	sweeper := NewSweeper(store, 0, time.Millisecond, testLogger())
	sweeper.Start()
	sweeper.Stop()
}

func TestSweeper_StartStop(t *testing.T) {
	store, err := asset.NewStore(t.TempDir())
	require.NoError(t, err)

	sweeper := NewSweeper(store, time.Hour, 10*time.Millisecond, testLogger())
	sweeper.Start()
	time.Sleep(30 * time.Millisecond)
	sweeper.Stop()
}
