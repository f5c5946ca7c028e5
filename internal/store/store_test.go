package store

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	"github.com/suPer8Hu/pocket-chat/internal/config"
	"github.com/suPer8Hu/pocket-chat/internal/store/redisstore"
	"github.com/suPer8Hu/pocket-chat/internal/store/sqlstore"
)

func TestOpen_SelectsBackend(t *testing.T) {
	ctx := context.Background()

	local, err := Open(ctx, config.Config{ChatStore: BackendLocal, DBDSN: "file:open_local?mode=memory&cache=shared"})
	require.NoError(t, err)
	require.IsType(t, &sqlstore.Store{}, local)
	require.NoError(t, local.Close())

	mr := miniredis.RunT(t)
	remote, err := Open(ctx, config.Config{ChatStore: BackendRedis, RedisAddr: mr.Addr()})
	require.NoError(t, err)
	require.IsType(t, &redisstore.Store{}, remote)
	require.NoError(t, remote.Close())

	_, err = Open(ctx, config.Config{ChatStore: "firestore"})
	require.Error(t, err)
}
