package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rankboard/core"
	"rankboard/engine"
)

// newTestClient spins up a miniredis server and returns a client plus the server.
func newTestClient(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

func TestStore_OrderedSet(t *testing.T) {
	client, _ := newTestClient(t)
	store := NewWithClient(client, "")
	ctx := context.Background()

	require.NoError(t, store.UpsertScore(ctx, "chess", 2, "bob"))
	require.NoError(t, store.UpsertScore(ctx, "chess", 1, "alice"))
	require.NoError(t, store.UpsertScore(ctx, "chess", 5, "carol"))

	members, err := store.RangeByScore(ctx, "chess", core.MinScore, core.MaxScore)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob", "carol"}, members)

	entries, err := store.RangeByScoreWithScores(ctx, "chess", 2, 5)
	require.NoError(t, err)
	assert.Equal(t, []core.Entry{{Member: "bob", Score: 2}, {Member: "carol", Score: 5}}, entries)

	exists, err := store.Exists(ctx, "chess")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, store.Remove(ctx, "chess", "bob"))
	members, err = store.RangeByScore(ctx, "chess", core.MinScore, core.MaxScore)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "carol"}, members)

	require.NoError(t, store.Delete(ctx, "chess"))
	exists, err = store.Exists(ctx, "chess")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestStore_Sets(t *testing.T) {
	client, _ := newTestClient(t)
	store := NewWithClient(client, "")
	ctx := context.Background()

	require.NoError(t, store.MemberAdd(ctx, "leaderboards", "chess"))
	require.NoError(t, store.MemberAdd(ctx, "leaderboards", "chess"))
	require.NoError(t, store.MemberAdd(ctx, "leaderboards", "go"))

	members, err := store.Members(ctx, "leaderboards")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"chess", "go"}, members)

	require.NoError(t, store.MemberRemove(ctx, "leaderboards", "chess"))
	members, err = store.Members(ctx, "leaderboards")
	require.NoError(t, err)
	assert.Equal(t, []string{"go"}, members)
}

func TestStore_ReplaceScores(t *testing.T) {
	client, _ := newTestClient(t)
	store := NewWithClient(client, "")
	ctx := context.Background()

	for i, m := range []string{"a", "b", "c", "d"} {
		require.NoError(t, store.UpsertScore(ctx, "chess", int64(i+1), m))
	}
	require.NoError(t, store.ReplaceScores(ctx, "chess", []core.Entry{
		{Member: "a", Score: 1},
		{Member: "d", Score: 2},
		{Member: "b", Score: 3},
		{Member: "c", Score: 4},
	}))

	members, err := store.RangeByScore(ctx, "chess", core.MinScore, core.MaxScore)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "d", "b", "c"}, members)
	require.NoError(t, store.ReplaceScores(ctx, "chess", nil))
}

func TestStore_KeyPrefix(t *testing.T) {
	client, mr := newTestClient(t)
	store := NewWithClient(client, "rb:")
	ctx := context.Background()

	require.NoError(t, store.UpsertScore(ctx, "chess", 1, "alice"))
	require.NoError(t, store.MemberAdd(ctx, "leaderboards", "chess"))

	assert.True(t, mr.Exists("rb:chess"))
	assert.True(t, mr.Exists("rb:leaderboards"))
	assert.False(t, mr.Exists("chess"))
}

func TestStore_ErrorsWhenServerDown(t *testing.T) {
	client, mr := newTestClient(t)
	store := NewWithClient(client, "")
	mr.Close()

	_, err := store.Exists(context.Background(), "chess")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to check key")
}

func TestStore_WithRankingService(t *testing.T) {
	client, mr := newTestClient(t)
	store := NewWithClient(client, "")
	svc := engine.NewRankingService(store, engine.NewEventBus(engine.DispatchSync), "")
	ctx := context.Background()

	out, err := svc.CreateBoard(ctx, "chess", "a")
	require.NoError(t, err)
	require.True(t, out.Success)
	for _, p := range []core.Participant{"b", "c", "d"} {
		out, err := svc.AddParticipant(ctx, "chess", p)
		require.NoError(t, err)
		require.True(t, out.Success)
	}

	out, err = svc.RecordWin(ctx, "chess", "d", "b")
	require.NoError(t, err)
	assert.Equal(t, "*d* took position number 2 from *b* in *chess*!", out.Message)

	zs, err := client.ZRangeWithScores(ctx, "chess", 0, -1).Result()
	require.NoError(t, err)
	var got []string
	for i, z := range zs {
		got = append(got, z.Member.(string))
		assert.Equal(t, float64(i+1), z.Score)
	}
	assert.Equal(t, []string{"a", "d", "b", "c"}, got)

	out, err = svc.CreateBoard(ctx, core.DefaultRegistryKey, "a")
	require.NoError(t, err)
	assert.ErrorIs(t, out.Err, core.ErrReservedName)

	out, err = svc.DeleteBoard(ctx, "chess")
	require.NoError(t, err)
	require.True(t, out.Success)
	assert.False(t, mr.Exists("chess"))
	members, err := client.SMembers(ctx, core.DefaultRegistryKey).Result()
	require.NoError(t, err)
	assert.NotContains(t, members, "chess")
}

func TestScoreBound(t *testing.T) {
	assert.Equal(t, "-inf", scoreBound(core.MinScore))
	assert.Equal(t, "+inf", scoreBound(core.MaxScore))
	assert.Equal(t, "42", scoreBound(42))
}

func TestConfig_DefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.Equal(t, "localhost:6379", config.Addr)
	assert.Equal(t, "", config.Password)
	assert.Equal(t, "", config.KeyPrefix)
	assert.Equal(t, 10, config.PoolSize)
	assert.Equal(t, 2, config.MinIdleConns)
	assert.Equal(t, 5*time.Second, config.DialTimeout)
	assert.Equal(t, 3*time.Second, config.ReadTimeout)
	assert.Equal(t, 3*time.Second, config.WriteTimeout)
}
