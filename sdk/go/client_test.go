package sdk

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mem "rankboard/adapters/memory"
	"rankboard/api/httpapi"
	"rankboard/core"
	"rankboard/engine"
	"rankboard/rankboard"
	"rankboard/realtime"
)

func newTestServer(t *testing.T, opts httpapi.Options) *httptest.Server {
	t.Helper()
	hub := realtime.NewHub()
	svc := rankboard.New(
		rankboard.WithStore(mem.New()),
		rankboard.WithRealtime(hub),
		rankboard.WithDispatchMode(engine.DispatchSync),
	)
	opts.PathPrefix = "/api"
	srv := httptest.NewServer(httpapi.NewMux(svc, hub, opts))
	t.Cleanup(func() {
		srv.Close()
		_ = svc.Close()
	})
	return srv
}

func TestClient_BoardRoundTrip(t *testing.T) {
	srv := newTestServer(t, httpapi.Options{})
	client, err := NewClient(srv.URL + "/api/")
	require.NoError(t, err)
	ctx := context.Background()

	res, err := client.CreateBoard(ctx, "chess", "alice")
	require.NoError(t, err)
	require.True(t, res.Success)

	for _, p := range []string{"bob", "carol"} {
		res, err = client.AddParticipant(ctx, "chess", p)
		require.NoError(t, err)
		require.True(t, res.Success)
	}

	res, err = client.RecordWin(ctx, "chess", "carol", "bob")
	require.NoError(t, err)
	assert.Equal(t, 2, res.Position)

	res, err = client.Board(ctx, "chess")
	require.NoError(t, err)
	assert.Equal(t, []Standing{{1, "alice"}, {2, "carol"}, {3, "bob"}}, res.Standings)

	res, err = client.ListBoards(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"chess"}, res.Boards)

	res, err = client.RemoveParticipant(ctx, "chess", "bob")
	require.NoError(t, err)
	assert.True(t, res.Success)

	res, err = client.DeleteBoard(ctx, "chess")
	require.NoError(t, err)
	assert.True(t, res.Success)

	health, err := client.Health(ctx)
	require.NoError(t, err)
	assert.Equal(t, "healthy", health.Status)
}

func TestClient_BusinessFailuresAreResults(t *testing.T) {
	srv := newTestServer(t, httpapi.Options{})
	client, err := NewClient(srv.URL + "/api")
	require.NoError(t, err)

	res, err := client.Board(context.Background(), "nope")
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.NotEmpty(t, res.Message)
}

func TestClient_APIError(t *testing.T) {
	srv := newTestServer(t, httpapi.Options{APIKeys: []string{"k1"}})
	ctx := context.Background()

	anon, err := NewClient(srv.URL + "/api")
	require.NoError(t, err)
	_, err = anon.ListBoards(ctx)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "unauthorized", apiErr.Code)

	authed, err := NewClient(srv.URL+"/api", WithAPIKey("k1"))
	require.NoError(t, err)
	res, err := authed.ListBoards(ctx)
	require.NoError(t, err)
	assert.True(t, res.Success)
}

func TestClient_Validation(t *testing.T) {
	_, err := NewClient(" ")
	assert.Error(t, err)

	client, err := NewClient("http://localhost:1")
	require.NoError(t, err)
	ctx := context.Background()

	_, err = client.CreateBoard(ctx, "", "alice")
	assert.ErrorIs(t, err, ErrEmptyBoard)
	_, err = client.AddParticipant(ctx, "chess", " ")
	assert.ErrorIs(t, err, ErrEmptyParticipant)
	_, err = client.RecordWin(ctx, "chess", "alice", "")
	assert.ErrorIs(t, err, ErrEmptyParticipant)
	_, err = client.RecordWin(ctx, "chess", "", "bob")
	assert.ErrorIs(t, err, ErrEmptyParticipant)

	// board-only calls never look at a participant name
	_, err = client.Board(ctx, " ")
	assert.ErrorIs(t, err, ErrEmptyBoard)
	_, err = client.DeleteBoard(ctx, "")
	assert.ErrorIs(t, err, ErrEmptyBoard)
}

func TestClient_SubscribeEvents(t *testing.T) {
	srv := newTestServer(t, httpapi.Options{})
	client, err := NewClient(srv.URL + "/api")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	events, err := client.SubscribeEvents(ctx, "chess")
	require.NoError(t, err)

	_, err = client.CreateBoard(ctx, "go", "zed")
	require.NoError(t, err)

	// the subscription is registered after the upgrade completes
	require.Eventually(t, func() bool {
		_, _ = client.DeleteBoard(ctx, "chess")
		_, err := client.CreateBoard(ctx, "chess", "alice")
		assert.NoError(t, err)
		for {
			select {
			case evt := <-events:
				assert.Equal(t, core.BoardName("chess"), evt.Board)
				if evt.Type == core.EventBoardCreated {
					return true
				}
			case <-time.After(50 * time.Millisecond):
				return false
			}
		}
	}, time.Second, 10*time.Millisecond)
}

func TestDeriveWSURL(t *testing.T) {
	assert.Equal(t, "ws://localhost:8080/api/ws", deriveWSURL("http://localhost:8080/api"))
	assert.Equal(t, "wss://example.com/ws", deriveWSURL("https://example.com"))
}
