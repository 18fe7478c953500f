package telemetry

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	gametypes "github.com/metahead-arena/headball/pkg/game/types"
	"github.com/metahead-arena/headball/pkg/network"
	"github.com/metahead-arena/headball/pkg/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServer_Endpoints(t *testing.T) {
	stateManager := state.NewInMemoryStateManager()
	require.NoError(t, stateManager.Set(context.Background(), &gametypes.GameState{
		Active: true,
		Score:  gametypes.Score{Player1: 2, Player2: 1},
	}))

	server := NewServer(NewServerOptions{
		Addr: "127.0.0.1:0",
		ConnectionInfo: func() network.Health {
			return network.Health{Status: "connected", LocalID: "abc"}
		},
		StateManager: stateManager,
	})

	t.Run("healthz", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		server.server.Handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		require.Equal(t, http.StatusOK, recorder.Code)

		health := network.Health{}
		require.NoError(t, json.NewDecoder(recorder.Body).Decode(&health))
		assert.Equal(t, "connected", health.Status)
		assert.Equal(t, "abc", health.LocalID)
	})

	t.Run("state", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		server.server.Handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/state", nil))
		require.Equal(t, http.StatusOK, recorder.Code)

		gameState := &gametypes.GameState{}
		require.NoError(t, json.NewDecoder(recorder.Body).Decode(gameState))
		assert.True(t, gameState.Active)
		assert.Equal(t, 2, gameState.Score.Player1)
	})

	t.Run("method not allowed", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		server.server.Handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, "/state", nil))
		assert.Equal(t, http.StatusMethodNotAllowed, recorder.Code)
	})
}
