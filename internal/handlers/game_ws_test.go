package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/faaizHadaina/jobi-socket/internal/game"
	"github.com/faaizHadaina/jobi-socket/internal/models"
	"github.com/faaizHadaina/jobi-socket/internal/protocol"
	"github.com/faaizHadaina/jobi-socket/internal/room"
	"github.com/faaizHadaina/jobi-socket/internal/session"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type wireEvent struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func newTestServer(t *testing.T) (*httptest.Server, *Hub, *room.Registry) {
	t.Helper()
	logger, _ := test.NewNullLogger()

	rooms := room.NewRegistry(func() models.GameState { return game.InitialState(game.NewRandom()) }, nil)
	hub := NewHub(logger)
	router := session.NewRouter(rooms, hub, nil, logger)

	srv := httptest.NewServer(NewRouter(logger, hub, router, nil))
	t.Cleanup(srv.Close)
	return srv, hub, rooms
}

func dial(t *testing.T, ctx context.Context, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	c, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close(websocket.StatusNormalClosure, "") })

	greeting := readEvent(t, ctx, c)
	require.Equal(t, protocol.EventMessage, greeting.Event)
	require.JSONEq(t, `"`+protocol.GreetingText+`"`, string(greeting.Data))
	return c
}

func readEvent(t *testing.T, ctx context.Context, c *websocket.Conn) wireEvent {
	t.Helper()
	typ, data, err := c.Read(ctx)
	require.NoError(t, err)
	require.Equal(t, websocket.MessageText, typ)
	var ev wireEvent
	require.NoError(t, json.Unmarshal(data, &ev))
	return ev
}

func send(t *testing.T, ctx context.Context, c *websocket.Conn, frame string) {
	t.Helper()
	require.NoError(t, c.Write(ctx, websocket.MessageText, []byte(frame)))
}

func readDispatch(t *testing.T, ctx context.Context, c *websocket.Conn) (protocol.DispatchType, json.RawMessage) {
	t.Helper()
	ev := readEvent(t, ctx, c)
	require.Equal(t, protocol.EventDispatch, ev.Event)
	var d struct {
		Type    protocol.DispatchType `json:"type"`
		Payload json.RawMessage       `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(ev.Data, &d))
	return d.Type, d.Payload
}

func TestPingHandler(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, WelcomeText, string(body))

	resp, err = http.Get(srv.URL + "/nope")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/ping")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCORSHeaders(t *testing.T) {
	logger, _ := test.NewNullLogger()
	h := NewRouter(logger, NewHub(logger), nil, []string{"https://jobi.games"})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://jobi.games")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, "https://jobi.games", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://evil.example")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestGameSessionOverWebsocket(t *testing.T) {
	srv, hub, rooms := newTestServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	a := dial(t, ctx, srv)
	send(t, ctx, a, `{"event":"join_room","data":{"room_id":"AB12","storedId":"alice"}}`)
	typ, payload := readDispatch(t, ctx, a)
	require.Equal(t, protocol.DispatchInitializeDeck, typ)
	var stateA models.GameState
	require.NoError(t, json.Unmarshal(payload, &stateA))
	assert.Equal(t, models.SlotOne, stateA.Player)
	assert.Equal(t, game.DeckSize, stateA.CardCount())

	b := dial(t, ctx, srv)
	send(t, ctx, b, `{"event":"join_room","data":{"room_id":"AB12","storedId":"bob"}}`)
	typ, payload = readDispatch(t, ctx, b)
	require.Equal(t, protocol.DispatchInitializeDeck, typ)
	var stateB models.GameState
	require.NoError(t, json.Unmarshal(payload, &stateB))
	assert.Equal(t, game.Mirror(stateA), stateB)

	assert.Equal(t, protocol.EventConfirmOnlineState, readEvent(t, ctx, a).Event)
	online := readEvent(t, ctx, a)
	assert.Equal(t, protocol.EventOpponentOnlineStateChanged, online.Event)
	assert.JSONEq(t, `true`, string(online.Data))
	assert.Len(t, hub.Members("AB12"), 2)

	// A answers the confirmation request so B learns A is online.
	send(t, ctx, a, `{"event":"confirmOnlineState","data":{"storedId":"alice","room_id":"AB12"}}`)
	online = readEvent(t, ctx, b)
	assert.Equal(t, protocol.EventOpponentOnlineStateChanged, online.Event)
	assert.JSONEq(t, `true`, string(online.Data))

	// B moves; only A hears about it.
	stateB.WhoIsToPlay = models.TurnOpponent
	update, err := json.Marshal(map[string]any{
		"event": protocol.EventSendUpdatedState,
		"data":  map[string]any{"state": stateB, "room_id": "AB12"},
	})
	require.NoError(t, err)
	send(t, ctx, b, string(update))

	typ, payload = readDispatch(t, ctx, a)
	require.Equal(t, protocol.DispatchUpdateState, typ)
	var views models.PlayerStates
	require.NoError(t, json.Unmarshal(payload, &views))
	assert.Equal(t, models.SlotOne, views.PlayerOneState.Player)
	assert.Equal(t, models.TurnUser, views.PlayerOneState.WhoIsToPlay)
	assert.Equal(t, stateB, views.PlayerTwoState)

	// Echo goes only to the sender, which also proves B saw no UPDATE_STATE.
	send(t, ctx, b, `{"event":"message","data":"ping"}`)
	echo := readEvent(t, ctx, b)
	assert.Equal(t, protocol.EventMessage, echo.Event)
	assert.JSONEq(t, `"ping"`, string(echo.Data))

	// B drops; A is told, the room keeps B's seat.
	require.NoError(t, b.Close(websocket.StatusNormalClosure, "bye"))
	offline := readEvent(t, ctx, a)
	assert.Equal(t, protocol.EventOpponentOnlineStateChanged, offline.Event)
	assert.JSONEq(t, `false`, string(offline.Data))

	rm, ok := rooms.Find("AB12")
	require.True(t, ok)
	seat, ok := rm.PlayerBySlot(models.SlotTwo)
	require.True(t, ok)
	assert.False(t, seat.Connected())
	assert.Equal(t, "bob", seat.StoredID)
}

func TestJoinErrorsOverWebsocket(t *testing.T) {
	srv, _, _ := newTestServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	a := dial(t, ctx, srv)
	send(t, ctx, a, `not json`)
	send(t, ctx, a, `{"event":"teleport","data":{}}`)
	send(t, ctx, a, `{"event":"join_room","data":{"room_id":"AB123","storedId":"alice"}}`)
	ev := readEvent(t, ctx, a)
	assert.Equal(t, protocol.EventError, ev.Event)
	assert.JSONEq(t, `"`+protocol.ErrTextInvalidRoom+`"`, string(ev.Data))

	for _, frame := range []string{
		`{"event":"join_room","data":{"room_id":1234,"storedId":"alice"}}`,
		`{"event":"join_room","data":{"storedId":"alice"}}`,
		`{"event":"join_room"}`,
	} {
		send(t, ctx, a, frame)
		ev = readEvent(t, ctx, a)
		assert.Equal(t, protocol.EventError, ev.Event, frame)
		assert.JSONEq(t, `"`+protocol.ErrTextInvalidRoom+`"`, string(ev.Data), frame)
	}

	send(t, ctx, a, `{"event":"join_room","data":{"room_id":"AB12","storedId":"alice"}}`)
	readDispatch(t, ctx, a)
	b := dial(t, ctx, srv)
	send(t, ctx, b, `{"event":"join_room","data":{"room_id":"AB12","storedId":"bob"}}`)
	readDispatch(t, ctx, b)

	c := dial(t, ctx, srv)
	send(t, ctx, c, `{"event":"join_room","data":{"room_id":"AB12","storedId":"carol"}}`)
	ev = readEvent(t, ctx, c)
	assert.Equal(t, protocol.EventError, ev.Event)
	assert.JSONEq(t, `"`+protocol.ErrTextRoomFull+`"`, string(ev.Data))
}

func TestUpdatedStateKeepsClientKeys(t *testing.T) {
	srv, _, _ := newTestServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	a := dial(t, ctx, srv)
	send(t, ctx, a, `{"event":"join_room","data":{"room_id":"AB12","storedId":"alice"}}`)
	readDispatch(t, ctx, a)
	b := dial(t, ctx, srv)
	send(t, ctx, b, `{"event":"join_room","data":{"room_id":"AB12","storedId":"bob"}}`)
	readDispatch(t, ctx, b)
	assert.Equal(t, protocol.EventConfirmOnlineState, readEvent(t, ctx, a).Event)
	assert.Equal(t, protocol.EventOpponentOnlineStateChanged, readEvent(t, ctx, a).Event)

	send(t, ctx, b, `{"event":"sendUpdatedState","data":{"room_id":"AB12","state":{`+
		`"deck":[{"shape":"cross","number":3,"id":"x3"}],`+
		`"userCards":[{"shape":"circle","number":1,"id":"c1"}],`+
		`"usedCards":[],`+
		`"opponentCards":[{"shape":"square","number":2,"id":"q2"}],`+
		`"activeCard":{"shape":"star","number":7,"id":"s7"},`+
		`"whoIsToPlay":"opponent","infoText":"","infoShown":false,`+
		`"stateHasBeenInitialized":true,"player":"two","iNeed":"circle"}}}`)

	typ, payload := readDispatch(t, ctx, a)
	require.Equal(t, protocol.DispatchUpdateState, typ)
	var views struct {
		PlayerOneState map[string]json.RawMessage `json:"playerOneState"`
		PlayerTwoState map[string]json.RawMessage `json:"playerTwoState"`
	}
	require.NoError(t, json.Unmarshal(payload, &views))

	for name, view := range map[string]map[string]json.RawMessage{
		"playerOneState": views.PlayerOneState,
		"playerTwoState": views.PlayerTwoState,
	} {
		assert.JSONEq(t, `{"shape":"star","number":7,"id":"s7"}`, string(view["activeCard"]), name)
		assert.JSONEq(t, `"circle"`, string(view["iNeed"]), name)
		assert.JSONEq(t, `[{"shape":"cross","number":3,"id":"x3"}]`, string(view["deck"]), name)
	}
	assert.JSONEq(t, `[{"shape":"square","number":2,"id":"q2"}]`, string(views.PlayerOneState["userCards"]))
	assert.JSONEq(t, `[{"shape":"circle","number":1,"id":"c1"}]`, string(views.PlayerTwoState["userCards"]))
}

func TestBadSubprotocolIsClosed(t *testing.T) {
	srv, hub, _ := newTestServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", &websocket.DialOptions{
		Subprotocols: []string{"chess"},
	})
	require.NoError(t, err)
	defer c.Close(websocket.StatusNormalClosure, "")

	_, _, err = c.Read(ctx)
	require.Error(t, err)
	assert.Equal(t, BadSubprotocolError, websocket.CloseStatus(err))
	assert.Zero(t, hub.ConnectionCount())
}
