package hub

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DoyleJ11/grid-tactics-backend/internal/config"
	"github.com/DoyleJ11/grid-tactics-backend/internal/countdown"
	"github.com/DoyleJ11/grid-tactics-backend/internal/lobby"
	"github.com/DoyleJ11/grid-tactics-backend/internal/store"
)

func newHub(t *testing.T, rooms config.RoomConfig) *Hub {
	h, _ := newHubWithClock(t, rooms)
	return h
}

func newHubWithClock(t *testing.T, rooms config.RoomConfig) (*Hub, *countdown.Fake) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	clock := countdown.NewFake(time.Unix(0, 0))
	return NewHub(ctx, Options{
		Rooms:    rooms,
		Timing:   config.DefaultTiming(),
		Clock:    clock,
		Recorder: store.NewMemory(),
		Rand:     rand.New(rand.NewSource(1)),
	}), clock
}

func create(t *testing.T, h *Hub) Created {
	t.Helper()
	reply := make(chan Created, 1)
	h.Inbox() <- CreateLobby{Map: store.BuiltinMaps()[0], Reply: reply}
	select {
	case c := <-reply:
		return c
	case <-time.After(time.Second):
		t.Fatal("timed out creating lobby")
		return Created{}
	}
}

func get(h *Hub, code string) *lobby.Lobby {
	reply := make(chan *lobby.Lobby, 1)
	h.Inbox() <- GetLobby{Code: code, Reply: reply}
	return <-reply
}

func TestHub_Create_Get_SamePointer(t *testing.T) {
	h := newHub(t, config.DefaultRooms())

	c := create(t, h)
	require.NoError(t, c.Err)
	assert.Regexp(t, `^\d{4}$`, c.Lobby.Code())

	if lb := get(h, c.Lobby.Code()); lb != c.Lobby {
		t.Fatalf("expected same lobby pointer")
	}
	assert.Nil(t, get(h, "nope"))
}

func TestHub_CodesAreUniqueUntilExhausted(t *testing.T) {
	h := newHub(t, config.RoomConfig{MaxRooms: 10, CodeLength: 1})

	seen := map[string]bool{}
	for range 10 {
		c := create(t, h)
		require.NoError(t, c.Err)
		assert.False(t, seen[c.Lobby.Code()], "code %s handed out twice", c.Lobby.Code())
		seen[c.Lobby.Code()] = true
	}
	assert.ErrorIs(t, create(t, h).Err, ErrNoRoomCodes)
}

func TestHub_MaxRooms(t *testing.T) {
	h := newHub(t, config.RoomConfig{MaxRooms: 2, CodeLength: 4})
	require.NoError(t, create(t, h).Err)
	require.NoError(t, create(t, h).Err)
	assert.ErrorIs(t, create(t, h).Err, ErrNoRoomCodes)
}

func TestHub_ClosedRoomReleasesCode(t *testing.T) {
	h := newHub(t, config.RoomConfig{MaxRooms: 1, CodeLength: 4})
	c := create(t, h)
	require.NoError(t, c.Err)
	code := c.Lobby.Code()

	c.Lobby.Inbox() <- lobby.Shutdown{}
	<-c.Lobby.Done()

	require.Eventually(t, func() bool { return get(h, code) == nil }, time.Second, 5*time.Millisecond)
	assert.NoError(t, create(t, h).Err)
}

func TestHub_UnjoinedRoomIsReclaimed(t *testing.T) {
	h, clock := newHubWithClock(t, config.RoomConfig{MaxRooms: 1, CodeLength: 4})
	c := create(t, h)
	require.NoError(t, c.Err)
	assert.ErrorIs(t, create(t, h).Err, ErrNoRoomCodes)

	clock.Advance(config.DefaultTiming().RoomIdleTimeout)
	select {
	case <-c.Lobby.Done():
	case <-time.After(time.Second):
		t.Fatal("empty room still open after the idle timeout")
	}
	require.Eventually(t, func() bool { return get(h, c.Lobby.Code()) == nil }, time.Second, 5*time.Millisecond)
	assert.NoError(t, create(t, h).Err)
}

func TestHub_ShutdownClosesRooms(t *testing.T) {
	h := newHub(t, config.DefaultRooms())
	c := create(t, h)
	require.NoError(t, c.Err)

	h.Inbox() <- ShutdownHub{}
	select {
	case <-c.Lobby.Done():
	case <-time.After(time.Second):
		t.Fatal("room still open after hub shutdown")
	}
	<-h.Done()
}
