package server

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vango-dev/waypoint/pkg/history"
	"github.com/vango-dev/waypoint/pkg/router"
)

type outbox struct {
	msgs []Message
	err  error
}

func (o *outbox) send(msg Message) error {
	if o.err != nil {
		return o.err
	}
	o.msgs = append(o.msgs, msg)
	return nil
}

func (o *outbox) last() Message {
	return o.msgs[len(o.msgs)-1]
}

func TestRemoteHistoryPushReplace(t *testing.T) {
	ctx := context.Background()
	out := &outbox{}
	h := NewRemoteHistory(history.NewCodec("/app", history.ModeBrowser), "/", out.send)

	e, err := h.Push(ctx, "/a")
	require.NoError(t, err)
	assert.Equal(t, 1, e.Position)
	assert.Equal(t, Message{Type: MsgPush, Href: "/app/a", Position: 1}, out.last())

	_, err = h.Replace(ctx, "/b")
	require.NoError(t, err)
	assert.Equal(t, Message{Type: MsgReplace, Href: "/app/b", Position: 1}, out.last())
	assert.Equal(t, "/b", h.Location())

	// Pushing from the middle truncates forward entries.
	h.Restore(h.Entries(), 0)
	_, err = h.Push(ctx, "/c")
	require.NoError(t, err)
	assert.Equal(t, 2, h.Len())
	assert.Equal(t, "/c", h.Location())
}

func TestRemoteHistorySendFailureKeepsMirror(t *testing.T) {
	out := &outbox{err: errors.New("broken pipe")}
	h := NewRemoteHistory(history.Codec{}, "/", out.send)

	_, err := h.Push(context.Background(), "/a")
	require.Error(t, err)
	assert.Equal(t, 1, h.Len())
	assert.Equal(t, "/", h.Location())
}

func TestRemoteHistoryGo(t *testing.T) {
	ctx := context.Background()
	out := &outbox{}
	h := NewRemoteHistory(history.Codec{}, "/", out.send)
	_, _ = h.Push(ctx, "/a")

	assert.ErrorIs(t, h.Go(ctx, -2), history.ErrOutOfRange)

	require.NoError(t, h.Go(ctx, -1))
	assert.Equal(t, Message{Type: MsgGo, Delta: -1, Position: 0}, out.last())
	// The mirror waits for the popstate.
	assert.Equal(t, 1, h.Position())

	var events []history.Event
	h.Listen(func(ev history.Event) { events = append(events, ev) })
	require.NoError(t, h.HandlePopState(0, "/"))
	require.Len(t, events, 1)
	assert.Equal(t, -1, events[0].Delta)
	assert.Equal(t, "/", events[0].Entry.FullPath)
	assert.Equal(t, 0, h.Position())
}

func TestRemoteHistoryQuietGo(t *testing.T) {
	ctx := context.Background()
	out := &outbox{}
	h := NewRemoteHistory(history.Codec{}, "/", out.send)
	_, _ = h.Push(ctx, "/a")

	var events []history.Event
	h.Listen(func(ev history.Event) { events = append(events, ev) })

	require.NoError(t, h.Go(ctx, -1, history.Quiet()))
	assert.Equal(t, 0, h.Position())

	require.NoError(t, h.HandlePopState(0, "/"))
	assert.Empty(t, events)

	require.NoError(t, h.HandlePopState(1, "/a"))
	assert.Len(t, events, 1)
}

func TestRemoteHistoryQuietGoSwallowsOnlyItsAnswer(t *testing.T) {
	ctx := context.Background()
	out := &outbox{}
	h := NewRemoteHistory(history.Codec{}, "/", out.send)
	_, _ = h.Push(ctx, "/a")
	_, _ = h.Push(ctx, "/b")

	var events []history.Event
	h.Listen(func(ev history.Event) { events = append(events, ev) })

	// Back to /a is refused and the tab is sent back to /b.
	require.NoError(t, h.HandlePopState(1, "/a"))
	require.Len(t, events, 1)
	require.NoError(t, h.Go(ctx, 1, history.Quiet()))
	assert.Equal(t, 2, h.Position())

	// The user presses back twice before the tab handles the go.
	require.NoError(t, h.HandlePopState(0, "/"))
	require.Len(t, events, 2)
	assert.Equal(t, -2, events[1].Delta)
	assert.Equal(t, "/", events[1].Entry.FullPath)
	require.NoError(t, h.Go(ctx, 2, history.Quiet()))

	// The tab lands on /b once; that popstate is the answer.
	require.NoError(t, h.HandlePopState(2, "/b"))
	assert.Len(t, events, 2)
	assert.Equal(t, 2, h.Position())

	// A later back press is a traversal again.
	require.NoError(t, h.HandlePopState(1, "/a"))
	require.Len(t, events, 3)
	assert.Equal(t, -1, events[2].Delta)
}

func TestRemoteHistoryLateQuietAnswerIsTraversal(t *testing.T) {
	ctx := context.Background()
	h := NewRemoteHistory(history.Codec{}, "/", (&outbox{}).send)
	_, _ = h.Push(ctx, "/a")

	require.NoError(t, h.Go(ctx, -1, history.Quiet()))

	// A forward press moves the mirror off the quiet target first.
	ev, ok, err := h.Sync(1, "/a")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1, ev.Delta)

	ev, ok, err = h.Sync(0, "/")
	require.NoError(t, err)
	require.True(t, ok, "the mirror follows the tab")
	assert.Equal(t, -1, ev.Delta)
	assert.Equal(t, 0, h.Position())
}

func TestRemoteHistorySync(t *testing.T) {
	ctx := context.Background()
	h := NewRemoteHistory(history.Codec{}, "/", (&outbox{}).send)
	_, _ = h.Push(ctx, "/a")

	_, ok, err := h.Sync(1, "/a")
	require.NoError(t, err)
	assert.False(t, ok, "no movement, no event")

	ev, ok, err := h.Sync(0, "/?edited=1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "/?edited=1", ev.Entry.FullPath)
	assert.Equal(t, "/?edited=1", h.Location())

	_, _, err = h.Sync(7, "/")
	var perr *ProtocolError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "popstate", perr.Op)
	assert.Equal(t, CodeUnexpectedMessage, perr.ErrorCode())
}

func TestRemoteHistoryRestoreClamps(t *testing.T) {
	h := NewRemoteHistory(history.Codec{}, "/", (&outbox{}).send)
	entries := []history.Entry{history.NewEntry("/", 4), history.NewEntry("/a", 9)}

	h.Restore(entries, 5)
	assert.Equal(t, 1, h.Position())
	assert.Equal(t, []int{0, 1}, []int{h.Entries()[0].Position, h.Entries()[1].Position})

	h.Restore(nil, 0)
	assert.Equal(t, 2, h.Len())
}

func TestRemoteHistoryListenUnsubscribe(t *testing.T) {
	ctx := context.Background()
	h := NewRemoteHistory(history.Codec{}, "/", (&outbox{}).send)
	_, _ = h.Push(ctx, "/a")

	calls := 0
	stop := h.Listen(func(history.Event) { calls++ })
	stop()
	require.NoError(t, h.HandlePopState(0, "/"))
	assert.Zero(t, calls)
}

func TestDecodeMessage(t *testing.T) {
	msg, err := DecodeMessage([]byte(`{"type":"popstate","position":2,"href":"/a"}`))
	require.NoError(t, err)
	assert.Equal(t, MsgPopState, msg.Type)
	assert.Equal(t, 2, msg.Position)

	tests := []struct {
		name string
		data string
		code string
	}{
		{"malformed", `{"type":`, CodeMalformedMessage},
		{"missing type", `{"href":"/"}`, CodeMalformedMessage},
		{"server type", `{"type":"push"}`, CodeUnexpectedMessage},
		{"unknown type", `{"type":"teleport"}`, CodeUnexpectedMessage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeMessage([]byte(tt.data))
			assert.Equal(t, tt.code, errorCode(err))
		})
	}
}

type viewName string

func (v viewName) String() string { return "view:" + string(v) }

func TestNewRoutePayload(t *testing.T) {
	table := router.MustBuild([]router.Route{
		{Path: "/docs/*rest", Name: "docs", View: viewName("Docs")},
	}, router.WithFallback(42))

	m, ok := table.Match("/docs/a/b?x=1#top")
	require.True(t, ok)
	p := NewRoutePayload(m)
	assert.Equal(t, "docs", p.Name)
	assert.Equal(t, "/docs/*rest", p.Pattern)
	assert.Equal(t, "view:Docs", p.View)
	assert.Equal(t, "a/b", p.Params["rest"])
	assert.Equal(t, "top", p.Hash)

	m, ok = table.Match("/nope")
	require.False(t, ok)
	p = NewRoutePayload(m)
	assert.True(t, p.NotFound)
	assert.Empty(t, p.View)
}
