package navigation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vango-dev/waypoint/pkg/history"
	"github.com/vango-dev/waypoint/pkg/router"
)

func TestLinkActiveState(t *testing.T) {
	c, _ := newController(t, testRoutes)
	_, err := c.Navigate(context.Background(), To("/users/7/posts"))
	require.NoError(t, err)

	tests := []struct {
		target     Target
		wantActive bool
		wantExact  bool
	}{
		{To("/users/7/posts"), true, true},
		{To("/users/7/posts?page=3"), true, true},
		{To("/users/7"), true, false},
		{Named("user", nil), true, false},
		{To("/users/70"), false, false},
		{To("/"), false, false},
		{To("/a"), false, false},
	}

	for _, tc := range tests {
		t.Run(tc.target.String(), func(t *testing.T) {
			l, err := c.Link(tc.target)
			require.NoError(t, err)
			assert.Equal(t, tc.wantActive, l.Active)
			assert.Equal(t, tc.wantExact, l.ExactActive)
		})
	}
}

func TestLinkHref(t *testing.T) {
	table := router.MustBuild(testRoutes)
	h := history.NewMemory("/", history.WithCodec(history.NewCodec("/app", history.ModeHash)))
	c := New(table, h, WithLogger(quietLogger()))

	l, err := c.Link(Named("user", map[string]string{"id": "7"}))
	require.NoError(t, err)
	assert.Equal(t, "/app/#/users/7", l.Href)
	assert.Equal(t, "/users/7", l.FullPath)
	assert.Equal(t, "user", l.Route.Name())
	assert.False(t, l.Active)

	res, err := l.Navigate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OriginLink, res.Origin)
	assert.Equal(t, "/users/7", h.Location())

	_, err = c.Link(Back())
	assert.ErrorIs(t, err, ErrInvalidTarget)
}
