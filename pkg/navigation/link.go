package navigation

import (
	"context"
	"strings"

	"github.com/vango-dev/waypoint/pkg/router"
)

// Link is a resolved in-app link. Rendering layers use Href for the anchor
// and the active flags for styling; clicks go through Navigate so the guard
// pipeline is never bypassed.
type Link struct {
	// Href is the address-bar string, including base path and hash prefix.
	Href string

	// FullPath is the in-app location.
	FullPath string

	// Route is the route the link resolves to.
	Route *router.MatchedRoute

	// Active is set when the active route's path equals the link's path or
	// lies beneath it. The root link is only ever exactly active.
	Active bool

	// ExactActive is set when the active route's path equals the link's.
	ExactActive bool

	ctrl *Controller
}

// Link resolves target into a Link against the active route.
func (c *Controller) Link(target Target) (Link, error) {
	m, err := c.Resolve(target)
	if err != nil {
		return Link{}, err
	}

	l := Link{
		Href:     c.hist.Href(m.FullPath),
		FullPath: m.FullPath,
		Route:    m,
		ctrl:     c,
	}

	if cur := c.Current(); !cur.IsUnresolved() {
		l.ExactActive = cur.Path == m.Path
		l.Active = l.ExactActive || (m.Path != "/" && strings.HasPrefix(cur.Path, m.Path+"/"))
	}
	return l, nil
}

// Navigate follows the link.
func (l Link) Navigate(ctx context.Context, opts ...NavigateOption) (*Result, error) {
	opts = append([]NavigateOption{WithOrigin(OriginLink)}, opts...)
	return l.ctrl.Navigate(ctx, To(l.FullPath), opts...)
}
