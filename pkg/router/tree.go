package router

import (
	"strings"

	"github.com/vango-dev/waypoint/pkg/routepath"
)

// node is a node in the segment tree.
type node struct {
	// segment is the decoded literal this node matches
	segment string

	// entry is the route terminating at this node (first registered wins)
	entry *Entry

	// children are literal segment children
	children []*node

	// paramChild is the parameter child (:id)
	paramChild *node

	// wildcardChild is the wildcard child (*rest)
	wildcardChild *node
}

// findChild finds a child node with an exact segment match.
func (n *node) findChild(segment string) *node {
	for _, child := range n.children {
		if child.segment == segment {
			return child
		}
	}
	return nil
}

// addChild adds or retrieves a child node for the given segment.
func (n *node) addChild(segment string) *node {
	if child := n.findChild(segment); child != nil {
		return child
	}
	child := &node{segment: segment}
	n.children = append(n.children, child)
	return child
}

func (n *node) addParamChild() *node {
	if n.paramChild == nil {
		n.paramChild = &node{}
	}
	return n.paramChild
}

func (n *node) addWildcardChild() *node {
	if n.wildcardChild == nil {
		n.wildcardChild = &node{}
	}
	return n.wildcardChild
}

// insert adds e to the tree. It reports false if a route of identical shape
// was registered earlier, in which case e is never matched.
func (n *node) insert(e *Entry) bool {
	current := n
	for _, seg := range e.pattern.Segments() {
		switch seg.Kind {
		case routepath.Literal:
			current = current.addChild(seg.Value)
		case routepath.Param:
			current = current.addParamChild()
		case routepath.Wildcard:
			current = current.addWildcardChild()
		}
	}
	if current.entry != nil {
		return false
	}
	current.entry = e
	return true
}

// match finds the entry for the given raw (still escaped) path segments.
// Captured values are appended to vals in segment order; the caller binds
// them to the winning entry's parameter names.
//
// Children are tried literal first, then parameter, then wildcard, and the
// walk backtracks when a branch fails deeper down.
func (n *node) match(segments []string, vals []string) (*Entry, []string) {
	if len(segments) == 0 {
		if n.entry != nil {
			return n.entry, vals
		}
		// A wildcard also matches an empty remainder.
		if w := n.wildcardChild; w != nil && w.entry != nil {
			return w.entry, append(vals, "")
		}
		return nil, nil
	}

	segment := segments[0]
	remaining := segments[1:]

	// Segments with an encoded slash can only be consumed by a wildcard.
	if decoded, err := routepath.DecodeSegment(segment, false); err == nil {
		if child := n.findChild(decoded); child != nil {
			if e, v := child.match(remaining, vals); e != nil {
				return e, v
			}
		}

		if n.paramChild != nil {
			if e, v := n.paramChild.match(remaining, append(vals, decoded)); e != nil {
				return e, v
			}
		}
	}

	if w := n.wildcardChild; w != nil && w.entry != nil {
		rest, err := routepath.DecodeSegment(strings.Join(segments, "/"), true)
		if err == nil {
			return w.entry, append(vals, rest)
		}
	}

	return nil, nil
}

// bindParams maps captured values to the entry's parameter names.
func bindParams(e *Entry, vals []string) map[string]string {
	names := e.pattern.ParamNames()
	params := make(map[string]string, len(names))
	for i, name := range names {
		if i < len(vals) {
			params[name] = vals[i]
		}
	}
	return params
}
