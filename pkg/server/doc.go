// Package server serves a waypoint application and bridges each browser tab
// to a navigation controller running on the server.
//
// # Architecture
//
// The browser loads a shell page and the thin client (/_waypoint/client.js).
// The client opens a WebSocket to /_waypoint/ws and says hello with its
// address bar, its stored session ID and its history position. The server
// answers with a welcome and then owns every navigation decision:
//
//   - Session: one tab; holds the history mirror and the controller
//   - RemoteHistory: a history.History that forwards push, replace and go
//     to the browser and tracks the resulting stack
//   - Server: HTTP routing (chi), the WebSocket handshake and shutdown
//
// # Protocol
//
// Frames are JSON objects with a "type" field. The client sends hello,
// navigate (a link click or programmatic call) and popstate (back/forward).
// The server sends welcome, push, replace, go, route (the new active route)
// and error. A frame that cannot be decoded is answered with an error
// carrying W401; a frame that is valid JSON but not expected in the current
// state is answered with W402. A popstate naming a position the mirror does
// not know asks the client to reload.
//
// # Deep Links
//
// In browser mode every in-app path serves the shell. Non-canonical paths
// are redirected with 308 and unmatched paths answer 404 with the shell so
// the client still renders the fallback view. Hash mode only needs the base.
//
// # Usage
//
//	table := router.MustBuild(routes)
//	srv := server.New(table, &server.ServerConfig{Address: ":3000"},
//	    server.WithSessionSetup(func(sess *server.Session) {
//	        sess.Controller().BeforeEach(requireAuth)
//	    }),
//	)
//	if err := srv.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// # Mounting
//
// Handler returns the chi router so the app can be mounted under another
// router:
//
//	r := chi.NewRouter()
//	r.Handle("/*", srv.Handler())
package server
