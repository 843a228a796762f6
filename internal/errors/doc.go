// Package errors provides structured, actionable error messages for the
// waypoint CLI.
//
// The typed errors raised by pkg/router, pkg/navigation, pkg/manifest and
// pkg/server carry a stable code through an ErrorCode() method. FromError
// turns any of them into an *Error holding the registered message, detail
// and suggestion for that code.
//
// # Error Codes
//
//   - W1xx: route table construction and named-route lookup
//   - W2xx: navigation (redirect loops, guard failures, history writes)
//   - W3xx: route manifests
//   - W4xx: the browser bridge protocol
//   - W5xx: waypoint.json
//
// # Usage
//
//	err := errors.New("W501").
//	    WithOffset("waypoint.json", data, syntaxErr.Offset).
//	    Wrap(syntaxErr)
//
//	fmt.Println(err.Format())
//	// Output:
//	// ERROR W501: Invalid waypoint.json
//	//
//	//   invalid character '}' looking for beginning of object key string
//	//
//	//   waypoint.json:4:1
//	//
//	//        2 │   "name": "wallet",
//	//        3 │   "base": "/app",
//	//   →    4 │ }
//	//        │ ^
//	//
//	//   Hint: Check the JSON syntax near the marked position
package errors
