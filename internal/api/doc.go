// Package api provides the HTTP REST API and the monitor WebSocket
// channel for the Hearth hub.
//
// It exposes peripheral registry operations, command dispatch and
// reading aggregation over REST, and carries the correlated command
// protocol plus lifecycle broadcasts over a single duplex WebSocket.
//
// The server follows the same lifecycle pattern as the other
// infrastructure components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
package api
