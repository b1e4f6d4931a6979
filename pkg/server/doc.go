// Package server exposes version resolution over HTTP.
//
// # Routes
//
//	GET /gh/v1/releases/tag/{owner}/{repo}/{version}
//	GET /healthz
//	GET /metrics    (when Config.Metrics is set)
//
// The release route answers with the resolved tag as text/plain. Failures
// map to status codes:
//
//	VERSION_NOT_FOUND           404
//	FORBIDDEN                   403
//	INVALID_*                   400
//	TIMEOUT                     504
//	anything else               502
//
// # Request ids
//
// Every response carries X-Request-ID. An incoming value is reused, otherwise
// a UUID is generated. The id is bound to a logger attached to the request
// context with log.WithContext, so the resolution service logs under it too.
//
// # Shutdown
//
// [Server.Serve] returns once its context is cancelled and in-flight requests
// have drained, or the shutdown timeout has passed.
package server
