// Package server hosts the video-sharing REST API behind a single HTTP server.
//
// The server builds a consistent middleware chain of request identification,
// auth, metrics, audit, and logging so handlers all share common protections
// and instrumentation.
package server
