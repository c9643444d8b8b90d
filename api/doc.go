// Package api exposes a recorder over HTTP and provides the matching
// Go client.
//
// The server routes are:
//
//	POST /api/v1/trace                   capture one snapshot
//	GET  /api/v1/records?limit=&offset=  recent snapshots, newest first
//	GET  /healthz                        liveness probe
//	GET  /metrics                        Prometheus text format
//
// An optional sampling middleware captures a snapshot every Nth
// handled request, so an application can record its memory profile
// passively under real traffic instead of on an explicit schedule.
package api
