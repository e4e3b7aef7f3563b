// Package api serves a read-only JSON view of StellarNode resources.
//
// Routes:
//
//	GET /health
//	GET /api/v1/nodes
//	GET /api/v1/nodes/{namespace}/{name}
//
// The server reads through the manager's cached client and never writes.
package api
