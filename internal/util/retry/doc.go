// Package retry retries an operation with exponential backoff.
//
// Operations return [Fatal] to stop retrying immediately. The operator uses it
// at startup while waiting for API discovery to serve the StellarNode kind.
package retry
