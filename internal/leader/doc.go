// Package leader provides single-active-replica election over a
// coordination Lease.
//
// The reconciler never talks to this package. The run command acquires
// leadership first, starts the controller manager under a leader context,
// renews on a short period and releases the lease on shutdown.
package leader
