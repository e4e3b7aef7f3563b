// Package controller implements the Kubernetes controller for StellarNode
// custom resources.
//
// Every reconcile dispatches on the node's lifecycle state:
// Present -> apply path, Deleting -> cleanup path, Released -> nothing.
//
// The apply path validates the spec, then ensures the storage claim, the
// configuration bundle, the workload, the Service and the autoscaler in that
// order, and finally projects the observed state into status. The cleanup
// path deletes the children in reverse order before the finalizer is
// stripped. Failures are turned into fixed requeue delays by the error
// policy rather than returned to the workqueue's exponential backoff.
package controller
