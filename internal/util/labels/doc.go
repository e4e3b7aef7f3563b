// Package labels provides the label set shared by every child resource of a
// StellarNode.
//
// The same map is used as object labels and as the pod selector of the
// workload and Service, so the set must be a pure function of the node's
// identity and kind.
package labels
