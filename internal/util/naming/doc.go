// Package naming provides deterministic names for StellarNode child resources.
//
// The workload and Service share the node name; the data volume, config bundle
// and autoscaler carry a fixed suffix.
package naming
