// Package resources builds the desired state of every child resource of a
// StellarNode.
//
// All functions are pure: given the same node they return the same objects
// and never talk to the API server. Kind-specific behavior (ports, mount
// paths, workload kind, image, env var names) is looked up once per node in
// a profile selected by a single switch on the node kind.
//
// Child resources:
//
//	<name>-data    PersistentVolumeClaim
//	<name>-config  ConfigMap
//	<name>         StatefulSet (Validator) or Deployment (Gateway, RpcNode)
//	<name>         Service
//	<name>-hpa     HorizontalPodAutoscaler (Gateway, RpcNode with autoscaling)
package resources
