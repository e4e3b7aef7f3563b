// Package testing provides test utilities, builders, and fixtures for unit and integration tests.
//
// This package centralizes common testing patterns to avoid duplication across test files:
//   - NodeBuilder: Fluent builder for StellarNode objects
//   - FakeCluster: fake API server client with server-side apply emulation and fault injection
//   - MockElector: shared mock of the leader election capability
//
// Usage:
//
//	node := testing.NewNodeBuilder("rpc-0").
//	    WithKind(stellarv1alpha1.NodeKindRpcNode).
//	    WithReplicas(2).
//	    Build()
//
//	cluster := testing.NewFakeCluster(t, node)
//	cluster.FailOn(testing.VerbApply, "Deployment", errors.New("boom"))
package testing
