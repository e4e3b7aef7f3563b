package testing

import (
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/types"

	stellarv1alpha1 "github.com/stellar-k8s/stellar-operator/api/v1alpha1"
)

// DefaultNamespace is the namespace nodes are built in.
const DefaultNamespace = "stellar"

// NodeBuilder provides a fluent interface for constructing test nodes.
// Each method returns a new builder (immutable) for chaining.
type NodeBuilder struct {
	node stellarv1alpha1.StellarNode
}

// NewNodeBuilder creates a builder for a valid Gateway node on Testnet.
func NewNodeBuilder(name string) *NodeBuilder {
	b := &NodeBuilder{
		node: stellarv1alpha1.StellarNode{
			TypeMeta: metav1.TypeMeta{
				APIVersion: stellarv1alpha1.GroupVersion.String(),
				Kind:       "StellarNode",
			},
			ObjectMeta: metav1.ObjectMeta{
				Name:       name,
				Namespace:  DefaultNamespace,
				UID:        types.UID(name + "-uid"),
				Generation: 1,
			},
			Spec: stellarv1alpha1.StellarNodeSpec{
				Network:  stellarv1alpha1.NetworkSpec{Name: stellarv1alpha1.NetworkTestnet},
				Version:  "v21.0.0",
				Replicas: 2,
				Storage: stellarv1alpha1.StorageSpec{
					Size:            "10Gi",
					RetentionPolicy: stellarv1alpha1.RetentionDelete,
				},
			},
		},
	}
	return b.WithKind(stellarv1alpha1.NodeKindGateway)
}

// WithKind sets the node kind along with a minimal config block for it.
func (b *NodeBuilder) WithKind(kind stellarv1alpha1.NodeKind) *NodeBuilder {
	nb := b.clone()
	spec := &nb.node.Spec
	spec.NodeKind = kind
	spec.ValidatorConfig, spec.GatewayConfig, spec.RpcConfig = nil, nil, nil
	switch kind {
	case stellarv1alpha1.NodeKindValidator:
		spec.ValidatorConfig = &stellarv1alpha1.ValidatorConfig{SeedSecretRef: "validator-seed"}
	case stellarv1alpha1.NodeKindGateway:
		spec.GatewayConfig = &stellarv1alpha1.GatewayConfig{CoreURL: "http://core:11626"}
	case stellarv1alpha1.NodeKindRpcNode:
		spec.RpcConfig = &stellarv1alpha1.RpcConfig{CoreURL: "http://core:11626"}
	}
	return nb
}

// WithReplicas sets the declared replica count.
func (b *NodeBuilder) WithReplicas(n int32) *NodeBuilder {
	nb := b.clone()
	nb.node.Spec.Replicas = n
	return nb
}

// WithSuspended sets the suspended flag.
func (b *NodeBuilder) WithSuspended(suspended bool) *NodeBuilder {
	nb := b.clone()
	nb.node.Spec.Suspended = suspended
	return nb
}

// WithRetention sets the storage retention policy.
func (b *NodeBuilder) WithRetention(policy stellarv1alpha1.RetentionPolicy) *NodeBuilder {
	nb := b.clone()
	nb.node.Spec.Storage.RetentionPolicy = policy
	return nb
}

// WithStorageSize sets the requested storage size.
func (b *NodeBuilder) WithStorageSize(size string) *NodeBuilder {
	nb := b.clone()
	nb.node.Spec.Storage.Size = size
	return nb
}

// WithAutoscaling sets the autoscaling bounds.
func (b *NodeBuilder) WithAutoscaling(minReplicas, maxReplicas int32) *NodeBuilder {
	nb := b.clone()
	nb.node.Spec.Autoscaling = &stellarv1alpha1.AutoscalingSpec{
		MinReplicas: minReplicas,
		MaxReplicas: maxReplicas,
	}
	return nb
}

// WithDatabase references an external database secret.
func (b *NodeBuilder) WithDatabase(secret string) *NodeBuilder {
	nb := b.clone()
	nb.node.Spec.Database = &stellarv1alpha1.DatabaseSpec{
		SecretRef: stellarv1alpha1.SecretKeyReference{Name: secret},
	}
	return nb
}

// WithGeneration sets metadata.generation.
func (b *NodeBuilder) WithGeneration(gen int64) *NodeBuilder {
	nb := b.clone()
	nb.node.Generation = gen
	return nb
}

// WithFinalizers sets metadata.finalizers.
func (b *NodeBuilder) WithFinalizers(finalizers ...string) *NodeBuilder {
	nb := b.clone()
	nb.node.Finalizers = finalizers
	return nb
}

// Deleting marks the node as deletion-requested.
func (b *NodeBuilder) Deleting() *NodeBuilder {
	nb := b.clone()
	now := metav1.Now()
	nb.node.DeletionTimestamp = &now
	return nb
}

// Build returns the constructed node.
func (b *NodeBuilder) Build() *stellarv1alpha1.StellarNode {
	return b.node.DeepCopy()
}

// clone creates a deep copy of the builder for immutability.
func (b *NodeBuilder) clone() *NodeBuilder {
	return &NodeBuilder{node: *b.node.DeepCopy()}
}
