package resources

import (
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	stellarv1alpha1 "github.com/stellar-k8s/stellar-operator/api/v1alpha1"
	"github.com/stellar-k8s/stellar-operator/internal/util/labels"
	"github.com/stellar-k8s/stellar-operator/internal/util/ptr"
)

// Labels returns the label set shared by all children of a node. It is also
// the pod selector of the workload and the Service.
func Labels(node *stellarv1alpha1.StellarNode) map[string]string {
	return labels.NewLabelBuilder(node.Name).
		WithNodeKind(string(node.Spec.NodeKind)).
		Build()
}

// OwnerReference returns the controller reference children carry so the
// garbage collector removes them if the finalizer is ever bypassed.
func OwnerReference(node *stellarv1alpha1.StellarNode) metav1.OwnerReference {
	gvk := stellarv1alpha1.GroupVersion.WithKind("StellarNode")
	return metav1.OwnerReference{
		APIVersion:         gvk.GroupVersion().String(),
		Kind:               gvk.Kind,
		Name:               node.Name,
		UID:                node.UID,
		Controller:         ptr.To(true),
		BlockOwnerDeletion: ptr.To(true),
	}
}

// objectMeta returns metadata for a child named name.
func objectMeta(node *stellarv1alpha1.StellarNode, name string) metav1.ObjectMeta {
	return metav1.ObjectMeta{
		Name:            name,
		Namespace:       node.Namespace,
		Labels:          Labels(node),
		OwnerReferences: []metav1.OwnerReference{OwnerReference(node)},
	}
}
