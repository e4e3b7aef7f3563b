package resources

import (
	autoscalingv2 "k8s.io/api/autoscaling/v2"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	stellarv1alpha1 "github.com/stellar-k8s/stellar-operator/api/v1alpha1"
	"github.com/stellar-k8s/stellar-operator/internal/util/naming"
	"github.com/stellar-k8s/stellar-operator/internal/util/ptr"
)

// Autoscaler builds the HorizontalPodAutoscaler for a stateless node, or
// returns nil when the node should not have one.
//
// Only the replica bounds are wired. Custom metrics need an external metrics
// adapter and are left to the caller to report.
func Autoscaler(node *stellarv1alpha1.StellarNode) *autoscalingv2.HorizontalPodAutoscaler {
	if !node.Spec.AutoscalerEnabled() {
		return nil
	}
	as := node.Spec.Autoscaling
	return &autoscalingv2.HorizontalPodAutoscaler{
		TypeMeta:   metav1.TypeMeta{APIVersion: "autoscaling/v2", Kind: "HorizontalPodAutoscaler"},
		ObjectMeta: objectMeta(node, naming.Autoscaler(node.Name)),
		Spec: autoscalingv2.HorizontalPodAutoscalerSpec{
			ScaleTargetRef: autoscalingv2.CrossVersionObjectReference{
				APIVersion: "apps/v1",
				Kind:       string(WorkloadDeployment),
				Name:       naming.Workload(node.Name),
			},
			MinReplicas: ptr.To(as.MinReplicas),
			MaxReplicas: as.MaxReplicas,
		},
	}
}
