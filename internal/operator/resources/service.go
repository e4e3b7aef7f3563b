package resources

import (
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/intstr"

	stellarv1alpha1 "github.com/stellar-k8s/stellar-operator/api/v1alpha1"
	"github.com/stellar-k8s/stellar-operator/internal/util/naming"
)

// Service builds the network endpoint selecting the node's pods.
func Service(node *stellarv1alpha1.StellarNode) *corev1.Service {
	p := profileFor(node.Spec.NodeKind)

	ports := make([]corev1.ServicePort, 0, len(p.Ports))
	for _, port := range p.Ports {
		ports = append(ports, corev1.ServicePort{
			Name:       port.Name,
			Port:       port.Port,
			TargetPort: intstr.FromString(port.Name),
			Protocol:   corev1.ProtocolTCP,
		})
	}

	return &corev1.Service{
		TypeMeta:   metav1.TypeMeta{APIVersion: "v1", Kind: "Service"},
		ObjectMeta: objectMeta(node, naming.Service(node.Name)),
		Spec: corev1.ServiceSpec{
			Selector: Labels(node),
			Ports:    ports,
		},
	}
}
