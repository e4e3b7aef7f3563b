package resources

import (
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	stellarv1alpha1 "github.com/stellar-k8s/stellar-operator/api/v1alpha1"
	"github.com/stellar-k8s/stellar-operator/internal/util/naming"
)

// StorageClaim builds the node's data volume claim.
// The size must already have passed validation.
func StorageClaim(node *stellarv1alpha1.StellarNode) *corev1.PersistentVolumeClaim {
	storage := node.Spec.Storage
	meta := objectMeta(node, naming.StorageClaim(node.Name))
	if len(storage.Annotations) > 0 {
		meta.Annotations = make(map[string]string, len(storage.Annotations))
		for k, v := range storage.Annotations {
			meta.Annotations[k] = v
		}
	}

	pvc := &corev1.PersistentVolumeClaim{
		TypeMeta:   metav1.TypeMeta{APIVersion: "v1", Kind: "PersistentVolumeClaim"},
		ObjectMeta: meta,
		Spec: corev1.PersistentVolumeClaimSpec{
			AccessModes: []corev1.PersistentVolumeAccessMode{corev1.ReadWriteOnce},
			Resources: corev1.VolumeResourceRequirements{
				Requests: corev1.ResourceList{
					corev1.ResourceStorage: resource.MustParse(storage.Size),
				},
			},
		},
	}
	if storage.StorageClass != "" {
		class := storage.StorageClass
		pvc.Spec.StorageClassName = &class
	}
	return pvc
}
