package resources

import (
	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/intstr"

	stellarv1alpha1 "github.com/stellar-k8s/stellar-operator/api/v1alpha1"
	"github.com/stellar-k8s/stellar-operator/internal/util/naming"
	"github.com/stellar-k8s/stellar-operator/internal/util/ptr"
)

// Default compute resources, used when the spec leaves a value empty.
var defaultResources = stellarv1alpha1.ResourceRequirements{
	Requests: stellarv1alpha1.ResourceList{CPU: "500m", Memory: "1Gi"},
	Limits:   stellarv1alpha1.ResourceList{CPU: "2", Memory: "4Gi"},
}

// StatefulSet builds the workload for Validator nodes. Validators are a
// single keyed identity, so the replica count is never taken from the spec.
func StatefulSet(node *stellarv1alpha1.StellarNode) *appsv1.StatefulSet {
	selector := Labels(node)
	return &appsv1.StatefulSet{
		TypeMeta:   metav1.TypeMeta{APIVersion: "apps/v1", Kind: "StatefulSet"},
		ObjectMeta: objectMeta(node, naming.Workload(node.Name)),
		Spec: appsv1.StatefulSetSpec{
			Replicas:    ptr.To(DesiredReplicas(&node.Spec)),
			ServiceName: naming.Service(node.Name),
			Selector:    &metav1.LabelSelector{MatchLabels: selector},
			Template:    podTemplate(node, selector),
		},
	}
}

// Deployment builds the workload for Gateway and RpcNode nodes.
//
// While an autoscaler owns the node and it is not suspended, replicas are
// left unset so the autoscaler's scale decisions are not overwritten.
func Deployment(node *stellarv1alpha1.StellarNode) *appsv1.Deployment {
	selector := Labels(node)
	deploy := &appsv1.Deployment{
		TypeMeta:   metav1.TypeMeta{APIVersion: "apps/v1", Kind: "Deployment"},
		ObjectMeta: objectMeta(node, naming.Workload(node.Name)),
		Spec: appsv1.DeploymentSpec{
			Selector: &metav1.LabelSelector{MatchLabels: selector},
			Template: podTemplate(node, selector),
		},
	}
	if node.Spec.Suspended || !node.Spec.AutoscalerEnabled() {
		deploy.Spec.Replicas = ptr.To(DesiredReplicas(&node.Spec))
	}
	return deploy
}

func podTemplate(node *stellarv1alpha1.StellarNode, podLabels map[string]string) corev1.PodTemplateSpec {
	return corev1.PodTemplateSpec{
		ObjectMeta: metav1.ObjectMeta{Labels: podLabels},
		Spec: corev1.PodSpec{
			Containers: []corev1.Container{container(node)},
			Volumes: []corev1.Volume{
				{
					Name: dataVolumeName,
					VolumeSource: corev1.VolumeSource{
						PersistentVolumeClaim: &corev1.PersistentVolumeClaimVolumeSource{
							ClaimName: naming.StorageClaim(node.Name),
						},
					},
				},
				{
					Name: configVolume,
					VolumeSource: corev1.VolumeSource{
						ConfigMap: &corev1.ConfigMapVolumeSource{
							LocalObjectReference: corev1.LocalObjectReference{Name: naming.ConfigBundle(node.Name)},
						},
					},
				},
			},
		},
	}
}

func container(node *stellarv1alpha1.StellarNode) corev1.Container {
	p := profileFor(node.Spec.NodeKind)

	ports := make([]corev1.ContainerPort, 0, len(p.Ports))
	for _, port := range p.Ports {
		ports = append(ports, corev1.ContainerPort{
			Name:          port.Name,
			ContainerPort: port.Port,
			Protocol:      corev1.ProtocolTCP,
		})
	}

	c := corev1.Container{
		Name:      containerName,
		Image:     ContainerImage(&node.Spec),
		Ports:     ports,
		Env:       env(node, p),
		Resources: computeResources(node.Spec.Resources),
		VolumeMounts: []corev1.VolumeMount{
			{Name: dataVolumeName, MountPath: p.DataMountPath},
			{Name: configVolume, MountPath: configMountPath, ReadOnly: true},
		},
		ReadinessProbe: &corev1.Probe{
			ProbeHandler: corev1.ProbeHandler{
				TCPSocket: &corev1.TCPSocketAction{Port: intstr.FromString("http")},
			},
			PeriodSeconds: 10,
		},
	}

	if node.Spec.NodeKind.IsStateless() {
		c.EnvFrom = []corev1.EnvFromSource{{
			ConfigMapRef: &corev1.ConfigMapEnvSource{
				LocalObjectReference: corev1.LocalObjectReference{Name: naming.ConfigBundle(node.Name)},
			},
		}}
	}
	return c
}

// env injects the passphrase by value and every credential by secret reference.
func env(node *stellarv1alpha1.StellarNode, p profile) []corev1.EnvVar {
	vars := []corev1.EnvVar{{
		Name:  KeyNetworkPassphrase,
		Value: node.Spec.Network.NetworkPassphrase(),
	}}

	if v := node.Spec.ValidatorConfig; v != nil && node.Spec.NodeKind == stellarv1alpha1.NodeKindValidator {
		vars = append(vars, secretEnv(seedSecretKey, v.SeedSecretRef, seedSecretKey))
	}

	if db := node.Spec.Database; db != nil {
		key := db.SecretRef.Key
		if key == "" {
			key = defaultDBKey
		}
		vars = append(vars, secretEnv(p.DatabaseEnv, db.SecretRef.Name, key))
	}
	return vars
}

func secretEnv(name, secret, key string) corev1.EnvVar {
	return corev1.EnvVar{
		Name: name,
		ValueFrom: &corev1.EnvVarSource{
			SecretKeyRef: &corev1.SecretKeySelector{
				LocalObjectReference: corev1.LocalObjectReference{Name: secret},
				Key:                  key,
			},
		},
	}
}

func computeResources(r stellarv1alpha1.ResourceRequirements) corev1.ResourceRequirements {
	pick := func(v, def string) resource.Quantity {
		if v == "" {
			v = def
		}
		return resource.MustParse(v)
	}
	return corev1.ResourceRequirements{
		Requests: corev1.ResourceList{
			corev1.ResourceCPU:    pick(r.Requests.CPU, defaultResources.Requests.CPU),
			corev1.ResourceMemory: pick(r.Requests.Memory, defaultResources.Requests.Memory),
		},
		Limits: corev1.ResourceList{
			corev1.ResourceCPU:    pick(r.Limits.CPU, defaultResources.Limits.CPU),
			corev1.ResourceMemory: pick(r.Limits.Memory, defaultResources.Limits.Memory),
		},
	}
}
