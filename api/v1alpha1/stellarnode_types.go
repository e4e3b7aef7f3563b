package v1alpha1

import (
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// StellarNodeSpec defines the desired state of a managed node.
type StellarNodeSpec struct {
	// NodeKind selects validator, gateway or RPC behavior
	NodeKind NodeKind `json:"nodeKind"`

	// Network is the network this node joins
	Network NetworkSpec `json:"network"`

	// Version is the container image tag to run
	Version string `json:"version"`

	// Replicas is the desired replica count (validators always run one)
	// +kubebuilder:default=1
	// +optional
	Replicas int32 `json:"replicas,omitempty"`

	// Suspended keeps all resources but scales compute to zero
	// +optional
	Suspended bool `json:"suspended,omitempty"`

	// Storage configures the persistent data volume
	Storage StorageSpec `json:"storage"`

	// Resources sets container requests and limits
	// +optional
	Resources ResourceRequirements `json:"resources,omitempty"`

	// ValidatorConfig is required for Validator nodes
	// +optional
	ValidatorConfig *ValidatorConfig `json:"validatorConfig,omitempty"`

	// GatewayConfig is required for Gateway nodes
	// +optional
	GatewayConfig *GatewayConfig `json:"gatewayConfig,omitempty"`

	// RpcConfig is required for RpcNode nodes
	// +optional
	RpcConfig *RpcConfig `json:"rpcConfig,omitempty"`

	// Database references external database credentials
	// +optional
	Database *DatabaseSpec `json:"database,omitempty"`

	// Autoscaling provisions a HorizontalPodAutoscaler (Gateway and RpcNode only)
	// +optional
	Autoscaling *AutoscalingSpec `json:"autoscaling,omitempty"`
}

// StellarNodeStatus defines the observed state of StellarNode.
type StellarNodeStatus struct {
	// Phase is the current lifecycle phase
	// +kubebuilder:validation:Enum=Creating;Suspended;Failed;Running
	// +optional
	Phase NodePhase `json:"phase,omitempty"`

	// Message is a human-readable explanation of the phase
	// +optional
	Message string `json:"message,omitempty"`

	// ObservedGeneration is the last generation applied successfully
	// +optional
	ObservedGeneration int64 `json:"observedGeneration,omitempty"`

	// Replicas is the replica count requested from the workload
	// +optional
	Replicas int32 `json:"replicas"`

	// ReadyReplicas is the ready replica count reported by the workload
	// +optional
	ReadyReplicas int32 `json:"readyReplicas"`

	// Conditions represent the latest available observations
	// +optional
	Conditions []metav1.Condition `json:"conditions,omitempty"`
}

// NodePhase is the single current lifecycle label of a node.
type NodePhase string

const (
	// NodePhaseCreating means child resources are being reconciled
	NodePhaseCreating NodePhase = "Creating"
	// NodePhaseSuspended means everything is provisioned except compute
	NodePhaseSuspended NodePhase = "Suspended"
	// NodePhaseFailed means the spec is invalid
	NodePhaseFailed NodePhase = "Failed"
	// NodePhaseRunning means all child resources are in place
	NodePhaseRunning NodePhase = "Running"
)

// Condition types for StellarNode
const (
	// ConditionReady indicates all declared replicas are ready
	ConditionReady = "Ready"
	// ConditionProgressing indicates a reconcile is applying changes
	ConditionProgressing = "Progressing"
)

// +kubebuilder:object:root=true
// +kubebuilder:subresource:status
// +kubebuilder:resource:scope=Namespaced,shortName=sn
// +kubebuilder:printcolumn:name="Kind",type=string,JSONPath=`.spec.nodeKind`
// +kubebuilder:printcolumn:name="Network",type=string,JSONPath=`.spec.network.name`
// +kubebuilder:printcolumn:name="Phase",type=string,JSONPath=`.status.phase`
// +kubebuilder:printcolumn:name="Ready",type=integer,JSONPath=`.status.readyReplicas`
// +kubebuilder:printcolumn:name="Age",type=date,JSONPath=`.metadata.creationTimestamp`

// StellarNode is the Schema for the stellarnodes API.
type StellarNode struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec   StellarNodeSpec   `json:"spec,omitempty"`
	Status StellarNodeStatus `json:"status,omitempty"`
}

// +kubebuilder:object:root=true

// StellarNodeList contains a list of StellarNode.
type StellarNodeList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata,omitempty"`
	Items           []StellarNode `json:"items"`
}

// ShouldDeleteStorage reports whether the data volume goes away with the node.
func (s *StellarNodeSpec) ShouldDeleteStorage() bool {
	return s.Storage.RetentionPolicy != RetentionRetain
}

// AutoscalerEnabled reports whether a HorizontalPodAutoscaler belongs to this node.
func (s *StellarNodeSpec) AutoscalerEnabled() bool {
	return s.Autoscaling != nil && s.NodeKind.IsStateless()
}
