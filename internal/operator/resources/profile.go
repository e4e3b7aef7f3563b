package resources

import (
	"fmt"

	stellarv1alpha1 "github.com/stellar-k8s/stellar-operator/api/v1alpha1"
)

// Well-known ports.
const (
	PeerPort     int32 = 11625
	CoreHTTPPort int32 = 11626
	APIHTTPPort  int32 = 8000
)

// WorkloadKind is the kind of workload object a node runs as.
type WorkloadKind string

const (
	WorkloadStatefulSet WorkloadKind = "StatefulSet"
	WorkloadDeployment  WorkloadKind = "Deployment"
)

const (
	containerName   = "stellar-node"
	configMountPath = "/config"
	dataVolumeName  = "data"
	configVolume    = "config"
	seedSecretKey   = "STELLAR_CORE_SEED"
	defaultDBKey    = "DATABASE_URL"
)

// namedPort is a port exposed by both the container and the Service.
type namedPort struct {
	Name string
	Port int32
}

// profile holds everything that differs between node kinds.
type profile struct {
	Workload      WorkloadKind
	Image         string
	Ports         []namedPort
	DataMountPath string
	DatabaseEnv   string
}

// profileFor is the only place that switches on the node kind.
func profileFor(kind stellarv1alpha1.NodeKind) profile {
	switch kind {
	case stellarv1alpha1.NodeKindValidator:
		return profile{
			Workload: WorkloadStatefulSet,
			Image:    "stellar/stellar-core",
			Ports: []namedPort{
				{Name: "peer", Port: PeerPort},
				{Name: "http", Port: CoreHTTPPort},
			},
			DataMountPath: "/opt/stellar/data",
			DatabaseEnv:   "DATABASE",
		}
	case stellarv1alpha1.NodeKindGateway:
		return profile{
			Workload:      WorkloadDeployment,
			Image:         "stellar/stellar-horizon",
			Ports:         []namedPort{{Name: "http", Port: APIHTTPPort}},
			DataMountPath: "/data",
			DatabaseEnv:   "DATABASE_URL",
		}
	default:
		return profile{
			Workload:      WorkloadDeployment,
			Image:         "stellar/soroban-rpc",
			Ports:         []namedPort{{Name: "http", Port: APIHTTPPort}},
			DataMountPath: "/data",
			DatabaseEnv:   "DATABASE_URL",
		}
	}
}

// WorkloadKindFor returns the workload kind a node of the given kind runs as.
func WorkloadKindFor(kind stellarv1alpha1.NodeKind) WorkloadKind {
	return profileFor(kind).Workload
}

// ContainerImage returns the image reference for a node.
func ContainerImage(spec *stellarv1alpha1.StellarNodeSpec) string {
	return fmt.Sprintf("%s:%s", profileFor(spec.NodeKind).Image, spec.Version)
}

// DesiredReplicas returns the replica count the workload should run.
// Validators are pinned to one replica; suspended nodes run none.
func DesiredReplicas(spec *stellarv1alpha1.StellarNodeSpec) int32 {
	if spec.Suspended {
		return 0
	}
	if spec.NodeKind == stellarv1alpha1.NodeKindValidator {
		return 1
	}
	return spec.Replicas
}
