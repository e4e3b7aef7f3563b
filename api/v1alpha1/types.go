package v1alpha1

// NodeKind is the role a StellarNode plays on the network.
// +kubebuilder:validation:Enum=Validator;Gateway;RpcNode
type NodeKind string

const (
	// NodeKindValidator runs a consensus-participating core node.
	NodeKindValidator NodeKind = "Validator"
	// NodeKindGateway runs a read-API server that ingests from a core node.
	NodeKindGateway NodeKind = "Gateway"
	// NodeKindRpcNode runs a smart-contract RPC server.
	NodeKindRpcNode NodeKind = "RpcNode"
)

// IsStateless reports whether nodes of this kind can be horizontally scaled.
func (k NodeKind) IsStateless() bool {
	return k == NodeKindGateway || k == NodeKindRpcNode
}

// NetworkName identifies the network a node joins.
// +kubebuilder:validation:Enum=Mainnet;Testnet;Futurenet;Custom
type NetworkName string

const (
	NetworkMainnet   NetworkName = "Mainnet"
	NetworkTestnet   NetworkName = "Testnet"
	NetworkFuturenet NetworkName = "Futurenet"
	NetworkCustom    NetworkName = "Custom"
)

// Well-known network passphrases.
const (
	MainnetPassphrase   = "Public Global Stellar Network ; September 2015"
	TestnetPassphrase   = "Test SDF Network ; September 2015"
	FuturenetPassphrase = "Test SDF Future Network ; October 2022"
)

// NetworkSpec selects the target network.
type NetworkSpec struct {
	// Name is one of the well-known networks or Custom
	Name NetworkName `json:"name"`

	// Passphrase is required when Name is Custom and ignored otherwise
	// +optional
	Passphrase string `json:"passphrase,omitempty"`
}

// NetworkPassphrase returns the passphrase nodes must be configured with.
func (n NetworkSpec) NetworkPassphrase() string {
	switch n.Name {
	case NetworkMainnet:
		return MainnetPassphrase
	case NetworkTestnet:
		return TestnetPassphrase
	case NetworkFuturenet:
		return FuturenetPassphrase
	default:
		return n.Passphrase
	}
}

// RetentionPolicy decides what happens to the data volume when a node is deleted.
// +kubebuilder:validation:Enum=Delete;Retain
type RetentionPolicy string

const (
	// RetentionDelete removes the data volume together with the node
	RetentionDelete RetentionPolicy = "Delete"
	// RetentionRetain keeps the data volume for manual recovery
	RetentionRetain RetentionPolicy = "Retain"
)

// StorageSpec configures the persistent data volume.
type StorageSpec struct {
	// StorageClass is the storage class name (e.g., standard, premium-rwo)
	// +kubebuilder:default="standard"
	StorageClass string `json:"storageClass"`

	// Size is the requested volume size (e.g., 100Gi)
	// +kubebuilder:default="100Gi"
	Size string `json:"size"`

	// RetentionPolicy controls whether the volume survives node deletion
	// +kubebuilder:default=Delete
	// +optional
	RetentionPolicy RetentionPolicy `json:"retentionPolicy,omitempty"`

	// Annotations are copied onto the PersistentVolumeClaim
	// +optional
	Annotations map[string]string `json:"annotations,omitempty"`
}

// ResourceList holds CPU and memory quantities.
type ResourceList struct {
	// CPU (e.g., "500m", "2")
	// +optional
	CPU string `json:"cpu,omitempty"`

	// Memory (e.g., "1Gi")
	// +optional
	Memory string `json:"memory,omitempty"`
}

// ResourceRequirements defines compute requests and limits for the node container.
type ResourceRequirements struct {
	// +optional
	Requests ResourceList `json:"requests,omitempty"`

	// +optional
	Limits ResourceList `json:"limits,omitempty"`
}

// ValidatorConfig holds settings only meaningful for validators.
type ValidatorConfig struct {
	// SeedSecretRef names the Secret holding the node seed under key STELLAR_CORE_SEED
	SeedSecretRef string `json:"seedSecretRef"`

	// QuorumSet is a TOML fragment appended to the core configuration
	// +optional
	QuorumSet string `json:"quorumSet,omitempty"`

	// EnableHistoryArchive publishes history from this validator
	// +optional
	EnableHistoryArchive bool `json:"enableHistoryArchive,omitempty"`

	// HistoryArchiveURLs are archives to fetch history from
	// +optional
	HistoryArchiveURLs []string `json:"historyArchiveUrls,omitempty"`

	// CatchupComplete requests a full history catchup
	// +optional
	CatchupComplete bool `json:"catchupComplete,omitempty"`
}

// GatewayConfig holds settings for read-API gateways.
type GatewayConfig struct {
	// CoreURL is the core node endpoint to ingest from
	CoreURL string `json:"coreUrl"`

	// EnableIngest turns on real-time ingestion
	// +kubebuilder:default=true
	// +optional
	EnableIngest *bool `json:"enableIngest,omitempty"`

	// IngestWorkers is the number of parallel ingestion workers
	// +kubebuilder:validation:Minimum=1
	// +kubebuilder:default=1
	// +optional
	IngestWorkers int32 `json:"ingestWorkers,omitempty"`

	// EnableExperimentalIngestion turns on experimental ingestion features
	// +optional
	EnableExperimentalIngestion bool `json:"enableExperimentalIngestion,omitempty"`
}

// RpcConfig holds settings for smart-contract RPC nodes.
type RpcConfig struct {
	// CoreURL is the core node endpoint
	CoreURL string `json:"coreUrl"`

	// CaptiveCoreConfig is a TOML captive-core configuration
	// +optional
	CaptiveCoreConfig string `json:"captiveCoreConfig,omitempty"`

	// EnablePreflight enables transaction simulation preflight
	// +kubebuilder:default=true
	// +optional
	EnablePreflight *bool `json:"enablePreflight,omitempty"`

	// MaxEventsPerRequest caps the number of events returned per request
	// +kubebuilder:default=10000
	// +optional
	MaxEventsPerRequest int32 `json:"maxEventsPerRequest,omitempty"`
}

// SecretKeyReference points at a single key of a Secret in the node's namespace.
type SecretKeyReference struct {
	// Name of the Secret
	Name string `json:"name"`

	// Key within the Secret
	// +kubebuilder:default="DATABASE_URL"
	// +optional
	Key string `json:"key,omitempty"`
}

// DatabaseSpec references credentials for an external database.
type DatabaseSpec struct {
	SecretRef SecretKeyReference `json:"secretRef"`
}

// AutoscalingSpec configures a HorizontalPodAutoscaler for stateless nodes.
type AutoscalingSpec struct {
	// +kubebuilder:validation:Minimum=1
	MinReplicas int32 `json:"minReplicas"`

	// +kubebuilder:validation:Minimum=1
	MaxReplicas int32 `json:"maxReplicas"`

	// CustomMetrics are accepted but not wired to a scaling policy yet
	// +optional
	CustomMetrics []string `json:"customMetrics,omitempty"`
}
