package config

import "time"

// Cleanup policy names accepted by CleanupPolicy.
const (
	CleanupBestEffort = "BestEffort"
	CleanupStrict     = "Strict"
)

// Default values.
const (
	DefaultMetricsBindAddress     = ":8080"
	DefaultHealthProbeBindAddress = ":8081"
	DefaultAPIBindAddress         = ":8090"
	DefaultFieldManager           = "stellar-operator"
	DefaultLeaseName              = "stellar-operator-leader"
	DefaultLeaseNamespace         = "stellar-system"
	DefaultLeaseDuration          = 15 * time.Second
	DefaultRenewDeadline          = 10 * time.Second
	DefaultRetryPeriod            = 2 * time.Second
	DefaultResyncInterval         = 30 * time.Second
	DefaultTransientRetryDelay    = 15 * time.Second
	DefaultValidationRetryDelay   = 60 * time.Second
	DefaultMaxConcurrentReconcile = 1
)

// OperatorConfig is the resolved configuration of a running operator.
type OperatorConfig struct {
	MetricsBindAddress     string `yaml:"metricsBindAddress"`
	HealthProbeBindAddress string `yaml:"healthProbeBindAddress"`
	// APIBindAddress serves the read-only node API. Empty disables it.
	APIBindAddress string `yaml:"apiBindAddress"`

	LeaderElection LeaderElectionConfig `yaml:"leaderElection"`

	// WatchNamespace restricts the cache to one namespace. Empty watches all.
	WatchNamespace string `yaml:"watchNamespace"`
	FieldManager   string `yaml:"fieldManager"`

	ResyncInterval       time.Duration `yaml:"resyncInterval"`
	TransientRetryDelay  time.Duration `yaml:"transientRetryDelay"`
	ValidationRetryDelay time.Duration `yaml:"validationRetryDelay"`

	CleanupPolicy           string `yaml:"cleanupPolicy"`
	MaxConcurrentReconciles int    `yaml:"maxConcurrentReconciles"`
}

// LeaderElectionConfig configures the Lease-based leader election.
type LeaderElectionConfig struct {
	Enabled       bool          `yaml:"enabled"`
	LeaseName     string        `yaml:"leaseName"`
	Namespace     string        `yaml:"namespace"`
	LeaseDuration time.Duration `yaml:"leaseDuration"`
	RenewDeadline time.Duration `yaml:"renewDeadline"`
	RetryPeriod   time.Duration `yaml:"retryPeriod"`
}

// Default returns a configuration with every field set to its default.
func Default() *OperatorConfig {
	return &OperatorConfig{
		MetricsBindAddress:     DefaultMetricsBindAddress,
		HealthProbeBindAddress: DefaultHealthProbeBindAddress,
		APIBindAddress:         DefaultAPIBindAddress,
		LeaderElection: LeaderElectionConfig{
			Enabled:       true,
			LeaseName:     DefaultLeaseName,
			Namespace:     DefaultLeaseNamespace,
			LeaseDuration: DefaultLeaseDuration,
			RenewDeadline: DefaultRenewDeadline,
			RetryPeriod:   DefaultRetryPeriod,
		},
		FieldManager:            DefaultFieldManager,
		ResyncInterval:          DefaultResyncInterval,
		TransientRetryDelay:     DefaultTransientRetryDelay,
		ValidationRetryDelay:    DefaultValidationRetryDelay,
		CleanupPolicy:           CleanupBestEffort,
		MaxConcurrentReconciles: DefaultMaxConcurrentReconcile,
	}
}
