package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "STELLAR_OPERATOR_"

// Environment variables read by ApplyEnv.
const (
	EnvMetricsBindAddress      = EnvPrefix + "METRICS_BIND_ADDRESS"
	EnvHealthProbeBindAddress  = EnvPrefix + "HEALTH_PROBE_BIND_ADDRESS"
	EnvAPIBindAddress          = EnvPrefix + "API_BIND_ADDRESS"
	EnvLeaderElect             = EnvPrefix + "LEADER_ELECT"
	EnvLeaseName               = EnvPrefix + "LEASE_NAME"
	EnvLeaseNamespace          = EnvPrefix + "LEASE_NAMESPACE"
	EnvLeaseDuration           = EnvPrefix + "LEASE_DURATION"
	EnvRenewDeadline           = EnvPrefix + "RENEW_DEADLINE"
	EnvRetryPeriod             = EnvPrefix + "RETRY_PERIOD"
	EnvWatchNamespace          = EnvPrefix + "WATCH_NAMESPACE"
	EnvFieldManager            = EnvPrefix + "FIELD_MANAGER"
	EnvResyncInterval          = EnvPrefix + "RESYNC_INTERVAL"
	EnvTransientRetryDelay     = EnvPrefix + "TRANSIENT_RETRY_DELAY"
	EnvValidationRetryDelay    = EnvPrefix + "VALIDATION_RETRY_DELAY"
	EnvCleanupPolicy           = EnvPrefix + "CLEANUP_POLICY"
	EnvMaxConcurrentReconciles = EnvPrefix + "MAX_CONCURRENT_RECONCILES"
)

// ApplyEnv overrides fields from STELLAR_OPERATOR_* variables. Unset
// variables leave the field alone; malformed values are an error rather
// than a silent fallback.
func (c *OperatorConfig) ApplyEnv() error {
	strs := map[string]*string{
		EnvMetricsBindAddress:     &c.MetricsBindAddress,
		EnvHealthProbeBindAddress: &c.HealthProbeBindAddress,
		EnvAPIBindAddress:         &c.APIBindAddress,
		EnvLeaseName:              &c.LeaderElection.LeaseName,
		EnvLeaseNamespace:         &c.LeaderElection.Namespace,
		EnvWatchNamespace:         &c.WatchNamespace,
		EnvFieldManager:           &c.FieldManager,
		EnvCleanupPolicy:          &c.CleanupPolicy,
	}
	for name, dst := range strs {
		if val, ok := os.LookupEnv(name); ok {
			*dst = val
		}
	}

	durations := map[string]*time.Duration{
		EnvLeaseDuration:        &c.LeaderElection.LeaseDuration,
		EnvRenewDeadline:        &c.LeaderElection.RenewDeadline,
		EnvRetryPeriod:          &c.LeaderElection.RetryPeriod,
		EnvResyncInterval:       &c.ResyncInterval,
		EnvTransientRetryDelay:  &c.TransientRetryDelay,
		EnvValidationRetryDelay: &c.ValidationRetryDelay,
	}
	for name, dst := range durations {
		if err := parseDuration(name, dst); err != nil {
			return err
		}
	}

	if err := parseBool(EnvLeaderElect, &c.LeaderElection.Enabled); err != nil {
		return err
	}
	return parseInt(EnvMaxConcurrentReconciles, &c.MaxConcurrentReconciles)
}

func parseDuration(envVar string, dst *time.Duration) error {
	val := os.Getenv(envVar)
	if val == "" {
		return nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", envVar, err)
	}
	*dst = d
	return nil
}

func parseInt(envVar string, dst *int) error {
	val := os.Getenv(envVar)
	if val == "" {
		return nil
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", envVar, err)
	}
	*dst = i
	return nil
}

func parseBool(envVar string, dst *bool) error {
	val := os.Getenv(envVar)
	if val == "" {
		return nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", envVar, err)
	}
	*dst = b
	return nil
}
