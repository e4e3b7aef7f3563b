package config

import (
	"errors"
	"fmt"
	"time"
)

// Validate reports every problem in the configuration at once.
func (c *OperatorConfig) Validate() error {
	var errs []error

	if c.FieldManager == "" {
		errs = append(errs, errors.New("fieldManager must not be empty"))
	}
	switch c.CleanupPolicy {
	case "", CleanupBestEffort, CleanupStrict:
	default:
		errs = append(errs, fmt.Errorf("cleanupPolicy %q must be %s or %s", c.CleanupPolicy, CleanupBestEffort, CleanupStrict))
	}
	if c.MaxConcurrentReconciles < 1 {
		errs = append(errs, fmt.Errorf("maxConcurrentReconciles must be at least 1, got %d", c.MaxConcurrentReconciles))
	}

	errs = append(errs, positive("resyncInterval", c.ResyncInterval))
	errs = append(errs, positive("transientRetryDelay", c.TransientRetryDelay))
	errs = append(errs, positive("validationRetryDelay", c.ValidationRetryDelay))

	if le := c.LeaderElection; le.Enabled {
		if le.LeaseName == "" {
			errs = append(errs, errors.New("leaderElection.leaseName must not be empty"))
		}
		if le.Namespace == "" {
			errs = append(errs, errors.New("leaderElection.namespace must not be empty"))
		}
		errs = append(errs, positive("leaderElection.leaseDuration", le.LeaseDuration))
		errs = append(errs, positive("leaderElection.renewDeadline", le.RenewDeadline))
		errs = append(errs, positive("leaderElection.retryPeriod", le.RetryPeriod))
		if le.RenewDeadline >= le.LeaseDuration {
			errs = append(errs, fmt.Errorf("leaderElection.renewDeadline %s must be shorter than leaseDuration %s", le.RenewDeadline, le.LeaseDuration))
		}
	}

	return errors.Join(errs...)
}

func positive(field string, d time.Duration) error {
	if d <= 0 {
		return fmt.Errorf("%s must be positive, got %s", field, d)
	}
	return nil
}
