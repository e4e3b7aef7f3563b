package controller

import (
	"errors"
	"fmt"
	"time"
)

// Default requeue delays.
const (
	defaultResyncInterval       = 30 * time.Second
	defaultTransientRetryDelay  = 15 * time.Second
	defaultValidationRetryDelay = 60 * time.Second
)

// Error classes, used as the result label of the reconcile metric.
const (
	resultSuccess    = "success"
	resultValidation = "validation_error"
	resultTransient  = "transient_error"
)

// ValidationError reports a spec that cannot be realized. It is terminal
// for the current generation: retries fail identically until the spec is
// edited.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid spec: %v", e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// ConfigurationFault reports an environment the operator cannot run in,
// such as the StellarNode kind not being served. It only occurs at startup.
type ConfigurationFault struct {
	Reason string
	Err    error
}

func (e *ConfigurationFault) Error() string {
	if e.Err == nil {
		return "configuration fault: " + e.Reason
	}
	return fmt.Sprintf("configuration fault: %s: %v", e.Reason, e.Err)
}

func (e *ConfigurationFault) Unwrap() error {
	return e.Err
}

// IsValidationError reports whether err is, or wraps, a ValidationError.
func IsValidationError(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}

// RequeuePolicy holds the fixed delays used to schedule the next reconcile.
// There is no exponential backoff.
type RequeuePolicy struct {
	// Resync is the delay after a successful apply.
	Resync time.Duration
	// Transient is the delay after a cluster API failure.
	Transient time.Duration
	// Validation is the delay after a validation failure.
	Validation time.Duration
}

// DefaultRequeuePolicy returns the 30s/15s/60s policy.
func DefaultRequeuePolicy() RequeuePolicy {
	return RequeuePolicy{
		Resync:     defaultResyncInterval,
		Transient:  defaultTransientRetryDelay,
		Validation: defaultValidationRetryDelay,
	}
}

// DelayFor returns the retry delay for a failed reconcile.
func (p RequeuePolicy) DelayFor(err error) time.Duration {
	if IsValidationError(err) {
		return p.Validation
	}
	return p.Transient
}

// withDefaults fills zero delays from the default policy.
func (p RequeuePolicy) withDefaults() RequeuePolicy {
	def := DefaultRequeuePolicy()
	if p.Resync <= 0 {
		p.Resync = def.Resync
	}
	if p.Transient <= 0 {
		p.Transient = def.Transient
	}
	if p.Validation <= 0 {
		p.Validation = def.Validation
	}
	return p
}

func resultFor(err error) string {
	switch {
	case err == nil:
		return resultSuccess
	case IsValidationError(err):
		return resultValidation
	default:
		return resultTransient
	}
}
