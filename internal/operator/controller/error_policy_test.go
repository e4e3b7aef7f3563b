package controller

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRequeuePolicy_DelayFor(t *testing.T) {
	t.Parallel()
	p := DefaultRequeuePolicy()

	tests := []struct {
		name string
		err  error
		want time.Duration
	}{
		{"validation error", &ValidationError{Err: errors.New("bad replicas")}, 60 * time.Second},
		{"wrapped validation error", fmt.Errorf("reconcile: %w", &ValidationError{Err: errors.New("x")}), 60 * time.Second},
		{"api error", errors.New("connection refused"), 15 * time.Second},
		{"joined cleanup errors", errors.Join(errors.New("a"), errors.New("b")), 15 * time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, p.DelayFor(tt.err))
		})
	}
}

func TestRequeuePolicy_WithDefaults(t *testing.T) {
	t.Parallel()
	p := RequeuePolicy{Validation: 2 * time.Minute}.withDefaults()

	assert.Equal(t, 30*time.Second, p.Resync)
	assert.Equal(t, 15*time.Second, p.Transient)
	assert.Equal(t, 2*time.Minute, p.Validation)
}

func TestResultFor(t *testing.T) {
	t.Parallel()
	assert.Equal(t, resultSuccess, resultFor(nil))
	assert.Equal(t, resultValidation, resultFor(&ValidationError{Err: errors.New("x")}))
	assert.Equal(t, resultTransient, resultFor(errors.New("x")))
}

func TestValidationError(t *testing.T) {
	t.Parallel()
	inner := errors.New("spec.version is required")
	err := &ValidationError{Err: inner}

	assert.Equal(t, "invalid spec: spec.version is required", err.Error())
	assert.ErrorIs(t, err, inner)
	assert.True(t, IsValidationError(err))
	assert.False(t, IsValidationError(inner))
}

func TestConfigurationFault(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "configuration fault: CRD missing", (&ConfigurationFault{Reason: "CRD missing"}).Error())

	inner := errors.New("no matches for kind")
	err := &ConfigurationFault{Reason: "StellarNode is not served", Err: inner}
	assert.Equal(t, "configuration fault: StellarNode is not served: no matches for kind", err.Error())
	assert.ErrorIs(t, err, inner)
}
