package v1alpha1

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSpec(kind NodeKind) StellarNodeSpec {
	spec := StellarNodeSpec{
		NodeKind: kind,
		Network:  NetworkSpec{Name: NetworkTestnet},
		Version:  "v21.0.0",
		Replicas: 1,
		Storage: StorageSpec{
			StorageClass:    "standard",
			Size:            "100Gi",
			RetentionPolicy: RetentionDelete,
		},
	}
	switch kind {
	case NodeKindValidator:
		spec.ValidatorConfig = &ValidatorConfig{SeedSecretRef: "validator-seed"}
	case NodeKindGateway:
		spec.GatewayConfig = &GatewayConfig{CoreURL: "http://core:11626"}
	case NodeKindRpcNode:
		spec.RpcConfig = &RpcConfig{CoreURL: "http://core:11626"}
	}
	return spec
}

func TestValidate_ValidSpecs(t *testing.T) {
	t.Parallel()
	for _, kind := range []NodeKind{NodeKindValidator, NodeKindGateway, NodeKindRpcNode} {
		t.Run(string(kind), func(t *testing.T) {
			t.Parallel()
			spec := validSpec(kind)
			assert.NoError(t, spec.Validate())
		})
	}
}

func TestValidate_Errors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		mutate  func(*StellarNodeSpec)
		wantErr string
	}{
		{
			name:    "negative replicas",
			mutate:  func(s *StellarNodeSpec) { s.Replicas = -1 },
			wantErr: "spec.replicas must not be negative",
		},
		{
			name:    "unknown node kind",
			mutate:  func(s *StellarNodeSpec) { s.NodeKind = "Archiver" },
			wantErr: "spec.nodeKind \"Archiver\"",
		},
		{
			name:    "missing version",
			mutate:  func(s *StellarNodeSpec) { s.Version = "" },
			wantErr: "spec.version is required",
		},
		{
			name:    "custom network without passphrase",
			mutate:  func(s *StellarNodeSpec) { s.Network = NetworkSpec{Name: NetworkCustom} },
			wantErr: "passphrase is required",
		},
		{
			name:    "bad storage size",
			mutate:  func(s *StellarNodeSpec) { s.Storage.Size = "lots" },
			wantErr: "spec.storage.size",
		},
		{
			name:    "bad retention policy",
			mutate:  func(s *StellarNodeSpec) { s.Storage.RetentionPolicy = "Archive" },
			wantErr: "retentionPolicy",
		},
		{
			name:    "bad cpu quantity",
			mutate:  func(s *StellarNodeSpec) { s.Resources.Limits.CPU = "two" },
			wantErr: "spec.resources.limits.cpu",
		},
		{
			name:    "missing kind config",
			mutate:  func(s *StellarNodeSpec) { s.GatewayConfig = nil },
			wantErr: "spec.gatewayConfig is required",
		},
		{
			name: "config for another kind",
			mutate: func(s *StellarNodeSpec) {
				s.ValidatorConfig = &ValidatorConfig{SeedSecretRef: "seed"}
			},
			wantErr: "spec.validatorConfig is not allowed for Gateway nodes",
		},
		{
			name:    "database without secret name",
			mutate:  func(s *StellarNodeSpec) { s.Database = &DatabaseSpec{} },
			wantErr: "spec.database.secretRef.name",
		},
		{
			name: "autoscaling max below min",
			mutate: func(s *StellarNodeSpec) {
				s.Autoscaling = &AutoscalingSpec{MinReplicas: 3, MaxReplicas: 2}
			},
			wantErr: "maxReplicas (2) must be >= minReplicas (3)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			spec := validSpec(NodeKindGateway)
			tt.mutate(&spec)
			err := spec.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_ReportsAllViolations(t *testing.T) {
	t.Parallel()
	spec := validSpec(NodeKindRpcNode)
	spec.Replicas = -2
	spec.Version = ""

	err := spec.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "spec.replicas")
	assert.Contains(t, err.Error(), "spec.version")
}

func TestNetworkPassphrase(t *testing.T) {
	t.Parallel()
	assert.Equal(t, MainnetPassphrase, NetworkSpec{Name: NetworkMainnet}.NetworkPassphrase())
	assert.Equal(t, TestnetPassphrase, NetworkSpec{Name: NetworkTestnet, Passphrase: "ignored"}.NetworkPassphrase())
	assert.Equal(t, FuturenetPassphrase, NetworkSpec{Name: NetworkFuturenet}.NetworkPassphrase())
	assert.Equal(t, "My Net ; 2024", NetworkSpec{Name: NetworkCustom, Passphrase: "My Net ; 2024"}.NetworkPassphrase())
}

func TestSpecHelpers(t *testing.T) {
	t.Parallel()

	spec := validSpec(NodeKindValidator)
	assert.True(t, spec.ShouldDeleteStorage())
	spec.Storage.RetentionPolicy = RetentionRetain
	assert.False(t, spec.ShouldDeleteStorage())

	spec.Autoscaling = &AutoscalingSpec{MinReplicas: 1, MaxReplicas: 3}
	assert.False(t, spec.AutoscalerEnabled(), "validators are never autoscaled")

	gw := validSpec(NodeKindGateway)
	assert.False(t, gw.AutoscalerEnabled())
	gw.Autoscaling = &AutoscalingSpec{MinReplicas: 1, MaxReplicas: 3}
	assert.True(t, gw.AutoscalerEnabled())
}
