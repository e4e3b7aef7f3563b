package v1alpha1

import (
	"errors"
	"fmt"

	"k8s.io/apimachinery/pkg/api/resource"
)

// Validate checks the semantic rules the schema cannot express.
// All violations are reported together.
func (s *StellarNodeSpec) Validate() error {
	var errs []error

	switch s.NodeKind {
	case NodeKindValidator, NodeKindGateway, NodeKindRpcNode:
	case "":
		errs = append(errs, errors.New("spec.nodeKind is required"))
	default:
		errs = append(errs, fmt.Errorf("spec.nodeKind %q is not one of Validator, Gateway, RpcNode", s.NodeKind))
	}

	errs = append(errs, s.Network.validate()...)

	if s.Version == "" {
		errs = append(errs, errors.New("spec.version is required"))
	}
	if s.Replicas < 0 {
		errs = append(errs, fmt.Errorf("spec.replicas must not be negative, got %d", s.Replicas))
	}

	errs = append(errs, s.Storage.validate()...)
	errs = append(errs, s.Resources.validate()...)
	errs = append(errs, s.validateKindConfig()...)

	if s.Database != nil && s.Database.SecretRef.Name == "" {
		errs = append(errs, errors.New("spec.database.secretRef.name is required"))
	}

	if a := s.Autoscaling; a != nil {
		if a.MinReplicas < 1 {
			errs = append(errs, fmt.Errorf("spec.autoscaling.minReplicas must be at least 1, got %d", a.MinReplicas))
		}
		if a.MaxReplicas < a.MinReplicas {
			errs = append(errs, fmt.Errorf("spec.autoscaling.maxReplicas (%d) must be >= minReplicas (%d)", a.MaxReplicas, a.MinReplicas))
		}
	}

	return errors.Join(errs...)
}

func (n NetworkSpec) validate() []error {
	switch n.Name {
	case NetworkMainnet, NetworkTestnet, NetworkFuturenet:
		return nil
	case NetworkCustom:
		if n.Passphrase == "" {
			return []error{errors.New("spec.network.passphrase is required for Custom networks")}
		}
		return nil
	case "":
		return []error{errors.New("spec.network.name is required")}
	default:
		return []error{fmt.Errorf("spec.network.name %q is not a known network", n.Name)}
	}
}

func (s StorageSpec) validate() []error {
	var errs []error
	if s.Size == "" {
		errs = append(errs, errors.New("spec.storage.size is required"))
	} else if _, err := resource.ParseQuantity(s.Size); err != nil {
		errs = append(errs, fmt.Errorf("spec.storage.size %q is not a valid quantity", s.Size))
	}
	switch s.RetentionPolicy {
	case "", RetentionDelete, RetentionRetain:
	default:
		errs = append(errs, fmt.Errorf("spec.storage.retentionPolicy %q is not one of Delete, Retain", s.RetentionPolicy))
	}
	return errs
}

func (r ResourceRequirements) validate() []error {
	var errs []error
	check := func(field, value string) {
		if value == "" {
			return
		}
		if _, err := resource.ParseQuantity(value); err != nil {
			errs = append(errs, fmt.Errorf("spec.resources.%s %q is not a valid quantity", field, value))
		}
	}
	check("requests.cpu", r.Requests.CPU)
	check("requests.memory", r.Requests.Memory)
	check("limits.cpu", r.Limits.CPU)
	check("limits.memory", r.Limits.Memory)
	return errs
}

// validateKindConfig requires the configuration block matching the node kind
// and rejects blocks meant for another kind.
func (s *StellarNodeSpec) validateKindConfig() []error {
	var errs []error

	if s.ValidatorConfig != nil && s.NodeKind != NodeKindValidator {
		errs = append(errs, fmt.Errorf("spec.validatorConfig is not allowed for %s nodes", s.NodeKind))
	}
	if s.GatewayConfig != nil && s.NodeKind != NodeKindGateway {
		errs = append(errs, fmt.Errorf("spec.gatewayConfig is not allowed for %s nodes", s.NodeKind))
	}
	if s.RpcConfig != nil && s.NodeKind != NodeKindRpcNode {
		errs = append(errs, fmt.Errorf("spec.rpcConfig is not allowed for %s nodes", s.NodeKind))
	}

	switch s.NodeKind {
	case NodeKindValidator:
		if s.ValidatorConfig == nil {
			errs = append(errs, errors.New("spec.validatorConfig is required for Validator nodes"))
		} else if s.ValidatorConfig.SeedSecretRef == "" {
			errs = append(errs, errors.New("spec.validatorConfig.seedSecretRef is required"))
		}
	case NodeKindGateway:
		if s.GatewayConfig == nil {
			errs = append(errs, errors.New("spec.gatewayConfig is required for Gateway nodes"))
		} else if s.GatewayConfig.CoreURL == "" {
			errs = append(errs, errors.New("spec.gatewayConfig.coreUrl is required"))
		}
	case NodeKindRpcNode:
		if s.RpcConfig == nil {
			errs = append(errs, errors.New("spec.rpcConfig is required for RpcNode nodes"))
		} else if s.RpcConfig.CoreURL == "" {
			errs = append(errs, errors.New("spec.rpcConfig.coreUrl is required"))
		}
	}

	return errs
}
