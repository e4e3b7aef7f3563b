package handlers

import (
	"fmt"
	"io"
	"strings"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"sigs.k8s.io/yaml"

	stellarv1alpha1 "github.com/stellar-k8s/stellar-operator/api/v1alpha1"
	"github.com/stellar-k8s/stellar-operator/internal/util/ptr"
)

// ParseKind accepts a node kind case-insensitively, plus the short "rpc".
func ParseKind(s string) (stellarv1alpha1.NodeKind, error) {
	switch strings.ToLower(s) {
	case "validator":
		return stellarv1alpha1.NodeKindValidator, nil
	case "gateway", "horizon":
		return stellarv1alpha1.NodeKindGateway, nil
	case "rpc", "rpcnode", "soroban":
		return stellarv1alpha1.NodeKindRpcNode, nil
	default:
		return "", fmt.Errorf("unknown node kind %q: use validator, gateway or rpc", s)
	}
}

// SampleNode returns a valid example node of the given kind.
func SampleNode(kind stellarv1alpha1.NodeKind, name, namespace string) *stellarv1alpha1.StellarNode {
	if name == "" {
		name = strings.ToLower(string(kind))
	}

	node := &stellarv1alpha1.StellarNode{
		TypeMeta: metav1.TypeMeta{
			APIVersion: stellarv1alpha1.GroupVersion.String(),
			Kind:       "StellarNode",
		},
		ObjectMeta: metav1.ObjectMeta{
			Name:      name,
			Namespace: namespace,
		},
		Spec: stellarv1alpha1.StellarNodeSpec{
			NodeKind: kind,
			Network:  stellarv1alpha1.NetworkSpec{Name: stellarv1alpha1.NetworkTestnet},
			Replicas: 1,
			Storage: stellarv1alpha1.StorageSpec{
				StorageClass:    "standard",
				Size:            "100Gi",
				RetentionPolicy: stellarv1alpha1.RetentionRetain,
			},
			Resources: stellarv1alpha1.ResourceRequirements{
				Requests: stellarv1alpha1.ResourceList{CPU: "500m", Memory: "1Gi"},
				Limits:   stellarv1alpha1.ResourceList{CPU: "2", Memory: "4Gi"},
			},
		},
	}

	switch kind {
	case stellarv1alpha1.NodeKindValidator:
		node.Spec.Version = "v21.0.0"
		node.Spec.ValidatorConfig = &stellarv1alpha1.ValidatorConfig{
			SeedSecretRef:        name + "-seed",
			EnableHistoryArchive: true,
			HistoryArchiveURLs:   []string{"https://history.stellar.org/prd/core-testnet/core_testnet_001"},
		}
	case stellarv1alpha1.NodeKindGateway:
		node.Spec.Version = "2.32.0"
		node.Spec.Replicas = 2
		node.Spec.Storage.RetentionPolicy = stellarv1alpha1.RetentionDelete
		node.Spec.GatewayConfig = &stellarv1alpha1.GatewayConfig{
			CoreURL:       "http://validator:11626",
			EnableIngest:  ptr.To(true),
			IngestWorkers: 2,
		}
		node.Spec.Database = &stellarv1alpha1.DatabaseSpec{
			SecretRef: stellarv1alpha1.SecretKeyReference{Name: name + "-db", Key: "DATABASE_URL"},
		}
		node.Spec.Autoscaling = &stellarv1alpha1.AutoscalingSpec{MinReplicas: 2, MaxReplicas: 5}
	case stellarv1alpha1.NodeKindRpcNode:
		node.Spec.Version = "21.0.0"
		node.Spec.Replicas = 2
		node.Spec.Storage.RetentionPolicy = stellarv1alpha1.RetentionDelete
		node.Spec.RpcConfig = &stellarv1alpha1.RpcConfig{
			CoreURL:             "http://validator:11626",
			EnablePreflight:     ptr.To(true),
			MaxEventsPerRequest: 10000,
		}
	}
	return node
}

// Sample writes an example manifest for kind to w.
func Sample(w io.Writer, kind, name, namespace string) error {
	nodeKind, err := ParseKind(kind)
	if err != nil {
		return err
	}

	node := SampleNode(nodeKind, name, namespace)
	if err := node.Spec.Validate(); err != nil {
		return fmt.Errorf("sample for %s is invalid: %w", nodeKind, err)
	}

	out, err := yaml.Marshal(node)
	if err != nil {
		return fmt.Errorf("failed to marshal sample: %w", err)
	}
	_, err = w.Write(out)
	return err
}
