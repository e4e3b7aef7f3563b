package api

import (
	"time"

	stellarv1alpha1 "github.com/stellar-k8s/stellar-operator/api/v1alpha1"
)

// NodeListResponse is returned by the list route.
type NodeListResponse struct {
	Items []NodeSummary `json:"items"`
	Total int           `json:"total"`
}

// NodeSummary is the list view of a node.
type NodeSummary struct {
	Name          string `json:"name"`
	Namespace     string `json:"namespace"`
	NodeKind      string `json:"nodeKind"`
	Network       string `json:"network"`
	Phase         string `json:"phase"`
	Replicas      int32  `json:"replicas"`
	ReadyReplicas int32  `json:"readyReplicas"`
}

// NodeDetailResponse is the single-node view.
type NodeDetailResponse struct {
	Name      string                            `json:"name"`
	Namespace string                            `json:"namespace"`
	NodeKind  string                            `json:"nodeKind"`
	Network   string                            `json:"network"`
	Version   string                            `json:"version"`
	Status    stellarv1alpha1.StellarNodeStatus `json:"status"`
	CreatedAt *time.Time                        `json:"createdAt,omitempty"`
}

// HealthResponse is returned by /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// SummaryOf projects a node into its list view.
func SummaryOf(node *stellarv1alpha1.StellarNode) NodeSummary {
	return NodeSummary{
		Name:          node.Name,
		Namespace:     node.Namespace,
		NodeKind:      string(node.Spec.NodeKind),
		Network:       string(node.Spec.Network.Name),
		Phase:         string(node.Status.Phase),
		Replicas:      node.Status.Replicas,
		ReadyReplicas: node.Status.ReadyReplicas,
	}
}

func detailOf(node *stellarv1alpha1.StellarNode) NodeDetailResponse {
	resp := NodeDetailResponse{
		Name:      node.Name,
		Namespace: node.Namespace,
		NodeKind:  string(node.Spec.NodeKind),
		Network:   string(node.Spec.Network.Name),
		Version:   node.Spec.Version,
		Status:    node.Status,
	}
	if !node.CreationTimestamp.IsZero() {
		created := node.CreationTimestamp.UTC()
		resp.CreatedAt = &created
	}
	return resp
}
