package labels

import "strings"

// Standard label keys for node child resources.
const (
	// KeyName identifies the application
	KeyName = "app.kubernetes.io/name"

	// KeyInstance identifies the owning StellarNode
	KeyInstance = "app.kubernetes.io/instance"

	// KeyComponent is the lowercased node kind
	KeyComponent = "app.kubernetes.io/component"

	// KeyManagedBy identifies the management system
	KeyManagedBy = "app.kubernetes.io/managed-by"

	// KeyNodeKind is the node kind as declared in the spec
	KeyNodeKind = "stellar.org/node-kind"
)

// Label values
const (
	AppName           = "stellar-node"
	ManagedByOperator = "stellar-operator"
)

// LabelBuilder provides a fluent interface for building child resource labels.
type LabelBuilder struct {
	labels map[string]string
}

// NewLabelBuilder creates a new label builder with the instance name pre-set.
func NewLabelBuilder(instance string) *LabelBuilder {
	return &LabelBuilder{
		labels: map[string]string{
			KeyName:      AppName,
			KeyInstance:  instance,
			KeyManagedBy: ManagedByOperator,
		},
	}
}

// WithNodeKind sets both the component and node-kind labels.
func (lb *LabelBuilder) WithNodeKind(kind string) *LabelBuilder {
	lb.labels[KeyComponent] = strings.ToLower(kind)
	lb.labels[KeyNodeKind] = kind
	return lb
}

// WithManagedBy sets who manages this resource.
func (lb *LabelBuilder) WithManagedBy(manager string) *LabelBuilder {
	lb.labels[KeyManagedBy] = manager
	return lb
}

// Build returns a copy of the labels map.
func (lb *LabelBuilder) Build() map[string]string {
	result := make(map[string]string, len(lb.labels))
	for k, v := range lb.labels {
		result[k] = v
	}
	return result
}

// SelectorForInstance returns a label selector string matching every child of one node.
func SelectorForInstance(instance string) string {
	return KeyName + "=" + AppName + "," + KeyInstance + "=" + instance
}
