package children

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"maps"

	appsv1 "k8s.io/api/apps/v1"
	autoscalingv2 "k8s.io/api/autoscaling/v2"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/types"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/log"
	"sigs.k8s.io/structured-merge-diff/v6/fieldpath"

	stellarv1alpha1 "github.com/stellar-k8s/stellar-operator/api/v1alpha1"
	"github.com/stellar-k8s/stellar-operator/internal/operator/resources"
	"github.com/stellar-k8s/stellar-operator/internal/util/naming"
	"github.com/stellar-k8s/stellar-operator/internal/util/ptr"
)

// DefaultFieldManager is the server-side apply field owner.
const DefaultFieldManager = "stellar-operator"

// Child kinds, as reported to the operation observer.
const (
	KindStorageClaim = "PersistentVolumeClaim"
	KindConfigBundle = "ConfigMap"
	KindStatefulSet  = "StatefulSet"
	KindDeployment   = "Deployment"
	KindService      = "Service"
	KindAutoscaler   = "HorizontalPodAutoscaler"
)

// Operations reported to the operation observer.
const (
	OpCreate = "create"
	OpApply  = "apply"
	OpDelete = "delete"
)

// OperationObserver is called after every cluster write with its outcome.
type OperationObserver func(kind, operation string, err error)

// Manager ensures and deletes the child objects of StellarNodes.
type Manager struct {
	client       client.Client
	fieldManager string
	observe      OperationObserver
}

// Option configures a Manager.
type Option func(*Manager)

// WithFieldManager overrides the server-side apply field owner.
func WithFieldManager(name string) Option {
	return func(m *Manager) {
		if name != "" {
			m.fieldManager = name
		}
	}
}

// WithObserver registers a callback for child operation outcomes.
func WithObserver(o OperationObserver) Option {
	return func(m *Manager) {
		m.observe = o
	}
}

// NewManager creates a Manager writing through c.
func NewManager(c client.Client, opts ...Option) *Manager {
	m := &Manager{
		client:       c,
		fieldManager: DefaultFieldManager,
		observe:      func(string, string, error) {},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// FieldManager returns the field owner used for applies.
func (m *Manager) FieldManager() string {
	return m.fieldManager
}

// EnsureStorageClaim creates the data claim if it does not exist. An
// existing claim is never modified.
func (m *Manager) EnsureStorageClaim(ctx context.Context, node *stellarv1alpha1.StellarNode) error {
	desired := resources.StorageClaim(node)

	existing := &corev1.PersistentVolumeClaim{}
	err := m.client.Get(ctx, client.ObjectKeyFromObject(desired), existing)
	if err == nil {
		log.FromContext(ctx).V(1).Info("storage claim exists, leaving it untouched", "claim", desired.Name)
		return nil
	}
	if !apierrors.IsNotFound(err) {
		return fmt.Errorf("failed to get storage claim %s: %w", desired.Name, err)
	}

	err = m.client.Create(ctx, desired)
	if apierrors.IsAlreadyExists(err) {
		// Lost a race with a duplicate event; the claim is there now.
		err = nil
	}
	m.observe(KindStorageClaim, OpCreate, err)
	if err != nil {
		return fmt.Errorf("failed to create storage claim %s: %w", desired.Name, err)
	}
	return nil
}

// EnsureConfigBundle applies the regenerated ConfigMap.
func (m *Manager) EnsureConfigBundle(ctx context.Context, node *stellarv1alpha1.StellarNode) error {
	desired, err := resources.ConfigBundle(node)
	if err != nil {
		return err
	}
	return m.apply(ctx, KindConfigBundle, desired)
}

// EnsureWorkload applies the workload dictated by the node kind and removes
// a workload of the other kind left behind by a kind change.
func (m *Manager) EnsureWorkload(ctx context.Context, node *stellarv1alpha1.StellarNode) error {
	switch resources.WorkloadKindFor(node.Spec.NodeKind) {
	case resources.WorkloadStatefulSet:
		if err := m.apply(ctx, KindStatefulSet, resources.StatefulSet(node)); err != nil {
			return err
		}
		return m.delete(ctx, KindDeployment, &appsv1.Deployment{ObjectMeta: childMeta(node, naming.Workload(node.Name))})
	default:
		desired, err := m.reconcileLiveDeployment(ctx, resources.Deployment(node))
		if err != nil {
			return err
		}
		if err := m.apply(ctx, KindDeployment, desired); err != nil {
			return err
		}
		return m.delete(ctx, KindStatefulSet, &appsv1.StatefulSet{ObjectMeta: childMeta(node, naming.Workload(node.Name))})
	}
}

// reconcileLiveDeployment adjusts desired against the stored Deployment.
// A Deployment whose selector no longer matches is deleted, since selectors
// are immutable. When desired leaves replicas to an autoscaler that has not
// taken the field over yet, the live count is carried so dropping the field
// does not reset the Deployment to one replica.
func (m *Manager) reconcileLiveDeployment(ctx context.Context, desired *appsv1.Deployment) (*appsv1.Deployment, error) {
	live := &appsv1.Deployment{}
	err := m.client.Get(ctx, client.ObjectKeyFromObject(desired), live)
	if apierrors.IsNotFound(err) {
		return desired, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s %s: %w", KindDeployment, desired.Name, err)
	}

	if !maps.Equal(selectorLabels(live.Spec.Selector), selectorLabels(desired.Spec.Selector)) {
		log.FromContext(ctx).Info("workload selector changed, recreating deployment", "name", desired.Name)
		if err := m.delete(ctx, KindDeployment, live); err != nil {
			return nil, err
		}
		return desired, nil
	}

	if desired.Spec.Replicas == nil && live.Spec.Replicas != nil && !replicasOwnedByOther(live, m.fieldManager) {
		desired.Spec.Replicas = ptr.To(*live.Spec.Replicas)
	}
	return desired, nil
}

func selectorLabels(sel *metav1.LabelSelector) map[string]string {
	if sel == nil {
		return nil
	}
	return sel.MatchLabels
}

var replicasPath = fieldpath.MakePathOrDie("spec", "replicas")

// replicasOwnedByOther reports whether a field manager other than self,
// such as the autoscaler writing through the scale subresource, owns
// spec.replicas.
func replicasOwnedByOther(obj metav1.Object, self string) bool {
	for _, entry := range obj.GetManagedFields() {
		if entry.Manager == self || entry.FieldsV1 == nil {
			continue
		}
		set := fieldpath.NewSet()
		if err := set.FromJSON(bytes.NewReader(entry.FieldsV1.Raw)); err != nil {
			continue
		}
		if set.Has(replicasPath) {
			return true
		}
	}
	return false
}

// EnsureService applies the network endpoint.
func (m *Manager) EnsureService(ctx context.Context, node *stellarv1alpha1.StellarNode) error {
	return m.apply(ctx, KindService, resources.Service(node))
}

// EnsureAutoscaler applies the autoscaler when the node should have one,
// and removes a stale one otherwise.
func (m *Manager) EnsureAutoscaler(ctx context.Context, node *stellarv1alpha1.StellarNode) error {
	desired := resources.Autoscaler(node)
	if desired == nil {
		return m.DeleteAutoscaler(ctx, node)
	}
	if as := node.Spec.Autoscaling; len(as.CustomMetrics) > 0 {
		log.FromContext(ctx).Info("custom autoscaling metrics are accepted but not wired",
			"metrics", as.CustomMetrics)
	}
	return m.apply(ctx, KindAutoscaler, desired)
}

// ReadyReplicas reads the ready replica count of the node's workload.
// A missing workload reports zero.
func (m *Manager) ReadyReplicas(ctx context.Context, node *stellarv1alpha1.StellarNode) (int32, error) {
	key := types.NamespacedName{Namespace: node.Namespace, Name: naming.Workload(node.Name)}

	switch resources.WorkloadKindFor(node.Spec.NodeKind) {
	case resources.WorkloadStatefulSet:
		sts := &appsv1.StatefulSet{}
		if err := m.client.Get(ctx, key, sts); err != nil {
			return 0, client.IgnoreNotFound(err)
		}
		return sts.Status.ReadyReplicas, nil
	default:
		deploy := &appsv1.Deployment{}
		if err := m.client.Get(ctx, key, deploy); err != nil {
			return 0, client.IgnoreNotFound(err)
		}
		return deploy.Status.ReadyReplicas, nil
	}
}

// DeleteService removes the network endpoint.
func (m *Manager) DeleteService(ctx context.Context, node *stellarv1alpha1.StellarNode) error {
	return m.delete(ctx, KindService, &corev1.Service{ObjectMeta: childMeta(node, naming.Service(node.Name))})
}

// DeleteWorkload removes the workload of either kind.
func (m *Manager) DeleteWorkload(ctx context.Context, node *stellarv1alpha1.StellarNode) error {
	name := naming.Workload(node.Name)
	return errors.Join(
		m.delete(ctx, KindStatefulSet, &appsv1.StatefulSet{ObjectMeta: childMeta(node, name)}),
		m.delete(ctx, KindDeployment, &appsv1.Deployment{ObjectMeta: childMeta(node, name)}),
	)
}

// DeleteConfigBundle removes the ConfigMap.
func (m *Manager) DeleteConfigBundle(ctx context.Context, node *stellarv1alpha1.StellarNode) error {
	return m.delete(ctx, KindConfigBundle, &corev1.ConfigMap{ObjectMeta: childMeta(node, naming.ConfigBundle(node.Name))})
}

// DeleteStorageClaim removes the data claim. Callers decide whether the
// retention policy allows it.
func (m *Manager) DeleteStorageClaim(ctx context.Context, node *stellarv1alpha1.StellarNode) error {
	return m.delete(ctx, KindStorageClaim, &corev1.PersistentVolumeClaim{ObjectMeta: childMeta(node, naming.StorageClaim(node.Name))})
}

// DeleteAutoscaler removes the autoscaler.
func (m *Manager) DeleteAutoscaler(ctx context.Context, node *stellarv1alpha1.StellarNode) error {
	return m.delete(ctx, KindAutoscaler, &autoscalingv2.HorizontalPodAutoscaler{ObjectMeta: childMeta(node, naming.Autoscaler(node.Name))})
}

func (m *Manager) apply(ctx context.Context, kind string, obj client.Object) error {
	err := m.mergeApply(ctx, obj)
	m.observe(kind, OpApply, err)
	if err != nil {
		return fmt.Errorf("failed to apply %s %s: %w", kind, obj.GetName(), err)
	}
	log.FromContext(ctx).V(1).Info("applied child", "kind", kind, "name", obj.GetName())
	return nil
}

// delete removes obj; an absent object counts as deleted and is not reported.
func (m *Manager) delete(ctx context.Context, kind string, obj client.Object) error {
	err := m.client.Delete(ctx, obj, client.PropagationPolicy(metav1.DeletePropagationBackground))
	if apierrors.IsNotFound(err) {
		return nil
	}
	m.observe(kind, OpDelete, err)
	if err != nil {
		return fmt.Errorf("failed to delete %s %s: %w", kind, obj.GetName(), err)
	}
	log.FromContext(ctx).V(1).Info("deleted child", "kind", kind, "name", obj.GetName())
	return nil
}

func childMeta(node *stellarv1alpha1.StellarNode, name string) metav1.ObjectMeta {
	return metav1.ObjectMeta{Name: name, Namespace: node.Namespace}
}
