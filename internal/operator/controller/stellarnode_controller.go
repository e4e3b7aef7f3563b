package controller

import (
	"context"
	"time"

	appsv1 "k8s.io/api/apps/v1"
	autoscalingv2 "k8s.io/api/autoscaling/v2"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/client-go/tools/record"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/controller"
	"sigs.k8s.io/controller-runtime/pkg/log"

	stellarv1alpha1 "github.com/stellar-k8s/stellar-operator/api/v1alpha1"
	"github.com/stellar-k8s/stellar-operator/internal/operator/children"
)

// StellarNodeReconciler reconciles a StellarNode object.
type StellarNodeReconciler struct {
	client.Client
	Scheme   *runtime.Scheme
	Recorder record.EventRecorder

	children *children.Manager

	fieldManager            string
	requeue                 RequeuePolicy
	cleanupPolicy           CleanupPolicy
	enableMetrics           bool
	maxConcurrentReconciles int
}

// Option configures a StellarNodeReconciler.
type Option func(*StellarNodeReconciler)

// WithMetrics enables or disables Prometheus metrics recording.
func WithMetrics(enabled bool) Option {
	return func(r *StellarNodeReconciler) {
		r.enableMetrics = enabled
	}
}

// WithFieldManager sets the server-side apply field owner for children.
func WithFieldManager(name string) Option {
	return func(r *StellarNodeReconciler) {
		r.fieldManager = name
	}
}

// WithRequeuePolicy overrides the resync and retry delays. Zero fields keep
// their defaults.
func WithRequeuePolicy(p RequeuePolicy) Option {
	return func(r *StellarNodeReconciler) {
		r.requeue = p.withDefaults()
	}
}

// WithCleanupPolicy sets how child deletion failures affect finalizer removal.
func WithCleanupPolicy(p CleanupPolicy) Option {
	return func(r *StellarNodeReconciler) {
		r.cleanupPolicy = p
	}
}

// WithMaxConcurrentReconciles bounds how many distinct nodes reconcile in parallel.
func WithMaxConcurrentReconciles(n int) Option {
	return func(r *StellarNodeReconciler) {
		if n > 0 {
			r.maxConcurrentReconciles = n
		}
	}
}

// NewStellarNodeReconciler creates a new StellarNodeReconciler.
func NewStellarNodeReconciler(c client.Client, scheme *runtime.Scheme, recorder record.EventRecorder, opts ...Option) *StellarNodeReconciler {
	r := &StellarNodeReconciler{
		Client:                  c,
		Scheme:                  scheme,
		Recorder:                recorder,
		fieldManager:            children.DefaultFieldManager,
		requeue:                 DefaultRequeuePolicy(),
		cleanupPolicy:           CleanupBestEffort,
		enableMetrics:           true,
		maxConcurrentReconciles: 1,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.children = children.NewManager(c,
		children.WithFieldManager(r.fieldManager),
		children.WithObserver(r.recordChildOperation),
	)
	return r
}

// +kubebuilder:rbac:groups=stellar.org,resources=stellarnodes,verbs=get;list;watch;update;patch
// +kubebuilder:rbac:groups=stellar.org,resources=stellarnodes/status,verbs=get;update;patch
// +kubebuilder:rbac:groups=stellar.org,resources=stellarnodes/finalizers,verbs=update
// +kubebuilder:rbac:groups=apps,resources=statefulsets;deployments,verbs=get;list;watch;create;update;patch;delete
// +kubebuilder:rbac:groups="",resources=services;configmaps;persistentvolumeclaims,verbs=get;list;watch;create;update;patch;delete
// +kubebuilder:rbac:groups=autoscaling,resources=horizontalpodautoscalers,verbs=get;list;watch;create;update;patch;delete
// +kubebuilder:rbac:groups="",resources=events,verbs=create;patch
// +kubebuilder:rbac:groups=coordination.k8s.io,resources=leases,verbs=get;create;update

// Reconcile handles the reconciliation loop for StellarNode resources.
//
// Failures never reach the workqueue as errors: the error policy turns them
// into a fixed RequeueAfter so retries follow the configured delays.
func (r *StellarNodeReconciler) Reconcile(ctx context.Context, req ctrl.Request) (ctrl.Result, error) {
	logger := log.FromContext(ctx)
	start := time.Now()

	node := &stellarv1alpha1.StellarNode{}
	if err := r.Get(ctx, req.NamespacedName, node); err != nil {
		if apierrors.IsNotFound(err) {
			// Object deleted, nothing to do
			return ctrl.Result{}, nil
		}
		logger.Error(err, "unable to fetch StellarNode")
		return ctrl.Result{RequeueAfter: r.requeue.Transient}, nil
	}

	var (
		result ctrl.Result
		err    error
	)
	switch state := lifecycleOf(node); state {
	case statePresent:
		result, err = r.reconcilePresent(ctx, node)
	case stateDeleting:
		result, err = r.reconcileDeleting(ctx, node)
	default:
		logger.V(1).Info("finalizer already released, nothing to do", "state", state)
		return ctrl.Result{}, nil
	}

	r.recordReconcile(req.String(), resultFor(err), time.Since(start).Seconds())
	if err != nil {
		return r.handleError(ctx, err), nil
	}
	return result, nil
}

// handleError logs a failed reconcile and schedules the retry.
func (r *StellarNodeReconciler) handleError(ctx context.Context, err error) ctrl.Result {
	delay := r.requeue.DelayFor(err)
	log.FromContext(ctx).Error(err, "reconcile failed", "retryAfter", delay)
	return ctrl.Result{RequeueAfter: delay}
}

// SetupWithManager sets up the controller with the Manager.
func (r *StellarNodeReconciler) SetupWithManager(mgr ctrl.Manager) error {
	return ctrl.NewControllerManagedBy(mgr).
		For(&stellarv1alpha1.StellarNode{}).
		// Drift on any child triggers a reconcile of its owner
		Owns(&appsv1.StatefulSet{}).
		Owns(&appsv1.Deployment{}).
		Owns(&corev1.Service{}).
		Owns(&corev1.ConfigMap{}).
		Owns(&corev1.PersistentVolumeClaim{}).
		Owns(&autoscalingv2.HorizontalPodAutoscaler{}).
		WithOptions(controller.Options{MaxConcurrentReconciles: r.maxConcurrentReconciles}).
		Named("stellarnode").
		Complete(r)
}
