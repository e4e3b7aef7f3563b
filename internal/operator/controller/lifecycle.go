package controller

import (
	"context"
	"errors"
	"fmt"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/controller/controllerutil"
	"sigs.k8s.io/controller-runtime/pkg/log"

	stellarv1alpha1 "github.com/stellar-k8s/stellar-operator/api/v1alpha1"
	"github.com/stellar-k8s/stellar-operator/internal/operator/children"
)

// FinalizerName marks a node whose children have not been cleaned up yet.
const FinalizerName = "stellarnode.stellar.org/finalizer"

// lifecycleState is the node's position in the deletion protocol.
type lifecycleState string

const (
	// statePresent: no deletion requested.
	statePresent lifecycleState = "Present"
	// stateDeleting: deletion requested, finalizer still attached.
	stateDeleting lifecycleState = "Deleting"
	// stateReleased: deletion requested, finalizer already removed.
	stateReleased lifecycleState = "Released"
)

func lifecycleOf(node *stellarv1alpha1.StellarNode) lifecycleState {
	switch {
	case node.DeletionTimestamp.IsZero():
		return statePresent
	case controllerutil.ContainsFinalizer(node, FinalizerName):
		return stateDeleting
	default:
		return stateReleased
	}
}

// CleanupPolicy decides whether failed child deletions block finalizer removal.
type CleanupPolicy string

const (
	// CleanupBestEffort attempts every deletion, logs failures and always
	// removes the finalizer.
	CleanupBestEffort CleanupPolicy = "BestEffort"
	// CleanupStrict keeps the finalizer and retries while any deletion fails.
	CleanupStrict CleanupPolicy = "Strict"
)

// ParseCleanupPolicy converts a configured policy name.
func ParseCleanupPolicy(s string) (CleanupPolicy, error) {
	switch p := CleanupPolicy(s); p {
	case CleanupBestEffort, CleanupStrict:
		return p, nil
	case "":
		return CleanupBestEffort, nil
	default:
		return "", fmt.Errorf("unknown cleanup policy %q (expected %s or %s)", s, CleanupBestEffort, CleanupStrict)
	}
}

type step struct {
	name string
	run  func(context.Context, *stellarv1alpha1.StellarNode) error
}

// applySteps are run in order; the first failure aborts the cycle.
func (r *StellarNodeReconciler) applySteps() []step {
	return []step{
		{name: "storage claim", run: r.children.EnsureStorageClaim},
		{name: "config bundle", run: r.children.EnsureConfigBundle},
		{name: "workload", run: r.children.EnsureWorkload},
		{name: "service", run: r.children.EnsureService},
		{name: "autoscaler", run: r.children.EnsureAutoscaler},
	}
}

// cleanupSteps are the apply steps' inverse, in reverse dependency order.
func (r *StellarNodeReconciler) cleanupSteps(node *stellarv1alpha1.StellarNode) []step {
	steps := []step{
		{name: children.KindService, run: r.children.DeleteService},
		{name: "Workload", run: r.children.DeleteWorkload},
		{name: children.KindConfigBundle, run: r.children.DeleteConfigBundle},
	}
	if node.Spec.ShouldDeleteStorage() {
		steps = append(steps, step{name: children.KindStorageClaim, run: r.children.DeleteStorageClaim})
	}
	if node.Spec.Autoscaling != nil {
		steps = append(steps, step{name: children.KindAutoscaler, run: r.children.DeleteAutoscaler})
	}
	return steps
}

// reconcilePresent runs the apply path.
func (r *StellarNodeReconciler) reconcilePresent(ctx context.Context, node *stellarv1alpha1.StellarNode) (ctrl.Result, error) {
	logger := log.FromContext(ctx)

	if err := node.Spec.Validate(); err != nil {
		verr := &ValidationError{Err: err}
		if serr := r.writeStatus(ctx, node, func(n *stellarv1alpha1.StellarNode) { projectFailed(n, verr.Error()) }); serr != nil {
			return ctrl.Result{}, serr
		}
		r.Recorder.Event(node, corev1.EventTypeWarning, EventReasonValidationFailed, verr.Error())
		return ctrl.Result{}, verr
	}

	if !controllerutil.ContainsFinalizer(node, FinalizerName) {
		base := node.DeepCopy()
		controllerutil.AddFinalizer(node, FinalizerName)
		if err := r.Patch(ctx, node, client.MergeFrom(base)); err != nil {
			return ctrl.Result{}, fmt.Errorf("failed to add finalizer: %w", err)
		}
		logger.V(1).Info("added finalizer")
	}

	previousPhase := node.Status.Phase
	if needsProgressStatus(node) {
		if err := r.writeStatus(ctx, node, projectCreating); err != nil {
			return ctrl.Result{}, err
		}
	}

	for _, s := range r.applySteps() {
		logger.V(1).Info("ensuring child", "step", s.name)
		if err := s.run(ctx, node); err != nil {
			err = fmt.Errorf("failed to ensure %s: %w", s.name, err)
			r.Recorder.Event(node, corev1.EventTypeWarning, EventReasonApplyFailed, err.Error())
			if serr := r.writeStatus(ctx, node, func(n *stellarv1alpha1.StellarNode) { projectApplyFailed(n, err) }); serr != nil {
				logger.Error(serr, "failed to record apply failure in status")
			}
			return ctrl.Result{}, err
		}
	}

	ready, err := r.children.ReadyReplicas(ctx, node)
	if err != nil {
		logger.Error(err, "failed to read ready replicas, reporting 0")
		ready = 0
	}

	if err := r.writeStatus(ctx, node, func(n *stellarv1alpha1.StellarNode) { projectApplied(n, ready) }); err != nil {
		return ctrl.Result{}, err
	}
	r.recordReadyReplicas(client.ObjectKeyFromObject(node).String(), ready)

	if node.Status.Phase != previousPhase {
		reason := EventReasonReconciled
		if node.Status.Phase == stellarv1alpha1.NodePhaseSuspended {
			reason = EventReasonSuspended
		}
		r.Recorder.Eventf(node, corev1.EventTypeNormal, reason, "Node is %s", node.Status.Phase)
	}

	return ctrl.Result{RequeueAfter: r.requeue.Resync}, nil
}

// reconcileDeleting runs the cleanup path and strips the finalizer.
func (r *StellarNodeReconciler) reconcileDeleting(ctx context.Context, node *stellarv1alpha1.StellarNode) (ctrl.Result, error) {
	logger := log.FromContext(ctx)

	var failures []error
	for _, s := range r.cleanupSteps(node) {
		if err := s.run(ctx, node); err != nil {
			logger.Error(err, "cleanup step failed", "step", s.name)
			r.recordCleanupFailure(s.name)
			failures = append(failures, err)
		}
	}

	if len(failures) > 0 {
		err := errors.Join(failures...)
		if r.cleanupPolicy == CleanupStrict {
			r.Recorder.Eventf(node, corev1.EventTypeWarning, EventReasonCleanupFailed,
				"Cleanup incomplete, keeping finalizer: %v", err)
			return ctrl.Result{}, fmt.Errorf("cleanup incomplete: %w", err)
		}
		r.Recorder.Eventf(node, corev1.EventTypeWarning, EventReasonCleanupFailed,
			"Cleanup finished with %d failed step(s), releasing node: %v", len(failures), err)
	}

	base := node.DeepCopy()
	controllerutil.RemoveFinalizer(node, FinalizerName)
	if err := r.Patch(ctx, node, client.MergeFrom(base)); err != nil {
		if apierrors.IsNotFound(err) {
			return ctrl.Result{}, nil
		}
		return ctrl.Result{}, fmt.Errorf("failed to remove finalizer: %w", err)
	}

	logger.Info("cleanup complete, finalizer removed", "retainedStorage", !node.Spec.ShouldDeleteStorage())
	r.Recorder.Event(node, corev1.EventTypeNormal, EventReasonCleanedUp, "Child resources removed")
	return ctrl.Result{}, nil
}
