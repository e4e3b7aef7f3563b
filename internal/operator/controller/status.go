package controller

import (
	"context"
	"fmt"

	"k8s.io/apimachinery/pkg/api/equality"
	"k8s.io/apimachinery/pkg/api/meta"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"sigs.k8s.io/controller-runtime/pkg/client"

	stellarv1alpha1 "github.com/stellar-k8s/stellar-operator/api/v1alpha1"
	"github.com/stellar-k8s/stellar-operator/internal/operator/resources"
)

// Condition reasons.
const (
	reasonInvalidSpec        = "InvalidSpec"
	reasonApplying           = "Applying"
	reasonApplyFailed        = "ApplyFailed"
	reasonApplied            = "Applied"
	reasonSuspended          = "Suspended"
	reasonReplicasReady      = "ReplicasReady"
	reasonWaitingForReplicas = "WaitingForReplicas"
)

// writeStatus applies mutate to the node's status and patches the status
// subresource. Nothing is written when the status is unchanged, so a
// converged node sees no churn on resync.
func (r *StellarNodeReconciler) writeStatus(ctx context.Context, node *stellarv1alpha1.StellarNode, mutate func(*stellarv1alpha1.StellarNode)) error {
	base := node.DeepCopy()
	mutate(node)
	if equality.Semantic.DeepEqual(base.Status, node.Status) {
		return nil
	}
	if err := r.Status().Patch(ctx, node, client.MergeFrom(base)); err != nil {
		return fmt.Errorf("failed to update status: %w", err)
	}
	return nil
}

// projectFailed records a validation failure. observedGeneration is left
// alone: the generation was not applied.
func projectFailed(node *stellarv1alpha1.StellarNode, message string) {
	s := &node.Status
	s.Phase = stellarv1alpha1.NodePhaseFailed
	s.Message = message
	s.Replicas = node.Spec.Replicas
	setCondition(node, stellarv1alpha1.ConditionReady, metav1.ConditionFalse, reasonInvalidSpec, message)
	setCondition(node, stellarv1alpha1.ConditionProgressing, metav1.ConditionFalse, reasonInvalidSpec, message)
}

// projectCreating records that an apply cycle is in progress.
func projectCreating(node *stellarv1alpha1.StellarNode) {
	s := &node.Status
	s.Phase = stellarv1alpha1.NodePhaseCreating
	s.Message = "Applying child resources"
	s.Replicas = resources.DesiredReplicas(&node.Spec)
	setCondition(node, stellarv1alpha1.ConditionProgressing, metav1.ConditionTrue, reasonApplying, s.Message)
}

// projectApplyFailed records a transient failure of the apply path. The
// phase is left as it is.
func projectApplyFailed(node *stellarv1alpha1.StellarNode, err error) {
	node.Status.Message = err.Error()
	setCondition(node, stellarv1alpha1.ConditionProgressing, metav1.ConditionTrue, reasonApplyFailed, err.Error())
}

// projectApplied records a successful apply cycle with the observed
// ready replica count.
func projectApplied(node *stellarv1alpha1.StellarNode, ready int32) {
	s := &node.Status
	desired := resources.DesiredReplicas(&node.Spec)

	s.ObservedGeneration = node.Generation
	s.Replicas = desired
	s.ReadyReplicas = ready
	setCondition(node, stellarv1alpha1.ConditionProgressing, metav1.ConditionFalse, reasonApplied, "All child resources applied")

	if node.Spec.Suspended {
		s.Phase = stellarv1alpha1.NodePhaseSuspended
		s.Message = "Node is suspended"
		setCondition(node, stellarv1alpha1.ConditionReady, metav1.ConditionFalse, reasonSuspended, s.Message)
		return
	}

	s.Phase = stellarv1alpha1.NodePhaseRunning
	if ready >= desired {
		s.Message = fmt.Sprintf("%d/%d replicas ready", ready, desired)
		setCondition(node, stellarv1alpha1.ConditionReady, metav1.ConditionTrue, reasonReplicasReady, s.Message)
		return
	}
	s.Message = fmt.Sprintf("Waiting for replicas: %d/%d ready", ready, desired)
	setCondition(node, stellarv1alpha1.ConditionReady, metav1.ConditionFalse, reasonWaitingForReplicas, s.Message)
}

// needsProgressStatus reports whether an interim Creating status should be
// written. A node already converged on its current generation skips it.
func needsProgressStatus(node *stellarv1alpha1.StellarNode) bool {
	s := node.Status
	if s.ObservedGeneration != node.Generation {
		return true
	}
	return s.Phase != stellarv1alpha1.NodePhaseRunning && s.Phase != stellarv1alpha1.NodePhaseSuspended
}

func setCondition(node *stellarv1alpha1.StellarNode, condType string, status metav1.ConditionStatus, reason, message string) {
	meta.SetStatusCondition(&node.Status.Conditions, metav1.Condition{
		Type:               condType,
		Status:             status,
		Reason:             reason,
		Message:            message,
		ObservedGeneration: node.Generation,
	})
}
