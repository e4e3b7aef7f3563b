package controller

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	appsv1 "k8s.io/api/apps/v1"
	autoscalingv2 "k8s.io/api/autoscaling/v2"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/api/meta"
	"k8s.io/apimachinery/pkg/api/resource"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/client-go/tools/record"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/controller/controllerutil"

	stellarv1alpha1 "github.com/stellar-k8s/stellar-operator/api/v1alpha1"
	stellartesting "github.com/stellar-k8s/stellar-operator/internal/testing"
)

type fixture struct {
	cluster  *stellartesting.FakeCluster
	recorder *record.FakeRecorder
	r        *StellarNodeReconciler
}

func newFixture(t *testing.T, node *stellarv1alpha1.StellarNode, opts ...Option) *fixture {
	t.Helper()
	var objs []client.Object
	if node != nil {
		objs = append(objs, node)
	}
	cluster := stellartesting.NewFakeCluster(t, objs...)
	recorder := record.NewFakeRecorder(100)
	opts = append([]Option{WithMetrics(false)}, opts...)
	return &fixture{
		cluster:  cluster,
		recorder: recorder,
		r:        NewStellarNodeReconciler(cluster, cluster.Scheme(), recorder, opts...),
	}
}

func (f *fixture) reconcile(t *testing.T, name string) ctrl.Result {
	t.Helper()
	result, err := f.r.Reconcile(context.Background(), ctrl.Request{
		NamespacedName: types.NamespacedName{Namespace: stellartesting.DefaultNamespace, Name: name},
	})
	require.NoError(t, err, "errors are always converted into requeue delays")
	return result
}

func (f *fixture) node(t *testing.T, name string) *stellarv1alpha1.StellarNode {
	t.Helper()
	node := &stellarv1alpha1.StellarNode{}
	require.NoError(t, f.cluster.Get(context.Background(), f.key(name), node))
	return node
}

func (f *fixture) key(name string) types.NamespacedName {
	return types.NamespacedName{Namespace: stellartesting.DefaultNamespace, Name: name}
}

func (f *fixture) exists(t *testing.T, obj client.Object, name string) bool {
	t.Helper()
	err := f.cluster.Get(context.Background(), f.key(name), obj)
	if apierrors.IsNotFound(err) {
		return false
	}
	require.NoError(t, err)
	return true
}

// childCount returns how many objects of each child kind exist.
func (f *fixture) childCount(t *testing.T) map[string]int {
	t.Helper()
	ctx := context.Background()
	ns := client.InNamespace(stellartesting.DefaultNamespace)
	lists := map[string]client.ObjectList{
		"pvc":         &corev1.PersistentVolumeClaimList{},
		"configmap":   &corev1.ConfigMapList{},
		"statefulset": &appsv1.StatefulSetList{},
		"deployment":  &appsv1.DeploymentList{},
		"service":     &corev1.ServiceList{},
		"hpa":         &autoscalingv2.HorizontalPodAutoscalerList{},
	}
	counts := make(map[string]int, len(lists))
	for kind, list := range lists {
		require.NoError(t, f.cluster.List(ctx, list, ns))
		items, err := meta.ExtractList(list)
		require.NoError(t, err)
		counts[kind] = len(items)
	}
	return counts
}

func TestNewStellarNodeReconciler(t *testing.T) {
	cluster := stellartesting.NewFakeCluster(t)
	recorder := record.NewFakeRecorder(10)

	t.Run("with default options", func(t *testing.T) {
		r := NewStellarNodeReconciler(cluster, cluster.Scheme(), recorder)

		assert.Equal(t, recorder, r.Recorder)
		assert.True(t, r.enableMetrics)
		assert.Equal(t, DefaultRequeuePolicy(), r.requeue)
		assert.Equal(t, CleanupBestEffort, r.cleanupPolicy)
		assert.Equal(t, 1, r.maxConcurrentReconciles)
		assert.Equal(t, "stellar-operator", r.children.FieldManager())
	})

	t.Run("with custom options", func(t *testing.T) {
		r := NewStellarNodeReconciler(cluster, cluster.Scheme(), recorder,
			WithMetrics(false),
			WithFieldManager("custom-manager"),
			WithCleanupPolicy(CleanupStrict),
			WithMaxConcurrentReconciles(4),
			WithRequeuePolicy(RequeuePolicy{Transient: 5 * time.Second}),
		)

		assert.False(t, r.enableMetrics)
		assert.Equal(t, "custom-manager", r.children.FieldManager())
		assert.Equal(t, CleanupStrict, r.cleanupPolicy)
		assert.Equal(t, 4, r.maxConcurrentReconciles)
		assert.Equal(t, 5*time.Second, r.requeue.Transient)
		assert.Equal(t, defaultResyncInterval, r.requeue.Resync, "zero fields keep defaults")
		assert.Equal(t, defaultValidationRetryDelay, r.requeue.Validation)
	})
}

func TestReconcile_NodeNotFound(t *testing.T) {
	t.Parallel()
	f := newFixture(t, nil)

	result := f.reconcile(t, "missing")

	assert.Equal(t, ctrl.Result{}, result)
	assert.Empty(t, stellartesting.DrainEvents(f.recorder))
}

func TestReconcile_FetchErrorIsTransient(t *testing.T) {
	t.Parallel()
	f := newFixture(t, stellartesting.NewNodeBuilder("gw").Build())
	f.cluster.FailOn(stellartesting.VerbGet, "StellarNode", errors.New("apiserver unavailable"))

	result := f.reconcile(t, "gw")

	assert.Equal(t, defaultTransientRetryDelay, result.RequeueAfter)
}

func TestReconcile_ConvergesPerKind(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name         string
		node         *stellarv1alpha1.StellarNode
		workload     string
		wantReplicas int32
		wantPhase    stellarv1alpha1.NodePhase
	}{
		{
			name:         "validator is pinned to one replica",
			node:         stellartesting.NewNodeBuilder("val").WithKind(stellarv1alpha1.NodeKindValidator).WithReplicas(5).Build(),
			workload:     "statefulset",
			wantReplicas: 1,
			wantPhase:    stellarv1alpha1.NodePhaseRunning,
		},
		{
			name:         "gateway runs the declared replicas",
			node:         stellartesting.NewNodeBuilder("gw").WithReplicas(3).Build(),
			workload:     "deployment",
			wantReplicas: 3,
			wantPhase:    stellarv1alpha1.NodePhaseRunning,
		},
		{
			name:         "suspended rpc node runs nothing",
			node:         stellartesting.NewNodeBuilder("rpc").WithKind(stellarv1alpha1.NodeKindRpcNode).WithReplicas(3).WithSuspended(true).Build(),
			workload:     "deployment",
			wantReplicas: 0,
			wantPhase:    stellarv1alpha1.NodePhaseSuspended,
		},
		{
			name:         "suspended validator runs nothing",
			node:         stellartesting.NewNodeBuilder("val").WithKind(stellarv1alpha1.NodeKindValidator).WithSuspended(true).Build(),
			workload:     "statefulset",
			wantReplicas: 0,
			wantPhase:    stellarv1alpha1.NodePhaseSuspended,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := newFixture(t, tt.node)

			result := f.reconcile(t, tt.node.Name)
			assert.Equal(t, defaultResyncInterval, result.RequeueAfter)

			counts := f.childCount(t)
			assert.Equal(t, 1, counts["pvc"])
			assert.Equal(t, 1, counts["configmap"])
			assert.Equal(t, 1, counts["service"])
			assert.Equal(t, 1, counts[tt.workload])
			assert.Equal(t, 1, counts["statefulset"]+counts["deployment"], "exactly one workload")

			var replicas *int32
			if tt.workload == "statefulset" {
				sts := &appsv1.StatefulSet{}
				require.True(t, f.exists(t, sts, tt.node.Name))
				replicas = sts.Spec.Replicas
			} else {
				deploy := &appsv1.Deployment{}
				require.True(t, f.exists(t, deploy, tt.node.Name))
				replicas = deploy.Spec.Replicas
			}
			require.NotNil(t, replicas)
			assert.Equal(t, tt.wantReplicas, *replicas)

			got := f.node(t, tt.node.Name)
			assert.Equal(t, tt.wantPhase, got.Status.Phase)
			assert.Equal(t, got.Generation, got.Status.ObservedGeneration)
			assert.Equal(t, tt.wantReplicas, got.Status.Replicas)
			assert.True(t, controllerutil.ContainsFinalizer(got, FinalizerName))
			assert.True(t, meta.IsStatusConditionFalse(got.Status.Conditions, stellarv1alpha1.ConditionProgressing))
		})
	}
}

func TestReconcile_Idempotent(t *testing.T) {
	t.Parallel()
	f := newFixture(t, stellartesting.NewNodeBuilder("gw").WithAutoscaling(2, 4).Build())

	f.reconcile(t, "gw")
	first := f.node(t, "gw")
	countsBefore := f.childCount(t)
	f.cluster.ResetCalls()
	stellartesting.DrainEvents(f.recorder)

	result := f.reconcile(t, "gw")
	second := f.node(t, "gw")

	assert.Equal(t, defaultResyncInterval, result.RequeueAfter)
	assert.Equal(t, countsBefore, f.childCount(t), "no additional children")
	assert.Equal(t, first.Status, second.Status, "no status churn")
	assert.Empty(t, f.cluster.CallsFor(stellartesting.VerbStatusPatch))
	assert.Empty(t, f.cluster.CallsFor(stellartesting.VerbCreate))
	assert.Empty(t, stellartesting.DrainEvents(f.recorder), "no events without a phase change")
}

func TestReconcile_SuspendKeepsStorageAndConfig(t *testing.T) {
	t.Parallel()
	f := newFixture(t, stellartesting.NewNodeBuilder("gw").WithReplicas(3).Build())
	ctx := context.Background()

	f.reconcile(t, "gw")

	pvcBefore := &corev1.PersistentVolumeClaim{}
	require.True(t, f.exists(t, pvcBefore, "gw-data"))
	cmBefore := &corev1.ConfigMap{}
	require.True(t, f.exists(t, cmBefore, "gw-config"))

	node := f.node(t, "gw")
	node.Spec.Suspended = true
	node.Generation = 2
	require.NoError(t, f.cluster.Update(ctx, node))

	f.reconcile(t, "gw")

	deploy := &appsv1.Deployment{}
	require.True(t, f.exists(t, deploy, "gw"))
	assert.Equal(t, int32(0), *deploy.Spec.Replicas)

	pvcAfter := &corev1.PersistentVolumeClaim{}
	require.True(t, f.exists(t, pvcAfter, "gw-data"))
	assert.Equal(t, pvcBefore.Name, pvcAfter.Name)
	assert.Equal(t, pvcBefore.ResourceVersion, pvcAfter.ResourceVersion, "claim untouched")
	assert.True(t, resource.MustParse("10Gi").Equal(pvcAfter.Spec.Resources.Requests[corev1.ResourceStorage]))

	cmAfter := &corev1.ConfigMap{}
	require.True(t, f.exists(t, cmAfter, "gw-config"))
	assert.Equal(t, cmBefore.Data, cmAfter.Data)

	got := f.node(t, "gw")
	assert.Equal(t, stellarv1alpha1.NodePhaseSuspended, got.Status.Phase)
	assert.Equal(t, int64(2), got.Status.ObservedGeneration)
	assert.Contains(t, stellartesting.DrainEvents(f.recorder), "Normal Suspended Node is Suspended")
}

func TestReconcile_InvalidSpecCreatesNothing(t *testing.T) {
	t.Parallel()
	f := newFixture(t, stellartesting.NewNodeBuilder("bad").WithReplicas(-1).Build())

	result := f.reconcile(t, "bad")

	assert.Equal(t, defaultValidationRetryDelay, result.RequeueAfter)
	for kind, n := range f.childCount(t) {
		assert.Zero(t, n, "no %s may be created for an invalid spec", kind)
	}

	got := f.node(t, "bad")
	assert.Equal(t, stellarv1alpha1.NodePhaseFailed, got.Status.Phase)
	assert.Contains(t, got.Status.Message, "spec.replicas must not be negative")
	assert.Zero(t, got.Status.ObservedGeneration)
	assert.False(t, controllerutil.ContainsFinalizer(got, FinalizerName))
	assert.True(t, meta.IsStatusConditionFalse(got.Status.Conditions, stellarv1alpha1.ConditionReady))

	events := stellartesting.DrainEvents(f.recorder)
	require.Len(t, events, 1)
	assert.Contains(t, events[0], EventReasonValidationFailed)
}

func TestReconcile_TransientFailureAbortsRemainingSteps(t *testing.T) {
	t.Parallel()
	f := newFixture(t, stellartesting.NewNodeBuilder("gw").Build())
	f.cluster.FailOn(stellartesting.VerbApply, "Deployment", errors.New("the server is currently unable to handle the request"))

	result := f.reconcile(t, "gw")

	assert.Equal(t, defaultTransientRetryDelay, result.RequeueAfter)

	for _, c := range f.cluster.CallsFor(stellartesting.VerbApply) {
		assert.NotEqual(t, "Service", c.Kind, "steps after the failing one must not run")
	}
	counts := f.childCount(t)
	assert.Equal(t, 1, counts["pvc"])
	assert.Equal(t, 1, counts["configmap"])
	assert.Zero(t, counts["service"])

	got := f.node(t, "gw")
	assert.Equal(t, stellarv1alpha1.NodePhaseCreating, got.Status.Phase)
	assert.Contains(t, got.Status.Message, "unable to handle the request")
	assert.Zero(t, got.Status.ObservedGeneration, "observedGeneration only moves on success")

	// The next cycle converges once the API recovers.
	f.cluster.FailOn(stellartesting.VerbApply, "Deployment", nil)
	result = f.reconcile(t, "gw")
	assert.Equal(t, defaultResyncInterval, result.RequeueAfter)
	assert.Equal(t, stellarv1alpha1.NodePhaseRunning, f.node(t, "gw").Status.Phase)
}

func TestReconcile_StorageFailureIsTransient(t *testing.T) {
	t.Parallel()
	f := newFixture(t, stellartesting.NewNodeBuilder("gw").Build())
	f.cluster.FailOn(stellartesting.VerbCreate, "PersistentVolumeClaim", errors.New("quota exceeded"))

	result := f.reconcile(t, "gw")

	assert.Equal(t, defaultTransientRetryDelay, result.RequeueAfter)
	assert.Empty(t, f.cluster.CallsFor(stellartesting.VerbApply))
}

func TestReconcile_ReadyReplicas(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t, stellartesting.NewNodeBuilder("gw").WithReplicas(2).Build())

	f.reconcile(t, "gw")
	got := f.node(t, "gw")
	assert.Equal(t, stellarv1alpha1.NodePhaseRunning, got.Status.Phase)
	assert.Zero(t, got.Status.ReadyReplicas)
	assert.True(t, meta.IsStatusConditionFalse(got.Status.Conditions, stellarv1alpha1.ConditionReady))

	deploy := &appsv1.Deployment{}
	require.True(t, f.exists(t, deploy, "gw"))
	deploy.Status.ReadyReplicas = 2
	require.NoError(t, f.cluster.Update(ctx, deploy))

	f.reconcile(t, "gw")
	got = f.node(t, "gw")
	assert.Equal(t, int32(2), got.Status.ReadyReplicas)
	assert.True(t, meta.IsStatusConditionTrue(got.Status.Conditions, stellarv1alpha1.ConditionReady))
}

func TestReconcile_WorkloadReadFailureIsTransient(t *testing.T) {
	t.Parallel()
	f := newFixture(t, stellartesting.NewNodeBuilder("gw").Build())
	f.cluster.FailOn(stellartesting.VerbGet, "Deployment", errors.New("cache not synced"))

	result := f.reconcile(t, "gw")

	assert.Equal(t, defaultTransientRetryDelay, result.RequeueAfter)
	assert.False(t, f.exists(t, &corev1.Service{}, "gw"), "later steps are not attempted")
	got := f.node(t, "gw")
	assert.NotEqual(t, stellarv1alpha1.NodePhaseRunning, got.Status.Phase)
	assert.Contains(t, got.Status.Message, "cache not synced")
}

func TestReconcile_Autoscaling(t *testing.T) {
	t.Parallel()

	t.Run("gateway gets an autoscaler owning replicas", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, stellartesting.NewNodeBuilder("gw").WithAutoscaling(2, 6).Build())

		f.reconcile(t, "gw")

		hpa := &autoscalingv2.HorizontalPodAutoscaler{}
		require.True(t, f.exists(t, hpa, "gw-hpa"))
		assert.Equal(t, "gw", hpa.Spec.ScaleTargetRef.Name)
		deploy := &appsv1.Deployment{}
		require.True(t, f.exists(t, deploy, "gw"))
		assert.Nil(t, deploy.Spec.Replicas)
	})

	t.Run("validator autoscaling is ignored", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, stellartesting.NewNodeBuilder("val").
			WithKind(stellarv1alpha1.NodeKindValidator).
			WithAutoscaling(1, 3).
			Build())

		f.reconcile(t, "val")

		assert.Zero(t, f.childCount(t)["hpa"])
	})

	t.Run("removing autoscaling deletes the autoscaler", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, stellartesting.NewNodeBuilder("gw").WithAutoscaling(2, 6).Build())
		f.reconcile(t, "gw")

		node := f.node(t, "gw")
		node.Spec.Autoscaling = nil
		node.Generation = 2
		require.NoError(t, f.cluster.Update(context.Background(), node))
		f.reconcile(t, "gw")

		assert.Zero(t, f.childCount(t)["hpa"])
	})
}

func TestReconcile_KindChangeSwapsWorkload(t *testing.T) {
	t.Parallel()
	f := newFixture(t, stellartesting.NewNodeBuilder("n").Build())
	f.reconcile(t, "n")

	node := f.node(t, "n")
	node.Spec.NodeKind = stellarv1alpha1.NodeKindValidator
	node.Spec.GatewayConfig = nil
	node.Spec.ValidatorConfig = &stellarv1alpha1.ValidatorConfig{SeedSecretRef: "seed"}
	node.Generation = 2
	require.NoError(t, f.cluster.Update(context.Background(), node))

	f.reconcile(t, "n")

	counts := f.childCount(t)
	assert.Equal(t, 1, counts["statefulset"])
	assert.Zero(t, counts["deployment"])
}

func TestReconcile_StatelessKindChangeRecreatesDeployment(t *testing.T) {
	t.Parallel()
	f := newFixture(t, stellartesting.NewNodeBuilder("n").Build())
	f.reconcile(t, "n")

	node := f.node(t, "n")
	node.Spec.NodeKind = stellarv1alpha1.NodeKindRpcNode
	node.Spec.GatewayConfig = nil
	node.Spec.RpcConfig = &stellarv1alpha1.RpcConfig{CoreURL: "http://core:11626"}
	node.Generation = 2
	require.NoError(t, f.cluster.Update(context.Background(), node))
	f.cluster.ResetCalls()

	result := f.reconcile(t, "n")

	assert.Equal(t, defaultResyncInterval, result.RequeueAfter)
	assert.Contains(t, f.cluster.CallsFor(stellartesting.VerbDelete), stellartesting.Call{Verb: stellartesting.VerbDelete, Kind: "Deployment", Name: "n"})
	deploy := &appsv1.Deployment{}
	require.True(t, f.exists(t, deploy, "n"))
	assert.Equal(t, "rpcnode", deploy.Spec.Selector.MatchLabels["app.kubernetes.io/component"])
	assert.Equal(t, stellarv1alpha1.NodePhaseRunning, f.node(t, "n").Status.Phase)
}

func TestReconcile_EnablingAutoscalingKeepsRunningReplicas(t *testing.T) {
	t.Parallel()
	f := newFixture(t, stellartesting.NewNodeBuilder("gw").WithReplicas(5).Build())
	f.reconcile(t, "gw")

	node := f.node(t, "gw")
	node.Spec.Autoscaling = &stellarv1alpha1.AutoscalingSpec{MinReplicas: 2, MaxReplicas: 8}
	node.Generation = 2
	require.NoError(t, f.cluster.Update(context.Background(), node))

	f.reconcile(t, "gw")
	f.reconcile(t, "gw")

	deploy := &appsv1.Deployment{}
	require.True(t, f.exists(t, deploy, "gw"))
	require.NotNil(t, deploy.Spec.Replicas)
	assert.Equal(t, int32(5), *deploy.Spec.Replicas)
	assert.True(t, f.exists(t, &autoscalingv2.HorizontalPodAutoscaler{}, "gw-hpa"))
}
