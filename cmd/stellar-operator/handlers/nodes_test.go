package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/client/fake"

	stellarv1alpha1 "github.com/stellar-k8s/stellar-operator/api/v1alpha1"
	"github.com/stellar-k8s/stellar-operator/internal/api"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func listedNode(name, namespace string, phase stellarv1alpha1.NodePhase, ready, replicas int32) *stellarv1alpha1.StellarNode {
	node := SampleNode(stellarv1alpha1.NodeKindRpcNode, name, namespace)
	node.CreationTimestamp = metav1.NewTime(fixedNow.Add(-90 * time.Minute))
	node.Status.Phase = phase
	node.Status.ReadyReplicas = ready
	node.Status.Replicas = replicas
	return node
}

func withFakeCluster(t *testing.T, objs ...client.Object) {
	t.Helper()
	c := fake.NewClientBuilder().WithScheme(NewScheme()).WithObjects(objs...).Build()

	origClient, origNow := newKubeClient, now
	t.Cleanup(func() { newKubeClient, now = origClient, origNow })

	newKubeClient = func(string) (client.Client, error) { return c, nil }
	now = func() time.Time { return fixedNow }
}

func TestGetNodes_Table(t *testing.T) {
	withFakeCluster(t,
		listedNode("rpc-b", "stellar", stellarv1alpha1.NodePhaseRunning, 2, 2),
		listedNode("rpc-a", "stellar", stellarv1alpha1.NodePhaseCreating, 0, 2),
	)

	var buf bytes.Buffer
	require.NoError(t, GetNodes(context.Background(), &buf, GetNodesOptions{}))

	out := buf.String()
	assert.Contains(t, out, "NAMESPACE")
	assert.Contains(t, out, "READY")
	assert.Contains(t, out, "RpcNode")
	assert.Contains(t, out, "Testnet")
	assert.Contains(t, out, "2/2")
	assert.Contains(t, out, "0/2")
	assert.Contains(t, out, "90m")
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("rpc-a")), bytes.Index(buf.Bytes(), []byte("rpc-b")))
	// plain output carries no ANSI escapes
	assert.NotContains(t, out, "\x1b[")
}

func TestGetNodes_Styled(t *testing.T) {
	withFakeCluster(t, listedNode("rpc", "stellar", stellarv1alpha1.NodePhaseFailed, 0, 1))
	text.EnableColors()

	var buf bytes.Buffer
	require.NoError(t, GetNodes(context.Background(), &buf, GetNodesOptions{Styled: true}))

	assert.Contains(t, buf.String(), "\x1b[")
	assert.Contains(t, buf.String(), "Failed")
}

func TestGetNodes_NamespaceFilter(t *testing.T) {
	withFakeCluster(t,
		listedNode("a", "stellar", stellarv1alpha1.NodePhaseRunning, 1, 1),
		listedNode("b", "other", stellarv1alpha1.NodePhaseRunning, 1, 1),
	)

	var buf bytes.Buffer
	require.NoError(t, GetNodes(context.Background(), &buf, GetNodesOptions{Namespace: "other", Output: OutputJSON}))

	var resp api.NodeListResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	require.Equal(t, 1, resp.Total)
	assert.Equal(t, "b", resp.Items[0].Name)
	assert.Equal(t, "RpcNode", resp.Items[0].NodeKind)
}

func TestGetNodes_Empty(t *testing.T) {
	withFakeCluster(t)

	var buf bytes.Buffer
	require.NoError(t, GetNodes(context.Background(), &buf, GetNodesOptions{}))
	assert.Equal(t, "No StellarNodes found\n", buf.String())
}

func TestGetNodes_Errors(t *testing.T) {
	t.Run("unknown output", func(t *testing.T) {
		withFakeCluster(t)
		err := GetNodes(context.Background(), &bytes.Buffer{}, GetNodesOptions{Output: "yaml"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown output format")
	})

	t.Run("client failure", func(t *testing.T) {
		orig := newKubeClient
		t.Cleanup(func() { newKubeClient = orig })
		newKubeClient = func(string) (client.Client, error) { return nil, errors.New("no kubeconfig") }

		err := GetNodes(context.Background(), &bytes.Buffer{}, GetNodesOptions{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no kubeconfig")
	})
}

func TestPhaseCell(t *testing.T) {
	assert.Equal(t, "Pending", phaseCell("", false))
	assert.Equal(t, "Running", phaseCell(stellarv1alpha1.NodePhaseRunning, false))
	text.EnableColors()
	assert.Contains(t, phaseCell(stellarv1alpha1.NodePhaseRunning, true), "Running")
}

func TestAge_Unknown(t *testing.T) {
	assert.Equal(t, "<unknown>", age(&stellarv1alpha1.StellarNode{}))
}
