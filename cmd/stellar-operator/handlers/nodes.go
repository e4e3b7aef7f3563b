package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"k8s.io/apimachinery/pkg/util/duration"
	"k8s.io/client-go/tools/clientcmd"
	"sigs.k8s.io/controller-runtime/pkg/client"

	stellarv1alpha1 "github.com/stellar-k8s/stellar-operator/api/v1alpha1"
	"github.com/stellar-k8s/stellar-operator/internal/api"
)

// Output formats for get nodes.
const (
	OutputTable = "table"
	OutputJSON  = "json"
)

// GetNodesOptions configures GetNodes.
type GetNodesOptions struct {
	Kubeconfig string
	Namespace  string
	Output     string
	// Styled renders a bordered, colored table for terminals.
	Styled bool
}

var (
	newKubeClient = kubeClient
	now           = time.Now
)

func kubeClient(kubeconfig string) (client.Client, error) {
	rules := clientcmd.NewDefaultClientConfigLoadingRules()
	rules.ExplicitPath = kubeconfig
	restCfg, err := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(rules, &clientcmd.ConfigOverrides{}).ClientConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load kubeconfig: %w", err)
	}
	c, err := client.New(restCfg, client.Options{Scheme: NewScheme()})
	if err != nil {
		return nil, fmt.Errorf("failed to create kubernetes client: %w", err)
	}
	return c, nil
}

// GetNodes lists nodes and renders them to w.
func GetNodes(ctx context.Context, w io.Writer, opts GetNodesOptions) error {
	if opts.Output == "" {
		opts.Output = OutputTable
	}
	if opts.Output != OutputTable && opts.Output != OutputJSON {
		return fmt.Errorf("unknown output format %q: use %s or %s", opts.Output, OutputTable, OutputJSON)
	}

	c, err := newKubeClient(opts.Kubeconfig)
	if err != nil {
		return err
	}

	var listOpts []client.ListOption
	if opts.Namespace != "" {
		listOpts = append(listOpts, client.InNamespace(opts.Namespace))
	}
	list := &stellarv1alpha1.StellarNodeList{}
	if err := c.List(ctx, list, listOpts...); err != nil {
		return fmt.Errorf("failed to list StellarNodes: %w", err)
	}

	nodes := list.Items
	sort.Slice(nodes, func(i, j int) bool {
		if nodes[i].Namespace != nodes[j].Namespace {
			return nodes[i].Namespace < nodes[j].Namespace
		}
		return nodes[i].Name < nodes[j].Name
	})

	if opts.Output == OutputJSON {
		return renderNodesJSON(w, nodes)
	}
	renderNodesTable(w, nodes, opts.Styled)
	return nil
}

func renderNodesJSON(w io.Writer, nodes []stellarv1alpha1.StellarNode) error {
	items := make([]api.NodeSummary, 0, len(nodes))
	for i := range nodes {
		items = append(items, api.SummaryOf(&nodes[i]))
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(api.NodeListResponse{Items: items, Total: len(items)})
}

func renderNodesTable(w io.Writer, nodes []stellarv1alpha1.StellarNode, styled bool) {
	if len(nodes) == 0 {
		fmt.Fprintln(w, "No StellarNodes found")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	if styled {
		t.SetStyle(table.StyleRounded)
	} else {
		t.SetStyle(table.StyleDefault)
		t.Style().Options = table.OptionsNoBordersAndSeparators
		t.Style().Format.Header = text.FormatDefault
	}

	t.AppendHeader(table.Row{"NAMESPACE", "NAME", "KIND", "NETWORK", "PHASE", "READY", "AGE"})
	for i := range nodes {
		n := &nodes[i]
		t.AppendRow(table.Row{
			n.Namespace,
			n.Name,
			n.Spec.NodeKind,
			n.Spec.Network.Name,
			phaseCell(n.Status.Phase, styled),
			fmt.Sprintf("%d/%d", n.Status.ReadyReplicas, n.Status.Replicas),
			age(n),
		})
	}
	t.Render()
}

func phaseCell(phase stellarv1alpha1.NodePhase, styled bool) string {
	s := string(phase)
	if s == "" {
		s = "Pending"
	}
	if !styled {
		return s
	}
	switch phase {
	case stellarv1alpha1.NodePhaseRunning:
		return text.FgGreen.Sprint(s)
	case stellarv1alpha1.NodePhaseFailed:
		return text.FgRed.Sprint(s)
	case stellarv1alpha1.NodePhaseSuspended:
		return text.FgHiBlack.Sprint(s)
	default:
		return text.FgYellow.Sprint(s)
	}
}

func age(n *stellarv1alpha1.StellarNode) string {
	if n.CreationTimestamp.IsZero() {
		return "<unknown>"
	}
	return duration.HumanDuration(now().Sub(n.CreationTimestamp.Time))
}
