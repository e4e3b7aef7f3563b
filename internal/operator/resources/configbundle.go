package resources

import (
	"bytes"
	"fmt"
	"strconv"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	stellarv1alpha1 "github.com/stellar-k8s/stellar-operator/api/v1alpha1"
	"github.com/stellar-k8s/stellar-operator/internal/util/naming"
	"github.com/stellar-k8s/stellar-operator/internal/util/ptr"
)

// Config bundle keys.
const (
	KeyNetworkPassphrase = "NETWORK_PASSPHRASE"
	KeyCoreConfig        = "stellar-core.cfg"
	KeyCaptiveCoreConfig = "captive-core.cfg"
	KeyCoreURL           = "STELLAR_CORE_URL"
	KeyIngest            = "INGEST"
	KeyIngestWorkers     = "INGEST_WORKERS"
	KeyExperimental      = "ENABLE_EXPERIMENTAL_INGESTION"
	KeyPreflight         = "PREFLIGHT_ENABLED"
	KeyMaxEvents         = "MAX_EVENTS_PER_REQUEST"
)

// coreConfigTemplate renders the validator's stellar-core.cfg.
// hermetic sprig functions only, so output depends on the spec alone.
var coreConfigTemplate = template.Must(template.New(KeyCoreConfig).
	Funcs(sprig.HermeticTxtFuncMap()).
	Parse(`NETWORK_PASSPHRASE={{ .Passphrase | quote }}
PEER_PORT={{ .PeerPort }}
HTTP_PORT={{ .HTTPPort }}
PUBLIC_HTTP_PORT=true
CATCHUP_COMPLETE={{ .CatchupComplete }}
{{- range $i, $url := .HistoryArchives }}

[HISTORY.archive{{ $i }}]
get={{ printf "curl -sf %s/{0} -o {1}" ($url | trimSuffix "/") | quote }}
{{- end }}
{{- if .QuorumSet }}

{{ .QuorumSet | trim }}
{{- end }}
`))

type coreConfigData struct {
	Passphrase      string
	PeerPort        int32
	HTTPPort        int32
	CatchupComplete bool
	HistoryArchives []string
	QuorumSet       string
}

// ConfigBundle builds the node's ConfigMap. It is regenerated from scratch on
// every reconcile.
func ConfigBundle(node *stellarv1alpha1.StellarNode) (*corev1.ConfigMap, error) {
	spec := &node.Spec
	data := map[string]string{
		KeyNetworkPassphrase: spec.Network.NetworkPassphrase(),
	}

	switch spec.NodeKind {
	case stellarv1alpha1.NodeKindValidator:
		cfg, err := renderCoreConfig(spec)
		if err != nil {
			return nil, err
		}
		data[KeyCoreConfig] = cfg
	case stellarv1alpha1.NodeKindGateway:
		if gw := spec.GatewayConfig; gw != nil {
			data[KeyCoreURL] = gw.CoreURL
			data[KeyIngest] = strconv.FormatBool(ptr.Deref(gw.EnableIngest, true))
			data[KeyIngestWorkers] = strconv.Itoa(int(max(gw.IngestWorkers, 1)))
			data[KeyExperimental] = strconv.FormatBool(gw.EnableExperimentalIngestion)
		}
	case stellarv1alpha1.NodeKindRpcNode:
		if rpc := spec.RpcConfig; rpc != nil {
			data[KeyCoreURL] = rpc.CoreURL
			data[KeyPreflight] = strconv.FormatBool(ptr.Deref(rpc.EnablePreflight, true))
			maxEvents := rpc.MaxEventsPerRequest
			if maxEvents <= 0 {
				maxEvents = 10000
			}
			data[KeyMaxEvents] = strconv.Itoa(int(maxEvents))
			if rpc.CaptiveCoreConfig != "" {
				data[KeyCaptiveCoreConfig] = rpc.CaptiveCoreConfig
			}
		}
	}

	return &corev1.ConfigMap{
		TypeMeta:   metav1.TypeMeta{APIVersion: "v1", Kind: "ConfigMap"},
		ObjectMeta: objectMeta(node, naming.ConfigBundle(node.Name)),
		Data:       data,
	}, nil
}

func renderCoreConfig(spec *stellarv1alpha1.StellarNodeSpec) (string, error) {
	in := coreConfigData{
		Passphrase: spec.Network.NetworkPassphrase(),
		PeerPort:   PeerPort,
		HTTPPort:   CoreHTTPPort,
	}
	if v := spec.ValidatorConfig; v != nil {
		in.CatchupComplete = v.CatchupComplete
		in.QuorumSet = v.QuorumSet
		if v.EnableHistoryArchive {
			in.HistoryArchives = v.HistoryArchiveURLs
		}
	}

	var buf bytes.Buffer
	if err := coreConfigTemplate.Execute(&buf, in); err != nil {
		return "", fmt.Errorf("failed to render %s: %w", KeyCoreConfig, err)
	}
	return buf.String(), nil
}
