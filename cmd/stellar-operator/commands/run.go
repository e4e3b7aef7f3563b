package commands

import (
	"flag"
	"os"

	"github.com/spf13/cobra"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"

	"github.com/stellar-k8s/stellar-operator/cmd/stellar-operator/handlers"
	"github.com/stellar-k8s/stellar-operator/internal/config"
)

// Run returns the command that starts the operator.
//
// Settings resolve as defaults, then --config file, then STELLAR_OPERATOR_*
// environment variables, then explicitly set flags.
func Run() *cobra.Command {
	var (
		configPath     string
		metricsAddr    string
		probeAddr      string
		apiAddr        string
		leaderElect    bool
		watchNamespace string
		cleanupPolicy  string
		maxConcurrent  int
	)

	zapOpts := zap.Options{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the StellarNode controller",
		Long: `Start the controller manager, the read-only node API and the health probes.

Only the replica holding the leader Lease reconciles; every replica serves
the node API and the probes.

Examples:
  # Run against the current kubeconfig context with defaults
  stellar-operator run

  # Watch a single namespace and keep finalizers until cleanup succeeds
  stellar-operator run --watch-namespace stellar --cleanup-policy Strict`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			flags := cmd.Flags()
			overrides := func(cfg *config.OperatorConfig) {
				if flags.Changed("metrics-bind-address") {
					cfg.MetricsBindAddress = metricsAddr
				}
				if flags.Changed("health-probe-bind-address") {
					cfg.HealthProbeBindAddress = probeAddr
				}
				if flags.Changed("api-bind-address") {
					cfg.APIBindAddress = apiAddr
				}
				if flags.Changed("leader-elect") {
					cfg.LeaderElection.Enabled = leaderElect
				}
				if flags.Changed("watch-namespace") {
					cfg.WatchNamespace = watchNamespace
				}
				if flags.Changed("cleanup-policy") {
					cfg.CleanupPolicy = cleanupPolicy
				}
				if flags.Changed("max-concurrent-reconciles") {
					cfg.MaxConcurrentReconciles = maxConcurrent
				}
			}

			zapOpts.Development = zapOpts.Development || isDebug()
			return handlers.Run(ctrl.SetupSignalHandler(), handlers.RunOptions{
				ConfigPath: configPath,
				Overrides:  overrides,
				Zap:        &zapOpts,
				Version:    version,
			})
		},
	}

	f := cmd.Flags()
	f.StringVarP(&configPath, "config", "c", "", "Path to operator configuration YAML file")
	f.StringVar(&metricsAddr, "metrics-bind-address", config.DefaultMetricsBindAddress, "The address the metric endpoint binds to")
	f.StringVar(&probeAddr, "health-probe-bind-address", config.DefaultHealthProbeBindAddress, "The address the probe endpoint binds to")
	f.StringVar(&apiAddr, "api-bind-address", config.DefaultAPIBindAddress, "The address the node API binds to (empty disables it)")
	f.BoolVar(&leaderElect, "leader-elect", true, "Enable Lease-based leader election")
	f.StringVar(&watchNamespace, "watch-namespace", "", "Only reconcile nodes in this namespace")
	f.StringVar(&cleanupPolicy, "cleanup-policy", config.CleanupBestEffort, "Finalizer behavior on cleanup failure (BestEffort or Strict)")
	f.IntVar(&maxConcurrent, "max-concurrent-reconciles", config.DefaultMaxConcurrentReconcile, "Number of nodes reconciled in parallel")

	zapFlags := flag.NewFlagSet("zap", flag.ContinueOnError)
	zapOpts.BindFlags(zapFlags)
	f.AddGoFlagSet(zapFlags)

	return cmd
}

func isDebug() bool {
	return os.Getenv("DEBUG") == "true"
}
