package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-logr/logr"
	"golang.org/x/sync/errgroup"
	"k8s.io/apimachinery/pkg/runtime"
	utilruntime "k8s.io/apimachinery/pkg/util/runtime"
	"k8s.io/client-go/kubernetes"
	clientgoscheme "k8s.io/client-go/kubernetes/scheme"
	"k8s.io/client-go/rest"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/cache"
	"sigs.k8s.io/controller-runtime/pkg/healthz"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"
	"sigs.k8s.io/controller-runtime/pkg/manager"
	metricsserver "sigs.k8s.io/controller-runtime/pkg/metrics/server"

	stellarv1alpha1 "github.com/stellar-k8s/stellar-operator/api/v1alpha1"
	"github.com/stellar-k8s/stellar-operator/internal/api"
	"github.com/stellar-k8s/stellar-operator/internal/config"
	"github.com/stellar-k8s/stellar-operator/internal/leader"
	"github.com/stellar-k8s/stellar-operator/internal/operator/controller"
)

// RunOptions carries the run command inputs.
type RunOptions struct {
	ConfigPath string
	// Overrides applies explicitly set flags on top of file and environment.
	Overrides func(*config.OperatorConfig)
	Zap       *zap.Options
	Version   string
}

// Factory function variables - can be replaced in tests for dependency injection.
var (
	getRESTConfig = ctrl.GetConfig
	newManager    = ctrl.NewManager
	newElector    = leaseElector
)

// NewScheme returns the scheme the operator and its clients use.
func NewScheme() *runtime.Scheme {
	scheme := runtime.NewScheme()
	utilruntime.Must(clientgoscheme.AddToScheme(scheme))
	utilruntime.Must(stellarv1alpha1.AddToScheme(scheme))
	return scheme
}

// ResolveConfig layers defaults, the optional file, the environment and
// flag overrides, then validates the result.
func ResolveConfig(path string, overrides func(*config.OperatorConfig)) (*config.OperatorConfig, error) {
	cfg := config.Default()
	if path != "" {
		loaded, err := config.LoadFile(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if overrides != nil {
		overrides(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Run starts the operator and blocks until ctx is cancelled or a component
// fails.
func Run(ctx context.Context, opts RunOptions) error {
	cfg, err := ResolveConfig(opts.ConfigPath, opts.Overrides)
	if err != nil {
		return err
	}

	zapOpts := opts.Zap
	if zapOpts == nil {
		zapOpts = &zap.Options{}
	}
	ctrl.SetLogger(zap.New(zap.UseFlagOptions(zapOpts)))
	setupLog := ctrl.Log.WithName("setup")
	setupLog.Info("starting stellar-operator", "version", opts.Version)

	restCfg, err := getRESTConfig()
	if err != nil {
		return fmt.Errorf("failed to load kubeconfig: %w", err)
	}

	if err := ensureKindServed(ctx, restCfg, setupLog); err != nil {
		return err
	}

	mgr, err := newManager(restCfg, managerOptions(cfg))
	if err != nil {
		return fmt.Errorf("unable to create manager: %w", err)
	}

	if err := setupReconciler(mgr, cfg); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return api.ListenAndServe(gctx, cfg.HealthProbeBindAddress, probeHandler(), ctrl.Log.WithName("probes"))
	})

	if cfg.APIBindAddress != "" {
		srv := api.NewServer(mgr.GetAPIReader(), cfg.APIBindAddress,
			api.WithVersion(opts.Version),
			api.WithLogger(ctrl.Log.WithName("api")),
		)
		g.Go(func() error { return srv.Start(gctx) })
	}

	g.Go(func() error {
		if !cfg.LeaderElection.Enabled {
			setupLog.Info("leader election disabled, starting manager")
			return mgr.Start(gctx)
		}
		elector, err := newElector(restCfg, cfg.LeaderElection)
		if err != nil {
			return err
		}
		setupLog.Info("waiting for leader lease",
			"lease", cfg.LeaderElection.LeaseName,
			"namespace", cfg.LeaderElection.Namespace,
			"identity", elector.Identity())
		return leader.Run(gctx, elector, leader.Timing{
			RenewDeadline: cfg.LeaderElection.RenewDeadline,
			RetryPeriod:   cfg.LeaderElection.RetryPeriod,
		}, mgr.Start)
	})

	return g.Wait()
}

func managerOptions(cfg *config.OperatorConfig) ctrl.Options {
	opts := ctrl.Options{
		Scheme: NewScheme(),
		Metrics: metricsserver.Options{
			BindAddress: cfg.MetricsBindAddress,
		},
		// Probes are served outside the manager so standby replicas answer them.
		HealthProbeBindAddress: "0",
		LeaderElection:         false,
	}
	if cfg.WatchNamespace != "" {
		opts.Cache = cache.Options{
			DefaultNamespaces: map[string]cache.Config{cfg.WatchNamespace: {}},
		}
	}
	return opts
}

func setupReconciler(mgr manager.Manager, cfg *config.OperatorConfig) error {
	policy, err := controller.ParseCleanupPolicy(cfg.CleanupPolicy)
	if err != nil {
		return err
	}

	err = controller.NewStellarNodeReconciler(
		mgr.GetClient(),
		mgr.GetScheme(),
		mgr.GetEventRecorderFor("stellarnode-controller"),
		controller.WithFieldManager(cfg.FieldManager),
		controller.WithCleanupPolicy(policy),
		controller.WithMaxConcurrentReconciles(cfg.MaxConcurrentReconciles),
		controller.WithRequeuePolicy(controller.RequeuePolicy{
			Resync:     cfg.ResyncInterval,
			Transient:  cfg.TransientRetryDelay,
			Validation: cfg.ValidationRetryDelay,
		}),
	).SetupWithManager(mgr)
	if err != nil {
		return fmt.Errorf("unable to create controller StellarNode: %w", err)
	}
	return nil
}

func probeHandler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/healthz", http.StripPrefix("/healthz", &healthz.Handler{
		Checks: map[string]healthz.Checker{"ping": healthz.Ping},
	}))
	mux.Handle("/readyz", http.StripPrefix("/readyz", &healthz.Handler{
		Checks: map[string]healthz.Checker{"ping": healthz.Ping},
	}))
	return mux
}

func leaseElector(restCfg *rest.Config, le config.LeaderElectionConfig) (leader.Elector, error) {
	cs, err := kubernetes.NewForConfig(restCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create kubernetes clientset: %w", err)
	}
	identity, err := leader.NewIdentity()
	if err != nil {
		return nil, err
	}
	lock := leader.NewLeaseLock(cs.CoordinationV1(), le.Namespace, le.LeaseName, identity)
	return leader.NewLeaseElector(lock, le.LeaseDuration), nil
}

func logRetry(log logr.Logger, what string) func(int, time.Duration, error) {
	return func(attempt int, delay time.Duration, err error) {
		log.Info("retrying "+what, "attempt", attempt, "delay", delay.String(), "error", err.Error())
	}
}
