package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/go-logr/logr"
	"k8s.io/apimachinery/pkg/api/meta"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/client-go/rest"
	"sigs.k8s.io/controller-runtime/pkg/client/apiutil"

	stellarv1alpha1 "github.com/stellar-k8s/stellar-operator/api/v1alpha1"
	"github.com/stellar-k8s/stellar-operator/internal/operator/controller"
	"github.com/stellar-k8s/stellar-operator/internal/util/retry"
)

// StellarNodeGVK is the kind the operator refuses to start without.
var StellarNodeGVK = stellarv1alpha1.GroupVersion.WithKind("StellarNode")

var discoveryRetry = []retry.Option{
	retry.WithMaxRetries(5),
	retry.WithInitialDelay(time.Second),
	retry.WithMaxDelay(10 * time.Second),
}

func ensureKindServed(ctx context.Context, restCfg *rest.Config, log logr.Logger) error {
	httpClient, err := rest.HTTPClientFor(restCfg)
	if err != nil {
		return fmt.Errorf("failed to create HTTP client: %w", err)
	}
	mapper, err := apiutil.NewDynamicRESTMapper(restCfg, httpClient)
	if err != nil {
		return fmt.Errorf("failed to create REST mapper: %w", err)
	}
	return checkKindServed(ctx, mapper, StellarNodeGVK, log, discoveryRetry...)
}

// checkKindServed waits for discovery to answer for gvk. A kind the API
// server does not know is a ConfigurationFault; other errors are retried.
func checkKindServed(ctx context.Context, mapper meta.RESTMapper, gvk schema.GroupVersionKind, log logr.Logger, opts ...retry.Option) error {
	opts = append(opts, retry.WithOnRetry(logRetry(log, "API discovery")))

	err := retry.Do(ctx, func(context.Context) error {
		_, err := mapper.RESTMapping(gvk.GroupKind(), gvk.Version)
		if meta.IsNoMatchError(err) {
			return retry.Fatal(err)
		}
		return err
	}, opts...)
	if err == nil {
		log.Info("API kind is served", "kind", gvk.String())
		return nil
	}
	if retry.IsFatal(err) {
		return &controller.ConfigurationFault{
			Reason: fmt.Sprintf("%s is not served by the API server, install the CRD from config/crd/bases", gvk.Kind),
			Err:    err,
		}
	}
	return fmt.Errorf("failed to discover %s: %w", gvk.Kind, err)
}
