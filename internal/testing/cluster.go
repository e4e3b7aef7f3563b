package testing

import (
	"context"
	"fmt"
	"sync"
	"testing"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/types"
	utilruntime "k8s.io/apimachinery/pkg/util/runtime"
	clientgoscheme "k8s.io/client-go/kubernetes/scheme"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/client/apiutil"
	"sigs.k8s.io/controller-runtime/pkg/client/fake"
	"sigs.k8s.io/controller-runtime/pkg/client/interceptor"

	stellarv1alpha1 "github.com/stellar-k8s/stellar-operator/api/v1alpha1"
)

// Verbs understood by FailOn.
const (
	VerbGet         = "get"
	VerbCreate      = "create"
	VerbUpdate      = "update"
	VerbApply       = "apply"
	VerbPatch       = "patch"
	VerbDelete      = "delete"
	VerbStatusPatch = "status"
)

// AnyKind matches every kind in FailOn.
const AnyKind = "*"

// NewScheme returns a scheme with the built-in kinds and StellarNode registered.
func NewScheme() *runtime.Scheme {
	scheme := runtime.NewScheme()
	utilruntime.Must(clientgoscheme.AddToScheme(scheme))
	utilruntime.Must(stellarv1alpha1.AddToScheme(scheme))
	return scheme
}

// Call records one intercepted client call.
type Call struct {
	Verb string
	Kind string
	Name string
}

func (c Call) String() string {
	return fmt.Sprintf("%s %s/%s", c.Verb, c.Kind, c.Name)
}

// FakeCluster is a fake API server client that emulates server-side apply as
// create-or-replace and fails selected calls on demand.
type FakeCluster struct {
	client.Client

	scheme *runtime.Scheme

	mu       sync.Mutex
	failures map[Call]error
	calls    []Call
}

// NewFakeCluster creates a FakeCluster seeded with objs.
func NewFakeCluster(t *testing.T, objs ...client.Object) *FakeCluster {
	t.Helper()

	f := &FakeCluster{
		scheme:   NewScheme(),
		failures: make(map[Call]error),
	}
	f.Client = fake.NewClientBuilder().
		WithScheme(f.scheme).
		WithObjects(objs...).
		WithStatusSubresource(&stellarv1alpha1.StellarNode{}).
		WithInterceptorFuncs(interceptor.Funcs{
			Get:              f.get,
			Create:           f.create,
			Update:           f.update,
			Patch:            f.patch,
			Delete:           f.delete,
			SubResourcePatch: f.subResourcePatch,
		}).
		Build()
	return f
}

// Scheme returns the scheme the fake client was built with.
func (f *FakeCluster) Scheme() *runtime.Scheme {
	return f.scheme
}

// FailOn makes every call of verb on kind return err. Use AnyKind to match
// all kinds and a nil err to clear the failure.
func (f *FakeCluster) FailOn(verb, kind string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := Call{Verb: verb, Kind: kind}
	if err == nil {
		delete(f.failures, key)
		return
	}
	f.failures[key] = err
}

// Calls returns the intercepted calls in order.
func (f *FakeCluster) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// CallsFor returns the intercepted calls with the given verb.
func (f *FakeCluster) CallsFor(verb string) []Call {
	var out []Call
	for _, c := range f.Calls() {
		if c.Verb == verb {
			out = append(out, c)
		}
	}
	return out
}

// ResetCalls clears the recorded calls.
func (f *FakeCluster) ResetCalls() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
}

// Exists reports whether obj's kind and key are present in the cluster.
func (f *FakeCluster) Exists(ctx context.Context, obj client.Object) bool {
	err := f.Client.Get(ctx, client.ObjectKeyFromObject(obj), obj)
	return err == nil
}

func (f *FakeCluster) record(verb string, obj client.Object, name string) error {
	kind := f.kindOf(obj)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, Call{Verb: verb, Kind: kind, Name: name})
	if err, ok := f.failures[Call{Verb: verb, Kind: kind}]; ok {
		return err
	}
	if err, ok := f.failures[Call{Verb: verb, Kind: AnyKind}]; ok {
		return err
	}
	return nil
}

func (f *FakeCluster) kindOf(obj client.Object) string {
	gvk, err := apiutil.GVKForObject(obj, f.scheme)
	if err != nil {
		return fmt.Sprintf("%T", obj)
	}
	return gvk.Kind
}

func (f *FakeCluster) get(ctx context.Context, c client.WithWatch, key client.ObjectKey, obj client.Object, opts ...client.GetOption) error {
	if err := f.record(VerbGet, obj, key.Name); err != nil {
		return err
	}
	return c.Get(ctx, key, obj, opts...)
}

func (f *FakeCluster) create(ctx context.Context, c client.WithWatch, obj client.Object, opts ...client.CreateOption) error {
	if err := f.record(VerbCreate, obj, obj.GetName()); err != nil {
		return err
	}
	return c.Create(ctx, obj, opts...)
}

func (f *FakeCluster) update(ctx context.Context, c client.WithWatch, obj client.Object, opts ...client.UpdateOption) error {
	if err := f.record(VerbUpdate, obj, obj.GetName()); err != nil {
		return err
	}
	return c.Update(ctx, obj, opts...)
}

func (f *FakeCluster) delete(ctx context.Context, c client.WithWatch, obj client.Object, opts ...client.DeleteOption) error {
	if err := f.record(VerbDelete, obj, obj.GetName()); err != nil {
		return err
	}
	return c.Delete(ctx, obj, opts...)
}

func (f *FakeCluster) subResourcePatch(ctx context.Context, c client.Client, sub string, obj client.Object, patch client.Patch, opts ...client.SubResourcePatchOption) error {
	if err := f.record(VerbStatusPatch, obj, obj.GetName()); err != nil {
		return err
	}
	return c.SubResource(sub).Patch(ctx, obj, patch, opts...)
}

func (f *FakeCluster) patch(ctx context.Context, c client.WithWatch, obj client.Object, patch client.Patch, opts ...client.PatchOption) error {
	u, isApply := obj.(*unstructured.Unstructured)
	if patch.Type() != types.ApplyPatchType || !isApply {
		if err := f.record(VerbPatch, obj, obj.GetName()); err != nil {
			return err
		}
		return c.Patch(ctx, obj, patch, opts...)
	}

	if err := f.record(VerbApply, obj, obj.GetName()); err != nil {
		return err
	}
	return applyAsUpsert(ctx, c, u)
}

// applyAsUpsert replaces the stored object with u, keeping its status, or
// creates it when absent.
func applyAsUpsert(ctx context.Context, c client.WithWatch, u *unstructured.Unstructured) error {
	existing := &unstructured.Unstructured{}
	existing.SetGroupVersionKind(u.GroupVersionKind())

	err := c.Get(ctx, client.ObjectKeyFromObject(u), existing)
	if apierrors.IsNotFound(err) {
		return c.Create(ctx, u)
	}
	if err != nil {
		return err
	}

	u.SetResourceVersion(existing.GetResourceVersion())
	u.SetUID(existing.GetUID())
	if status, ok := existing.Object["status"]; ok {
		u.Object["status"] = status
	}
	return c.Update(ctx, u)
}
