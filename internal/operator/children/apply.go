package children

import (
	"context"
	"fmt"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"
)

// mergeApply upserts obj with server-side apply under the manager's field
// owner, reclaiming fields held by other writers. obj must carry TypeMeta.
func (m *Manager) mergeApply(ctx context.Context, obj client.Object) error {
	u, err := toApplyObject(obj)
	if err != nil {
		return err
	}

	//nolint:staticcheck // client.Apply patches keep the typed builders usable.
	if err := m.client.Patch(ctx, u, client.Apply, client.FieldOwner(m.fieldManager), client.ForceOwnership); err != nil {
		return fmt.Errorf("server-side apply failed: %w", err)
	}
	return nil
}

// toApplyObject converts a typed object into the unstructured form sent as
// an apply configuration. Server-populated fields are dropped so the
// manager never claims ownership of them.
func toApplyObject(obj client.Object) (*unstructured.Unstructured, error) {
	gvk := obj.GetObjectKind().GroupVersionKind()
	if gvk.Kind == "" {
		return nil, fmt.Errorf("object %s has no kind set", obj.GetName())
	}

	content, err := runtime.DefaultUnstructuredConverter.ToUnstructured(obj)
	if err != nil {
		return nil, fmt.Errorf("failed to convert %s %s: %w", gvk.Kind, obj.GetName(), err)
	}

	u := &unstructured.Unstructured{Object: content}
	unstructured.RemoveNestedField(u.Object, "status")
	unstructured.RemoveNestedField(u.Object, "metadata", "creationTimestamp")
	u.SetGroupVersionKind(gvk)
	return u, nil
}
