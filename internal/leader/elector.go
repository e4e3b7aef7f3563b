package leader

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	coordinationv1client "k8s.io/client-go/kubernetes/typed/coordination/v1"
	"k8s.io/client-go/tools/leaderelection/resourcelock"
)

// ErrNotLeader is returned by Renew when another holder owns the lease.
var ErrNotLeader = errors.New("lease is held by another identity")

// Elector is the acquire/renew/release capability the operator runs under.
type Elector interface {
	// Acquire makes one attempt to take the lease and reports whether this
	// identity now holds it.
	Acquire(ctx context.Context) (bool, error)
	// Renew extends a held lease.
	Renew(ctx context.Context) error
	// Release gives up the lease if this identity holds it.
	Release(ctx context.Context) error
	// Identity returns the holder identity written to the lease.
	Identity() string
}

// LeaseElector implements Elector on a resourcelock.Interface.
type LeaseElector struct {
	lock          resourcelock.Interface
	leaseDuration time.Duration
	now           func() time.Time

	mu sync.Mutex
}

// NewLeaseElector creates an elector over lock with the given lease TTL.
func NewLeaseElector(lock resourcelock.Interface, leaseDuration time.Duration) *LeaseElector {
	return &LeaseElector{
		lock:          lock,
		leaseDuration: leaseDuration,
		now:           time.Now,
	}
}

// NewLeaseLock builds a Lease-backed lock for identity.
func NewLeaseLock(c coordinationv1client.LeasesGetter, namespace, name, identity string) *resourcelock.LeaseLock {
	return &resourcelock.LeaseLock{
		LeaseMeta:  metav1.ObjectMeta{Namespace: namespace, Name: name},
		Client:     c,
		LockConfig: resourcelock.ResourceLockConfig{Identity: identity},
	}
}

// NewIdentity returns a holder identity unique to this process.
func NewIdentity() (string, error) {
	host, err := os.Hostname()
	if err != nil {
		return "", fmt.Errorf("failed to get hostname: %w", err)
	}
	return host + "_" + uuid.NewString(), nil
}

// Identity implements Elector.
func (e *LeaseElector) Identity() string {
	return e.lock.Identity()
}

// Acquire implements Elector.
func (e *LeaseElector) Acquire(ctx context.Context) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := metav1.NewTime(e.now())
	desired := resourcelock.LeaderElectionRecord{
		HolderIdentity:       e.Identity(),
		LeaseDurationSeconds: int(e.leaseDuration / time.Second),
		AcquireTime:          now,
		RenewTime:            now,
	}

	current, _, err := e.lock.Get(ctx)
	if apierrors.IsNotFound(err) {
		if err := e.lock.Create(ctx, desired); err != nil {
			return false, fmt.Errorf("failed to create lease %s: %w", e.lock.Describe(), err)
		}
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get lease %s: %w", e.lock.Describe(), err)
	}

	if current.HolderIdentity == e.Identity() {
		desired.AcquireTime = current.AcquireTime
		desired.LeaderTransitions = current.LeaderTransitions
	} else {
		if current.HolderIdentity != "" && !e.expired(current) {
			return false, nil
		}
		desired.LeaderTransitions = current.LeaderTransitions + 1
	}

	if err := e.lock.Update(ctx, desired); err != nil {
		return false, fmt.Errorf("failed to update lease %s: %w", e.lock.Describe(), err)
	}
	return true, nil
}

// Renew implements Elector.
func (e *LeaseElector) Renew(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	current, _, err := e.lock.Get(ctx)
	if err != nil {
		return fmt.Errorf("failed to get lease %s: %w", e.lock.Describe(), err)
	}
	if current.HolderIdentity != e.Identity() {
		return ErrNotLeader
	}

	renewed := *current
	renewed.RenewTime = metav1.NewTime(e.now())
	renewed.LeaseDurationSeconds = int(e.leaseDuration / time.Second)
	if err := e.lock.Update(ctx, renewed); err != nil {
		return fmt.Errorf("failed to renew lease %s: %w", e.lock.Describe(), err)
	}
	return nil
}

// Release implements Elector.
func (e *LeaseElector) Release(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	current, _, err := e.lock.Get(ctx)
	if apierrors.IsNotFound(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to get lease %s: %w", e.lock.Describe(), err)
	}
	if current.HolderIdentity != e.Identity() {
		return nil
	}

	now := metav1.NewTime(e.now())
	released := resourcelock.LeaderElectionRecord{
		LeaseDurationSeconds: 1,
		AcquireTime:          now,
		RenewTime:            now,
		LeaderTransitions:    current.LeaderTransitions,
	}
	if err := e.lock.Update(ctx, released); err != nil {
		return fmt.Errorf("failed to release lease %s: %w", e.lock.Describe(), err)
	}
	return nil
}

func (e *LeaseElector) expired(rec *resourcelock.LeaderElectionRecord) bool {
	ttl := time.Duration(rec.LeaseDurationSeconds) * time.Second
	return !rec.RenewTime.Add(ttl).After(e.now())
}
