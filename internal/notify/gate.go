package notify

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Permission mirrors the browser notification permission states.
type Permission string

const (
	PermissionDefault Permission = "default"
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
)

// ParsePermission validates a permission string.
func ParsePermission(s string) (Permission, error) {
	switch p := Permission(s); p {
	case PermissionDefault, PermissionGranted, PermissionDenied:
		return p, nil
	}
	return "", fmt.Errorf("unknown notification permission %q", s)
}

// Requester asks the user for notification permission.
type Requester interface {
	RequestPermission(ctx context.Context) (Permission, error)
}

// RequesterFunc adapts a function to Requester.
type RequesterFunc func(ctx context.Context) (Permission, error)

func (f RequesterFunc) RequestPermission(ctx context.Context) (Permission, error) {
	return f(ctx)
}

// StaticRequester answers every request with the same decision.
func StaticRequester(p Permission) Requester {
	return RequesterFunc(func(context.Context) (Permission, error) { return p, nil })
}

// Gate forwards notifications to its sink only while permission is granted.
type Gate struct {
	mu         sync.RWMutex
	permission Permission
	requested  bool
	next       Sink
	logger     *zap.Logger
}

func NewGate(next Sink, initial Permission, logger *zap.Logger) *Gate {
	if logger == nil {
		logger = zap.NewNop()
	}
	if initial == "" {
		initial = PermissionDefault
	}
	return &Gate{next: next, permission: initial, logger: logger}
}

// RequestOnce asks r for permission if the state is still undetermined. Only
// the first call has any effect.
func (g *Gate) RequestOnce(ctx context.Context, r Requester) error {
	g.mu.Lock()
	if g.requested || g.permission != PermissionDefault {
		g.requested = true
		g.mu.Unlock()
		return nil
	}
	g.requested = true
	g.mu.Unlock()

	p, err := r.RequestPermission(ctx)
	if err != nil {
		return fmt.Errorf("request notification permission: %w", err)
	}
	g.Set(p)
	return nil
}

// Permission reports the current state.
func (g *Gate) Permission() Permission {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.permission
}

// Set records a decision reported by the presentation layer.
func (g *Gate) Set(p Permission) {
	g.mu.Lock()
	g.permission = p
	g.mu.Unlock()
	g.logger.Info("notification permission updated", zap.String("permission", string(p)))
}

func (g *Gate) Notify(ctx context.Context, n Notification) error {
	if g.Permission() != PermissionGranted {
		g.logger.Debug("notification suppressed",
			zap.String("kind", string(n.Kind)),
			zap.String("task_id", n.TaskID),
		)
		return nil
	}
	return g.next.Notify(ctx, n)
}
