package observability

import "github.com/aretw0/foreman/pkg/domain"

// Combine merges hook sets; callbacks run in argument order.
func Combine(hooks ...domain.LifecycleHooks) domain.LifecycleHooks {
	var out domain.LifecycleHooks
	for _, h := range hooks {
		out = out.Merge(h)
	}
	return out
}
