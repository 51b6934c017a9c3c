// Package effects runs best-effort side effects of a successful mutation.
package effects

import "go.uber.org/zap"

// Run calls fn and logs a warning if it fails. The error never reaches
// the caller; the returned bool reports whether fn succeeded.
func Run(log *zap.Logger, name string, fn func() error) bool {
	if err := fn(); err != nil {
		log.Warn("side effect failed", zap.String("effect", name), zap.Error(err))
		return false
	}
	return true
}
