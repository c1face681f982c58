package clim

import (
	"fmt"

	"go.uber.org/zap"
)

// guard runs fn and converts both errors and panics into fallback.
// Collaborator failures never escape a layer; they are logged with the
// calling method and the logger's identity fields.
func guard[T any](logger *zap.Logger, method string, fallback T, fn func() (T, error)) (result T) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Recovered from panic",
				zap.String("method", method),
				zap.String("panic", fmt.Sprint(r)))
			result = fallback
		}
	}()

	out, err := fn()
	if err != nil {
		logger.Error("Call failed",
			zap.String("method", method),
			zap.Error(err))
		return fallback
	}
	return out
}
