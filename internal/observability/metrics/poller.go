package metrics

import (
	"context"
	"time"

	"github.com/gitdigital/founder-loan-service/internal/types"
)

// pollerFunction alias is private and should be used only here
type pollerFunction = func(ctx context.Context) *types.Error

func RecordPollerDuration(typ string, f pollerFunction) pollerFunction {
	return func(ctx context.Context) *types.Error {
		startTime := time.Now()
		err := f(ctx)
		duration := time.Since(startTime).Seconds()

		pollerDurationHistogram.WithLabelValues(typ, outcome(err != nil).String()).Observe(duration)

		return err
	}
}
