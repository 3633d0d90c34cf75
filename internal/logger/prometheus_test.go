package logger

import (
	"github.com/maxaizer/jobmatch/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"io"
	"sync"
	"testing"
)

func Test_PrometheusHook_CountsErrorsByType(t *testing.T) {
	logger := log.New()
	logger.SetOutput(io.Discard)
	logger.AddHook(&prometheusHook{})

	before := testutil.ToFloat64(metrics.ErrorsCounter.WithLabelValues(ErrorTypeDb))
	unknownBefore := testutil.ToFloat64(metrics.ErrorsCounter.WithLabelValues("unknown"))

	logger.WithField(ErrorTypeField, ErrorTypeDb).Error("db is down")
	logger.Error("something else")
	logger.WithField(ErrorTypeField, ErrorTypeDb).Warn("not counted")

	assert.Equal(t, before+1, testutil.ToFloat64(metrics.ErrorsCounter.WithLabelValues(ErrorTypeDb)))
	assert.Equal(t, unknownBefore+1, testutil.ToFloat64(metrics.ErrorsCounter.WithLabelValues("unknown")))
}

func Test_AddPrometheusHook_RegistersOnce(t *testing.T) {
	countHooks := func() int {
		count := 0
		for _, hook := range log.StandardLogger().Hooks[log.ErrorLevel] {
			if _, ok := hook.(*prometheusHook); ok {
				count++
			}
		}
		return count
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			addPrometheusHook()
		}()
	}
	wg.Wait()
	addPrometheusHook()

	assert.Equal(t, 1, countHooks())
}
