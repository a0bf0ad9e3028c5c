// Package metrics records Prometheus metrics for model calls and program
// steps.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hupe1980/fittelligence/model"
)

// Recorder holds the FitTelligence collectors on a private registry.
type Recorder struct {
	registry        *prometheus.Registry
	requestsTotal   *prometheus.CounterVec
	tokensTotal     *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	stepsTotal      *prometheus.CounterVec
	stepDuration    *prometheus.HistogramVec
}

// NewRecorder creates a recorder with its own registry.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fittelligence_model_requests_total",
				Help: "Total number of model requests by model, provider and status",
			},
			[]string{"model", "provider", "status"},
		),
		tokensTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fittelligence_model_tokens_total",
				Help: "Total number of tokens reported by model responses",
			},
			[]string{"model", "provider", "type"},
		),
		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fittelligence_model_request_duration_seconds",
				Help:    "Duration of model requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"model", "provider"},
		),
		stepsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fittelligence_program_steps_total",
				Help: "Total number of program steps by step, agent and status",
			},
			[]string{"step", "agent", "status"},
		),
		stepDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fittelligence_program_step_duration_seconds",
				Help:    "Duration of program steps in seconds",
				Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80, 160},
			},
			[]string{"agent"},
		),
	}
}

// Registry exposes the underlying registry, mainly for tests.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// Handler serves the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

func status(success bool) string {
	if success {
		return "success"
	}
	return "error"
}

// ObserveModelCall records a completed model request.
func (r *Recorder) ObserveModelCall(info model.Info, usage *model.TokenUsage, success bool, duration time.Duration) {
	r.requestsTotal.WithLabelValues(info.Name, info.Provider, status(success)).Inc()
	r.requestDuration.WithLabelValues(info.Name, info.Provider).Observe(duration.Seconds())

	if success && usage != nil {
		r.tokensTotal.WithLabelValues(info.Name, info.Provider, "prompt").Add(float64(usage.PromptTokens))
		r.tokensTotal.WithLabelValues(info.Name, info.Provider, "completion").Add(float64(usage.CompletionTokens))
	}
}

// ObserveStep records one program step.
func (r *Recorder) ObserveStep(step int, agent string, success bool, duration time.Duration) {
	r.stepsTotal.WithLabelValues(strconv.Itoa(step), agent, status(success)).Inc()
	r.stepDuration.WithLabelValues(agent).Observe(duration.Seconds())
}

// Middleware returns a model middleware that observes every Generate call.
// The call is timed until the provider closes its channels.
func (r *Recorder) Middleware() model.Middleware {
	return func(next model.Model) model.Model {
		info := next.Info()

		return model.WrapFunc(info, func(ctx context.Context, req model.Request) (<-chan model.Response, <-chan error) {
			start := time.Now()
			respCh, errCh := next.Generate(ctx, req)

			out := make(chan model.Response, cap(respCh))
			outErr := make(chan error, 1)

			go func() {
				defer close(out)
				defer close(outErr)

				var (
					usage  *model.TokenUsage
					failed bool
				)

				for respCh != nil || errCh != nil {
					select {
					case resp, ok := <-respCh:
						if !ok {
							respCh = nil
							continue
						}
						if resp.Usage != nil {
							usage = resp.Usage
						}
						out <- resp
					case err, ok := <-errCh:
						if !ok {
							errCh = nil
							continue
						}
						if err != nil {
							failed = true
							outErr <- err
						}
					}
				}

				r.ObserveModelCall(info, usage, !failed, time.Since(start))
			}()

			return out, outErr
		})
	}
}
