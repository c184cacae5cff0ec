// Package metrics exposes search progress as Prometheus metrics.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/luishpmendes/mofjssp/internal/opt"
)

var objectiveLabels = [...]string{"makespan", "total_completion_time", "max_workload", "total_workload"}

var durationBuckets = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 300}

// Collector owns a private registry, so several collectors never clash.
type Collector struct {
	registry *prometheus.Registry

	Runs          *prometheus.CounterVec
	Evaluations   *prometheus.CounterVec
	RunDuration   *prometheus.HistogramVec
	FrontSize     *prometheus.GaugeVec
	BestObjective *prometheus.GaugeVec
}

func New() *Collector {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Collector{
		registry: reg,
		Runs: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "mofjssp_runs_total",
			Help: "The total number of finished engine runs",
		}, []string{"algo"}),
		Evaluations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "mofjssp_evaluations_total",
			Help: "The total number of decoded keys",
		}, []string{"algo"}),
		RunDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "mofjssp_run_duration_seconds",
			Help:    "Engine run duration",
			Buckets: durationBuckets,
		}, []string{"algo"}),
		FrontSize: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "mofjssp_front_size",
			Help: "Size of the last returned front",
		}, []string{"algo"}),
		BestObjective: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "mofjssp_best_objective",
			Help: "Best value of each objective in the last returned front",
		}, []string{"algo", "objective"}),
	}
}

func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// ObserveRun records one finished run. Its signature matches bench.Runner.OnRun.
func (c *Collector) ObserveRun(algo string, res opt.Result, dur time.Duration) {
	c.Runs.WithLabelValues(algo).Inc()
	c.Evaluations.WithLabelValues(algo).Add(float64(res.Evaluations))
	c.RunDuration.WithLabelValues(algo).Observe(dur.Seconds())
	c.FrontSize.WithLabelValues(algo).Set(float64(len(res.Front)))
	if len(res.Front) == 0 {
		return
	}
	for k, name := range objectiveLabels {
		best := res.Front[0].Value[k]
		for _, p := range res.Front[1:] {
			best = min(best, p.Value[k])
		}
		c.BestObjective.WithLabelValues(algo, name).Set(best)
	}
}

func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// Serve exposes /metrics on addr until ctx is done.
func (c *Collector) Serve(ctx context.Context, addr string, logger *slog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("metrics endpoint listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
