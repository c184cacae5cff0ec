package metrics

import (
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luishpmendes/mofjssp/internal/fjsp"
	"github.com/luishpmendes/mofjssp/internal/opt"
)

func TestObserveRun(t *testing.T) {
	c := New()
	res := opt.Result{
		Evaluations: 120,
		Front: []opt.Point{
			{Value: fjsp.Objectives{10, 40, 6, 30}},
			{Value: fjsp.Objectives{12, 35, 5, 32}},
		},
	}
	c.ObserveRun("GA", res, 2*time.Second)
	c.ObserveRun("GA", opt.Result{Evaluations: 30}, time.Second)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.Runs.WithLabelValues("GA")))
	assert.Equal(t, 150.0, testutil.ToFloat64(c.Evaluations.WithLabelValues("GA")))
	assert.Equal(t, 0.0, testutil.ToFloat64(c.FrontSize.WithLabelValues("GA")))
	assert.Equal(t, 10.0, testutil.ToFloat64(c.BestObjective.WithLabelValues("GA", "makespan")))
	assert.Equal(t, 35.0, testutil.ToFloat64(c.BestObjective.WithLabelValues("GA", "total_completion_time")))
	assert.Equal(t, 5.0, testutil.ToFloat64(c.BestObjective.WithLabelValues("GA", "max_workload")))
	assert.Equal(t, 30.0, testutil.ToFloat64(c.BestObjective.WithLabelValues("GA", "total_workload")))
}

func TestHandler(t *testing.T) {
	c := New()
	c.ObserveRun("PSO", opt.Result{Evaluations: 7}, time.Millisecond)

	srv := httptest.NewServer(c.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `mofjssp_evaluations_total{algo="PSO"} 7`)
}

func TestServe_StopsWithContext(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- New().Serve(ctx, addr, slog.New(slog.DiscardHandler)) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/metrics")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
