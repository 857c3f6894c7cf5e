/*
Package monitoring provides Prometheus metrics for the mirroring daemon.

# Overview

Metrics cover the control API, the session lifecycle, aspect-ratio
supervisors, global policy changes and calls into the device bridge.
Every record method tolerates a nil *Metrics so components can be built
without instrumentation in tests.

# Usage

	reg := prometheus.NewRegistry()
	metrics := monitoring.NewMetrics(reg)

	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	timer := monitoring.NewTimer(metrics, "shell")
	// ... run adb ...
	timer.Stop("success")
*/
package monitoring
