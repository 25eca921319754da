package metrics

import (
	"net/http/pprof"
	"runtime"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// GaugeSource reports a live value sampled on every scrape.
type GaugeSource struct {
	Name  string
	Value func() float64
}

// GetHandler mounts the prometheus scrape endpoint and pprof on router.
func GetHandler(router *gin.RouterGroup, m Manager, sources ...GaugeSource) {
	router.GET("/metrics", systemMetricsMiddleware(m, sources), gin.WrapH(promhttp.Handler()))

	pprofGroup := router.Group("/debug/pprof")
	{
		pprofGroup.GET("/", gin.WrapF(pprof.Index))
		pprofGroup.GET("/cmdline", gin.WrapF(pprof.Cmdline))
		pprofGroup.GET("/profile", gin.WrapF(pprof.Profile))
		pprofGroup.GET("/symbol", gin.WrapF(pprof.Symbol))
		pprofGroup.GET("/trace", gin.WrapF(pprof.Trace))
		for _, profile := range []string{"allocs", "block", "goroutine", "heap", "mutex", "threadcreate"} {
			pprofGroup.GET("/"+profile, gin.WrapH(pprof.Handler(profile)))
		}
	}
}

func systemMetricsMiddleware(m Manager, sources []GaugeSource) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		var stats runtime.MemStats
		runtime.ReadMemStats(&stats)

		m.SetGauge("app_go_routines", float64(runtime.NumGoroutine()))
		m.SetGauge("app_sys_memory_alloc", float64(stats.Alloc))
		m.SetGauge("app_sys_total_alloc", float64(stats.TotalAlloc))
		m.SetGauge("app_go_numGC", float64(stats.NumGC))
		m.SetGauge("app_go_sys", float64(stats.Sys))

		for _, s := range sources {
			m.SetGauge(s.Name, s.Value())
		}

		ctx.Next()
	}
}
