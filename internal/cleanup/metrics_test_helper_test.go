package cleanup

import "github.com/prometheus/client_golang/prometheus"

// prometheusRegistryForTest gives each test its own collector registry so
// repeated NewMetrics calls across test functions don't collide with the
// package-level defaultMetrics registered against the default registerer.
func prometheusRegistryForTest() prometheus.Registerer {
	return prometheus.NewRegistry()
}
