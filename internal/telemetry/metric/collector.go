package metric

import "github.com/prometheus/client_golang/prometheus"

// Sizer reports the number of entries in the status registry.
type Sizer interface {
	Len() (statuses, lastUpdates int)
}

// RegistryCollector exports the size of the status registry at scrape time.
type RegistryCollector struct {
	source Sizer
	desc   *prometheus.Desc
}

// NewRegistryCollector creates a collector reading sizes from source.
func NewRegistryCollector(source Sizer) *RegistryCollector {
	return &RegistryCollector{
		source: source,
		desc: prometheus.NewDesc(
			prometheus.BuildFQName(Namespace, "registry", "entries"),
			"Number of label sets held in each registry map.",
			[]string{"map"}, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *RegistryCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.desc
}

// Collect implements prometheus.Collector.
func (c *RegistryCollector) Collect(ch chan<- prometheus.Metric) {
	statuses, lastUpdates := c.source.Len()
	ch <- prometheus.MustNewConstMetric(c.desc, prometheus.GaugeValue, float64(statuses), "status")
	ch <- prometheus.MustNewConstMetric(c.desc, prometheus.GaugeValue, float64(lastUpdates), "lastupdate")
}
