package monitor

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/sentinel-fabric/telemetry/internal/telemetry/stats"
)

// statsCollector exposes the aggregator's counters to Prometheus at scrape
// time, so the exporter never holds a second copy of the counts.
type statsCollector struct {
	agg *stats.Aggregator

	rxTotal        *prometheus.Desc
	malformedTotal *prometheus.Desc
	gapTotal       *prometheus.Desc
	reorderTotal   *prometheus.Desc
	duplicateTotal *prometheus.Desc
	crcFailTotal   *prometheus.Desc
	sourceRx       *prometheus.Desc
}

func newStatsCollector(agg *stats.Aggregator) *statsCollector {
	return &statsCollector{
		agg: agg,
		rxTotal: prometheus.NewDesc("gateway_rx_total",
			"Frames received and parsed", nil, nil),
		malformedTotal: prometheus.NewDesc("gateway_malformed_total",
			"Frames that failed validation", nil, nil),
		gapTotal: prometheus.NewDesc("gateway_gap_total",
			"Missing sequence numbers observed", nil, nil),
		reorderTotal: prometheus.NewDesc("gateway_reorder_total",
			"Out-of-order frames observed", nil, nil),
		duplicateTotal: prometheus.NewDesc("gateway_duplicate_total",
			"Duplicated frames observed", nil, nil),
		crcFailTotal: prometheus.NewDesc("gateway_crc_fail_total",
			"Frames that failed CRC validation", nil, nil),
		sourceRx: prometheus.NewDesc("gateway_source_rx_count",
			"Frames received per source", []string{"src_id"}, nil),
	}
}

func (c *statsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.rxTotal
	ch <- c.malformedTotal
	ch <- c.gapTotal
	ch <- c.reorderTotal
	ch <- c.duplicateTotal
	ch <- c.crcFailTotal
	ch <- c.sourceRx
}

func (c *statsCollector) Collect(ch chan<- prometheus.Metric) {
	g := c.agg.GetGlobal()
	ch <- prometheus.MustNewConstMetric(c.rxTotal, prometheus.CounterValue, float64(g.RxTotal))
	ch <- prometheus.MustNewConstMetric(c.malformedTotal, prometheus.CounterValue, float64(g.MalformedTotal))
	ch <- prometheus.MustNewConstMetric(c.gapTotal, prometheus.CounterValue, float64(g.GapTotal))
	ch <- prometheus.MustNewConstMetric(c.reorderTotal, prometheus.CounterValue, float64(g.ReorderTotal))
	ch <- prometheus.MustNewConstMetric(c.duplicateTotal, prometheus.CounterValue, float64(g.DuplicateTotal))
	ch <- prometheus.MustNewConstMetric(c.crcFailTotal, prometheus.CounterValue, float64(g.CRCFailTotal))

	for _, s := range c.agg.GetAllSources() {
		ch <- prometheus.MustNewConstMetric(c.sourceRx, prometheus.CounterValue,
			float64(s.RxCount), formatSrcID(s.SrcID))
	}
}
