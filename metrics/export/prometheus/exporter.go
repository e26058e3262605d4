// Package prometheus renders metric snapshots in the Prometheus text
// exposition format. It writes the format directly rather than depending on
// the client library; the metric set is fixed and label-free, so the heavy
// registry machinery buys nothing here.
package prometheus

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/MrEthical07/goTenantAuth/metrics/export/internaldefs"
)

// SnapshotFunc supplies the current counter values, typically
// Authority.MetricsSnapshot.
type SnapshotFunc func() internaldefs.Snapshot

// Exporter renders snapshots. Safe for concurrent scrapes; every scrape takes
// its own snapshot.
type Exporter struct {
	snapshot SnapshotFunc
}

func NewExporter(snapshot SnapshotFunc) *Exporter {
	return &Exporter{snapshot: snapshot}
}

// Handler returns an http.Handler for a /metrics route.
func (e *Exporter) Handler() http.Handler {
	return e
}

func (e *Exporter) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	e.WriteTo(w)
}

// WriteTo renders one full exposition.
func (e *Exporter) WriteTo(w io.Writer) (int64, error) {
	s := e.snapshot()
	var n int64

	for id, def := range internaldefs.CounterDefs {
		c, err := fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s counter\n%s %d\n",
			def.Name, def.Help, def.Name, def.Name, s.Counters[id])
		n += int64(c)
		if err != nil {
			return n, err
		}
	}

	if s.ValidateLatencyCount == 0 {
		return n, nil
	}

	name := internaldefs.ValidateLatencyName
	c, err := fmt.Fprintf(w, "# HELP %s Access token validation latency.\n# TYPE %s histogram\n", name, name)
	n += int64(c)
	if err != nil {
		return n, err
	}

	cumulative := internaldefs.CumulativeBuckets(s.ValidateLatency)
	for i, bound := range internaldefs.HistogramBounds {
		c, err := fmt.Fprintf(w, "%s_bucket{le=%q} %d\n",
			name, strconv.FormatFloat(bound, 'g', -1, 64), cumulative[i])
		n += int64(c)
		if err != nil {
			return n, err
		}
	}
	c, err = fmt.Fprintf(w, "%s_bucket{le=\"+Inf\"} %d\n%s_sum %g\n%s_count %d\n",
		name, cumulative[len(cumulative)-1], name, s.ValidateLatencySum, name, s.ValidateLatencyCount)
	n += int64(c)
	return n, err
}
