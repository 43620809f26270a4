package httpapi

import (
	"net/http"
	"time"

	"github.com/go-mizu/mizu"

	"github.com/wizenheimer/marcodex/internal/query"
)

// queryResponse is the JSON envelope returned by both query endpoints.
type queryResponse struct {
	Query   string          `json:"query"`
	Mode    string          `json:"mode"`
	Results []query.Result `json:"results"`
}

// statsResponse backs GET /stats, a debug view of the loaded index.
type statsResponse struct {
	TotalDocs  uint32  `json:"total_docs"`
	AvgDocLen  float64 `json:"avg_doc_len"`
	TotalTerms int     `json:"total_terms_seen"`
}

func disjunctiveHandler(proc *query.Processor) mizu.HandlerFunc {
	return queryHandler(proc, "disjunctive", proc.Disjunctive)
}

func conjunctiveHandler(proc *query.Processor) mizu.HandlerFunc {
	return queryHandler(proc, "conjunctive", proc.Conjunctive)
}

// queryHandler wraps a Processor query method with parameter parsing,
// metrics, and spec.md §7's "empty/unknown query yields empty results,
// not an error" response policy.
func queryHandler(proc *query.Processor, mode string, run func(string) ([]query.Result, error)) mizu.HandlerFunc {
	return func(c *mizu.Ctx) error {
		q := c.Query("query")

		start := time.Now()
		results, err := run(q)
		queryLatencySeconds.WithLabelValues(mode).Observe(time.Since(start).Seconds())

		if err != nil {
			queriesTotal.WithLabelValues(mode, "error").Inc()
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
		}

		queriesTotal.WithLabelValues(mode, "ok").Inc()
		resultsReturned.WithLabelValues(mode).Observe(float64(len(results)))

		return c.JSON(http.StatusOK, queryResponse{Query: q, Mode: mode, Results: results})
	}
}

func statsHandler(proc *query.Processor) mizu.HandlerFunc {
	return func(c *mizu.Ctx) error {
		return c.JSON(http.StatusOK, statsResponse{
			TotalDocs:  proc.TotalDocs(),
			AvgDocLen:  proc.AvgDocLen(),
			TotalTerms: proc.TotalTerms(),
		})
	}
}

func healthzHandler() mizu.HandlerFunc {
	return func(c *mizu.Ctx) error {
		return c.Text(http.StatusOK, "ok\n")
	}
}
