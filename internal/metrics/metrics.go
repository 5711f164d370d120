package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"launchpad/internal/launchpad"
)

// Metrics records launchpad activity on its own registry
type Metrics struct {
	Registry *prometheus.Registry

	trades       *prometheus.CounterVec
	filledUnits  *prometheus.CounterVec
	tradeFees    *prometheus.CounterVec
	unfilledBids *prometheus.CounterVec
	quorum       *prometheus.CounterVec
	deleted      prometheus.Counter
	rejected     *prometheus.CounterVec
	api          *prometheus.SummaryVec
}

func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		trades: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "launchpad_trades_total",
			Help: "Bids that filled at least one unit.",
		}, []string{"auction", "segment"}),
		filledUnits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "launchpad_filled_units_total",
			Help: "Auction units dispensed to bidders.",
		}, []string{"auction", "segment"}),
		tradeFees: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "launchpad_fees_total",
			Help: "Fees charged on bids, in payment custody base units.",
		}, []string{"payment_mint", "kind"}),
		unfilledBids: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "launchpad_unfilled_bids_total",
			Help: "Bids that filled nothing and paid the invalid bid fee.",
		}, []string{"auction"}),
		quorum: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "launchpad_quorum_signatures_total",
			Help: "Admin signatures, labelled by whether they executed the command.",
		}, []string{"instruction", "executed"}),
		deleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "launchpad_auctions_deleted_total",
			Help: "Auctions closed by the admins.",
		}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "launchpad_rejected_commands_total",
			Help: "Commands rejected with an error code.",
		}, []string{"op", "code"}),
		api: prometheus.NewSummaryVec(prometheus.SummaryOpts{
			Name:       "launchpad_api_seconds",
			Help:       "HTTP handler latency.",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		}, []string{"route", "http_status"}),
	}
	m.Registry.MustRegister(m.trades, m.filledUnits, m.tradeFees, m.unfilledBids, m.quorum, m.deleted, m.rejected, m.api)
	return m
}

func segment(whitelisted bool) string {
	if whitelisted {
		return "whitelisted"
	}
	return "regular"
}

// Publish makes Metrics an engine event sink
func (m *Metrics) Publish(ev launchpad.Event) {
	switch ev.Kind {
	case launchpad.EventTradeExecuted:
		if ev.Trade == nil {
			return
		}
		seg := segment(ev.Trade.Whitelisted)
		m.trades.WithLabelValues(ev.Auction.String(), seg).Inc()
		m.filledUnits.WithLabelValues(ev.Auction.String(), seg).Add(float64(ev.Trade.FillAmount))
		m.tradeFees.WithLabelValues(ev.Trade.PaymentMint.String(), "trade").Add(float64(ev.Trade.Fee))
	case launchpad.EventBidUnfilled:
		m.unfilledBids.WithLabelValues(ev.Auction.String()).Inc()
		if ev.Trade != nil {
			m.tradeFees.WithLabelValues(ev.Trade.PaymentMint.String(), "invalid_bid").Add(float64(ev.Trade.Fee))
		}
	case launchpad.EventQuorumSigned, launchpad.EventQuorumExecuted:
		if ev.Quorum == nil {
			return
		}
		m.quorum.WithLabelValues(ev.Quorum.Instruction, fmt.Sprint(ev.Quorum.Executed)).Inc()
	case launchpad.EventAuctionDeleted:
		m.deleted.Inc()
	case launchpad.EventCommandRejected:
		m.rejected.WithLabelValues(ev.Op, ev.ErrorCode).Inc()
	}
}

// Monitor observes handler latency per route
func (m *Metrics) Monitor() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.api.WithLabelValues(route, fmt.Sprint(c.Writer.Status())).Observe(time.Since(start).Seconds())
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}
