package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"launchpad/internal/launchpad"
)

// value sums every sample of a counter family whose labels include want
func value(t *testing.T, m *Metrics, name string, want map[string]string) float64 {
	families, err := m.Registry.Gather()
	require.NoError(t, err)
	var total float64
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
	next:
		for _, metric := range mf.GetMetric() {
			labels := map[string]string{}
			for _, l := range metric.GetLabel() {
				labels[l.GetName()] = l.GetValue()
			}
			for k, v := range want {
				if labels[k] != v {
					continue next
				}
			}
			total += metric.GetCounter().GetValue()
		}
	}
	return total
}

func TestPublish(t *testing.T) {
	m := New()
	auction := solana.NewWallet().PublicKey()
	mint := solana.NewWallet().PublicKey()

	t.Run("Trade", func(t *testing.T) {
		m.Publish(launchpad.Event{Kind: launchpad.EventTradeExecuted, Auction: auction, Trade: &launchpad.TradeEvent{
			PaymentMint: mint, FillAmount: 30, Fee: 36, Whitelisted: true,
		}})
		assert.Equal(t, 1.0, value(t, m, "launchpad_trades_total", map[string]string{"segment": "whitelisted"}))
		assert.Equal(t, 30.0, value(t, m, "launchpad_filled_units_total", map[string]string{"auction": auction.String()}))
		assert.Equal(t, 36.0, value(t, m, "launchpad_fees_total", map[string]string{"kind": "trade"}))
	})

	t.Run("Unfilled Bid", func(t *testing.T) {
		m.Publish(launchpad.Event{Kind: launchpad.EventBidUnfilled, Auction: auction, Trade: &launchpad.TradeEvent{PaymentMint: mint, Fee: 9}})
		assert.Equal(t, 1.0, value(t, m, "launchpad_unfilled_bids_total", nil))
		assert.Equal(t, 9.0, value(t, m, "launchpad_fees_total", map[string]string{"kind": "invalid_bid"}))
	})

	t.Run("Quorum And Rejections", func(t *testing.T) {
		m.Publish(launchpad.Event{Kind: launchpad.EventQuorumSigned, Quorum: &launchpad.QuorumStatus{Instruction: "set_fees"}})
		m.Publish(launchpad.Event{Kind: launchpad.EventQuorumExecuted, Quorum: &launchpad.QuorumStatus{Instruction: "set_fees", Executed: true}})
		m.Publish(launchpad.Event{Kind: launchpad.EventCommandRejected, Op: "place_bid", ErrorCode: launchpad.CodeAuctionEnded})
		m.Publish(launchpad.Event{Kind: launchpad.EventAuctionDeleted, Auction: auction})

		assert.Equal(t, 1.0, value(t, m, "launchpad_quorum_signatures_total", map[string]string{"executed": "true"}))
		assert.Equal(t, 2.0, value(t, m, "launchpad_quorum_signatures_total", map[string]string{"instruction": "set_fees"}))
		assert.Equal(t, 1.0, value(t, m, "launchpad_rejected_commands_total", map[string]string{"code": "AuctionEnded"}))
		assert.Equal(t, 1.0, value(t, m, "launchpad_auctions_deleted_total", nil))
	})
}

func TestHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := New()
	r := gin.New()
	r.Use(m.Monitor())
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	r.GET("/metrics", gin.WrapH(m.Handler()))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), `launchpad_api_seconds_count{http_status="200",route="/ping"} 1`))
}
