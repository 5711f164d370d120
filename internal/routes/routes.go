package routes

import (
	"net/http"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/gin-gonic/gin"

	"launchpad/internal/events"
	"launchpad/internal/handlers"
	"launchpad/internal/metrics"
	"launchpad/internal/middleware"
)

// Options carries everything the router mounts
type Options struct {
	Handler        *handlers.Handler
	Metrics        *metrics.Metrics
	Broadcaster    *events.Broadcaster
	AllowedOrigins []string
	BidRateLimit   middleware.RateLimiterConfig
	// Now is the clock used to check request timestamps; nil means time.Now
	Now func() time.Time
}

func cors(allowedOrigins []string) gin.HandlerFunc {
	allowed := mapset.NewThreadUnsafeSet[string](allowedOrigins...)
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if allowed.Contains(origin) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, Origin, Cache-Control, X-Requested-With, "+
			middleware.HeaderSigner+", "+middleware.HeaderSignature+", "+middleware.HeaderTimestamp)
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Length")
		c.Writer.Header().Set("Access-Control-Max-Age", "86400")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// SetupRouter initializes and returns the Gin router with all routes configured
func SetupRouter(opts Options) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	r.Any("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	r.Use(cors(opts.AllowedOrigins))
	if opts.Metrics != nil {
		r.Use(opts.Metrics.Monitor())
		r.GET("/metrics", gin.WrapH(opts.Metrics.Handler()))
	}
	if opts.Broadcaster != nil {
		r.GET("/ws/trades", gin.WrapF(opts.Broadcaster.Handler()))
	}

	signed := middleware.SignerAuth(opts.Now)
	SetupAdminRoutes(r, opts.Handler, signed)
	SetupSellerRoutes(r, opts.Handler, signed)
	SetupBidderRoutes(r, opts.Handler, signed, opts.BidRateLimit)
	SetupAccountRoutes(r, opts.Handler)
	return r
}

// SetupAdminRoutes mounts the launchpad init and every quorum-gated command
func SetupAdminRoutes(r *gin.Engine, h *handlers.Handler, signed gin.HandlerFunc) {
	admin := r.Group("/admin", signed)
	{
		admin.POST("/init", h.Init)
		admin.POST("/set-admin-signers", h.SetAdminSigners)
		admin.POST("/set-fees", h.SetFees)
		admin.POST("/set-permissions", h.SetPermissions)
		admin.POST("/init-custody", h.InitCustody)
		admin.POST("/set-oracle-config", h.SetOracleConfig)
		admin.POST("/withdraw-fees", h.WithdrawFees)
		admin.POST("/delete-auction", h.DeleteAuction)
		admin.POST("/set-test-oracle-price", h.SetTestOraclePrice)
		admin.POST("/set-test-time", h.SetTestTime)
	}
}

func SetupSellerRoutes(r *gin.Engine, h *handlers.Handler, signed gin.HandlerFunc) {
	seller := r.Group("/seller", signed)
	{
		seller.POST("/init-auction", h.InitAuction)
		seller.POST("/update-auction", h.UpdateAuction)
		seller.POST("/enable-auction", h.EnableAuction)
		seller.POST("/disable-auction", h.DisableAuction)
		seller.POST("/add-tokens", h.AddTokens)
		seller.POST("/remove-tokens", h.RemoveTokens)
		seller.POST("/withdraw-funds", h.WithdrawFunds)
		seller.POST("/whitelist-add", h.WhitelistAdd)
		seller.POST("/whitelist-remove", h.WhitelistRemove)
	}
}

// SetupBidderRoutes mounts bid commands behind a per-signer rate limit
func SetupBidderRoutes(r *gin.Engine, h *handlers.Handler, signed gin.HandlerFunc, limit middleware.RateLimiterConfig) {
	bidder := r.Group("/bidder", signed)
	if limit.RequestsPerSecond > 0 {
		bidder.Use(middleware.RateLimiterMiddleware(limit))
	}
	{
		bidder.POST("/place-bid", h.PlaceBid)
		bidder.POST("/cancel-bid", h.CancelBid)
		bidder.POST("/airdrop", h.Airdrop)
	}
}

func SetupAccountRoutes(r *gin.Engine, h *handlers.Handler) {
	accounts := r.Group("/accounts")
	{
		accounts.GET("/addresses", h.Addresses)
		accounts.GET("/launchpad", h.GetLaunchpad)
		accounts.GET("/multisig", h.GetMultisig)
		accounts.GET("/custodies", h.ListCustodies)
		accounts.GET("/custodies/:address", h.GetCustody)
		accounts.GET("/custodies/:address/price", h.GetCustodyPrice)
		accounts.GET("/oracles/:address", h.GetTestOracle)
		accounts.GET("/auctions", h.ListAuctions)
		accounts.GET("/auctions/:address", h.GetAuction)
		accounts.GET("/auctions/:address/price", h.GetAuctionPrice)
		accounts.GET("/auctions/:address/amount", h.GetAuctionAmount)
		accounts.GET("/auctions/:address/trades", h.ListTrades)
		accounts.GET("/auctions/:address/snapshots", h.ListSnapshots)
		accounts.GET("/bids", h.GetBid)
		accounts.GET("/bids/:address", h.GetBid)
		accounts.GET("/seller-balances", h.GetSellerBalance)
		accounts.GET("/seller-balances/:address", h.GetSellerBalance)
		accounts.GET("/balances/:holder/:mint", h.GetBalance)
	}
}
