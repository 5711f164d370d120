package handlers

import (
	"errors"
	"net/http"

	"github.com/gagliardetto/solana-go"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"launchpad/internal/launchpad"
	"launchpad/internal/middleware"
)

// Handler serves the launchpad commands and views over HTTP
type Handler struct {
	engine *launchpad.Engine
	// db backs the trade history endpoints; nil when the service runs in memory
	db *gorm.DB
}

func New(engine *launchpad.Engine, db *gorm.DB) *Handler {
	return &Handler{engine: engine, db: db}
}

// StatusOf maps an engine error category to an HTTP status
func StatusOf(err error) int {
	switch {
	case errors.Is(err, launchpad.ErrNotAuthorized):
		return http.StatusUnauthorized
	case errors.Is(err, launchpad.ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, launchpad.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, launchpad.ErrAlreadyInUse), errors.Is(err, launchpad.ErrAuctionNotEmpty):
		return http.StatusConflict
	case errors.Is(err, launchpad.ErrInvalidConfig), errors.Is(err, launchpad.ErrInvalidEnvironment):
		return http.StatusBadRequest
	case errors.Is(err, launchpad.ErrAuctionClosed),
		errors.Is(err, launchpad.ErrLimitExceeded),
		errors.Is(err, launchpad.ErrInsufficientFunds),
		errors.Is(err, launchpad.ErrInsufficientAmount),
		errors.Is(err, launchpad.ErrStaleOracle),
		errors.Is(err, launchpad.ErrOraclePrice),
		errors.Is(err, launchpad.ErrArithmeticOverflow):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func fail(c *gin.Context, err error) {
	status := StatusOf(err)
	if status == http.StatusInternalServerError {
		log.WithField("path", c.FullPath()).Errorf("request failed: %v", err)
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error(), "code": launchpad.CodeOf(err)})
}

// caller returns the verified signer or aborts the request
func caller(c *gin.Context) (solana.PublicKey, bool) {
	signer, ok := middleware.Signer(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unsigned request", "code": "InvalidSignature"})
	}
	return signer, ok
}

func bind(c *gin.Context, v interface{}) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return false
	}
	return true
}

func addressParam(c *gin.Context, name string) (solana.PublicKey, bool) {
	key, err := solana.PublicKeyFromBase58(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid address format"})
		return solana.PublicKey{}, false
	}
	return key, true
}

// quorum renders a quorum-gated result: 200 once executed, 202 while signatures are missing
func quorum(c *gin.Context, status launchpad.QuorumStatus, err error) {
	if err != nil {
		fail(c, err)
		return
	}
	if !status.Executed {
		c.JSON(http.StatusAccepted, status)
		return
	}
	c.JSON(http.StatusOK, status)
}
