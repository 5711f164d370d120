package middleware

import (
	"bytes"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gin-gonic/gin"
)

const (
	HeaderSigner    = "X-Signer"
	HeaderSignature = "X-Signature"
	HeaderTimestamp = "X-Timestamp"

	signerKey = "launchpad.signer"

	// MaxClockSkew bounds how old or how far ahead a signed request may be
	MaxClockSkew = 5 * time.Minute

	maxBodyBytes = 1 << 20
)

// SignedMessage is what a client signs: the unix timestamp, a newline, then the raw body
func SignedMessage(timestamp string, body []byte) []byte {
	msg := make([]byte, 0, len(timestamp)+1+len(body))
	msg = append(msg, timestamp...)
	msg = append(msg, '\n')
	return append(msg, body...)
}

func reject(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg, "code": "InvalidSignature"})
}

// SignerAuth verifies the ed25519 signature of the request and stores the signer for handlers
func SignerAuth(now func() time.Time) gin.HandlerFunc {
	if now == nil {
		now = time.Now
	}
	return func(c *gin.Context) {
		signer, err := solana.PublicKeyFromBase58(c.GetHeader(HeaderSigner))
		if err != nil {
			reject(c, "missing or malformed "+HeaderSigner)
			return
		}
		sig, err := solana.SignatureFromBase58(c.GetHeader(HeaderSignature))
		if err != nil {
			reject(c, "missing or malformed "+HeaderSignature)
			return
		}
		ts := c.GetHeader(HeaderTimestamp)
		unix, err := strconv.ParseInt(ts, 10, 64)
		if err != nil {
			reject(c, "missing or malformed "+HeaderTimestamp)
			return
		}
		if skew := now().Sub(time.Unix(unix, 0)); skew > MaxClockSkew || skew < -MaxClockSkew {
			reject(c, "request timestamp outside the accepted window")
			return
		}

		body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "failed to read body"})
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		if !sig.Verify(signer, SignedMessage(ts, body)) {
			reject(c, "signature does not match")
			return
		}
		c.Set(signerKey, signer)
		c.Next()
	}
}

// Signer returns the verified caller set by SignerAuth
func Signer(c *gin.Context) (solana.PublicKey, bool) {
	v, ok := c.Get(signerKey)
	if !ok {
		return solana.PublicKey{}, false
	}
	pk, ok := v.(solana.PublicKey)
	return pk, ok
}
