package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/blocto/solana-go-sdk/types"

	"launchpad/internal/middleware"
	lpsolana "launchpad/pkg/solana"
)

// BaseURL points at a running launchpad api, e.g. http://localhost:8080
var BaseURL = os.Getenv("LAUNCHPAD_API_URL")

func TestMain(m *testing.M) {
	if BaseURL == "" {
		fmt.Println("LAUNCHPAD_API_URL not set, skipping integration tests")
		os.Exit(0)
	}
	os.Exit(m.Run())
}

// signedPost sends body signed by acc
func signedPost(acc types.Account, path string, body interface{}) (*http.Response, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequest(http.MethodPost, BaseURL+path, bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	ts := strconv.FormatInt(time.Now().Unix(), 10)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.HeaderSigner, acc.PublicKey.ToBase58())
	req.Header.Set(middleware.HeaderTimestamp, ts)
	req.Header.Set(middleware.HeaderSignature, lpsolana.SignMessage(&acc, middleware.SignedMessage(ts, raw)))
	return http.DefaultClient.Do(req)
}
