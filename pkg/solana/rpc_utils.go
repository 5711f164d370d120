package solana

import (
	"context"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go/rpc"
)

// RPCCheckResult represents the result of checking an RPC endpoint
type RPCCheckResult struct {
	URL     string        `json:"url"`
	OK      bool          `json:"ok"`
	Latency time.Duration `json:"latency"`
	Error   string        `json:"error,omitempty"`
}

// CheckRPC calls getHealth on one endpoint
func CheckRPC(ctx context.Context, url string, timeout time.Duration) RPCCheckResult {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	health, err := rpc.New(url).GetHealth(ctx)
	res := RPCCheckResult{URL: url, Latency: time.Since(start)}
	switch {
	case err != nil:
		res.Error = err.Error()
	case health != "ok":
		res.Error = "node reports " + health
	default:
		res.OK = true
	}
	return res
}

// CheckRPCList checks endpoints concurrently; results keep the input order
func CheckRPCList(ctx context.Context, urls []string, timeout time.Duration) []RPCCheckResult {
	results := make([]RPCCheckResult, len(urls))
	var wg sync.WaitGroup
	for i, url := range urls {
		wg.Add(1)
		go func(i int, url string) {
			defer wg.Done()
			results[i] = CheckRPC(ctx, url, timeout)
		}(i, url)
	}
	wg.Wait()
	return results
}
