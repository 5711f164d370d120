package oracle

import (
	"context"

	"github.com/gagliardetto/solana-go"

	"launchpad/internal/launchpad"
	lpsolana "launchpad/pkg/solana"
)

// PriceSource reads decoded pyth price accounts
type PriceSource interface {
	ReadPrice(ctx context.Context, account solana.PublicKey) (*lpsolana.PythPrice, error)
}

// Pyth serves live custody prices to the engine
type Pyth struct {
	src PriceSource
}

func NewPyth(src PriceSource) *Pyth {
	return &Pyth{src: src}
}

// NewPythRPC reads price accounts from a solana RPC endpoint
func NewPythRPC(endpoint string) *Pyth {
	return NewPyth(lpsolana.NewPythReader(endpoint))
}

func (p *Pyth) ReadOracle(ctx context.Context, account solana.PublicKey) (launchpad.OraclePrice, error) {
	price, err := p.src.ReadPrice(ctx, account)
	if err != nil {
		return launchpad.OraclePrice{}, err
	}
	return launchpad.OraclePrice{
		Price:       price.Price,
		Expo:        price.Expo,
		Conf:        price.Conf,
		PublishTime: price.PublishTime,
	}, nil
}
