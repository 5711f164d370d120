package solana

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	log "github.com/sirupsen/logrus"
)

const (
	PYTH_MAGIC         uint32 = 0xa1b2c3d4
	PYTH_PRICE_ACCOUNT uint32 = 3
	// PYTH_STATUS_TRADING marks an aggregate that may be used for pricing
	PYTH_STATUS_TRADING uint32 = 1

	pythPriceAccountMinLen = 240
)

var ErrInvalidPythAccount = errors.New("invalid pyth price account")

// PythPrice is the aggregate of a pyth v2 price account
type PythPrice struct {
	Price       int64
	Expo        int32
	Conf        uint64
	PublishTime int64
	Status      uint32
}

type pythPriceLayout struct {
	Magic       uint32
	Version     uint32
	AccountType uint32
	Size        uint32
	PriceType   uint32
	Expo        int32
	_           [72]byte
	Timestamp   int64
	_           [104]byte
	AggPrice    int64
	AggConf     uint64
	AggStatus   uint32
	AggCorpAct  uint32
	AggPubSlot  uint64
}

// DecodePythPrice decodes the aggregate price out of raw account data
func DecodePythPrice(data []byte) (*PythPrice, error) {
	if len(data) < pythPriceAccountMinLen {
		return nil, fmt.Errorf("%w: %d bytes", ErrInvalidPythAccount, len(data))
	}
	var layout pythPriceLayout
	if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, &layout); err != nil {
		return nil, fmt.Errorf("failed to decode pyth account: %w", err)
	}
	if layout.Magic != PYTH_MAGIC || layout.AccountType != PYTH_PRICE_ACCOUNT {
		return nil, fmt.Errorf("%w: magic %x type %d", ErrInvalidPythAccount, layout.Magic, layout.AccountType)
	}
	return &PythPrice{
		Price:       layout.AggPrice,
		Expo:        layout.Expo,
		Conf:        layout.AggConf,
		PublishTime: layout.Timestamp,
		Status:      layout.AggStatus,
	}, nil
}

// PythReader fetches price accounts over RPC
type PythReader struct {
	client *rpc.Client
}

func NewPythReader(endpoint string) *PythReader {
	return &PythReader{client: rpc.New(endpoint)}
}

// ReadPrice loads and decodes a pyth price account
func (r *PythReader) ReadPrice(ctx context.Context, account solana.PublicKey) (*PythPrice, error) {
	resp, err := r.client.GetAccountInfo(ctx, account)
	if err != nil {
		log.Errorf("> failed to load oracle account %s: %v", account.String(), err)
		return nil, err
	}
	if resp == nil || resp.Value == nil {
		return nil, fmt.Errorf("%w: account %s not found", ErrInvalidPythAccount, account.String())
	}
	price, err := DecodePythPrice(resp.Value.Data.GetBinary())
	if err != nil {
		return nil, err
	}
	if price.Status != PYTH_STATUS_TRADING {
		return nil, fmt.Errorf("%w: status %d", ErrInvalidPythAccount, price.Status)
	}
	return price, nil
}
