package store

import (
	"encoding/json"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"launchpad/internal/launchpad"
	"launchpad/internal/models"
	"launchpad/pkg/utils"
)

const (
	kindLaunchpad = "launchpad"
	kindMultisig  = "multisig"
)

func encode(v interface{}) (json.RawMessage, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	return data, nil
}

func decode(key string, data json.RawMessage, v interface{}) (solana.PublicKey, error) {
	address, err := solana.PublicKeyFromBase58(key)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("record address %q: %w", key, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return solana.PublicKey{}, fmt.Errorf("decode record %s: %w", key, err)
	}
	return address, nil
}

func launchpadRow(key solana.PublicKey, kind string, v interface{}) (*models.LaunchpadAccount, error) {
	data, err := encode(v)
	if err != nil {
		return nil, err
	}
	return &models.LaunchpadAccount{Address: key.String(), Kind: kind, Data: data}, nil
}

func custodyRow(key solana.PublicKey, c *launchpad.Custody) (*models.CustodyAccount, error) {
	data, err := encode(c)
	if err != nil {
		return nil, err
	}
	return &models.CustodyAccount{
		Address:       key.String(),
		Mint:          c.Mint.String(),
		TokenAccount:  c.TokenAccount.String(),
		Decimals:      c.Decimals,
		IsStable:      c.IsStable,
		CollectedFees: utils.U64ToDecimal(c.CollectedFees),
		OracleAccount: c.Oracle.OracleAccount.String(),
		OracleType:    c.Oracle.OracleKind.String(),
		Data:          data,
	}, nil
}

func oracleRow(key solana.PublicKey, p *launchpad.OraclePrice) *models.TestOracleAccount {
	return &models.TestOracleAccount{
		Address:     key.String(),
		Price:       p.Price,
		Expo:        p.Expo,
		Conf:        utils.U64ToDecimal(p.Conf),
		PublishTime: p.PublishTime,
	}
}

func auctionRow(key solana.PublicKey, a *launchpad.Auction) (*models.AuctionAccount, error) {
	data, err := encode(a)
	if err != nil {
		return nil, err
	}
	return &models.AuctionAccount{
		Address:   key.String(),
		Name:      a.Common.Name,
		Owner:     a.Owner.String(),
		Enabled:   a.Enabled,
		StartTime: a.Common.StartTime,
		EndTime:   a.Common.EndTime,
		Data:      data,
	}, nil
}

func bidRow(key solana.PublicKey, b *launchpad.Bid) (*models.BidAccount, error) {
	data, err := encode(b)
	if err != nil {
		return nil, err
	}
	return &models.BidAccount{
		Address:     key.String(),
		Owner:       b.Owner.String(),
		Auction:     b.Auction.String(),
		Whitelisted: b.Whitelisted,
		Filled:      utils.U64ToDecimal(b.Filled),
		Data:        data,
	}, nil
}

func sellerBalanceRow(key solana.PublicKey, sb *launchpad.SellerBalance) *models.SellerBalanceAccount {
	return &models.SellerBalanceAccount{
		Address: key.String(),
		Owner:   sb.Owner.String(),
		Custody: sb.Custody.String(),
		Balance: utils.U64ToDecimal(sb.Balance),
		Bump:    sb.Bump,
	}
}

func sellerBalanceFromRow(row *models.SellerBalanceAccount) (solana.PublicKey, *launchpad.SellerBalance, error) {
	address, err := solana.PublicKeyFromBase58(row.Address)
	if err != nil {
		return solana.PublicKey{}, nil, fmt.Errorf("seller balance address %q: %w", row.Address, err)
	}
	owner, err := solana.PublicKeyFromBase58(row.Owner)
	if err != nil {
		return solana.PublicKey{}, nil, fmt.Errorf("seller balance owner %q: %w", row.Owner, err)
	}
	custody, err := solana.PublicKeyFromBase58(row.Custody)
	if err != nil {
		return solana.PublicKey{}, nil, fmt.Errorf("seller balance custody %q: %w", row.Custody, err)
	}
	balance, err := utils.FromUIAmount(row.Balance, 0)
	if err != nil {
		return solana.PublicKey{}, nil, fmt.Errorf("seller balance %s: %w", row.Address, err)
	}
	return address, &launchpad.SellerBalance{Owner: owner, Custody: custody, Balance: balance, Bump: row.Bump}, nil
}

func oracleFromRow(row *models.TestOracleAccount) (solana.PublicKey, *launchpad.OraclePrice, error) {
	address, err := solana.PublicKeyFromBase58(row.Address)
	if err != nil {
		return solana.PublicKey{}, nil, fmt.Errorf("oracle address %q: %w", row.Address, err)
	}
	conf, err := utils.FromUIAmount(row.Conf, 0)
	if err != nil {
		return solana.PublicKey{}, nil, fmt.Errorf("oracle %s conf: %w", row.Address, err)
	}
	return address, &launchpad.OraclePrice{
		Price:       row.Price,
		Expo:        row.Expo,
		Conf:        conf,
		PublishTime: row.PublishTime,
	}, nil
}
