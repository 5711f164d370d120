package models

// All lists every table owned by the service, in AutoMigrate order
func All() []interface{} {
	return []interface{}{
		&LaunchpadAccount{},
		&CustodyAccount{},
		&TestOracleAccount{},
		&AuctionAccount{},
		&BidAccount{},
		&SellerBalanceAccount{},
		&LedgerBalance{},
		&TradeRecord{},
		&AuctionStatSnapshot{},
	}
}
