package launchpad

import (
	"fmt"
)

// Closed variant sets. New variants are appended so existing encodings never shift.

type OracleKind uint8

const (
	OracleNone OracleKind = iota
	OracleTest
	OraclePyth
)

var oracleKindNames = []string{"none", "test", "pyth"}

func (k OracleKind) Valid() bool { return k == OracleTest || k == OraclePyth }

type PricingModel uint8

const (
	PricingFixed PricingModel = iota
	PricingDynamicDutchAuction
)

var pricingModelNames = []string{"fixed", "dynamic_dutch_auction"}

func (m PricingModel) Valid() bool { return int(m) < len(pricingModelNames) }

type RepriceFunction uint8

const (
	RepriceLinear RepriceFunction = iota
)

var repriceFunctionNames = []string{"linear"}

func (f RepriceFunction) Valid() bool { return int(f) < len(repriceFunctionNames) }

type AmountFunction uint8

const (
	AmountFixed AmountFunction = iota
)

var amountFunctionNames = []string{"fixed"}

func (f AmountFunction) Valid() bool { return int(f) < len(amountFunctionNames) }

type BidType uint8

const (
	BidIOC BidType = iota
	BidFOK
)

var bidTypeNames = []string{"ioc", "fok"}

func (t BidType) Valid() bool { return int(t) < len(bidTypeNames) }

func enumName(names []string, v uint8) string {
	if int(v) < len(names) {
		return names[v]
	}
	return fmt.Sprintf("unknown(%d)", v)
}

func parseEnum(names []string, kind string, text []byte) (uint8, error) {
	for i, name := range names {
		if name == string(text) {
			return uint8(i), nil
		}
	}
	return 0, fmt.Errorf("unknown %s %q", kind, string(text))
}

func (k OracleKind) String() string               { return enumName(oracleKindNames, uint8(k)) }
func (k OracleKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }
func (k *OracleKind) UnmarshalText(text []byte) error {
	v, err := parseEnum(oracleKindNames, "oracle type", text)
	*k = OracleKind(v)
	return err
}

func (m PricingModel) String() string               { return enumName(pricingModelNames, uint8(m)) }
func (m PricingModel) MarshalText() ([]byte, error) { return []byte(m.String()), nil }
func (m *PricingModel) UnmarshalText(text []byte) error {
	v, err := parseEnum(pricingModelNames, "pricing model", text)
	*m = PricingModel(v)
	return err
}

func (f RepriceFunction) String() string               { return enumName(repriceFunctionNames, uint8(f)) }
func (f RepriceFunction) MarshalText() ([]byte, error) { return []byte(f.String()), nil }
func (f *RepriceFunction) UnmarshalText(text []byte) error {
	v, err := parseEnum(repriceFunctionNames, "reprice function", text)
	*f = RepriceFunction(v)
	return err
}

func (f AmountFunction) String() string               { return enumName(amountFunctionNames, uint8(f)) }
func (f AmountFunction) MarshalText() ([]byte, error) { return []byte(f.String()), nil }
func (f *AmountFunction) UnmarshalText(text []byte) error {
	v, err := parseEnum(amountFunctionNames, "amount function", text)
	*f = AmountFunction(v)
	return err
}

func (t BidType) String() string               { return enumName(bidTypeNames, uint8(t)) }
func (t BidType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }
func (t *BidType) UnmarshalText(text []byte) error {
	v, err := parseEnum(bidTypeNames, "bid type", text)
	*t = BidType(v)
	return err
}
