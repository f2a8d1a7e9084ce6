package parsers

import (
	"fmt"

	"github.com/username/capgains/backend/src/parsers/brokerage"
	"github.com/username/capgains/backend/src/parsers/eac"
	"github.com/username/capgains/backend/src/parsers/groww"
	"github.com/username/capgains/backend/src/parsers/zerodha"
)

// GetSaleParser returns the parser for a foreign (USD) brokerage source.
// longTermDays is the holding-period threshold for LTCG classification.
func GetSaleParser(source string, longTermDays int) (SaleParser, error) {
	switch source {
	case "eac":
		return eac.NewParser(longTermDays), nil
	case "brokerage":
		return brokerage.NewParser(longTermDays), nil
	default:
		return nil, fmt.Errorf("no sale parser available for source: %s", source)
	}
}

// GetGainsParser returns the parser for an Indian broker report source.
func GetGainsParser(source string) (GainsParser, error) {
	switch source {
	case "groww-stocks":
		return groww.NewStocksParser(), nil
	case "groww-mf":
		return groww.NewMutualFundsParser(), nil
	case "zerodha":
		return zerodha.NewParser(), nil
	default:
		return nil, fmt.Errorf("no gains parser available for source: %s", source)
	}
}
