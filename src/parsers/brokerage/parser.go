// Package brokerage parses Individual Brokerage account exports. Cost
// basis is determined by FIFO matching against the account's own buy and
// reinvestment history.
package brokerage

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/username/capgains/backend/src/models"
	"github.com/username/capgains/backend/src/processors"
	"github.com/username/capgains/backend/src/utils"
)

type transactionFile struct {
	BrokerageTransactions []record `json:"BrokerageTransactions"`
}

type record struct {
	Action   string `json:"Action"`
	Date     string `json:"Date"`
	Symbol   string `json:"Symbol"`
	Quantity string `json:"Quantity"`
	Price    string `json:"Price"`
	Fees     string `json:"Fees & Comm"`
}

// Parser converts brokerage activity into FIFO-matched sale transactions.
// The whole history is replayed, including activity before startDate, so
// the lot inventory is correct when the reporting window opens.
type Parser struct {
	matcher *processors.LotMatcher
}

func NewParser(longTermDays int) *Parser {
	return &Parser{matcher: processors.NewLotMatcher(longTermDays)}
}

func (p *Parser) Parse(file io.Reader, startDate time.Time) ([]models.SaleTransaction, []models.Diagnostic, error) {
	var parsed transactionFile
	if err := json.NewDecoder(file).Decode(&parsed); err != nil {
		return nil, nil, fmt.Errorf("error decoding brokerage transaction file: %w", err)
	}

	events := toEvents(parsed.BrokerageTransactions)

	// The matcher expects global chronological order.
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Date.Before(events[j].Date)
	})

	result := p.matcher.Match(events, startDate)
	return result.Sales, result.Diagnostics, nil
}

// toEvents maps activity records to matcher events. Dividend, withholding
// and cash records carry no share movement and are skipped.
func toEvents(records []record) []processors.TradeEvent {
	var events []processors.TradeEvent
	for _, rec := range records {
		if rec.Symbol == "" || rec.Quantity == "" {
			continue
		}

		var eventType processors.TradeEventType
		switch rec.Action {
		case "Buy":
			eventType = processors.EventBuy
		case "Reinvest Shares":
			eventType = processors.EventReinvest
		case "Sell":
			eventType = processors.EventSell
		default:
			continue
		}

		date := utils.ParseUSDate(rec.Date)
		if date.IsZero() {
			continue
		}

		quantity, err := strconv.ParseFloat(strings.ReplaceAll(rec.Quantity, ",", ""), 64)
		if err != nil || quantity <= 0 {
			continue
		}

		events = append(events, processors.TradeEvent{
			Type:     eventType,
			Date:     date,
			Symbol:   rec.Symbol,
			Quantity: quantity,
			Price:    utils.ParseCurrency(rec.Price),
			Fees:     utils.ParseCurrency(rec.Fees),
		})
	}
	return events
}
