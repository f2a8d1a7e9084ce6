package processors

import (
	"fmt"
	"time"

	"github.com/username/capgains/backend/src/logger"
	"github.com/username/capgains/backend/src/models"
	"github.com/username/capgains/backend/src/utils"
)

// TradeEventType classifies a brokerage activity record fed to the matcher.
type TradeEventType string

const (
	EventBuy      TradeEventType = "Buy"
	EventSell     TradeEventType = "Sell"
	EventReinvest TradeEventType = "Reinvest"
)

// TradeEvent is one brokerage activity record. Callers must supply events
// in ascending date order; the matcher does not re-sort.
type TradeEvent struct {
	Type     TradeEventType
	Date     time.Time
	Symbol   string
	Quantity float64
	Price    float64
	Fees     float64
}

// MatchResult carries the emitted sale records, the final lot state and any
// data-quality findings from one matching pass.
type MatchResult struct {
	Sales       []models.SaleTransaction
	OpenLots    map[string][]*models.StockLot
	Diagnostics []models.Diagnostic
}

// lotQueue is the per-symbol FIFO arena. Consumed lots are not removed;
// cursor points at the oldest lot with shares remaining, which keeps the
// share-conservation invariant checkable after the pass.
type lotQueue struct {
	lots   []*models.StockLot
	cursor int
}

func (q *lotQueue) push(lot *models.StockLot) {
	q.lots = append(q.lots, lot)
}

// oldest returns the first lot with Remaining > 0, or nil when exhausted.
func (q *lotQueue) oldest() *models.StockLot {
	for q.cursor < len(q.lots) {
		if q.lots[q.cursor].Remaining > 0 {
			return q.lots[q.cursor]
		}
		q.cursor++
	}
	return nil
}

// LotMatcher matches sell events against purchase lots oldest-first. It is
// a pure function over its inputs: all state lives in the per-call queues.
type LotMatcher struct {
	longTermDays int
}

func NewLotMatcher(longTermDays int) *LotMatcher {
	return &LotMatcher{longTermDays: longTermDays}
}

// Match processes the event stream. Sells dated before cutoff consume lots
// without emitting records, keeping the queues accurate for later sales.
// A sell exceeding the tracked inventory is matched as far as possible and
// the unmatched tail is reported as a diagnostic; no zero-cost lot is
// fabricated.
func (m *LotMatcher) Match(events []TradeEvent, cutoff time.Time) MatchResult {
	queues := make(map[string]*lotQueue)
	result := MatchResult{OpenLots: make(map[string][]*models.StockLot)}

	queueFor := func(symbol string) *lotQueue {
		q, ok := queues[symbol]
		if !ok {
			q = &lotQueue{}
			queues[symbol] = q
		}
		return q
	}

	for _, ev := range events {
		if ev.Symbol == "" || ev.Quantity <= 0 {
			continue
		}

		switch ev.Type {
		case EventBuy, EventReinvest:
			queueFor(ev.Symbol).push(models.NewStockLot(ev.Date, ev.Symbol, ev.Quantity, ev.Price))

		case EventSell:
			sales, unmatched := m.consumeSale(queueFor(ev.Symbol), ev, cutoff)
			result.Sales = append(result.Sales, sales...)
			if unmatched > 0 {
				diag := models.Diagnostic{
					Kind:   models.DiagUnmatchedShares,
					Symbol: ev.Symbol,
					Date:   utils.FormatISODate(ev.Date),
					Shares: unmatched,
					Detail: fmt.Sprintf("%.3f shares sold with no matching purchase; cost basis unknown", unmatched),
				}
				result.Diagnostics = append(result.Diagnostics, diag)
				if logger.L != nil {
					logger.L.Warn("Sell exceeds tracked lot inventory",
						"symbol", ev.Symbol, "date", diag.Date, "unmatchedShares", unmatched)
				}
			}
		}
	}

	for symbol, q := range queues {
		result.OpenLots[symbol] = q.lots
	}
	return result
}

// consumeSale decrements lots oldest-first and, for on- or post-cutoff
// sales, emits one sale record per consumed lot. Fees are apportioned by
// shares sold from the lot over the total shares in this sell event.
func (m *LotMatcher) consumeSale(q *lotQueue, ev TradeEvent, cutoff time.Time) ([]models.SaleTransaction, float64) {
	remaining := ev.Quantity
	preWindow := ev.Date.Before(cutoff)

	var sales []models.SaleTransaction
	for remaining > 0 {
		lot := q.oldest()
		if lot == nil {
			break
		}

		soldFromLot := utils.MinFloat(lot.Remaining, remaining)
		lot.Remaining -= soldFromLot
		remaining -= soldFromLot

		if preWindow {
			continue
		}

		feesForLot := 0.0
		if ev.Quantity > 0 {
			feesForLot = ev.Fees * soldFromLot / ev.Quantity
		}
		holdingDays := int(ev.Date.Sub(lot.PurchaseDate).Hours() / 24)

		sales = append(sales, models.SaleTransaction{
			SaleDate:            ev.Date,
			AcquisitionDate:     lot.PurchaseDate,
			StockType:           models.StockTypeTrade,
			Symbol:              ev.Symbol,
			Source:              models.SourceIndividual,
			Shares:              soldFromLot,
			SalePriceUSD:        ev.Price,
			AcquisitionPriceUSD: lot.Price,
			GrossProceedsUSD:    ev.Price * soldFromLot,
			FeesUSD:             feesForLot,
			HoldingPeriodDays:   holdingDays,
			IsLongTerm:          holdingDays > m.longTermDays,
		})
	}

	if preWindow {
		return nil, 0
	}
	return sales, remaining
}
