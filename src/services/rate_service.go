package services

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"

	"github.com/username/capgains/backend/src/database"
	"github.com/username/capgains/backend/src/logger"
	"github.com/username/capgains/backend/src/models"
)

// rateServiceImpl assembles the merged USD-INR rate table from every
// available source and persists resolved rates for later runs. Network
// fetches are bounded by the configured timeout; a failed fetch degrades
// the table, never the calculation.
type rateServiceImpl struct {
	httpClient http.Client
	feedURL    string
}

func NewRateService(feedURL string, fetchTimeout time.Duration) RateService {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		logger.L.Error("Failed to create cookie jar", "error", err)
	}
	return &rateServiceImpl{
		httpClient: http.Client{Jar: jar, Timeout: fetchTimeout},
		feedURL:    feedURL,
	}
}

// AssembleTable merges rate sources in ascending precedence: saved rates
// from earlier runs, email-derived historical rates, user-uploaded custom
// rates, then the auto-fetched feed. Later sources overwrite earlier ones
// date-by-date.
func (s *rateServiceImpl) AssembleTable(emailDerived, uploaded models.RateTable) models.RateTable {
	table := make(models.RateTable)

	if saved, err := s.LoadSavedRates(); err != nil {
		logger.L.Warn("Could not load saved exchange rates", "error", err)
	} else {
		table.Merge(saved)
	}

	table.Merge(emailDerived)
	table.Merge(uploaded)

	if feed, err := s.FetchFeedRates(); err != nil {
		logger.L.Warn("Could not fetch exchange rate feed, proceeding without it", "error", err)
	} else {
		table.Merge(feed)
	}

	logger.L.Info("Exchange rate table assembled", "rateCount", len(table))
	return table
}

// ParseRatesJSON reads the external {"YYYY-MM-DD": rate} interchange format.
func (s *rateServiceImpl) ParseRatesJSON(r io.Reader) (models.RateTable, error) {
	var table models.RateTable
	if err := json.NewDecoder(r).Decode(&table); err != nil {
		return nil, fmt.Errorf("error decoding exchange rate JSON: %w", err)
	}
	return table, nil
}

// FetchFeedRates downloads the SBI reference-rate CSV feed. Rows carry a
// datetime in the first column and the TT Buy rate in the third; zero
// rates (holiday placeholders) are skipped.
func (s *rateServiceImpl) FetchFeedRates() (models.RateTable, error) {
	req, err := http.NewRequest(http.MethodGet, s.feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("error building rate feed request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error fetching rate feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rate feed returned status %d", resp.StatusCode)
	}

	reader := csv.NewReader(resp.Body)
	reader.FieldsPerRecord = -1

	table := make(models.RateTable)
	header := true
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading rate feed CSV: %w", err)
		}
		if header {
			header = false
			continue
		}
		if len(row) < 3 {
			continue
		}

		// "2020-01-06 09:00" -> "2020-01-06"
		dateStr := strings.Fields(row[0])
		if len(dateStr) == 0 {
			continue
		}
		ttBuy, err := strconv.ParseFloat(strings.TrimSpace(row[2]), 64)
		if err != nil || ttBuy == 0 {
			continue
		}
		table[dateStr[0]] = ttBuy
	}

	logger.L.Info("Fetched exchange rate feed", "rateCount", len(table))
	return table, nil
}

// LoadSavedRates reads every previously persisted rate from the database.
func (s *rateServiceImpl) LoadSavedRates() (models.RateTable, error) {
	rows, err := database.DB.Query(`SELECT date, rate FROM exchange_rates`)
	if err != nil {
		return nil, fmt.Errorf("error querying saved exchange rates: %w", err)
	}
	defer rows.Close()

	table := make(models.RateTable)
	for rows.Next() {
		var date string
		var rate float64
		if err := rows.Scan(&date, &rate); err != nil {
			return nil, fmt.Errorf("error scanning exchange rate row: %w", err)
		}
		table[date] = rate
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating exchange rate rows: %w", err)
	}
	return table, nil
}

// SaveRates upserts a table into the exchange_rates store.
func (s *rateServiceImpl) SaveRates(table models.RateTable, source models.RateSource) error {
	if len(table) == 0 {
		return nil
	}

	dbTx, err := database.DB.Begin()
	if err != nil {
		return fmt.Errorf("error beginning rate save transaction: %w", err)
	}
	defer dbTx.Rollback()

	stmt, err := dbTx.Prepare(`INSERT INTO exchange_rates (date, rate, source) VALUES (?, ?, ?)
		ON CONFLICT(date) DO UPDATE SET rate = excluded.rate, source = excluded.source, updated_at = CURRENT_TIMESTAMP`)
	if err != nil {
		return fmt.Errorf("error preparing rate upsert: %w", err)
	}
	defer stmt.Close()

	for date, rate := range table {
		if rate <= 0 {
			continue
		}
		if _, err := stmt.Exec(date, rate, source.String()); err != nil {
			return fmt.Errorf("error saving rate for %s: %w", date, err)
		}
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("error committing rate save: %w", err)
	}
	logger.L.Info("Exchange rates saved", "rateCount", len(table), "source", source.String())
	return nil
}
