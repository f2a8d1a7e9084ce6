package services

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/username/capgains/backend/src/config"
	"github.com/username/capgains/backend/src/database"
	"github.com/username/capgains/backend/src/logger"
	"github.com/username/capgains/backend/src/models"
	"github.com/username/capgains/backend/src/parsers"
	"github.com/username/capgains/backend/src/processors"
	"github.com/username/capgains/backend/src/utils"
)

const (
	ckCalculationResult = "res_calculation_%s"

	DefaultCacheExpiration = 15 * time.Minute
	CacheCleanupInterval   = 30 * time.Minute
)

var ErrNotFound = errors.New("calculation not found")

type calculationServiceImpl struct {
	rateService RateService
	taxConfig   config.TaxConfig
	resultCache *cache.Cache
}

func NewCalculationService(rateService RateService, taxConfig config.TaxConfig, resultCache *cache.Cache) CalculationService {
	return &calculationServiceImpl{
		rateService: rateService,
		taxConfig:   taxConfig,
		resultCache: resultCache,
	}
}

// Calculate runs the full pipeline over one batch of sources: parse,
// FIFO-match, translate to INR, allocate tax, persist. Structural failures
// in one source are recorded and the remaining sources still contribute;
// the pure computation itself cannot fail.
func (s *calculationServiceImpl) Calculate(input CalculationInput) (*CalculationResult, error) {
	overallStartTime := time.Now()
	result := &CalculationResult{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
	}
	logger.L.Info("Calculation START", "calculationID", result.ID, "startDate", utils.FormatISODate(input.StartDate))

	// Rate tables arrive before the pure computation; all network I/O
	// happens here with bounded timeouts.
	emailRates := s.parseOptionalRates(input.EmailRatesFile, "email-rates", result)
	customRates := s.parseOptionalRates(input.CustomRatesFile, "custom-rates", result)

	var table models.RateTable
	if input.UseRates {
		table = s.rateService.AssembleTable(emailRates, customRates)
	} else {
		table = make(models.RateTable)
	}

	// Foreign sources.
	result.Transactions = []models.SaleTransaction{}
	s.parseForeignSource(input.EACFile, "eac", input.StartDate, result)
	s.parseForeignSource(input.BrokerageFile, "brokerage", input.StartDate, result)

	// Indian sources.
	result.IndianGains = []models.IndianGains{}
	s.parseIndianSource(input.GrowwStocksFile, "groww-stocks", result)
	s.parseIndianSource(input.GrowwMFFile, "groww-mf", result)
	s.parseIndianSource(input.ZerodhaFile, "zerodha", result)

	// Pure computation: translate to INR, then allocate.
	resolver := processors.NewRateResolver(table, s.taxConfig.DefaultRate)
	gainsProcessor := processors.NewGainsProcessor(resolver)
	result.Transactions = gainsProcessor.Process(result.Transactions, input.UseRates)

	taxProcessor := processors.NewTaxProcessor(s.taxConfig)
	result.TaxData = taxProcessor.Calculate(result.Transactions, result.IndianGains, input.TaxesPaid)

	result.RatesUsed = resolver.CachedRates()
	result.Diagnostics = append(result.Diagnostics, resolver.Diagnostics()...)

	if err := s.persistResult(result, input); err != nil {
		return nil, fmt.Errorf("error persisting calculation %s: %w", result.ID, err)
	}
	if err := s.rateService.SaveRates(result.RatesUsed, models.RateSourceSaved); err != nil {
		logger.L.Warn("Could not persist resolved rates", "calculationID", result.ID, "error", err)
	}

	s.resultCache.Set(fmt.Sprintf(ckCalculationResult, result.ID), result, DefaultCacheExpiration)

	logger.L.Info("Calculation END",
		"calculationID", result.ID,
		"transactionCount", len(result.Transactions),
		"taxLiability", result.TaxData.TaxLiability,
		"duration", time.Since(overallStartTime))
	return result, nil
}

func (s *calculationServiceImpl) parseOptionalRates(file io.Reader, label string, result *CalculationResult) models.RateTable {
	if file == nil {
		return nil
	}
	table, err := s.rateService.ParseRatesJSON(file)
	if err != nil {
		logger.L.Warn("Rate source failed to parse", "source", label, "error", err)
		result.SourceErrors = append(result.SourceErrors, SourceError{Source: label, Error: err.Error()})
		return nil
	}
	return table
}

func (s *calculationServiceImpl) parseForeignSource(file io.Reader, source string, startDate time.Time, result *CalculationResult) {
	if file == nil {
		return
	}
	parser, err := parsers.GetSaleParser(source, s.taxConfig.LongTermDays)
	if err != nil {
		result.SourceErrors = append(result.SourceErrors, SourceError{Source: source, Error: err.Error()})
		return
	}
	sales, diagnostics, err := parser.Parse(file, startDate)
	if err != nil {
		logger.L.Warn("Foreign source failed to parse", "source", source, "error", err)
		result.SourceErrors = append(result.SourceErrors, SourceError{Source: source, Error: err.Error()})
		return
	}
	result.Transactions = append(result.Transactions, sales...)
	result.Diagnostics = append(result.Diagnostics, diagnostics...)
}

func (s *calculationServiceImpl) parseIndianSource(file io.Reader, source string, result *CalculationResult) {
	if file == nil {
		return
	}
	parser, err := parsers.GetGainsParser(source)
	if err != nil {
		result.SourceErrors = append(result.SourceErrors, SourceError{Source: source, Error: err.Error()})
		return
	}
	gains, err := parser.Parse(file)
	if err != nil {
		logger.L.Warn("Indian source failed to parse", "source", source, "error", err)
		result.SourceErrors = append(result.SourceErrors, SourceError{Source: source, Error: err.Error()})
		return
	}
	result.IndianGains = append(result.IndianGains, gains)
}

// GetResult returns a completed calculation, from cache or from the store.
func (s *calculationServiceImpl) GetResult(id string) (*CalculationResult, error) {
	cacheKey := fmt.Sprintf(ckCalculationResult, id)
	if cached, found := s.resultCache.Get(cacheKey); found {
		logger.L.Debug("Cache hit for calculation result", "calculationID", id)
		return cached.(*CalculationResult), nil
	}

	result, err := s.loadResult(id)
	if err != nil {
		return nil, err
	}
	s.resultCache.Set(cacheKey, result, DefaultCacheExpiration)
	return result, nil
}

func (s *calculationServiceImpl) persistResult(result *CalculationResult, input CalculationInput) error {
	taxDataJSON, err := json.Marshal(result.TaxData)
	if err != nil {
		return fmt.Errorf("error marshalling tax data: %w", err)
	}
	indianGainsJSON, err := json.Marshal(result.IndianGains)
	if err != nil {
		return fmt.Errorf("error marshalling indian gains: %w", err)
	}
	diagnosticsJSON, err := json.Marshal(result.Diagnostics)
	if err != nil {
		return fmt.Errorf("error marshalling diagnostics: %w", err)
	}
	ratesJSON, err := json.Marshal(result.RatesUsed)
	if err != nil {
		return fmt.Errorf("error marshalling rates: %w", err)
	}

	dbTx, err := database.DB.Begin()
	if err != nil {
		return fmt.Errorf("error beginning database transaction: %w", err)
	}
	defer dbTx.Rollback()

	_, err = dbTx.Exec(`INSERT INTO calculations (id, assessment_start_date, taxes_paid, tax_data, indian_gains, diagnostics, rates_used)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		result.ID, utils.FormatISODate(input.StartDate), input.TaxesPaid,
		string(taxDataJSON), string(indianGainsJSON), string(diagnosticsJSON), string(ratesJSON))
	if err != nil {
		return fmt.Errorf("error inserting calculation: %w", err)
	}

	stmt, err := dbTx.Prepare(`INSERT INTO sale_transactions (calculation_id, sale_date, acquisition_date, stock_type, symbol,
		source, grant_id, shares, sale_price_usd, acquisition_price_usd, gross_proceeds_usd, fees_usd, holding_period_days,
		is_long_term, sale_exchange_rate, acquisition_exchange_rate, sale_price_inr, acquisition_price_inr, fees_inr,
		capital_gain_usd, capital_gain_inr) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("error preparing transaction insert: %w", err)
	}
	defer stmt.Close()

	for _, txn := range result.Transactions {
		_, err := stmt.Exec(result.ID,
			utils.FormatISODate(txn.SaleDate), utils.FormatISODate(txn.AcquisitionDate),
			string(txn.StockType), txn.Symbol, string(txn.Source), txn.GrantID,
			txn.Shares, txn.SalePriceUSD, txn.AcquisitionPriceUSD, txn.GrossProceedsUSD, txn.FeesUSD,
			txn.HoldingPeriodDays, txn.IsLongTerm,
			txn.SaleExchangeRate, txn.AcquisitionExchangeRate,
			txn.SalePriceINR, txn.AcquisitionPriceINR, txn.FeesINR,
			txn.CapitalGainUSD, txn.CapitalGainINR)
		if err != nil {
			return fmt.Errorf("error inserting sale transaction for %s: %w", txn.Symbol, err)
		}
	}

	return dbTx.Commit()
}

func (s *calculationServiceImpl) loadResult(id string) (*CalculationResult, error) {
	logger.L.Debug("Loading calculation from database", "calculationID", id)

	result := &CalculationResult{ID: id}
	var createdAt, taxDataJSON, indianGainsJSON, diagnosticsJSON, ratesJSON string
	err := database.DB.QueryRow(`SELECT created_at, tax_data, indian_gains, diagnostics, rates_used
		FROM calculations WHERE id = ?`, id).
		Scan(&createdAt, &taxDataJSON, &indianGainsJSON, &diagnosticsJSON, &ratesJSON)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error querying calculation %s: %w", id, err)
	}
	result.CreatedAt, _ = time.Parse("2006-01-02 15:04:05", createdAt)

	if err := json.Unmarshal([]byte(taxDataJSON), &result.TaxData); err != nil {
		return nil, fmt.Errorf("error unmarshalling tax data for %s: %w", id, err)
	}
	if err := json.Unmarshal([]byte(indianGainsJSON), &result.IndianGains); err != nil {
		return nil, fmt.Errorf("error unmarshalling indian gains for %s: %w", id, err)
	}
	if err := json.Unmarshal([]byte(diagnosticsJSON), &result.Diagnostics); err != nil {
		return nil, fmt.Errorf("error unmarshalling diagnostics for %s: %w", id, err)
	}
	if err := json.Unmarshal([]byte(ratesJSON), &result.RatesUsed); err != nil {
		return nil, fmt.Errorf("error unmarshalling rates for %s: %w", id, err)
	}

	rows, err := database.DB.Query(`SELECT sale_date, acquisition_date, stock_type, symbol, source, grant_id, shares,
		sale_price_usd, acquisition_price_usd, gross_proceeds_usd, fees_usd, holding_period_days, is_long_term,
		sale_exchange_rate, acquisition_exchange_rate, sale_price_inr, acquisition_price_inr, fees_inr,
		capital_gain_usd, capital_gain_inr
		FROM sale_transactions WHERE calculation_id = ? ORDER BY sale_date ASC, id ASC`, id)
	if err != nil {
		return nil, fmt.Errorf("error querying transactions for %s: %w", id, err)
	}
	defer rows.Close()

	result.Transactions = []models.SaleTransaction{}
	for rows.Next() {
		var txn models.SaleTransaction
		var saleDate, acqDate, stockType, source string
		err := rows.Scan(&saleDate, &acqDate, &stockType, &txn.Symbol, &source, &txn.GrantID, &txn.Shares,
			&txn.SalePriceUSD, &txn.AcquisitionPriceUSD, &txn.GrossProceedsUSD, &txn.FeesUSD,
			&txn.HoldingPeriodDays, &txn.IsLongTerm,
			&txn.SaleExchangeRate, &txn.AcquisitionExchangeRate,
			&txn.SalePriceINR, &txn.AcquisitionPriceINR, &txn.FeesINR,
			&txn.CapitalGainUSD, &txn.CapitalGainINR)
		if err != nil {
			return nil, fmt.Errorf("error scanning transaction row for %s: %w", id, err)
		}
		txn.SaleDate, _ = time.Parse(utils.ISODateFormat, saleDate)
		txn.AcquisitionDate, _ = time.Parse(utils.ISODateFormat, acqDate)
		txn.StockType = models.StockType(stockType)
		txn.Source = models.TransactionSource(source)
		result.Transactions = append(result.Transactions, txn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transaction rows for %s: %w", id, err)
	}

	return result, nil
}
