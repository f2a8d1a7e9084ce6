package database

import (
	"database/sql"
	stdlog "log"

	"github.com/username/capgains/backend/src/logger"
	_ "modernc.org/sqlite"
)

var DB *sql.DB

func InitDB(databasePath string) {
	db, err := sql.Open("sqlite", databasePath)
	if err != nil {
		stdlog.Fatalf("failed to open database at %s: %v", databasePath, err)
	}

	DB = db

	if logger.L != nil {
		logger.L.Info("Creating database schema if missing", "databasePath", databasePath)
	} else {
		stdlog.Println("Creating database schema if missing:", databasePath)
	}

	createTableStatement := `
	CREATE TABLE IF NOT EXISTS calculations (
		id TEXT PRIMARY KEY,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		assessment_start_date TEXT NOT NULL,
		taxes_paid REAL NOT NULL,
		tax_data TEXT NOT NULL,
		indian_gains TEXT,
		diagnostics TEXT,
		rates_used TEXT
	);

	CREATE TABLE IF NOT EXISTS sale_transactions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		calculation_id TEXT NOT NULL,
		sale_date TEXT NOT NULL,
		acquisition_date TEXT NOT NULL,
		stock_type TEXT NOT NULL,
		symbol TEXT NOT NULL,
		source TEXT NOT NULL,
		grant_id TEXT,
		shares REAL,
		sale_price_usd REAL,
		acquisition_price_usd REAL,
		gross_proceeds_usd REAL,
		fees_usd REAL,
		holding_period_days INTEGER,
		is_long_term BOOLEAN,
		sale_exchange_rate REAL,
		acquisition_exchange_rate REAL,
		sale_price_inr REAL,
		acquisition_price_inr REAL,
		fees_inr REAL,
		capital_gain_usd REAL,
		capital_gain_inr REAL,
		FOREIGN KEY(calculation_id) REFERENCES calculations(id)
	);

	CREATE TABLE IF NOT EXISTS exchange_rates (
		date TEXT PRIMARY KEY,
		rate REAL NOT NULL,
		source TEXT NOT NULL,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_sale_transactions_calculation
		ON sale_transactions(calculation_id);
	`

	if _, err := DB.Exec(createTableStatement); err != nil {
		stdlog.Fatalf("failed to create database schema: %v", err)
	}
}
