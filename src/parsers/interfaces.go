package parsers

import (
	"io"
	"time"

	"github.com/username/capgains/backend/src/models"
)

// SaleParser parses a foreign brokerage export into matched sale
// transactions. Only disposals on or after startDate are returned; earlier
// activity may still be consumed internally (FIFO bookkeeping).
type SaleParser interface {
	Parse(file io.Reader, startDate time.Time) ([]models.SaleTransaction, []models.Diagnostic, error)
}

// GainsParser parses an Indian broker report into a pre-aggregated
// gains bundle. The underlying workbook already states the net LTCG/STCG;
// no per-lot matching happens here.
type GainsParser interface {
	Parse(file io.Reader) (models.IndianGains, error)
}
