package services

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/username/capgains/backend/src/database"
	"github.com/username/capgains/backend/src/logger"
	"github.com/username/capgains/backend/src/models"
)

func TestMain(m *testing.M) {
	logger.InitLogger("error")

	dir, err := os.MkdirTemp("", "capgains-test")
	if err != nil {
		panic(err)
	}
	database.InitDB(filepath.Join(dir, "test.db"))

	code := m.Run()
	os.RemoveAll(dir)
	os.Exit(code)
}

func TestParseRatesJSON(t *testing.T) {
	s := NewRateService("", time.Second)
	table, err := s.ParseRatesJSON(strings.NewReader(`{"2024-03-15": 83.10, "2024-03-16": 83.25}`))
	require.NoError(t, err)
	assert.Equal(t, models.RateTable{"2024-03-15": 83.10, "2024-03-16": 83.25}, table)
}

func TestParseRatesJSON_Malformed(t *testing.T) {
	s := NewRateService("", time.Second)
	_, err := s.ParseRatesJSON(strings.NewReader(`["2024-03-15"]`))
	assert.Error(t, err)
}

func TestFetchFeedRates(t *testing.T) {
	const feed = "DATE,PDF FILE,TT BUY,TT SELL\n" +
		"2024-03-15 09:00,rates.pdf,83.10,83.40\n" +
		"2024-03-16 09:00,rates.pdf,0.00,0.00\n" + // holiday placeholder
		"2024-03-18 09:00,rates.pdf,83.25,83.55\n"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(feed))
	}))
	defer srv.Close()

	s := NewRateService(srv.URL, time.Second)
	table, err := s.FetchFeedRates()
	require.NoError(t, err)
	assert.Equal(t, models.RateTable{"2024-03-15": 83.10, "2024-03-18": 83.25}, table)
}

func TestFetchFeedRates_BadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	s := NewRateService(srv.URL, time.Second)
	_, err := s.FetchFeedRates()
	assert.Error(t, err)
}

func TestSaveAndLoadRates_RoundTrip(t *testing.T) {
	s := NewRateService("", time.Second)

	require.NoError(t, s.SaveRates(models.RateTable{
		"2021-01-04": 73.10,
		"2021-01-05": 73.25,
		"2021-01-06": 0, // must not be persisted
	}, models.RateSourceUpload))

	loaded, err := s.LoadSavedRates()
	require.NoError(t, err)
	assert.Equal(t, 73.10, loaded["2021-01-04"])
	assert.Equal(t, 73.25, loaded["2021-01-05"])
	_, present := loaded["2021-01-06"]
	assert.False(t, present)

	// Saving again for the same date overwrites.
	require.NoError(t, s.SaveRates(models.RateTable{"2021-01-04": 73.50}, models.RateSourceFeed))
	loaded, err = s.LoadSavedRates()
	require.NoError(t, err)
	assert.Equal(t, 73.50, loaded["2021-01-04"])
}

func TestAssembleTable_PrecedenceOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("DATE,PDF FILE,TT BUY\n2022-05-02 09:00,rates.pdf,77.77\n"))
	}))
	defer srv.Close()

	s := NewRateService(srv.URL, time.Second)
	require.NoError(t, s.SaveRates(models.RateTable{
		"2022-05-02": 75.00,
		"2022-05-03": 75.10,
	}, models.RateSourceSaved))

	emailDerived := models.RateTable{"2022-05-03": 76.00, "2022-05-04": 76.10}
	uploaded := models.RateTable{"2022-05-04": 77.00}

	table := s.AssembleTable(emailDerived, uploaded)

	assert.Equal(t, 77.77, table["2022-05-02"]) // feed beats saved
	assert.Equal(t, 76.00, table["2022-05-03"]) // email beats saved
	assert.Equal(t, 77.00, table["2022-05-04"]) // upload beats email
}

func TestAssembleTable_FeedFailureDegrades(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	s := NewRateService(srv.URL, time.Second)
	table := s.AssembleTable(models.RateTable{"2022-06-01": 78.00}, nil)
	assert.Equal(t, 78.00, table["2022-06-01"])
}
