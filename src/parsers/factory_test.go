package parsers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetSaleParser(t *testing.T) {
	for _, source := range []string{"eac", "brokerage"} {
		p, err := GetSaleParser(source, 730)
		require.NoError(t, err, source)
		assert.NotNil(t, p)
	}

	_, err := GetSaleParser("groww-stocks", 730)
	assert.Error(t, err)
}

func TestGetGainsParser(t *testing.T) {
	for _, source := range []string{"groww-stocks", "groww-mf", "zerodha"} {
		p, err := GetGainsParser(source)
		require.NoError(t, err, source)
		assert.NotNil(t, p)
	}

	_, err := GetGainsParser("eac")
	assert.Error(t, err)
}
