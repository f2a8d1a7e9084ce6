package validation

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/username/capgains/backend/src/logger"
)

func TestMain(m *testing.M) {
	logger.InitLogger("error")
	os.Exit(m.Run())
}

func TestValidateClientContentType(t *testing.T) {
	assert.NoError(t, ValidateClientContentType("application/json"))
	assert.NoError(t, ValidateClientContentType("application/json; charset=utf-8"))
	assert.NoError(t, ValidateClientContentType("application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"))
	assert.Error(t, ValidateClientContentType("text/html"))
	assert.Error(t, ValidateClientContentType("application/pdf"))
}

func TestValidateFileContentByMagicBytes_JSON(t *testing.T) {
	file := bytes.NewReader([]byte(`{"Transactions": []}`))
	detected, err := ValidateFileContentByMagicBytes(file)
	require.NoError(t, err)
	assert.Equal(t, "text/plain", detected)

	// The read pointer was reset for the actual parser.
	pos, err := file.Seek(0, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(0), pos)
}

func TestValidateFileContentByMagicBytes_Workbook(t *testing.T) {
	// xlsx files are zip archives.
	file := bytes.NewReader([]byte("PK\x03\x04rest-of-archive"))
	detected, err := ValidateFileContentByMagicBytes(file)
	require.NoError(t, err)
	assert.Equal(t, "application/zip", detected)
}

func TestValidateFileContentByMagicBytes_Rejected(t *testing.T) {
	file := bytes.NewReader([]byte("%PDF-1.7 content"))
	_, err := ValidateFileContentByMagicBytes(file)
	assert.Error(t, err)
}
