package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRecord() *Record {
	return &Record{
		NaturalID:   "BILLS-119hr1234ih",
		Kind:        "filing",
		Description: "A bill to amend the Truth in Lending Act.",
		Date:        time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC),
	}
}

func TestValidateRecord_Valid(t *testing.T) {
	require.NoError(t, ValidateRecord(validRecord()))
}

func TestValidateRecord_Nil(t *testing.T) {
	err := ValidateRecord(nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidRecord)
}

func TestValidateRecord_EmptyNaturalID(t *testing.T) {
	record := validRecord()
	record.NaturalID = ""
	err := ValidateRecord(record)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidRecord)
	assert.ErrorIs(t, err, ErrEmptyNaturalID)
}

func TestValidateRecord_EmptyKind(t *testing.T) {
	record := validRecord()
	record.Kind = ""
	err := ValidateRecord(record)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmptyKind)
}

func TestValidateRecord_EmptyDescription(t *testing.T) {
	record := validRecord()
	record.Description = ""
	err := ValidateRecord(record)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmptyDescription)
}

func TestValidateRecord_FutureDate(t *testing.T) {
	record := validRecord()
	record.Date = time.Now().Add(24 * time.Hour)
	err := ValidateRecord(record)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestValidateRecord_EmptyVectorAllowed(t *testing.T) {
	// Vectors are populated by the pipeline; an unembedded record is valid.
	record := validRecord()
	record.Vector = nil
	assert.NoError(t, ValidateRecord(record))
}
