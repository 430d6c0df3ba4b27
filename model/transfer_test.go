package model

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRequest() *TransferRequest {
	return &TransferRequest{
		DebitCustomerID: "CUS_1",
		DebitAccountID:  "ACC_1",
		CreditAccountID: "ACC_2",
		Amount:          decimal.RequireFromString("10.00"),
		Currency:        "SGD",
		TransactionDate: "2025-06-01",
		Memo:            "lunch",
		RefID:           "ref_1",
	}
}

func TestValidateTransferRequest(t *testing.T) {
	assert.NoError(t, validRequest().ValidateTransferRequest())

	missing := validRequest()
	missing.RefID = ""
	assert.Error(t, missing.ValidateTransferRequest())

	noDebit := validRequest()
	noDebit.DebitAccountID = ""
	assert.Error(t, noDebit.ValidateTransferRequest())

	badCurrency := validRequest()
	badCurrency.Currency = "XXX"
	assert.Error(t, badCurrency.ValidateTransferRequest())

	zeroAmount := validRequest()
	zeroAmount.Amount = decimal.Zero
	assert.Error(t, zeroAmount.ValidateTransferRequest())

	negativeAmount := validRequest()
	negativeAmount.Amount = decimal.RequireFromString("-1.00")
	assert.Error(t, negativeAmount.ValidateTransferRequest())
}

func TestKnownCurrency(t *testing.T) {
	assert.True(t, KnownCurrency("USD"))
	assert.True(t, KnownCurrency("IDR"))
	assert.False(t, KnownCurrency("EUR"))
	assert.False(t, KnownCurrency(""))
}

func TestGenerateIDWithPrefix(t *testing.T) {
	id := GenerateIDWithPrefix("txn")
	assert.Contains(t, id, "txn_")

	// V7 ids are time-ordered, so later ids sort after earlier ones.
	other := GenerateIDWithPrefix("txn")
	assert.NotEqual(t, id, other)
	assert.Less(t, id, other)
}

func TestNewOutboxEvent(t *testing.T) {
	record := &TransferRecord{
		TransactionID:  "txn_1",
		Status:         StatusCompleted,
		TransferAmount: decimal.RequireFromString("99.98"),
	}

	event, err := NewOutboxEvent(record)
	require.NoError(t, err)
	assert.Equal(t, EventSource, event.Source)
	assert.Equal(t, EventDetailType, event.DetailType)
	assert.False(t, event.Time.IsZero())

	var decoded TransferRecord
	require.NoError(t, json.Unmarshal(event.Detail, &decoded))
	assert.Equal(t, "txn_1", decoded.TransactionID)
	assert.True(t, decoded.TransferAmount.Equal(record.TransferAmount))
}
