package enum

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFiscalStatusString(t *testing.T) {
	assert.Equal(t, "Pending", FiscalStatusPending.String())
	assert.Equal(t, "Authorized", FiscalStatusAuthorized.String())
	assert.Equal(t, "Rejected", FiscalStatusRejected.String())
	assert.Equal(t, "Error", FiscalStatusError.String())

	// A corrupted value scanned from the database must not panic
	assert.Equal(t, "Unknown", FiscalStatus(9).String())
	assert.Equal(t, "Unknown", FiscalStatus(-1).String())
}

func TestSaleStatusString(t *testing.T) {
	assert.Equal(t, "Open", SaleStatusOpen.String())
	assert.Equal(t, "Concluded", SaleStatusConcluded.String())
	assert.Equal(t, "Cancelled", SaleStatusCancelled.String())
	assert.Equal(t, "Unknown", SaleStatus(9).String())
}
