package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to string
		allowed  bool
	}{
		{TransferStatusPending, TransferStatusApproved, true},
		{TransferStatusPending, TransferStatusRejected, true},
		{TransferStatusPending, TransferStatusCancelled, true},
		{TransferStatusPending, TransferStatusCompleted, false},
		{TransferStatusPending, TransferStatusPending, false},
		{TransferStatusApproved, TransferStatusCompleted, true},
		{TransferStatusApproved, TransferStatusCancelled, true},
		{TransferStatusApproved, TransferStatusRejected, false},
		{TransferStatusApproved, TransferStatusPending, false},
		{TransferStatusCompleted, TransferStatusPending, false},
		{TransferStatusCompleted, TransferStatusCancelled, false},
		{TransferStatusCancelled, TransferStatusCompleted, false},
		{TransferStatusRejected, TransferStatusApproved, false},
		{"BOGUS", TransferStatusApproved, false},
		{TransferStatusPending, "BOGUS", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.allowed, CanTransition(tt.from, tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestTerminalStatuses(t *testing.T) {
	assert.True(t, IsTerminal(TransferStatusCompleted))
	assert.True(t, IsTerminal(TransferStatusCancelled))
	assert.True(t, IsTerminal(TransferStatusRejected))
	assert.False(t, IsTerminal(TransferStatusPending))
	assert.False(t, IsTerminal(TransferStatusApproved))
}

func TestValidTransferStatus(t *testing.T) {
	for _, s := range TransferStatuses {
		assert.True(t, ValidTransferStatus(s), s)
	}
	assert.False(t, ValidTransferStatus("completed"))
	assert.False(t, ValidTransferStatus(""))
}

func TestOriginWarehouse(t *testing.T) {
	src := "W0"

	in := Transfer{Type: TransferTypeIn, TargetID: "W1"}
	assert.Nil(t, in.OriginWarehouseID())
	assert.Equal(t, "W1", in.HoldingWarehouseID())

	out := Transfer{Type: TransferTypeOut, TargetID: "W1"}
	if assert.NotNil(t, out.OriginWarehouseID()) {
		assert.Equal(t, "W1", *out.OriginWarehouseID())
	}

	outFrom := Transfer{Type: TransferTypeOut, SourceID: &src, TargetID: "W1"}
	assert.Equal(t, "W0", outFrom.HoldingWarehouseID())

	move := Transfer{Type: TransferTypeTransfer, SourceID: &src, TargetID: "W1"}
	assert.Equal(t, "W0", move.HoldingWarehouseID())
}
