package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateStatusChange(t *testing.T) {
	tests := []struct {
		name    string
		current RegistrationStatus
		change  StatusChange
		wantErr error
	}{
		{
			name:    "approve pending",
			current: RegistrationStatusPending,
			change:  StatusChange{To: RegistrationStatusApproved},
		},
		{
			name:    "reject pending with reason",
			current: RegistrationStatusPending,
			change:  StatusChange{To: RegistrationStatusRejected, RejectionReason: "class is full"},
		},
		{
			name:    "reject without reason",
			current: RegistrationStatusPending,
			change:  StatusChange{To: RegistrationStatusRejected, Notes: "some notes"},
			wantErr: ErrRejectionReasonRequired,
		},
		{
			name:    "reject with blank reason",
			current: RegistrationStatusPending,
			change:  StatusChange{To: RegistrationStatusRejected, RejectionReason: "   \n"},
			wantErr: ErrRejectionReasonRequired,
		},
		{
			name:    "approved is terminal",
			current: RegistrationStatusApproved,
			change:  StatusChange{To: RegistrationStatusRejected, RejectionReason: "changed my mind"},
			wantErr: ErrInvalidTransition,
		},
		{
			name:    "rejected is terminal",
			current: RegistrationStatusRejected,
			change:  StatusChange{To: RegistrationStatusApproved},
			wantErr: ErrInvalidTransition,
		},
		{
			name:    "back to pending",
			current: RegistrationStatusPending,
			change:  StatusChange{To: RegistrationStatusPending},
			wantErr: ErrInvalidTransition,
		},
		{
			name:    "unknown status",
			current: RegistrationStatusPending,
			change:  StatusChange{To: "cancelled"},
			wantErr: ErrInvalidStatus,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStatusChange(tt.current, tt.change)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestValidateStatusChange_RejectionReasonMessage(t *testing.T) {
	err := ValidateStatusChange(RegistrationStatusPending, StatusChange{To: RegistrationStatusRejected})
	require.Error(t, err)
	assert.True(t, IsValidation(err))
	assert.Equal(t, "Rejection reason is required", err.Error())
}

func TestValidatePaymentChange(t *testing.T) {
	tests := []struct {
		name    string
		reg     Registration
		to      PaymentStatus
		wantErr error
	}{
		{"approved unpaid to paid", Registration{Status: RegistrationStatusApproved, PaymentStatus: PaymentStatusUnpaid}, PaymentStatusPaid, nil},
		{"approved pending to free", Registration{Status: RegistrationStatusApproved, PaymentStatus: PaymentStatusPending}, PaymentStatusFree, nil},
		{"pending registration", Registration{Status: RegistrationStatusPending, PaymentStatus: PaymentStatusUnpaid}, PaymentStatusPaid, ErrPaymentNotAllowed},
		{"rejected registration", Registration{Status: RegistrationStatusRejected, PaymentStatus: PaymentStatusUnpaid}, PaymentStatusFree, ErrPaymentNotAllowed},
		{"already paid", Registration{Status: RegistrationStatusApproved, PaymentStatus: PaymentStatusPaid}, PaymentStatusFree, ErrPaymentFinalized},
		{"already free", Registration{Status: RegistrationStatusApproved, PaymentStatus: PaymentStatusFree}, PaymentStatusPaid, ErrPaymentFinalized},
		{"target unpaid", Registration{Status: RegistrationStatusApproved, PaymentStatus: PaymentStatusPending}, PaymentStatusUnpaid, ErrInvalidPaymentStatus},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePaymentChange(&tt.reg, tt.to)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestAvailableActions(t *testing.T) {
	pending := &Registration{Status: RegistrationStatusPending, PaymentStatus: PaymentStatusUnpaid}
	assert.ElementsMatch(t, []Action{ActionSendMessage, ActionApprove, ActionReject}, AvailableActions(pending))
	assert.False(t, HasAction(pending, ActionMarkPaid))
	assert.False(t, HasAction(pending, ActionMarkFree))
	assert.False(t, HasAction(pending, ActionSendPaymentLink))

	approved := &Registration{Status: RegistrationStatusApproved, PaymentStatus: PaymentStatusUnpaid}
	assert.ElementsMatch(t,
		[]Action{ActionSendMessage, ActionSendPaymentLink, ActionMarkPaid, ActionMarkFree},
		AvailableActions(approved))

	paid := &Registration{Status: RegistrationStatusApproved, PaymentStatus: PaymentStatusPaid}
	assert.Equal(t, []Action{ActionSendMessage}, AvailableActions(paid))

	rejected := &Registration{Status: RegistrationStatusRejected, PaymentStatus: PaymentStatusUnpaid}
	assert.Equal(t, []Action{ActionSendMessage}, AvailableActions(rejected))
}

func TestComposeNotes(t *testing.T) {
	assert.Equal(t, "see you", ComposeNotes(StatusChange{To: RegistrationStatusApproved, Notes: " see you "}))
	assert.Equal(t, "full", ComposeNotes(StatusChange{To: RegistrationStatusRejected, RejectionReason: "full"}))
	assert.Equal(t, "full\n\nAdditional Notes: try next month",
		ComposeNotes(StatusChange{To: RegistrationStatusRejected, RejectionReason: "full", Notes: "try next month"}))
}

func TestSplitNotes(t *testing.T) {
	tests := []struct {
		name       string
		notes      string
		wantReason string
		wantExtra  string
	}{
		{name: "reason only", notes: " full ", wantReason: "full"},
		{name: "with notes", notes: "full\n\nAdditional Notes: try next month", wantReason: "full", wantExtra: "try next month"},
		{name: "empty", notes: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reason, extra := SplitNotes(tt.notes)
			assert.Equal(t, tt.wantReason, reason)
			assert.Equal(t, tt.wantExtra, extra)
		})
	}

	change := StatusChange{To: RegistrationStatusRejected, RejectionReason: "full", Notes: "try next month"}
	reason, extra := SplitNotes(ComposeNotes(change))
	assert.Equal(t, change.RejectionReason, reason)
	assert.Equal(t, change.Notes, extra)
}
