package model

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitPayment(t *testing.T) {
	tests := []struct {
		name         string
		total        float64
		wantEmployee float64
		wantCompany  float64
	}{
		{"zero", 0, 0, 0},
		{"even split", 1000, 250, 750},
		{"exact cents", 100, 25, 75},
		{"one cent rounds down", 0.01, 0.00, 0.01},
		{"two cents half-even to even quarter", 0.02, 0.00, 0.02},
		{"three cents rounds up", 0.03, 0.01, 0.02},
		{"half cent rounds to even", 0.06, 0.02, 0.04},
		{"typical invoice", 120.50, 30.12, 90.38},
		{"odd total", 99.99, 25.00, 74.99},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			employee, company := SplitPayment(tt.total)
			assert.InDelta(t, tt.wantEmployee, employee, 0.001)
			assert.InDelta(t, tt.wantCompany, company, 0.001)
			// Shares always reconstruct the original total exactly in cents.
			assert.InDelta(t, tt.total, employee+company, 0.001)
		})
	}
}

func TestSplitPayment_SharesSumToTotal(t *testing.T) {
	for cents := int64(0); cents <= 1000; cents++ {
		total := float64(cents) / 100
		employee, company := SplitPayment(total)
		sum := math.Round((employee + company) * 100)
		require.Equal(t, cents, int64(sum), "total %.2f", total)
	}
}

func TestCreateWorkCompletionRequest_Normalize(t *testing.T) {
	req := CreateWorkCompletionRequest{
		Title:              "  Screen replaced  ",
		Details:            " swapped panel ",
		TotalPaymentAmount: 80,
		PaymentMethod:      " CASH ",
	}
	req.Normalize()

	assert.Equal(t, "Screen replaced", req.Title)
	assert.Equal(t, "cash", req.PaymentMethod)
	assert.Equal(t, "paid", req.PaymentStatus)
}

func TestCreateWorkCompletionRequest_Validate(t *testing.T) {
	valid := CreateWorkCompletionRequest{
		Title:              "Screen replaced",
		Details:            "swapped panel",
		TotalPaymentAmount: 80,
		PaymentMethod:      "cash",
		PaymentStatus:      "paid",
	}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name    string
		mutate  func(*CreateWorkCompletionRequest)
		wantErr string
	}{
		{"missing title", func(r *CreateWorkCompletionRequest) { r.Title = "" }, "title is required"},
		{"missing details", func(r *CreateWorkCompletionRequest) { r.Details = "" }, "details is required"},
		{
			"negative amount",
			func(r *CreateWorkCompletionRequest) { r.TotalPaymentAmount = -1 },
			"total_payment_amount cannot be negative",
		},
		{
			"nan amount",
			func(r *CreateWorkCompletionRequest) { r.TotalPaymentAmount = math.NaN() },
			"total_payment_amount must be a finite number",
		},
		{
			"missing payment method",
			func(r *CreateWorkCompletionRequest) { r.PaymentMethod = "" },
			"payment_method is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			tt.mutate(&req)
			err := req.Validate()
			require.Error(t, err)
			assert.EqualError(t, err, tt.wantErr)
		})
	}
}
