package models

import (
	"testing"
)

func TestStudentFeeCreditDebit(t *testing.T) {
	fee := StudentFee{TotalFee: 10000, DiscountPercent: 10, FinalFee: 9000, RemainingFee: 9000}

	fee.Credit(3000)
	if fee.AmountPaid != 3000 || fee.RemainingFee != 6000 {
		t.Errorf("after credit: paid=%.2f remaining=%.2f; want 3000/6000", fee.AmountPaid, fee.RemainingFee)
	}

	fee.Debit(1000)
	if fee.AmountPaid != 2000 || fee.RemainingFee != 7000 {
		t.Errorf("after debit: paid=%.2f remaining=%.2f; want 2000/7000", fee.AmountPaid, fee.RemainingFee)
	}
}

func TestStudentFeeNeverGoesNegative(t *testing.T) {
	fee := StudentFee{TotalFee: 1000, FinalFee: 1000, AmountPaid: 200, RemainingFee: 800}

	// Refund larger than what was paid floors AmountPaid at zero
	fee.Debit(500)
	if fee.AmountPaid != 0 {
		t.Errorf("AmountPaid = %.2f; want floored 0", fee.AmountPaid)
	}
	if fee.RemainingFee != 1000 {
		t.Errorf("RemainingFee = %.2f; want 1000", fee.RemainingFee)
	}

	// Overpayment floors RemainingFee at zero
	fee.Credit(5000)
	if fee.RemainingFee != 0 {
		t.Errorf("RemainingFee = %.2f; want floored 0", fee.RemainingFee)
	}
	if fee.AmountPaid != 5000 {
		t.Errorf("AmountPaid = %.2f; want 5000", fee.AmountPaid)
	}
}

func TestApplyScheduleDelta(t *testing.T) {
	tests := []struct {
		name          string
		fee           StudentFee
		delta         float64
		wantTotal     float64
		wantFinal     float64
		wantRemaining float64
	}{
		{
			name:          "positive delta with discount",
			fee:           StudentFee{TotalFee: 10000, DiscountPercent: 10, FinalFee: 9000, RemainingFee: 9000},
			delta:         500,
			wantTotal:     10500,
			wantFinal:     9450,
			wantRemaining: 9450,
		},
		{
			name:          "negative delta",
			fee:           StudentFee{TotalFee: 10500, DiscountPercent: 10, FinalFee: 9450, RemainingFee: 9450},
			delta:         -500,
			wantTotal:     10000,
			wantFinal:     9000,
			wantRemaining: 9000,
		},
		{
			name:          "remaining floors at zero for a fully paid student",
			fee:           StudentFee{TotalFee: 1000, FinalFee: 1000, AmountPaid: 1000, RemainingFee: 0},
			delta:         -300,
			wantTotal:     700,
			wantFinal:     700,
			wantRemaining: 0,
		},
		{
			name:          "no discount",
			fee:           StudentFee{TotalFee: 2000, FinalFee: 2000, RemainingFee: 2000},
			delta:         100,
			wantTotal:     2100,
			wantFinal:     2100,
			wantRemaining: 2100,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.fee.ApplyScheduleDelta(tt.delta)
			if tt.fee.TotalFee != tt.wantTotal {
				t.Errorf("TotalFee = %.2f; want %.2f", tt.fee.TotalFee, tt.wantTotal)
			}
			if tt.fee.FinalFee != tt.wantFinal {
				t.Errorf("FinalFee = %.2f; want %.2f", tt.fee.FinalFee, tt.wantFinal)
			}
			if tt.fee.RemainingFee != tt.wantRemaining {
				t.Errorf("RemainingFee = %.2f; want %.2f", tt.fee.RemainingFee, tt.wantRemaining)
			}
		})
	}
}
