package services

import (
	"context"
	"testing"

	"gorm.io/gorm"

	"schoolpay_backend/internal/apperr"
	"schoolpay_backend/internal/gateway"
	"schoolpay_backend/internal/models"
)

func seedSuccessPayment(t *testing.T, db *gorm.DB, student models.Student, amount float64, gw models.PaymentGateway) models.Payment {
	t.Helper()
	payment := models.Payment{
		SchoolID:  student.SchoolID,
		StudentID: student.ID,
		Amount:    amount,
		Status:    models.PaymentStatusSuccess,
		Gateway:   gw,
		OrderID:   NewOrderID(),
	}
	if err := db.Create(&payment).Error; err != nil {
		t.Fatalf("failed to seed payment: %v", err)
	}
	return payment
}

func TestRefundScenario(t *testing.T) {
	// Spec scenario: total 10000, discount 10%, pay 3000, refund 1000,
	// then 2500 must be rejected (max refundable 2000).
	db := newTestDB(t)
	student, studentPrincipal, admin := seedStudent(t, db, seedOpts{totalFee: 10000, discountPercent: 10})

	gw := &fakeGateway{state: &gateway.OrderState{Status: gateway.OrderCharged, RawStatus: "CHARGED", Amount: 3000, TransactionID: "txn-r1"}}
	resolver := &fakeResolver{gw: gw}
	verifier := NewVerificationService(db, resolver, &fakeNotifier{})
	refunder := NewRefundService(db, resolver, &fakeNotifier{})

	result, err := verifier.Verify(context.Background(), studentPrincipal, VerifyInput{
		StudentID: student.ID, OrderID: "FEESCENARIO", Gateway: models.PaymentGatewayJuspay, ClaimedAmount: 3000,
	})
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}

	refundResult, err := refunder.Refund(context.Background(), admin, RefundInput{
		PaymentID: result.Payment.ID, Amount: 1000, Reason: "duplicate charge",
	})
	if err != nil {
		t.Fatalf("refund failed: %v", err)
	}
	if !almostEqual(refundResult.Fee.AmountPaid, 2000) {
		t.Errorf("AmountPaid = %.2f; want 2000.00", refundResult.Fee.AmountPaid)
	}
	if !almostEqual(refundResult.Fee.RemainingFee, 7000) {
		t.Errorf("RemainingFee = %.2f; want 7000.00", refundResult.Fee.RemainingFee)
	}

	_, err = refunder.Refund(context.Background(), admin, RefundInput{
		PaymentID: result.Payment.ID, Amount: 2500, Reason: "second attempt",
	})
	appErr, ok := apperr.As(err)
	if !ok || appErr.Code != "refund_exceeds_balance" {
		t.Fatalf("expected refund_exceeds_balance, got %v", err)
	}

	// A refund within the remaining balance still goes through
	if _, err := refunder.Refund(context.Background(), admin, RefundInput{
		PaymentID: result.Payment.ID, Amount: 2000, Reason: "withdrawal",
	}); err != nil {
		t.Fatalf("refund within balance failed: %v", err)
	}

	fee := loadFee(t, db, student.ID)
	if !almostEqual(fee.AmountPaid, 0) {
		t.Errorf("AmountPaid = %.2f; want 0 after refunding everything", fee.AmountPaid)
	}
	if !almostEqual(fee.RemainingFee, 9000) {
		t.Errorf("RemainingFee = %.2f; want 9000.00", fee.RemainingFee)
	}
}

func TestRefundOneMinorUnitOverBalanceRejected(t *testing.T) {
	db := newTestDB(t)
	student, _, admin := seedStudent(t, db, seedOpts{totalFee: 10000})

	payment := seedSuccessPayment(t, db, student, 3000, models.PaymentGatewayManual)
	loadFeeAndPay(t, db, student.ID, 3000)

	refunder := NewRefundService(db, &fakeResolver{gw: &fakeGateway{}}, &fakeNotifier{})

	if _, err := refunder.Refund(context.Background(), admin, RefundInput{PaymentID: payment.ID, Amount: 1000, Reason: "partial"}); err != nil {
		t.Fatalf("first refund failed: %v", err)
	}

	_, err := refunder.Refund(context.Background(), admin, RefundInput{PaymentID: payment.ID, Amount: 2000.01, Reason: "over"})
	appErr, ok := apperr.As(err)
	if !ok || appErr.Code != "refund_exceeds_balance" {
		t.Fatalf("expected refund_exceeds_balance for one minor unit over, got %v", err)
	}
}

func TestRefundManualPaymentSkipsGateway(t *testing.T) {
	db := newTestDB(t)
	student, _, admin := seedStudent(t, db, seedOpts{totalFee: 10000})

	payment := seedSuccessPayment(t, db, student, 1500, models.PaymentGatewayManual)
	loadFeeAndPay(t, db, student.ID, 1500)

	gw := &fakeGateway{}
	refunder := NewRefundService(db, &fakeResolver{gw: gw}, &fakeNotifier{})

	if _, err := refunder.Refund(context.Background(), admin, RefundInput{PaymentID: payment.ID, Amount: 500, Reason: "manual adjustment"}); err != nil {
		t.Fatalf("refund failed: %v", err)
	}
	if len(gw.refundCalls) != 0 {
		t.Errorf("gateway refund called %d times for a manual payment; want 0", len(gw.refundCalls))
	}
}

func TestRefundOnlinePaymentCallsGatewayWithOrderID(t *testing.T) {
	db := newTestDB(t)
	student, _, admin := seedStudent(t, db, seedOpts{totalFee: 10000})

	payment := seedSuccessPayment(t, db, student, 1500, models.PaymentGatewayJuspay)
	loadFeeAndPay(t, db, student.ID, 1500)

	gw := &fakeGateway{refundRes: &gateway.RefundResult{Status: gateway.RefundPending, RawStatus: "PENDING"}}
	refunder := NewRefundService(db, &fakeResolver{gw: gw}, &fakeNotifier{})

	if _, err := refunder.Refund(context.Background(), admin, RefundInput{PaymentID: payment.ID, Amount: 500, Reason: "gateway refund"}); err != nil {
		t.Fatalf("refund with PENDING gateway outcome should be accepted: %v", err)
	}
	if len(gw.refundCalls) != 1 {
		t.Fatalf("gateway refund calls = %d; want 1", len(gw.refundCalls))
	}
	call := gw.refundCalls[0]
	if call.OrderID != payment.OrderID {
		t.Errorf("gateway refund keyed by %q; want the original order id %q", call.OrderID, payment.OrderID)
	}
	if call.IdempotencyKey == "" {
		t.Error("gateway refund sent without an idempotency key")
	}
}

func TestRefundRejectedGatewayOutcomeWritesNothing(t *testing.T) {
	db := newTestDB(t)
	student, _, admin := seedStudent(t, db, seedOpts{totalFee: 10000})

	payment := seedSuccessPayment(t, db, student, 1500, models.PaymentGatewayJuspay)
	loadFeeAndPay(t, db, student.ID, 1500)

	gw := &fakeGateway{refundRes: &gateway.RefundResult{Status: gateway.RefundFailed, RawStatus: "FAILURE"}}
	refunder := NewRefundService(db, &fakeResolver{gw: gw}, &fakeNotifier{})

	_, err := refunder.Refund(context.Background(), admin, RefundInput{PaymentID: payment.ID, Amount: 500, Reason: "declined"})
	appErr, ok := apperr.As(err)
	if !ok || appErr.Code != "gateway_refund_rejected" {
		t.Fatalf("expected gateway_refund_rejected, got %v", err)
	}

	var count int64
	db.Model(&models.Refund{}).Count(&count)
	if count != 0 {
		t.Errorf("refund rows = %d; a rejected gateway outcome must write nothing", count)
	}
	fee := loadFee(t, db, student.ID)
	if !almostEqual(fee.AmountPaid, 1500) {
		t.Errorf("AmountPaid = %.2f; ledger must be untouched", fee.AmountPaid)
	}
}

func TestRefundPreconditions(t *testing.T) {
	db := newTestDB(t)
	student, studentPrincipal, admin := seedStudent(t, db, seedOpts{totalFee: 10000})

	pending := models.Payment{
		SchoolID: student.SchoolID, StudentID: student.ID, Amount: 100,
		Status: models.PaymentStatusPending, Gateway: models.PaymentGatewayManual, OrderID: NewOrderID(),
	}
	if err := db.Create(&pending).Error; err != nil {
		t.Fatalf("failed to seed pending payment: %v", err)
	}

	reg := models.EventRegistration{SchoolID: student.SchoolID, StudentID: student.ID, EventName: "Trip", Amount: 300}
	if err := db.Create(&reg).Error; err != nil {
		t.Fatalf("failed to seed registration: %v", err)
	}
	eventPayment := models.Payment{
		SchoolID: student.SchoolID, StudentID: student.ID, Amount: 300,
		Status: models.PaymentStatusSuccess, Gateway: models.PaymentGatewayManual,
		OrderID: NewOrderID(), EventRegistrationID: &reg.ID,
	}
	if err := db.Create(&eventPayment).Error; err != nil {
		t.Fatalf("failed to seed event payment: %v", err)
	}

	refunder := NewRefundService(db, &fakeResolver{gw: &fakeGateway{}}, &fakeNotifier{})

	tests := []struct {
		name      string
		principal models.Principal
		in        RefundInput
		wantCode  string
	}{
		{
			name:      "non-admin caller",
			principal: studentPrincipal,
			in:        RefundInput{PaymentID: pending.ID, Amount: 50, Reason: "x"},
			wantCode:  "admin_required",
		},
		{
			name:      "non-positive amount",
			principal: admin,
			in:        RefundInput{PaymentID: pending.ID, Amount: 0, Reason: "x"},
			wantCode:  "invalid_amount",
		},
		{
			name:      "unknown payment",
			principal: admin,
			in:        RefundInput{PaymentID: 99999, Amount: 50, Reason: "x"},
			wantCode:  "payment_not_found",
		},
		{
			name:      "payment not successful",
			principal: admin,
			in:        RefundInput{PaymentID: pending.ID, Amount: 50, Reason: "x"},
			wantCode:  "payment_not_refundable",
		},
		{
			name:      "event payment",
			principal: admin,
			in:        RefundInput{PaymentID: eventPayment.ID, Amount: 50, Reason: "x"},
			wantCode:  "non_fee_payment",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := refunder.Refund(context.Background(), tt.principal, tt.in)
			appErr, ok := apperr.As(err)
			if !ok || appErr.Code != tt.wantCode {
				t.Fatalf("got %v; want code %s", err, tt.wantCode)
			}
		})
	}
}
