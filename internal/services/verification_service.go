package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"gorm.io/gorm"

	"schoolpay_backend/internal/apperr"
	"schoolpay_backend/internal/gateway"
	"schoolpay_backend/internal/models"
)

// AmountTolerance absorbs floating rounding between the claimed and the
// gateway-reported amount, in major units.
const AmountTolerance = 0.01

// VerificationService confirms gateway outcomes and credits the fee ledger
// exactly once per order. It is safe to call any number of times for the
// same order: user refreshes, retried client calls and future webhooks all
// land here.
type VerificationService struct {
	db       *gorm.DB
	gateways gateway.Resolver
	notifier Notifier
}

func NewVerificationService(db *gorm.DB, gateways gateway.Resolver, notifier Notifier) *VerificationService {
	return &VerificationService{db: db, gateways: gateways, notifier: notifier}
}

type VerifyInput struct {
	StudentID     uint                  `json:"student_id" validate:"required"`
	OrderID       string                `json:"order_id" validate:"required"`
	Gateway       models.PaymentGateway `json:"gateway" validate:"required"`
	ClaimedAmount float64               `json:"claimed_amount" validate:"required"`
}

type VerifyResult struct {
	Completed     bool               `json:"completed"`
	GatewayStatus string             `json:"gateway_status"`
	Payment       *models.Payment    `json:"payment,omitempty"`
	Fee           *models.StudentFee `json:"fee,omitempty"`
}

// Verify queries the gateway for the authoritative order status and, if
// charged, records the payment and credits the ledger in one transaction.
// A pending order reports Completed=false without error; any other gateway
// status is surfaced verbatim as a failed verification.
func (s *VerificationService) Verify(ctx context.Context, principal models.Principal, in VerifyInput) (*VerifyResult, error) {
	if !principal.IsAdmin() && !principal.OwnsStudent(in.StudentID) {
		return nil, apperr.Forbidden("not_order_owner", "you can only verify your own payments")
	}

	var student models.Student
	if err := s.db.WithContext(ctx).Where("id = ? AND school_id = ?", in.StudentID, principal.SchoolID).First(&student).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("student_not_found", "student %d not found in your school", in.StudentID)
		}
		return nil, err
	}

	gw, err := s.gateways.For(student.SchoolID, in.Gateway)
	if err != nil {
		return nil, err
	}

	state, err := gw.OrderStatus(ctx, in.OrderID)
	if err != nil {
		return nil, err
	}

	switch state.Status {
	case gateway.OrderCharged:
		// proceed
	case gateway.OrderPending:
		return &VerifyResult{Completed: false, GatewayStatus: state.RawStatus}, nil
	default:
		return nil, apperr.Validation("payment_not_completed", "gateway reports order %s as %q", in.OrderID, state.RawStatus)
	}

	if math.Abs(state.Amount-in.ClaimedAmount) > AmountTolerance {
		return nil, apperr.Validation("amount_mismatch",
			"gateway reports amount %.2f but %.2f was claimed", state.Amount, in.ClaimedAmount)
	}

	result := &VerifyResult{Completed: true, GatewayStatus: state.RawStatus}
	var notifyUser bool

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Resolve the pre-created-vs-legacy variant once; both paths share
		// the same ledger update below.
		var existing models.Payment
		findErr := lockForUpdate(tx).
			Where("student_id = ? AND (order_id = ? OR (gateway_transaction_id <> '' AND gateway_transaction_id = ?))",
				student.ID, in.OrderID, state.TransactionID).
			First(&existing).Error

		var payment *models.Payment
		switch {
		case findErr == nil && existing.Status == models.PaymentStatusSuccess:
			// Already verified; return the same payment and current ledger
			// state without re-crediting.
			result.Payment = &existing
			var fee models.StudentFee
			if existing.EventRegistrationID == nil {
				if err := tx.Where("student_id = ?", student.ID).First(&fee).Error; err == nil {
					result.Fee = &fee
				}
			}
			return nil
		case findErr == nil:
			now := time.Now()
			existing.Status = models.PaymentStatusSuccess
			existing.GatewayTransactionID = state.TransactionID
			existing.Amount = state.Amount
			existing.PaidAt = &now
			if err := tx.Save(&existing).Error; err != nil {
				return err
			}
			payment = &existing
		case errors.Is(findErr, gorm.ErrRecordNotFound):
			// No pre-created row for this order; record it now
			now := time.Now()
			created := models.Payment{
				SchoolID:             student.SchoolID,
				StudentID:            student.ID,
				Amount:               state.Amount,
				Status:               models.PaymentStatusSuccess,
				Gateway:              in.Gateway,
				OrderID:              in.OrderID,
				GatewayTransactionID: state.TransactionID,
				PaidAt:               &now,
			}
			if err := tx.Create(&created).Error; err != nil {
				return err
			}
			payment = &created
		default:
			return findErr
		}

		if payment.EventRegistrationID != nil {
			// Non-fee payment: update the registration, never the ledger
			if err := tx.Model(&models.EventRegistration{}).
				Where("id = ?", *payment.EventRegistrationID).
				Update("status", models.EventRegistrationPaid).Error; err != nil {
				return err
			}
			result.Payment = payment
			notifyUser = true
			return nil
		}

		var fee models.StudentFee
		if err := lockForUpdate(tx).Where("student_id = ?", student.ID).First(&fee).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.Config("fee_ledger_missing", "student %d has no fee ledger; admission is incomplete", student.ID)
			}
			return err
		}

		fee.Credit(state.Amount)
		if err := tx.Save(&fee).Error; err != nil {
			return err
		}

		result.Payment = payment
		result.Fee = &fee
		notifyUser = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if notifyUser {
		s.notifyPaymentCompleted(ctx, student, state.Amount, in.OrderID)
	}
	return result, nil
}

// notifyPaymentCompleted hands the notification to the queue; failures are
// the notifier's to swallow and never affect the verification result.
func (s *VerificationService) notifyPaymentCompleted(ctx context.Context, student models.Student, amount float64, orderID string) {
	if s.notifier == nil {
		return
	}
	var user models.User
	if err := s.db.WithContext(ctx).Where("student_id = ?", student.ID).First(&user).Error; err != nil {
		return
	}
	s.notifier.Notify(ctx, user.ID, NotifyCategoryPayment,
		"Payment received",
		fmt.Sprintf("Your payment of %.2f (order %s) has been received.", amount, orderID))
}
