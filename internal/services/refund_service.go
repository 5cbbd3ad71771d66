package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"schoolpay_backend/internal/apperr"
	"schoolpay_backend/internal/gateway"
	"schoolpay_backend/internal/models"
)

// RefundService reverses successful fee payments. Each call is a new refund
// attempt, not an idempotent retry; over-refunding is prevented by
// re-checking the refundable balance under the payment row lock in the same
// transaction that inserts the Refund row.
type RefundService struct {
	db       *gorm.DB
	gateways gateway.Resolver
	notifier Notifier
}

func NewRefundService(db *gorm.DB, gateways gateway.Resolver, notifier Notifier) *RefundService {
	return &RefundService{db: db, gateways: gateways, notifier: notifier}
}

type RefundInput struct {
	PaymentID uint    `json:"payment_id" validate:"required"`
	Amount    float64 `json:"amount" validate:"required"`
	Reason    string  `json:"reason" validate:"required"`
}

type RefundResult struct {
	Refund *models.Refund     `json:"refund"`
	Fee    *models.StudentFee `json:"fee,omitempty"`
}

// Refund validates refundability, reverses funds at the gateway for online
// payments, then writes the Refund row and the ledger debit together.
func (s *RefundService) Refund(ctx context.Context, principal models.Principal, in RefundInput) (*RefundResult, error) {
	if !principal.IsAdmin() {
		return nil, apperr.Forbidden("admin_required", "only a school admin can issue refunds")
	}
	if in.Amount <= 0 {
		return nil, apperr.Validation("invalid_amount", "refund amount must be greater than zero")
	}

	var payment models.Payment
	if err := s.db.WithContext(ctx).Where("id = ? AND school_id = ?", in.PaymentID, principal.SchoolID).First(&payment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("payment_not_found", "payment %d not found in your school", in.PaymentID)
		}
		return nil, err
	}
	if payment.Status != models.PaymentStatusSuccess {
		return nil, apperr.Validation("payment_not_refundable", "payment %d has status %s; only successful payments can be refunded", payment.ID, payment.Status)
	}
	if payment.EventRegistrationID != nil {
		return nil, apperr.Validation("non_fee_payment", "payment %d is an event payment; refund it through the event flow", payment.ID)
	}

	refundable, err := s.refundableBalance(s.db.WithContext(ctx), payment)
	if err != nil {
		return nil, err
	}
	if exceedsBalance(in.Amount, refundable) {
		return nil, apperr.Validation("refund_exceeds_balance",
			"refund of %.2f exceeds the refundable balance of %.2f", in.Amount, refundable)
	}

	idempotencyKey := uuid.NewString()
	gatewayCalled := false
	if payment.Gateway != models.PaymentGatewayManual {
		gw, err := s.gateways.For(payment.SchoolID, payment.Gateway)
		if err != nil {
			return nil, err
		}
		// Keyed by the original order id; gateway-internal ids may not
		// resolve for refunds.
		res, err := gw.Refund(ctx, gateway.RefundInput{
			OrderID:        payment.OrderID,
			Amount:         in.Amount,
			IdempotencyKey: idempotencyKey,
			Reason:         in.Reason,
		})
		if err != nil {
			return nil, err
		}
		if res.Status != gateway.RefundPending && res.Status != gateway.RefundSuccess {
			return nil, apperr.Gateway("gateway_refund_rejected", "gateway reports refund status %q", res.RawStatus)
		}
		gatewayCalled = true
	}

	result := &RefundResult{}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var locked models.Payment
		if err := lockForUpdate(tx).Where("id = ?", payment.ID).First(&locked).Error; err != nil {
			return err
		}

		// Re-check under the lock: a concurrent refund may have consumed
		// the balance between the validation above and this transaction.
		refundable, err := s.refundableBalance(tx, locked)
		if err != nil {
			return err
		}
		if exceedsBalance(in.Amount, refundable) {
			return apperr.Conflict("refund_exceeds_balance",
				"refund of %.2f exceeds the refundable balance of %.2f", in.Amount, refundable)
		}

		refund := models.Refund{
			PaymentID:      locked.ID,
			SchoolID:       locked.SchoolID,
			StudentID:      locked.StudentID,
			Amount:         in.Amount,
			Reason:         in.Reason,
			Status:         models.RefundStatusSuccess,
			IdempotencyKey: idempotencyKey,
		}
		if err := tx.Create(&refund).Error; err != nil {
			return err
		}

		var fee models.StudentFee
		if err := lockForUpdate(tx).Where("student_id = ?", locked.StudentID).First(&fee).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.Config("fee_ledger_missing", "student %d has no fee ledger", locked.StudentID)
			}
			return err
		}
		fee.Debit(in.Amount)
		if err := tx.Save(&fee).Error; err != nil {
			return err
		}

		result.Refund = &refund
		result.Fee = &fee
		return nil
	})
	if err != nil {
		if gatewayCalled {
			// The gateway has reversed funds but no local record exists.
			// No automatic compensation; an operator must reconcile.
			log.Printf("RECONCILIATION DISCREPANCY: gateway accepted refund of %.2f for order %s (payment %d, key %s) but the local transaction failed: %v",
				in.Amount, payment.OrderID, payment.ID, idempotencyKey, err)
		}
		return nil, err
	}

	s.notifyRefundCompleted(ctx, payment, in.Amount)
	return result, nil
}

// exceedsBalance is a strict comparison with only float-representation slack;
// one minor unit over the refundable balance must be rejected.
func exceedsBalance(amount, refundable float64) bool {
	return amount > refundable+1e-9
}

// refundableBalance returns the payment amount minus all SUCCESS refunds
func (s *RefundService) refundableBalance(tx *gorm.DB, payment models.Payment) (float64, error) {
	var refunded float64
	err := tx.Model(&models.Refund{}).
		Where("payment_id = ? AND status = ?", payment.ID, models.RefundStatusSuccess).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&refunded).Error
	if err != nil {
		return 0, err
	}
	return payment.Amount - refunded, nil
}

// ListRefunds returns the refund history for a payment in the caller's school
func (s *RefundService) ListRefunds(ctx context.Context, principal models.Principal, paymentID uint) ([]models.Refund, error) {
	if !principal.IsAdmin() {
		return nil, apperr.Forbidden("admin_required", "only a school admin can view refunds")
	}

	var payment models.Payment
	if err := s.db.WithContext(ctx).Where("id = ? AND school_id = ?", paymentID, principal.SchoolID).First(&payment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("payment_not_found", "payment %d not found in your school", paymentID)
		}
		return nil, err
	}

	var refunds []models.Refund
	if err := s.db.WithContext(ctx).Where("payment_id = ?", paymentID).Order("created_at desc").Find(&refunds).Error; err != nil {
		return nil, err
	}
	return refunds, nil
}

func (s *RefundService) notifyRefundCompleted(ctx context.Context, payment models.Payment, amount float64) {
	if s.notifier == nil {
		return
	}
	var user models.User
	if err := s.db.WithContext(ctx).Where("student_id = ?", payment.StudentID).First(&user).Error; err != nil {
		return
	}
	s.notifier.Notify(ctx, user.ID, NotifyCategoryRefund,
		"Refund issued",
		fmt.Sprintf("A refund of %.2f against order %s has been issued.", amount, payment.OrderID))
}
