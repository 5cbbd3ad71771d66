package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"schoolpay_backend/internal/apperr"
	"schoolpay_backend/internal/models"
)

// LedgerService creates and reads fee ledgers. Ledger creation happens at
// admission; the propagator and the payment paths only mutate existing rows.
type LedgerService struct {
	db *gorm.DB
}

func NewLedgerService(db *gorm.DB) *LedgerService {
	return &LedgerService{db: db}
}

type AdmitFeeInput struct {
	TotalFee        float64 `json:"total_fee" validate:"required,gt=0"`
	DiscountPercent float64 `json:"discount_percent" validate:"gte=0,lte=100"`
}

// AdmitStudentFee creates the ledger row for a newly admitted student
func (s *LedgerService) AdmitStudentFee(ctx context.Context, principal models.Principal, studentID uint, in AdmitFeeInput) (*models.StudentFee, error) {
	if !principal.IsAdmin() {
		return nil, apperr.Forbidden("admin_required", "only a school admin can set up a fee ledger")
	}

	var student models.Student
	if err := s.db.WithContext(ctx).Where("id = ? AND school_id = ?", studentID, principal.SchoolID).First(&student).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("student_not_found", "student %d not found in your school", studentID)
		}
		return nil, err
	}

	finalFee := in.TotalFee * (1 - in.DiscountPercent/100)
	fee := models.StudentFee{
		StudentID:       student.ID,
		SchoolID:        student.SchoolID,
		TotalFee:        in.TotalFee,
		DiscountPercent: in.DiscountPercent,
		FinalFee:        finalFee,
		AmountPaid:      0,
		RemainingFee:    finalFee,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.StudentFee
		err := tx.Where("student_id = ?", student.ID).First(&existing).Error
		if err == nil {
			return apperr.Conflict("fee_ledger_exists", "student %d already has a fee ledger", student.ID)
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		return tx.Create(&fee).Error
	})
	if err != nil {
		return nil, err
	}
	return &fee, nil
}

// GetStudentFee returns a student's ledger; students can only read their own
func (s *LedgerService) GetStudentFee(ctx context.Context, principal models.Principal, studentID uint) (*models.StudentFee, error) {
	if !principal.IsAdmin() && !principal.OwnsStudent(studentID) {
		return nil, apperr.Forbidden("not_fee_owner", "you can only view your own fee ledger")
	}

	var fee models.StudentFee
	err := s.db.WithContext(ctx).Where("student_id = ? AND school_id = ?", studentID, principal.SchoolID).First(&fee).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("fee_ledger_missing", "student %d has no fee ledger", studentID)
		}
		return nil, err
	}
	return &fee, nil
}

// ListStudentPayments returns a student's payment history, newest first
func (s *LedgerService) ListStudentPayments(ctx context.Context, principal models.Principal, studentID uint) ([]models.Payment, error) {
	if !principal.IsAdmin() && !principal.OwnsStudent(studentID) {
		return nil, apperr.Forbidden("not_fee_owner", "you can only view your own payments")
	}

	var payments []models.Payment
	err := s.db.WithContext(ctx).
		Where("student_id = ? AND school_id = ?", studentID, principal.SchoolID).
		Order("created_at desc").
		Find(&payments).Error
	return payments, err
}
