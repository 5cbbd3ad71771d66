package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"schoolpay_backend/internal/apperr"
	"schoolpay_backend/internal/models"
)

// ExtraFeeService manages fee-schedule rules and propagates every change
// across the matched students' ledgers. One schedule change is one
// transaction: the rule row and all ledger rows commit together or not at
// all.
type ExtraFeeService struct {
	db *gorm.DB
}

func NewExtraFeeService(db *gorm.DB) *ExtraFeeService {
	return &ExtraFeeService{db: db}
}

type ExtraFeeInput struct {
	Name       string                `json:"name" validate:"required"`
	Amount     float64               `json:"amount" validate:"required,gt=0"`
	TargetType models.ExtraFeeTarget `json:"target_type" validate:"required,oneof=SCHOOL CLASS SECTION STUDENT"`
	ClassName  string                `json:"class_name"`
	Section    string                `json:"section"`
	StudentID  *uint                 `json:"student_id"`
}

func (in ExtraFeeInput) validateSelector() error {
	switch in.TargetType {
	case models.ExtraFeeTargetClass:
		if in.ClassName == "" {
			return apperr.Validation("missing_target", "a CLASS fee needs class_name")
		}
	case models.ExtraFeeTargetSection:
		if in.ClassName == "" || in.Section == "" {
			return apperr.Validation("missing_target", "a SECTION fee needs class_name and section")
		}
	case models.ExtraFeeTargetStudent:
		if in.StudentID == nil {
			return apperr.Validation("missing_target", "a STUDENT fee needs student_id")
		}
	}
	return nil
}

// Create inserts the rule and adds its amount to every matched ledger
func (s *ExtraFeeService) Create(ctx context.Context, principal models.Principal, in ExtraFeeInput) (*models.ExtraFee, error) {
	if !principal.IsAdmin() {
		return nil, apperr.Forbidden("admin_required", "only a school admin can manage extra fees")
	}
	if err := in.validateSelector(); err != nil {
		return nil, err
	}

	fee := models.ExtraFee{
		SchoolID:   principal.SchoolID,
		Name:       in.Name,
		Amount:     in.Amount,
		TargetType: in.TargetType,
		ClassName:  in.ClassName,
		Section:    in.Section,
		StudentID:  in.StudentID,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&fee).Error; err != nil {
			return err
		}
		return s.propagate(tx, fee, in.Amount)
	})
	if err != nil {
		return nil, err
	}
	return &fee, nil
}

// Update changes the rule's amount and applies newAmount−oldAmount to every
// matched ledger
func (s *ExtraFeeService) Update(ctx context.Context, principal models.Principal, id uint, name string, newAmount float64) (*models.ExtraFee, error) {
	if !principal.IsAdmin() {
		return nil, apperr.Forbidden("admin_required", "only a school admin can manage extra fees")
	}
	if newAmount <= 0 {
		return nil, apperr.Validation("invalid_amount", "extra fee amount must be greater than zero")
	}

	var fee models.ExtraFee
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND school_id = ?", id, principal.SchoolID).First(&fee).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("extra_fee_not_found", "extra fee %d not found in your school", id)
			}
			return err
		}

		delta := newAmount - fee.Amount
		fee.Amount = newAmount
		if name != "" {
			fee.Name = name
		}
		if err := tx.Save(&fee).Error; err != nil {
			return err
		}
		if delta == 0 {
			return nil
		}
		return s.propagate(tx, fee, delta)
	})
	if err != nil {
		return nil, err
	}
	return &fee, nil
}

// Delete removes the rule and takes its amount back out of every matched
// ledger
func (s *ExtraFeeService) Delete(ctx context.Context, principal models.Principal, id uint) error {
	if !principal.IsAdmin() {
		return apperr.Forbidden("admin_required", "only a school admin can manage extra fees")
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var fee models.ExtraFee
		if err := tx.Where("id = ? AND school_id = ?", id, principal.SchoolID).First(&fee).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("extra_fee_not_found", "extra fee %d not found in your school", id)
			}
			return err
		}
		if err := s.propagate(tx, fee, -fee.Amount); err != nil {
			return err
		}
		return tx.Delete(&fee).Error
	})
}

// List returns the school's active fee-schedule rules
func (s *ExtraFeeService) List(ctx context.Context, principal models.Principal) ([]models.ExtraFee, error) {
	var fees []models.ExtraFee
	err := s.db.WithContext(ctx).Where("school_id = ?", principal.SchoolID).Order("created_at desc").Find(&fees).Error
	return fees, err
}

// propagate applies the pre-discount delta to every matched student's
// ledger. Students without a StudentFee row are skipped; ledger creation
// belongs to the admission flow.
func (s *ExtraFeeService) propagate(tx *gorm.DB, fee models.ExtraFee, delta float64) error {
	query := lockForUpdate(tx).
		Select("student_fees.*").
		Joins("JOIN students ON students.id = student_fees.student_id").
		Where("student_fees.school_id = ?", fee.SchoolID)

	switch fee.TargetType {
	case models.ExtraFeeTargetSchool:
		// whole school
	case models.ExtraFeeTargetClass:
		query = query.Where("students.class_name = ?", fee.ClassName)
	case models.ExtraFeeTargetSection:
		query = query.Where("students.class_name = ? AND students.section = ?", fee.ClassName, fee.Section)
	case models.ExtraFeeTargetStudent:
		query = query.Where("students.id = ?", *fee.StudentID)
	default:
		return apperr.Validation("invalid_target", "unknown target type %q", fee.TargetType)
	}

	var ledgers []models.StudentFee
	if err := query.Find(&ledgers).Error; err != nil {
		return err
	}

	for i := range ledgers {
		ledgers[i].ApplyScheduleDelta(delta)
		if err := tx.Save(&ledgers[i]).Error; err != nil {
			return err
		}
	}
	return nil
}
