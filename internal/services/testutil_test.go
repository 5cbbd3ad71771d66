package services

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"schoolpay_backend/internal/gateway"
	"schoolpay_backend/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

// fakeGateway returns canned answers and records refund calls
type fakeGateway struct {
	state       *gateway.OrderState
	statusErr   error
	session     *gateway.Session
	sessionErr  error
	refundRes   *gateway.RefundResult
	refundErr   error
	refundCalls []gateway.RefundInput
}

func (f *fakeGateway) CreateSession(_ context.Context, _ gateway.CreateSessionInput) (*gateway.Session, error) {
	if f.sessionErr != nil {
		return nil, f.sessionErr
	}
	if f.session != nil {
		return f.session, nil
	}
	return &gateway.Session{SessionID: "sess-1", RedirectURL: "https://pay.example.com/sess-1"}, nil
}

func (f *fakeGateway) OrderStatus(_ context.Context, orderID string) (*gateway.OrderState, error) {
	if f.statusErr != nil {
		return nil, f.statusErr
	}
	state := *f.state
	state.OrderID = orderID
	return &state, nil
}

func (f *fakeGateway) Refund(_ context.Context, in gateway.RefundInput) (*gateway.RefundResult, error) {
	f.refundCalls = append(f.refundCalls, in)
	if f.refundErr != nil {
		return nil, f.refundErr
	}
	if f.refundRes != nil {
		return f.refundRes, nil
	}
	return &gateway.RefundResult{Status: gateway.RefundSuccess, RawStatus: "SUCCESS"}, nil
}

type fakeResolver struct {
	gw *fakeGateway
}

func (r *fakeResolver) For(uint, models.PaymentGateway) (gateway.Gateway, error) {
	return r.gw, nil
}

// fakeNotifier records calls; Notify never fails, matching the contract
type fakeNotifier struct {
	calls []string
}

func (n *fakeNotifier) Notify(_ context.Context, _ uint, category, _, _ string) {
	n.calls = append(n.calls, category)
}

type seedOpts struct {
	totalFee        float64
	discountPercent float64
	className       string
	section         string
}

// seedStudent creates a school, a student with a ledger, and the linked
// user. Returns the student and the admin/student principals.
func seedStudent(t *testing.T, db *gorm.DB, opts seedOpts) (models.Student, models.Principal, models.Principal) {
	t.Helper()

	school := models.School{Name: "Test School"}
	if err := db.Create(&school).Error; err != nil {
		t.Fatalf("failed to seed school: %v", err)
	}

	student := models.Student{
		SchoolID:  school.ID,
		Name:      "Asha",
		Email:     "asha@example.com",
		ClassName: opts.className,
		Section:   opts.section,
	}
	if student.ClassName == "" {
		student.ClassName = "5"
	}
	if err := db.Create(&student).Error; err != nil {
		t.Fatalf("failed to seed student: %v", err)
	}

	finalFee := opts.totalFee * (1 - opts.discountPercent/100)
	fee := models.StudentFee{
		StudentID:       student.ID,
		SchoolID:        school.ID,
		TotalFee:        opts.totalFee,
		DiscountPercent: opts.discountPercent,
		FinalFee:        finalFee,
		RemainingFee:    finalFee,
	}
	if err := db.Create(&fee).Error; err != nil {
		t.Fatalf("failed to seed ledger: %v", err)
	}

	user := models.User{
		FirebaseUID:   "uid-asha",
		Name:          student.Name,
		Email:         student.Email,
		Role:          models.UserRoleStudent,
		SchoolID:      school.ID,
		StudentID:     &student.ID,
		NotifyChannel: models.NotificationChannelEmail,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}

	studentPrincipal := models.Principal{
		UserID:    user.ID,
		StudentID: &student.ID,
		Role:      models.UserRoleStudent,
		SchoolID:  school.ID,
	}
	adminPrincipal := models.Principal{
		UserID:   user.ID + 1000,
		Role:     models.UserRoleAdmin,
		SchoolID: school.ID,
	}
	return student, studentPrincipal, adminPrincipal
}

func loadFee(t *testing.T, db *gorm.DB, studentID uint) models.StudentFee {
	t.Helper()
	var fee models.StudentFee
	if err := db.Where("student_id = ?", studentID).First(&fee).Error; err != nil {
		t.Fatalf("failed to load ledger for student %d: %v", studentID, err)
	}
	return fee
}

// loadFeeAndPay credits the ledger directly, simulating an earlier verified
// payment of the given amount
func loadFeeAndPay(t *testing.T, db *gorm.DB, studentID uint, amount float64) {
	t.Helper()
	fee := loadFee(t, db, studentID)
	fee.Credit(amount)
	if err := db.Save(&fee).Error; err != nil {
		t.Fatalf("failed to credit ledger: %v", err)
	}
}

func almostEqual(a, b float64) bool {
	diff := a - b
	return diff < 0.001 && diff > -0.001
}
