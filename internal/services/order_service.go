package services

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	"schoolpay_backend/internal/apperr"
	"schoolpay_backend/internal/gateway"
	"schoolpay_backend/internal/models"
)

// OrderService creates hosted-payment sessions for fee payments. No ledger
// mutation happens here; a PENDING Payment row is pre-created for audit and
// the verification path handles orders that predate that behavior.
type OrderService struct {
	db       *gorm.DB
	gateways gateway.Resolver
	baseURL  string
	currency string
}

func NewOrderService(db *gorm.DB, gateways gateway.Resolver, baseURL, currency string) *OrderService {
	if currency == "" {
		currency = "INR"
	}
	return &OrderService{db: db, gateways: gateways, baseURL: strings.TrimSuffix(baseURL, "/"), currency: currency}
}

type CreateOrderInput struct {
	StudentID  uint                  `json:"student_id" validate:"required"`
	Amount     float64               `json:"amount" validate:"required"`
	Gateway    models.PaymentGateway `json:"gateway"`
	ReturnPath string                `json:"return_path"`
}

type CreateOrderResult struct {
	OrderID     string  `json:"order_id"`
	RedirectURL string  `json:"redirect_url"`
	PaymentID   uint    `json:"payment_id"`
	Amount      float64 `json:"amount"`
}

// CreateOrder generates a canonical order id, opens a gateway session and
// records a PENDING payment. The caller must be the owning student (admins
// may create orders on a student's behalf).
func (s *OrderService) CreateOrder(ctx context.Context, principal models.Principal, in CreateOrderInput) (*CreateOrderResult, error) {
	if !principal.IsAdmin() && !principal.OwnsStudent(in.StudentID) {
		return nil, apperr.Forbidden("not_order_owner", "you can only create payment orders for yourself")
	}
	if in.Amount < 1 {
		return nil, apperr.Validation("invalid_amount", "amount must be at least 1")
	}

	var student models.Student
	if err := s.db.WithContext(ctx).Where("id = ? AND school_id = ?", in.StudentID, principal.SchoolID).First(&student).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("student_not_found", "student %d not found in your school", in.StudentID)
		}
		return nil, err
	}

	provider := in.Gateway
	if provider == "" {
		provider = models.PaymentGatewayJuspay
	}
	gw, err := s.gateways.For(student.SchoolID, provider)
	if err != nil {
		return nil, err
	}

	orderID := NewOrderID()
	sessionIn := gateway.CreateSessionInput{
		OrderID:       orderID,
		Amount:        in.Amount,
		Currency:      s.currency,
		ReturnURL:     s.baseURL + SanitizeReturnPath(in.ReturnPath),
		CustomerName:  student.Name,
		CustomerEmail: student.Email,
	}

	session, err := gw.CreateSession(ctx, sessionIn)
	if err != nil {
		return nil, err
	}

	meta, _ := json.Marshal(map[string]interface{}{
		"session_id": session.SessionID,
		"return_url": sessionIn.ReturnURL,
	})
	payment := models.Payment{
		SchoolID:        student.SchoolID,
		StudentID:       student.ID,
		Amount:          in.Amount,
		Status:          models.PaymentStatusPending,
		Gateway:         provider,
		OrderID:         orderID,
		SessionMetadata: meta,
	}
	if err := s.db.WithContext(ctx).Create(&payment).Error; err != nil {
		return nil, err
	}

	return &CreateOrderResult{
		OrderID:     orderID,
		RedirectURL: session.RedirectURL,
		PaymentID:   payment.ID,
		Amount:      in.Amount,
	}, nil
}

const orderIDAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// NewOrderID builds a gateway-visible order identifier: alphanumeric, at
// most 20 characters ("FEE" + base36 unix seconds + 8 random). The random
// suffix makes collisions practically impossible without a store lookup.
func NewOrderID() string {
	ts := strings.ToUpper(strconv.FormatInt(time.Now().Unix(), 36))

	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failing means the host is broken; nanoseconds keep
		// the id unique enough to not block payments
		return "FEE" + ts + strings.ToUpper(strconv.FormatInt(time.Now().UnixNano()%int64(1<<40), 36))
	}
	for i, b := range buf {
		buf[i] = orderIDAlphabet[int(b)%len(orderIDAlphabet)]
	}
	return "FEE" + ts + string(buf)
}

// SanitizeReturnPath confines an externally supplied return path to a safe
// relative path on the caller's own origin. Absolute URLs are stripped to
// their path; anything unusable falls back to the default finish page.
func SanitizeReturnPath(p string) string {
	const fallback = "/payments/finish"

	p = strings.TrimSpace(p)
	if p == "" {
		return fallback
	}

	u, err := url.Parse(p)
	if err != nil {
		return fallback
	}
	clean := path.Clean("/" + u.Path)
	if clean == "/" {
		return fallback
	}
	return clean
}
