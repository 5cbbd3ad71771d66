package gateway

import (
	"errors"
	"os"

	"gorm.io/gorm"

	"schoolpay_backend/internal/apperr"
	"schoolpay_backend/internal/models"
)

// Credentials is the resolved gateway configuration for one school
type Credentials struct {
	MerchantID string
	APIKey     string
	AuthStyle  models.GatewayAuthStyle
	BaseURL    string
}

// ResolveCredentials resolves gateway credentials for a school with a
// two-level precedence: a complete school_gateway_configs row wins,
// otherwise the process-wide env defaults apply. Neither present is a
// configuration error, not a financial one.
func ResolveCredentials(db *gorm.DB, schoolID uint) (Credentials, error) {
	var cfg models.SchoolGatewayConfig
	err := db.Where("school_id = ?", schoolID).First(&cfg).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return Credentials{}, err
	}
	if err == nil && cfg.MerchantID != "" && cfg.APIKey != "" {
		creds := Credentials{
			MerchantID: cfg.MerchantID,
			APIKey:     cfg.APIKey,
			AuthStyle:  cfg.AuthStyle,
			BaseURL:    cfg.BaseURL,
		}
		if creds.AuthStyle == "" {
			creds.AuthStyle = models.GatewayAuthMerchantKey
		}
		if creds.BaseURL == "" {
			creds.BaseURL = os.Getenv("GATEWAY_BASE_URL")
		}
		return creds, nil
	}

	creds := Credentials{
		MerchantID: os.Getenv("GATEWAY_MERCHANT_ID"),
		APIKey:     os.Getenv("GATEWAY_API_KEY"),
		AuthStyle:  models.GatewayAuthStyle(os.Getenv("GATEWAY_AUTH_STYLE")),
		BaseURL:    os.Getenv("GATEWAY_BASE_URL"),
	}
	if creds.AuthStyle == "" {
		creds.AuthStyle = models.GatewayAuthMerchantKey
	}
	if creds.MerchantID == "" || creds.APIKey == "" {
		return Credentials{}, apperr.Config("gateway_credentials_missing",
			"no gateway credentials configured for school %d and no global default is set", schoolID)
	}
	return creds, nil
}

// Resolver builds a provider client for a school. Services depend on this
// interface so tests can substitute fakes.
type Resolver interface {
	For(schoolID uint, provider models.PaymentGateway) (Gateway, error)
}

// DBResolver is the production Resolver backed by the relational store and
// process env.
type DBResolver struct {
	DB *gorm.DB
}

func (r *DBResolver) For(schoolID uint, provider models.PaymentGateway) (Gateway, error) {
	switch provider {
	case models.PaymentGatewayJuspay:
		creds, err := ResolveCredentials(r.DB, schoolID)
		if err != nil {
			return nil, err
		}
		return NewJuspayGateway(creds), nil
	case models.PaymentGatewayMidtrans:
		serverKey := os.Getenv("MIDTRANS_SERVER_KEY")
		if serverKey == "" {
			return nil, apperr.Config("gateway_credentials_missing", "MIDTRANS_SERVER_KEY is not set")
		}
		return NewMidtransGateway(serverKey, os.Getenv("MIDTRANS_IS_PRODUCTION") == "true"), nil
	default:
		return nil, apperr.Validation("unknown_gateway", "unknown payment gateway %q", provider)
	}
}
