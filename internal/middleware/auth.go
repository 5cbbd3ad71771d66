package middleware

import (
	"errors"
	"net/http"

	"firebase.google.com/go/v4/auth"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"schoolpay_backend/internal/apperr"
	"schoolpay_backend/internal/models"
)

const principalContextKey = "principal"

// RequireAuth verifies the Firebase session cookie and resolves the local
// principal (user id, student link, role, school scope). Every financial
// operation re-validates its entities against this scope.
func RequireAuth(authClient *auth.Client, db *gorm.DB) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if authClient == nil {
				return apperr.Config("auth_not_configured", "authentication is not configured")
			}

			cookie, err := c.Cookie("session")
			if err != nil || cookie.Value == "" {
				return apperr.Unauthorized("session_missing", "please log in to continue")
			}

			decodedToken, err := authClient.VerifySessionCookie(c.Request().Context(), cookie.Value)
			if err != nil {
				clearCookie := &http.Cookie{
					Name:     "session",
					Value:    "",
					MaxAge:   -1,
					HttpOnly: true,
					Path:     "/",
				}
				c.SetCookie(clearCookie)
				return apperr.Unauthorized("session_invalid", "your session has expired, please log in again")
			}

			var user models.User
			if err := db.WithContext(c.Request().Context()).
				Where("firebase_uid = ?", decodedToken.UID).First(&user).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return apperr.Unauthorized("account_unknown", "no account is linked to this session")
				}
				return err
			}

			c.Set(principalContextKey, models.Principal{
				UserID:    user.ID,
				StudentID: user.StudentID,
				Role:      user.Role,
				SchoolID:  user.SchoolID,
			})
			return next(c)
		}
	}
}

// RequireAdmin gates admin-only routes; run after RequireAuth
func RequireAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p, ok := GetPrincipal(c)
			if !ok {
				return apperr.Unauthorized("session_missing", "please log in to continue")
			}
			if !p.IsAdmin() {
				return apperr.Forbidden("admin_required", "this operation needs a school admin account")
			}
			return next(c)
		}
	}
}

// GetPrincipal returns the resolved principal for the request
func GetPrincipal(c echo.Context) (models.Principal, bool) {
	p, ok := c.Get(principalContextKey).(models.Principal)
	return p, ok
}
