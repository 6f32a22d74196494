package middleware

import (
	"net/http"
	"strings"

	"property-service/pkg/jwtutil"
	"property-service/pkg/logger"
	"property-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const claimsKey = "claims"

// AuthMiddleware verifies the bearer token and stores the caller's claims.
// Websocket upgrades may pass the token as a "token" query parameter.
func AuthMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		log := logger.FromContext(c)

		tokenString := bearerToken(c.Request())
		if tokenString == "" {
			log.Warn("Missing authorization token")
			prometheus.RecordAuthError("missing_token")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Access token required"})
		}

		claims, err := jwtutil.ValidateToken(tokenString)
		if err != nil {
			log.Warn("Invalid token", zap.Error(err))
			prometheus.RecordAuthError("invalid_token")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Invalid or expired token"})
		}

		// Store user information in the context
		c.Set("user_id", claims.UserID)
		c.Set("email", claims.Email)
		c.Set(claimsKey, claims)

		log = log.With(
			zap.String("user_id", claims.UserID),
			zap.String("email", claims.Email),
		)
		c.Set(logger.EchoKey, log)
		c.SetRequest(c.Request().WithContext(logger.WithLogger(c.Request().Context(), log)))

		return next(c)
	}
}

// RequireRole rejects callers holding none of roles
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims := Claims(c)
			if claims == nil || !claims.HasRole(roles...) {
				logger.FromContext(c).Warn("Insufficient role",
					zap.Strings("required", roles))
				prometheus.RecordAuthError("forbidden")
				return c.JSON(http.StatusForbidden, echo.Map{"error": "Insufficient permissions"})
			}
			return next(c)
		}
	}
}

// Claims returns the verified token claims, or nil outside AuthMiddleware
func Claims(c echo.Context) *jwtutil.UserClaims {
	claims, _ := c.Get(claimsKey).(*jwtutil.UserClaims)
	return claims
}

// UserID returns the authenticated user's id
func UserID(c echo.Context) string {
	id, _ := c.Get("user_id").(string)
	return id
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	if header != "" {
		return header
	}
	if strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
		return r.URL.Query().Get("token")
	}
	return ""
}
