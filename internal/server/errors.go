package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/linkpulse/internal/oauth"
	tokendomain "github.com/smallbiznis/linkpulse/internal/token/domain"
)

var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrNotFound       = errors.New("not_found")
	ErrInvalidRequest = errors.New("invalid_request")
)

type errorPayload struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

// ErrorHandlingMiddleware maps domain errors onto stable JSON error
// codes. Provider messages are only attached in development; production
// responses carry the category and code alone.
func ErrorHandlingMiddleware(development bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		if !development {
			payload.Detail = ""
		}
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func mapError(err error) (int, errorPayload) {
	var exchangeErr *oauth.ExchangeError
	if errors.As(err, &exchangeErr) && !errors.Is(err, tokendomain.ErrRefreshFailed) {
		return http.StatusBadGateway, errorPayload{
			Type:    "token_exchange_failed",
			Message: "token exchange failed",
			Detail:  exchangeErr.Error(),
		}
	}

	var identityErr *oauth.IdentityError
	if errors.As(err, &identityErr) {
		return http.StatusBadGateway, errorPayload{
			Type:    "identity_fetch_failed",
			Message: "identity fetch failed",
			Detail:  identityErr.Error(),
		}
	}

	switch {
	case errors.Is(err, oauth.ErrStateMismatch):
		return http.StatusBadRequest, errorPayload{
			Type:    "state_mismatch",
			Message: "authorization state mismatch",
		}
	case errors.Is(err, oauth.ErrMissingState):
		return http.StatusBadRequest, errorPayload{
			Type:    "missing_state",
			Message: "missing authorization state",
		}
	case errors.Is(err, oauth.ErrMissingCode):
		return http.StatusBadRequest, errorPayload{
			Type:    "missing_code",
			Message: "missing authorization code",
		}
	case errors.Is(err, oauth.ErrUserDenied):
		return http.StatusForbidden, errorPayload{
			Type:    "user_denied",
			Message: "authorization denied by user",
		}
	case errors.Is(err, tokendomain.ErrNoToken):
		return http.StatusUnauthorized, errorPayload{
			Type:    "no_token",
			Message: "no stored token; authorization required",
		}
	case errors.Is(err, tokendomain.ErrReauthorizationRequired):
		return http.StatusUnauthorized, errorPayload{
			Type:    "reauthorization_required",
			Message: "token expired; authorization required",
		}
	case errors.Is(err, tokendomain.ErrRefreshFailed):
		return http.StatusBadGateway, errorPayload{
			Type:    "refresh_failed",
			Message: "token refresh failed",
			Detail:  err.Error(),
		}
	case errors.Is(err, oauth.ErrTransport):
		return http.StatusBadGateway, errorPayload{
			Type:    "transport_error",
			Message: "provider unreachable",
		}
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case errors.Is(err, ErrInvalidRequest):
		return http.StatusBadRequest, errorPayload{
			Type:    "invalid_request",
			Message: "invalid request",
		}
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}
