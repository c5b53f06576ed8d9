package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"wathaci/internal/domain"
	"wathaci/internal/service/auth"
	"wathaci/internal/service/profiles"
)

const (
	msgEmailTaken   = "An account with this email already exists"
	msgCredentials  = "Invalid email or password"
	msgInvalidPhone = "Invalid phone number. Use a Zambian mobile number such as 0971234567."
	msgNetwork      = "Network error. Please check your connection and try again."
	msgTimeout      = "The request timed out. Please try again."
	msgInsufficient = "Insufficient balance. Please top up your mobile money wallet and try again."
	msgDeclined     = "The payment was declined. Please try again or use another number."
	msgUnavailable  = "This service is temporarily unavailable. Please try again later."
	msgGeneric      = "Something went wrong. Please try again."
)

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidPhone), errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, "invalid_input"
	case errors.Is(err, domain.ErrInvalidSignature):
		return http.StatusUnauthorized, "invalid_signature"
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, domain.ErrConflict), errors.Is(err, domain.ErrDuplicateOperation):
		return http.StatusConflict, "conflict"
	case errors.Is(err, domain.ErrPaymentDeclined):
		return http.StatusPaymentRequired, "payment_declined"
	case errors.Is(err, domain.ErrProviderDisabled):
		return http.StatusServiceUnavailable, "provider_disabled"
	case errors.Is(err, domain.ErrProviderFailure):
		return http.StatusBadGateway, "provider_failure"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

// userMessage turns an error into text safe to show in the UI. Typed errors
// are matched first, then provider messages by substring.
func userMessage(err error) string {
	if err == nil {
		return ""
	}
	switch {
	case errors.Is(err, auth.ErrEmailTaken):
		return msgEmailTaken
	case errors.Is(err, auth.ErrInvalidCredentials):
		return msgCredentials
	case errors.Is(err, profiles.ErrAccountTypeChange):
		return "Account type cannot be changed."
	case errors.Is(err, domain.ErrDuplicateOperation):
		return "This operation was already processed."
	case errors.Is(err, domain.ErrInvalidPhone):
		return msgInvalidPhone
	case errors.Is(err, domain.ErrPaymentDeclined):
		return msgDeclined
	case errors.Is(err, domain.ErrProviderDisabled):
		return msgUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return msgTimeout
	case errors.Is(err, domain.ErrNotFound):
		return "Not found."
	case errors.Is(err, domain.ErrForbidden):
		return "You do not have access to this resource."
	case errors.Is(err, domain.ErrInvalidSignature):
		return "invalid signature"
	}

	lower := strings.ToLower(err.Error())
	switch {
	case strings.Contains(lower, "already exists"):
		return msgEmailTaken
	case strings.Contains(lower, "invalid phone"):
		return msgInvalidPhone
	case strings.Contains(lower, "insufficient"):
		return msgInsufficient
	case strings.Contains(lower, "timeout"), strings.Contains(lower, "timed out"):
		return msgTimeout
	case strings.Contains(lower, "network"), strings.Contains(lower, "connection refused"):
		return msgNetwork
	}
	if errors.Is(err, domain.ErrInvalidInput) || errors.Is(err, domain.ErrConflict) || errors.Is(err, domain.ErrUnauthorized) {
		return err.Error()
	}
	return msgGeneric
}
