package handlers

import (
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jafarshop/marketplace/pkg/errors"
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error  string            `json:"error"`
	Code   string            `json:"code"`
	Fields map[string]string `json:"fields,omitempty"`
}

// statusFor maps a service error to its HTTP status and response body
func statusFor(err error) (int, ErrorResponse) {
	var (
		notFound     *errors.ErrNotFound
		unauthorized *errors.ErrUnauthorized
		forbidden    *errors.ErrForbidden
		conflict     *errors.ErrConflict
		validation   *errors.ErrValidation
		transition   *errors.ErrInvalidStateTransition
		credentials  *errors.ErrInvalidCredentials
		pending      *errors.ErrPendingApproval
		unavailable  *errors.ErrProductUnavailable
		signature    *errors.ErrInvalidSignature
		funds        *errors.ErrInsufficientFunds
		gateway      *errors.ErrPaymentGateway
	)
	switch {
	case stderrors.As(err, &validation):
		return http.StatusBadRequest, ErrorResponse{Error: validation.Error(), Code: "validation_failed", Fields: validation.Fields}
	case stderrors.As(err, &signature):
		return http.StatusBadRequest, ErrorResponse{Error: signature.Error(), Code: "invalid_signature"}
	case stderrors.As(err, &credentials):
		return http.StatusUnauthorized, ErrorResponse{Error: credentials.Error(), Code: "invalid_credentials"}
	case stderrors.As(err, &unauthorized):
		return http.StatusUnauthorized, ErrorResponse{Error: unauthorized.Error(), Code: "unauthorized"}
	case stderrors.As(err, &pending):
		return http.StatusForbidden, ErrorResponse{Error: pending.Error(), Code: "pending_approval"}
	case stderrors.As(err, &forbidden):
		return http.StatusForbidden, ErrorResponse{Error: forbidden.Error(), Code: "forbidden"}
	case stderrors.As(err, &notFound):
		return http.StatusNotFound, ErrorResponse{Error: notFound.Resource + " not found", Code: "not_found"}
	case stderrors.As(err, &conflict):
		code := conflict.Code
		if code == "" {
			code = "conflict"
		}
		// duplicate enquiries are reported as a bad request, as clients of the enquiry form expect
		if code == errors.CodeDuplicateEnquiry {
			return http.StatusBadRequest, ErrorResponse{Error: conflict.Error(), Code: code}
		}
		return http.StatusConflict, ErrorResponse{Error: conflict.Error(), Code: code}
	case stderrors.As(err, &unavailable):
		return http.StatusBadRequest, ErrorResponse{Error: unavailable.Error(), Code: "product_unavailable"}
	case stderrors.As(err, &transition):
		return http.StatusConflict, ErrorResponse{Error: transition.Error(), Code: "invalid_state"}
	case stderrors.As(err, &funds):
		return http.StatusBadRequest, ErrorResponse{Error: funds.Error(), Code: "insufficient_funds"}
	case stderrors.As(err, &gateway):
		return http.StatusBadGateway, ErrorResponse{Error: "payment gateway is unavailable, please retry", Code: "gateway_error"}
	default:
		return http.StatusInternalServerError, ErrorResponse{Error: "internal error", Code: "internal"}
	}
}

// respondError writes the mapped error; unexpected errors are logged with the request path
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	status, body := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Error("Request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", status),
			zap.Error(err),
		)
	}
	c.JSON(status, body)
}

// respondBindError answers a request body or query that failed to bind
func respondBindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation failed: " + err.Error(), Code: "validation_failed"})
}
