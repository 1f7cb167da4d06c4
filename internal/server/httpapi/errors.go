package httpapi

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/moi/internal/common"
	"github.com/gin-gonic/gin"
)

type errorMapping struct {
	err    error
	status int
	detail string
}

// errorTable is checked in order with errors.Is.
var errorTable = []errorMapping{
	{common.ErrInvalidCredentials, http.StatusUnauthorized, "Invalid credentials"},
	{common.ErrCouldNotValidateCredentials, http.StatusUnauthorized, "Could not validate credentials"},
	{common.ErrInvalidRefreshToken, http.StatusUnauthorized, "Invalid refresh token"},
	{common.ErrVerificationRequired, http.StatusForbidden, "Verification required"},
	{common.ErrForbidden, http.StatusForbidden, "Not enough permissions"},
	{common.ErrInvalidTokenType, http.StatusBadRequest, "Invalid token type"},
	{common.ErrInvalidTokenPayload, http.StatusBadRequest, "Invalid token payload"},
	{common.ErrTokenExpired, http.StatusBadRequest, "Token expired"},
	{common.ErrInvalidToken, http.StatusBadRequest, "Invalid token"},
	{common.ErrUserExists, http.StatusConflict, "User already exists"},
	{common.ErrUserNotFound, http.StatusNotFound, "User not found"},
	{common.ErrorNotFound, http.StatusNotFound, "Object not found"},
}

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// statusFor maps a domain error to an HTTP status and detail message.
// Unknown errors are 500.
func statusFor(err error) (int, string) {
	for _, m := range errorTable {
		if errors.Is(err, m.err) {
			return m.status, m.detail
		}
	}
	return http.StatusInternalServerError, "Internal server error"
}

// abortWithError writes the error reply and stops the handler chain.
func (h *Handler) abortWithError(c *gin.Context, err error) {
	status, detail := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error(c.Request.Context(), "request failed", "method", c.Request.Method, "path", c.Request.URL.Path, "error", err)
	}
	if errors.Is(err, common.ErrCouldNotValidateCredentials) {
		c.Header("WWW-Authenticate", "Bearer")
	}
	c.AbortWithStatusJSON(status, ErrorResponse{Detail: detail})
}

func (h *Handler) abortValidation(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusUnprocessableEntity, ErrorResponse{Detail: err.Error()})
}
