/*
SPDX-License-Identifier: Apache-2.0
*/

package ledger

import (
	"errors"
	"fmt"
)

// Code classifies a rejected ledger operation.
type Code string

const (
	CodeNotRegistered          Code = "NotRegistered"
	CodeInactiveAccount        Code = "InactiveAccount"
	CodeUnauthorizedRole       Code = "UnauthorizedRole"
	CodeDuplicateRegistration  Code = "DuplicateRegistration"
	CodeInvalidQuantity        Code = "InvalidQuantity"
	CodeBatchNotFound          Code = "BatchNotFound"
	CodeInvalidTransition      Code = "InvalidTransition"
	CodeCertificateNotApproved Code = "CertificateNotApproved"
	CodeDuplicateCertRequest   Code = "DuplicateCertRequest"
	CodeCertificateNotFound    Code = "CertificateNotFound"
	CodeAlreadyDecided         Code = "AlreadyDecided"
	CodeInvalidRole            Code = "InvalidRole"
	CodeInvalidInput           Code = "InvalidInput"
	CodeAlreadyInitialized     Code = "AlreadyInitialized"
)

// Error is a rejection. Its text is shown to the caller as-is.
type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is matches any *Error with the same code, so the sentinels below work with
// errors.Is regardless of the message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

var (
	ErrNotRegistered          = &Error{Code: CodeNotRegistered, Message: "user is not registered"}
	ErrInactiveAccount        = &Error{Code: CodeInactiveAccount, Message: "Account is not active"}
	ErrUnauthorizedRole       = &Error{Code: CodeUnauthorizedRole, Message: "Unauthorized role"}
	ErrDuplicateRegistration  = &Error{Code: CodeDuplicateRegistration, Message: "user already registered"}
	ErrInvalidQuantity        = &Error{Code: CodeInvalidQuantity, Message: "quantity must be greater than zero"}
	ErrBatchNotFound          = &Error{Code: CodeBatchNotFound, Message: "batch does not exist"}
	ErrInvalidTransition      = &Error{Code: CodeInvalidTransition, Message: "invalid status transition"}
	ErrCertificateNotApproved = &Error{Code: CodeCertificateNotApproved, Message: "Halal certificate must be approved"}
	ErrDuplicateCertRequest   = &Error{Code: CodeDuplicateCertRequest, Message: "Certificate already requested for this batch"}
	ErrCertificateNotFound    = &Error{Code: CodeCertificateNotFound, Message: "certificate does not exist"}
	ErrAlreadyDecided         = &Error{Code: CodeAlreadyDecided, Message: "certificate already decided"}
	ErrInvalidRole            = &Error{Code: CodeInvalidRole, Message: "invalid role"}
	ErrInvalidInput           = &Error{Code: CodeInvalidInput, Message: "invalid input"}
	ErrAlreadyInitialized     = &Error{Code: CodeAlreadyInitialized, Message: "ledger already initialized"}
)

func newError(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// CodeOf returns the code of a ledger rejection anywhere in err's chain.
func CodeOf(err error) (Code, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Code, true
	}
	return "", false
}
