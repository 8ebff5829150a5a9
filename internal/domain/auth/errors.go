package auth

import "errors"

var (
	ErrInvalidToken           = errors.New("invalid or expired token")
	ErrTokenExpired           = errors.New("token has expired")
	ErrAdminPrivilegeRequired = errors.New("admin privilege required")
	ErrEmployeeClaimMissing   = errors.New("token is not bound to an employee")
)
