package employee

import "errors"

var (
	ErrEmployeeNotFound = errors.New("employee not found")
	ErrFaceNotEnrolled  = errors.New("no employee enrolled with this face")
)
