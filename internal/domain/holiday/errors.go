package holiday

import "errors"

var (
	ErrInvalidDefinition = errors.New("invalid holiday definition")
	ErrRuleNotFound      = errors.New("holiday rule not found")
)
