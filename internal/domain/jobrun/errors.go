package jobrun

import "errors"

var ErrRunNotFound = errors.New("job run not found")
