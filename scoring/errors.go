package scoring

import "errors"

// ErrInvalidFactors indicates a Factors value failed validation.
var ErrInvalidFactors = errors.New("invalid scoring factors")
