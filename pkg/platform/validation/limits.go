package validation

import (
	"fmt"

	dErrors "passport-iam/pkg/domain-errors"
)

// Slice element count limits
const (
	// MaxTypes is the maximum number of provider types per verify or check request.
	MaxTypes = 100

	// MaxCredentials is the maximum number of credentials per attestation request.
	MaxCredentials = 200
)

// String element length limits
const (
	// MaxTypeLength bounds a provider type, composite forms included.
	MaxTypeLength = 256

	// MaxProofLength bounds a single proof value.
	MaxProofLength = 8192
)

// CheckSliceCount validates that a slice does not exceed the maximum count.
func CheckSliceCount(fieldName string, count, max int) error {
	if count > max {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("too many %s: max %d allowed", fieldName, max))
	}
	return nil
}

// CheckEachStringLength validates that each string in a slice does not exceed the maximum length.
func CheckEachStringLength(fieldName string, values []string, max int) error {
	for _, v := range values {
		if len(v) > max {
			return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("%s exceeds max length of %d", fieldName, max))
		}
	}
	return nil
}

// CheckMapValueLength validates every value of m against max.
func CheckMapValueLength(fieldName string, m map[string]string, max int) error {
	for k, v := range m {
		if len(v) > max {
			return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("%s.%s exceeds max length of %d", fieldName, k, max))
		}
	}
	return nil
}
