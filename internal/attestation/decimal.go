package attestation

import (
	"math/big"
	"regexp"
	"strings"

	dErrors "passport-iam/pkg/domain-errors"
)

// ScoreDecimals is the fixed-point precision of attested scores.
const ScoreDecimals = 4

var decimalPattern = regexp.MustCompile(`^[0-9]+(\.[0-9]+)?$`)

// ParseDecimal converts a non-negative decimal string to a fixed-point integer
// with ScoreDecimals fractional digits. Extra digits are truncated, never
// rounded: "1.99999" is 19999.
func ParseDecimal(s string) (*big.Int, error) {
	if !decimalPattern.MatchString(s) {
		return nil, dErrors.New(dErrors.CodeValidation, "invalid decimal "+quote(s))
	}
	whole, frac, _ := strings.Cut(s, ".")
	if len(frac) > ScoreDecimals {
		frac = frac[:ScoreDecimals]
	}
	frac += strings.Repeat("0", ScoreDecimals-len(frac))

	out, ok := new(big.Int).SetString(whole+frac, 10)
	if !ok {
		return nil, dErrors.New(dErrors.CodeValidation, "invalid decimal "+quote(s))
	}
	return out, nil
}

func quote(s string) string {
	if len(s) > 64 {
		s = s[:64] + "..."
	}
	return `"` + s + `"`
}
