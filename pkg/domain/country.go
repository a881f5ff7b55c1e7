package domain

import (
	"strconv"

	dErrors "tokengate/pkg/domain-errors"
)

// CountryCode is an ISO-3166-1 numeric country code. Zero means the
// country is unknown, which compliance modules treat as permissive.
type CountryCode uint16

const (
	CountryUnknown CountryCode = 0

	CountryFR CountryCode = 250
	CountryDE CountryCode = 276
	CountryIR CountryCode = 364
	CountryJP CountryCode = 392
	CountryKP CountryCode = 408
	CountrySG CountryCode = 702
	CountryCH CountryCode = 756
	CountryGB CountryCode = 826
	CountryUS CountryCode = 840
)

// maxCountryCode is the largest value ISO-3166 numeric codes can take.
const maxCountryCode = 999

// ParseCountryCode validates a numeric country code. Zero is rejected:
// callers registering an identity must declare a real country.
func ParseCountryCode(v int) (CountryCode, error) {
	if v <= 0 || v > maxCountryCode {
		return CountryUnknown, dErrors.New(dErrors.CodeInvalidInput, "country code must be between 1 and 999")
	}
	return CountryCode(v), nil
}

// Known reports whether the code identifies a country.
func (c CountryCode) Known() bool {
	return c != CountryUnknown
}

func (c CountryCode) String() string {
	return strconv.Itoa(int(c))
}
