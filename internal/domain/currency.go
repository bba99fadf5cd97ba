package domain

// Currency is an ISO 4217 code from the closed set the application supports.
type Currency string

const (
	USD Currency = "USD"
	EUR Currency = "EUR"
	GBP Currency = "GBP"
	JPY Currency = "JPY"
	INR Currency = "INR"
	CAD Currency = "CAD"
	AUD Currency = "AUD"
)

// SupportedCurrencies lists every currency the application accepts, in a
// stable order used when requesting batch rates from the provider.
var SupportedCurrencies = []Currency{USD, EUR, GBP, JPY, INR, CAD, AUD}

// IsValid reports whether c is a member of the supported set.
func (c Currency) IsValid() bool {
	switch c {
	case USD, EUR, GBP, JPY, INR, CAD, AUD:
		return true
	}
	return false
}

func (c Currency) String() string {
	return string(c)
}
