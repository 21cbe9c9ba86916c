// Package oracle builds and filters commit-reveal oracle vote messages.
package oracle

import "strings"

// ZeroPrice is the explicit abstain value. The chain requires a vote for every
// whitelisted denom; a zero rate abstains while still occupying the slot.
const ZeroPrice = "0.000000000000000000"

// Rate is one normalized exchange rate entry: a currency label (e.g. "USD")
// and its price as a decimal string.
type Rate struct {
	Currency string
	Price    string
}

// DeriveDenom maps a currency label to its on-chain micro denom ("USD" -> "uusd").
func DeriveDenom(currency string) string {
	return "u" + strings.ToLower(currency)
}

// CurrencyFromDenom maps a micro denom back to a currency label ("ukrw" -> "KRW").
func CurrencyFromDenom(denom string) string {
	return strings.ToUpper(strings.TrimPrefix(denom, "u"))
}

// FilterRates cross-references raw rates against the chain whitelist and the
// operator's requested denom set, producing exactly one entry per whitelisted
// denom:
//
//  1. rates whose derived denom is not whitelisted are dropped;
//  2. surviving rates whose currency is not requested keep the label but are
//     zeroed (explicit abstain);
//  3. whitelist denoms with no surviving rate get a synthesized abstain entry.
//
// Output order is the surviving raw rates followed by synthesized abstains.
func FilterRates(raw []Rate, whitelist []string, requested map[string]bool) []Rate {
	whitelistSet := make(map[string]bool, len(whitelist))
	for _, denom := range whitelist {
		whitelistSet[denom] = true
	}

	result := make([]Rate, 0, len(whitelist))
	covered := make(map[string]bool, len(whitelist))

	for _, rate := range raw {
		denom := DeriveDenom(rate.Currency)
		if !whitelistSet[denom] || covered[denom] {
			continue
		}
		covered[denom] = true

		if !requested[strings.ToLower(rate.Currency)] {
			rate.Price = ZeroPrice
		}
		result = append(result, rate)
	}

	for _, denom := range whitelist {
		if covered[denom] {
			continue
		}
		result = append(result, Rate{
			Currency: CurrencyFromDenom(denom),
			Price:    ZeroPrice,
		})
	}

	return result
}
