package receiving

import "stockroom/internal/core/types"

// DateChecks flags each date separately so the offending field can be highlighted.
type DateChecks struct {
	ManufactureDateValid bool `json:"manufactureDateValid"`
	ExpiryDateValid      bool `json:"expiryDateValid"`
	ReceivedDateValid    bool `json:"receivedDateValid"`
}

// AllValid reports whether every date passed its check.
func (c DateChecks) AllValid() bool {
	return c.ManufactureDateValid && c.ExpiryDateValid && c.ReceivedDateValid
}

// ValidateDates checks manufacture <= today, manufacture <= expiry and
// manufacture <= received <= expiry. An unset date is invalid; comparisons
// against an unset counterpart are skipped so only the missing field is flagged.
func ValidateDates(manufacture, expiry, received, today types.Date) DateChecks {
	mfgOK := !manufacture.IsZero() && !manufacture.After(today)

	expiryOK := !expiry.IsZero() &&
		(manufacture.IsZero() || !expiry.Before(manufacture))

	receivedOK := !received.IsZero() &&
		(manufacture.IsZero() || !received.Before(manufacture)) &&
		(expiry.IsZero() || !received.After(expiry))

	return DateChecks{
		ManufactureDateValid: mfgOK,
		ExpiryDateValid:      expiryOK,
		ReceivedDateValid:    receivedOK,
	}
}
