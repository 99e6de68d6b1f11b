package identity

import (
	"regexp"

	"github.com/nyaruka/phonenumbers"
)

// phonePattern is the accepted input format: the Armenian country code
// followed by a space and eight digits.
var phonePattern = regexp.MustCompile(`^\+374 \d{8}$`)

const phoneRegion = "AM"

// IsValidPhoneNumber reports whether the number matches the supported
// regional format. This regex is the authoritative acceptance gate.
func IsValidPhoneNumber(phone string) bool {
	return phonePattern.MatchString(phone)
}

// NormalizePhoneNumber converts an accepted number into E.164 form for
// storage. The regex gate decides acceptance; normalization is best effort
// and returns the input unchanged when the parser cannot handle it.
func NormalizePhoneNumber(phone string) string {
	num, err := phonenumbers.Parse(phone, phoneRegion)
	if err != nil {
		return phone
	}
	return phonenumbers.Format(num, phonenumbers.E164)
}
