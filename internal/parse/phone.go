package parse

import (
	"fmt"
	"regexp"

	"github.com/ttacon/libphonenumber"
)

var phoneRe = regexp.MustCompile(`^[0-9]{10}$`)

// Phone validates a customer phone number. It must be exactly 10 digits; when region is set
// (e.g. "IN") the number must also be a valid national number for that region.
func Phone(raw, region string) (string, error) {
	if !phoneRe.MatchString(raw) {
		return "", fmt.Errorf("phone must be exactly 10 digits: %q", raw)
	}
	if region == "" {
		return raw, nil
	}

	p, err := libphonenumber.Parse(raw, region)
	if err != nil {
		return "", fmt.Errorf("phone %q: %w", raw, err)
	}
	if !libphonenumber.IsValidNumberForRegion(p, region) {
		return "", fmt.Errorf("phone %q is not a valid number for region %s", raw, region)
	}
	return raw, nil
}

// IsPhone reports whether raw is exactly 10 digits.
func IsPhone(raw string) bool {
	return phoneRe.MatchString(raw)
}
