package parse

import (
	"fmt"
	"regexp"
	"strings"
)

var phoneDigitsRe = regexp.MustCompile(`^\+?[0-9]{7,15}$`)

// Phone normalizes a customer contact number: separators and parentheses are
// stripped, a single leading + is kept. Hosts and staff type these by hand,
// so the input is messy by nature.
func Phone(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	s = strings.NewReplacer(" ", "", "-", "", ".", "", "(", "", ")", "").Replace(s)

	if !phoneDigitsRe.MatchString(s) {
		return "", fmt.Errorf("unable to parse phone number: %q", raw)
	}
	return s, nil
}
