package naming

import (
	"regexp"
	"strings"
)

const (
	// CountryCode is the Ukrainian country calling code.
	CountryCode = "380"
	// NationalPrefix doubles as the "no usable phone" placeholder.
	NationalPrefix = "+" + CountryCode
	// BodyLen is the number of subscriber digits after the prefix.
	BodyLen = 9
)

var (
	nonDigits = regexp.MustCompile(`[^0-9]`)
	// phoneRuns chunks a digit string the way folder titles are scanned.
	phoneRuns = regexp.MustCompile(`[0-9]{9,12}`)
)

// Digits strips every character that is not an ASCII digit.
func Digits(s string) string {
	return nonDigits.ReplaceAllString(s, "")
}

// NormalizePhone returns the canonical "+380XXXXXXXXX" form of raw.
//
// Input without digits yields the bare NationalPrefix placeholder, and so
// do "0" and "380" alone: they reduce to a country code with no subscriber
// digits. Every other digit input has the full 9-digit body. A single
// leading trunk zero is replaced by the country code. A leading country code
// is removed as a whole prefix; any other leading fragment is dropped only by
// keeping the trailing BodyLen digits. Bodies shorter than BodyLen are
// left-padded with zeros so the output shape never varies.
func NormalizePhone(raw string) string {
	d := Digits(raw)
	if d == "" {
		return NationalPrefix
	}
	if strings.HasPrefix(d, "0") {
		d = CountryCode + d[1:]
	}
	body := strings.TrimPrefix(d, CountryCode)
	if body == "" {
		return NationalPrefix
	}
	if len(body) > BodyLen {
		body = body[len(body)-BodyLen:]
	}
	return NationalPrefix + strings.Repeat("0", BodyLen-len(body)) + body
}

// HasPhone reports whether a canonical phone carries a subscriber body.
func HasPhone(canonical string) bool {
	return len(Digits(canonical)) > len(CountryCode)
}

// PhoneBody returns the subscriber digits of a canonical phone, or "" for
// the placeholder.
func PhoneBody(canonical string) string {
	if !HasPhone(canonical) {
		return ""
	}
	d := Digits(canonical)
	return d[len(d)-BodyLen:]
}

// UsablePhone reports whether raw input carries enough digits to identify a
// subscriber at all.
func UsablePhone(raw string) bool {
	return len(Digits(raw)) >= BodyLen
}

// ExtractPhone finds the phone encoded in free text such as a folder title.
// Titles put the phone after the name, so of all 9-12 digit runs in the
// digit-only text the last one wins.
func ExtractPhone(text string) (string, bool) {
	d := Digits(text)
	if len(d) < BodyLen {
		return "", false
	}
	runs := phoneRuns.FindAllString(d, -1)
	if len(runs) == 0 {
		return "", false
	}
	return NormalizePhone(runs[len(runs)-1]), true
}
