// Package emailx validates candidate email addresses pasted in by admins.
//
// Syntax checks are delegated to the validator "email" rule, which accepts
// UTF-8 local parts and internationalised domains. On top of it the local part
// is capped at 64 octets (RFC 5321) and the domain must fit DNS label and name
// lengths once converted to its ASCII form.
package emailx

import (
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"golang.org/x/net/idna"
)

const maxLocalLen = 64

var (
	validate = validator.New()
	domains  = idna.New(idna.MapForLookup(), idna.VerifyDNSLength(true), idna.BidiRule())
)

// SplitList splits a free-text block on commas and whitespace, preserving
// order and dropping empty entries.
func SplitList(raw string) []string {
	return strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
}

// FirstInvalid returns the first address that fails IsValid. The boolean is
// false when every address passes.
func FirstInvalid(addresses []string) (string, bool) {
	for _, addr := range addresses {
		if !IsValid(addr) {
			return addr, true
		}
	}
	return "", false
}

// IsValid reports whether addr is a structurally valid email address.
func IsValid(addr string) bool {
	if validate.Var(addr, "required,email") != nil {
		return false
	}

	at := strings.LastIndexByte(addr, '@')
	if at > maxLocalLen {
		return false
	}
	_, err := domains.ToASCII(addr[at+1:])
	return err == nil
}
