// Package format renders numbers, durations, phones and dates the way the
// Brazilian landing page displays them.
package format

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var (
	ptBR = message.NewPrinter(language.BrazilianPortuguese)

	areaCodeRe   = regexp.MustCompile(`^(\d{2})(\d)`)
	subscriberRe = regexp.MustCompile(`(\d{5})(\d)`)
)

// Digits strips every non-digit character from s.
func Digits(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}

// Phone applies the progressive "(11) 99999-9999" mask to raw input.
// Inputs with more than 11 digits are returned unchanged.
func Phone(raw string) string {
	digits := Digits(raw)
	if len(digits) > 11 {
		return raw
	}
	masked := areaCodeRe.ReplaceAllString(digits, "(${1}) ${2}")
	if loc := subscriberRe.FindStringSubmatchIndex(masked); loc != nil {
		masked = masked[:loc[0]] + masked[loc[2]:loc[3]] + "-" + masked[loc[4]:loc[5]] + masked[loc[1]:]
	}
	return masked
}

// BRL formats v as Brazilian reais, e.g. "R$ 1.234,56".
func BRL(v float64) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	return sign + "R$ " + ptBR.Sprint(number.Decimal(v, number.Scale(2)))
}

// ParseCurrencyInput reads the digits of a masked salary input as cents.
// "R$ 1.234,56" and "123456" both yield 1234.56.
func ParseCurrencyInput(raw string) float64 {
	digits := Digits(raw)
	if digits == "" {
		return 0
	}
	cents, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0
	}
	return float64(cents) / 100
}

// CurrencyInput re-masks a salary input as the user types.
func CurrencyInput(raw string) string {
	return BRL(ParseCurrencyInput(raw))
}

// Hours renders a duration in hours with the given number of decimals: "12.5h".
func Hours(v float64, decimals int) string {
	return fmt.Sprintf("%.*fh", decimals, v)
}

// DateTime renders t as "02/01/2006 15:04" in loc.
func DateTime(t time.Time, loc *time.Location) string {
	return in(t, loc).Format("02/01/2006 15:04")
}

// ShortDateTime renders t as "02/01/06 15:04" in loc.
func ShortDateTime(t time.Time, loc *time.Location) string {
	return in(t, loc).Format("02/01/06 15:04")
}

// FileDate renders t as "02012006", used in export file names.
func FileDate(t time.Time, loc *time.Location) string {
	return in(t, loc).Format("02012006")
}

func in(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		return t
	}
	return t.In(loc)
}

// WhatsAppURL builds the wa.me click-to-chat link for a Brazilian phone.
func WhatsAppURL(phone string) string {
	return "https://wa.me/55" + Digits(phone)
}
