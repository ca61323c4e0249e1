package service

import (
	"regexp"
	"strings"

	"github.com/e5digital/leads-bfa-go/internal/domain"
	"github.com/e5digital/leads-bfa-go/internal/format"
)

const minPhoneDigits = 10

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Field names used as keys of domain.FieldErrors.
const (
	FieldName          = "name"
	FieldPhone         = "phone"
	FieldEmail         = "email"
	FieldSegment       = "segment"
	FieldCustomSegment = "custom_segment"
	FieldConsent       = "consent"
	FieldStatus        = "status"
)

// ValidateLeadDraft checks every capture form rule and reports all
// violations together. An empty map means the draft is valid.
func ValidateLeadDraft(d *domain.LeadDraft) domain.FieldErrors {
	errs := domain.FieldErrors{}

	validateContact(errs, d.Name, d.Phone, d.Email)
	validateSegment(errs, d.Segment, d.CustomSegment, true)

	if !d.Consent {
		errs[FieldConsent] = "Você precisa aceitar receber contato"
	}
	return errs
}

// ValidateLeadUpdate checks the dashboard edit dialog.
func ValidateLeadUpdate(u *domain.LeadUpdate) domain.FieldErrors {
	errs := domain.FieldErrors{}

	validateContact(errs, u.Name, u.Phone, u.Email)
	// Stored custom segments are kept as-is, so only the capture form
	// is restricted to the option list.
	validateSegment(errs, u.Segment, u.CustomSegment, false)

	if !u.Status.Valid() {
		errs[FieldStatus] = "Status inválido"
	}
	return errs
}

func validateContact(errs domain.FieldErrors, name, phone, email string) {
	if strings.TrimSpace(name) == "" {
		errs[FieldName] = "Nome do negócio é obrigatório"
	}

	if strings.TrimSpace(phone) == "" {
		errs[FieldPhone] = "Telefone é obrigatório"
	} else if len(format.Digits(phone)) < minPhoneDigits {
		errs[FieldPhone] = "Telefone inválido"
	}

	if strings.TrimSpace(email) == "" {
		errs[FieldEmail] = "Email é obrigatório"
	} else if !emailRe.MatchString(email) {
		errs[FieldEmail] = "Email inválido"
	}
}

func validateSegment(errs domain.FieldErrors, segment, custom string, optionsOnly bool) {
	switch {
	case strings.TrimSpace(segment) == "":
		errs[FieldSegment] = "Segmento é obrigatório"
	case optionsOnly && !domain.IsKnownSegment(segment):
		errs[FieldSegment] = "Segmento inválido"
	case domain.Segment(segment) == domain.SegmentOther && strings.TrimSpace(custom) == "":
		errs[FieldCustomSegment] = "Informe o segmento do seu negócio"
	}
}

// resolveSegment substitutes the custom text for "Outro" so the literal
// option is never stored.
func resolveSegment(segment, custom string) string {
	if domain.Segment(segment) == domain.SegmentOther {
		return strings.TrimSpace(custom)
	}
	return segment
}
