package domain

import "time"

// ============================================================
// Lead: the only persisted entity (table "leads")
// ============================================================

// Segment is the business category of a lead.
type Segment string

const (
	SegmentPetShop         Segment = "Pet Shop"
	SegmentAestheticClinic Segment = "Clínica de Estética"
	SegmentDentalClinic    Segment = "Clínica de Odontologia"
	SegmentLawOffice       Segment = "Escritório de Advocacia"
	// SegmentOther is only valid as form input; the stored value is the custom text.
	SegmentOther Segment = "Outro"
)

// Segments lists the options offered by the capture form, in display order.
var Segments = []Segment{
	SegmentPetShop,
	SegmentAestheticClinic,
	SegmentDentalClinic,
	SegmentLawOffice,
	SegmentOther,
}

// IsKnownSegment reports whether s is one of the form options.
func IsKnownSegment(s string) bool {
	for _, seg := range Segments {
		if string(seg) == s {
			return true
		}
	}
	return false
}

// Status is the funnel stage of a lead.
type Status string

const (
	StatusNew                Status = "Novo"
	StatusContacted          Status = "Contatado"
	StatusDiagnosisScheduled Status = "Diagnóstico Agendado"
	StatusProposalSent       Status = "Proposta Enviada"
	StatusClosed             Status = "Fechado"
	StatusLost               Status = "Perdido"
)

// Statuses lists every funnel stage in pipeline order.
var Statuses = []Status{
	StatusNew,
	StatusContacted,
	StatusDiagnosisScheduled,
	StatusProposalSent,
	StatusClosed,
	StatusLost,
}

// Valid reports whether s is one of the six funnel stages.
func (s Status) Valid() bool {
	for _, st := range Statuses {
		if st == s {
			return true
		}
	}
	return false
}

// Lead is a prospective customer captured by the landing page form.
type Lead struct {
	ID           string    `json:"id" db:"id"`
	Name         string    `json:"nome" db:"nome"`
	Phone        string    `json:"telefone" db:"telefone"`
	Email        string    `json:"email" db:"email"`
	Segment      string    `json:"segmento" db:"segmento"`
	Status       Status    `json:"status" db:"status"`
	RegisteredAt time.Time `json:"data_cadastro" db:"data_cadastro"`
	Notes        *string   `json:"observacoes" db:"observacoes"`
	ConsentGiven bool      `json:"lgpd_consent" db:"lgpd_consent"`
}

// LeadDraft is what the visitor typed into the capture form.
type LeadDraft struct {
	Name          string `json:"name"`
	Phone         string `json:"phone"`
	Email         string `json:"email"`
	Segment       string `json:"segment"`
	CustomSegment string `json:"custom_segment"`
	Consent       bool   `json:"consent"`
}

// NewLead is the record handed to the store for insertion. ID and
// registration timestamp are assigned by the store.
type NewLead struct {
	Name         string `json:"nome" db:"nome"`
	Phone        string `json:"telefone" db:"telefone"`
	Email        string `json:"email" db:"email"`
	Segment      string `json:"segmento" db:"segmento"`
	Status       Status `json:"status" db:"status"`
	ConsentGiven bool   `json:"lgpd_consent" db:"lgpd_consent"`
}

// LeadUpdate carries the mutable fields edited in the dashboard dialog.
type LeadUpdate struct {
	Name          string  `json:"nome"`
	Phone         string  `json:"telefone"`
	Email         string  `json:"email"`
	Segment       string  `json:"segmento"`
	CustomSegment string  `json:"segmento_personalizado,omitempty"`
	Status        Status  `json:"status"`
	Notes         *string `json:"observacoes"`
}

// StatusUpdateRequest is the body of PATCH /v1/admin/leads/{id}/status.
type StatusUpdateRequest struct {
	Status Status `json:"status"`
}

// BulkDeleteRequest is the body of POST /v1/admin/leads/bulk-delete.
type BulkDeleteRequest struct {
	IDs []string `json:"ids"`
}

// DeleteResult reports which ids were removed by a delete call.
type DeleteResult struct {
	DeletedIDs []string `json:"deleted_ids"`
	Count      int      `json:"count"`
}

// LeadFilter narrows the dashboard list.
type LeadFilter struct {
	Search string
	Status string // "" / "todos" / "all" mean no filter
}

// LeadMetrics are the four cards on top of the dashboard.
type LeadMetrics struct {
	Total      int `json:"total"`
	Today      int `json:"today"`
	Week       int `json:"week"`
	Conversion int `json:"conversion"`
}

// LeadListResponse is returned by GET /v1/admin/leads.
type LeadListResponse struct {
	Leads    []Lead      `json:"leads"`
	Metrics  LeadMetrics `json:"metrics"`
	Total    int         `json:"total"`
	Filtered int         `json:"filtered"`
}

// CaptureResponse is returned by POST /v1/leads.
type CaptureResponse struct {
	Lead         *Lead        `json:"lead"`
	Notification Notification `json:"notification"`
}

// LeadOptions feeds the select inputs of the forms.
type LeadOptions struct {
	Segments []Segment `json:"segments"`
	Statuses []Status  `json:"statuses"`
}

// WhatsAppLink is returned by GET /v1/admin/leads/{id}/whatsapp.
type WhatsAppLink struct {
	LeadID string `json:"lead_id"`
	URL    string `json:"url"`
}
