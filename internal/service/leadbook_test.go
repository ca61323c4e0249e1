package service_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/e5digital/leads-bfa-go/internal/domain"
	"github.com/e5digital/leads-bfa-go/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var brt = time.FixedZone("BRT", -3*3600)

func TestComputeMetrics(t *testing.T) {
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, brt)
	today := time.Date(2026, 3, 10, 0, 0, 0, 0, brt)

	var leads []domain.Lead
	for i := 0; i < 4; i++ {
		leads = append(leads, lead("n"+string(rune('a'+i)), "Novo", domain.StatusNew, today.Add(time.Hour)))
	}
	others := []domain.Status{
		domain.StatusContacted, domain.StatusDiagnosisScheduled, domain.StatusProposalSent,
		domain.StatusClosed, domain.StatusLost, domain.StatusContacted,
	}
	for i, st := range others {
		leads = append(leads, lead("o"+string(rune('a'+i)), "Outro", st, today.Add(-3*24*time.Hour)))
	}
	leads = append(leads, lead("old", "Antigo", domain.StatusNew, today.Add(-8*24*time.Hour)))

	m := service.ComputeMetrics(leads[:10], now, brt)
	assert.Equal(t, 10, m.Total)
	assert.Equal(t, 4, m.Today)
	assert.Equal(t, 10, m.Week)
	assert.Equal(t, 60, m.Conversion)

	m = service.ComputeMetrics(leads, now, brt)
	assert.Equal(t, 11, m.Total)
	assert.Equal(t, 10, m.Week)
	assert.Equal(t, 55, m.Conversion)
}

func TestComputeMetrics_TodayUsesLocalMidnight(t *testing.T) {
	// 23:30 the day before is within the week but not today.
	now := time.Date(2026, 3, 10, 1, 0, 0, 0, brt)
	justAfterMidnight := time.Date(2026, 3, 10, 0, 30, 0, 0, brt)
	lateYesterday := time.Date(2026, 3, 9, 23, 30, 0, 0, brt)

	m := service.ComputeMetrics([]domain.Lead{
		lead("a", "A", domain.StatusNew, justAfterMidnight),
		lead("b", "B", domain.StatusNew, lateYesterday),
	}, now, brt)
	assert.Equal(t, 1, m.Today)
	assert.Equal(t, 2, m.Week)
}

func TestComputeMetrics_Empty(t *testing.T) {
	m := service.ComputeMetrics(nil, time.Now(), brt)
	assert.Equal(t, domain.LeadMetrics{}, m)
}

func TestFilterLeads(t *testing.T) {
	at := time.Date(2026, 3, 10, 9, 0, 0, 0, brt)
	a := lead("a", "Clínica Sorrir Bem", domain.StatusNew, at)
	a.Segment = string(domain.SegmentDentalClinic)
	b := lead("b", "Pet Feliz", domain.StatusContacted, at)
	b.Phone = "(21) 98888-7777"
	c := lead("c", "Advocacia Silva", domain.StatusNew, at)
	c.Segment = string(domain.SegmentLawOffice)
	c.Email = "SILVA@adv.com"
	leads := []domain.Lead{a, b, c}

	ids := func(ls []domain.Lead) []string {
		out := []string{}
		for _, l := range ls {
			out = append(out, l.ID)
		}
		return out
	}

	assert.Equal(t, []string{"a", "b", "c"}, ids(service.FilterLeads(leads, domain.LeadFilter{})))
	assert.Equal(t, []string{"a", "b", "c"}, ids(service.FilterLeads(leads, domain.LeadFilter{Status: "todos"})))
	assert.Equal(t, []string{"a"}, ids(service.FilterLeads(leads, domain.LeadFilter{Search: "SORRIR"})))
	assert.Equal(t, []string{"c"}, ids(service.FilterLeads(leads, domain.LeadFilter{Search: "silva@"})))
	assert.Equal(t, []string{"b"}, ids(service.FilterLeads(leads, domain.LeadFilter{Search: "98888"})))
	assert.Equal(t, []string{"a"}, ids(service.FilterLeads(leads, domain.LeadFilter{Search: "odonto"})))
	assert.Equal(t, []string{"a", "c"}, ids(service.FilterLeads(leads, domain.LeadFilter{Status: "Novo"})))
	assert.Equal(t, []string{"c"}, ids(service.FilterLeads(leads, domain.LeadFilter{Search: "adv", Status: "Novo"})))
	assert.Empty(t, service.FilterLeads(leads, domain.LeadFilter{Search: "adv", Status: "Fechado"}))
}

func TestWriteLeadsCSV(t *testing.T) {
	at := time.Date(2026, 3, 5, 14, 7, 0, 0, time.UTC)
	a := lead("a", "Empresa, Filial \"Centro\"", domain.StatusNew, at)
	b := lead("b", "Pet Feliz", domain.StatusClosed, at)

	var buf bytes.Buffer
	require.NoError(t, service.WriteLeadsCSV(&buf, []domain.Lead{a, b}, brt))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Nome,Telefone,Email,Segmento,Status,Data Cadastro", lines[0])
	assert.Equal(t, `"Empresa, Filial ""Centro""",(11) 99999-9999,a@teste.com,Pet Shop,Novo,05/03/2026 11:07`, lines[1])
	assert.Equal(t, "Pet Feliz,(11) 99999-9999,b@teste.com,Pet Shop,Fechado,05/03/2026 11:07", lines[2])
}

func TestWriteLeadsCSV_HeaderOnly(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, service.WriteLeadsCSV(&buf, nil, brt))
	assert.Equal(t, "Nome,Telefone,Email,Segmento,Status,Data Cadastro\n", buf.String())
}

func TestExportFileName(t *testing.T) {
	now := time.Date(2026, 3, 5, 1, 0, 0, 0, time.UTC)
	assert.Equal(t, "leads_e5_digital_04032026.csv", service.ExportFileName(now, brt))
}

func TestWhatsAppURL(t *testing.T) {
	assert.Equal(t, "https://wa.me/5511999999999", service.WhatsAppURL("(11) 99999-9999"))
}
