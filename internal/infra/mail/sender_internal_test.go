package mail

import (
	"testing"
	"time"

	"github.com/e5digital/leads-bfa-go/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRender(t *testing.T) {
	s := NewSender(nil, "leads@e5digital.com.br", nil, time.FixedZone("BRT", -3*3600), zap.NewNop())

	body, err := s.render(&domain.Lead{
		Name:         "Pet <Feliz>",
		Phone:        "(11) 99999-9999",
		Email:        "pet@feliz.com",
		Segment:      "Pet Shop",
		RegisteredAt: time.Date(2026, 3, 10, 18, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	assert.Contains(t, body, "Pet &lt;Feliz&gt;")
	assert.Contains(t, body, "10/03/2026 15:00")
	assert.Contains(t, body, `href="https://wa.me/5511999999999"`)
}
