package email

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderOTPEmailTemplate(t *testing.T) {
	svc := NewService("smtp.example.com", "587", "user", "pass", "no-reply@example.com", "Company API", "Company API")

	body, err := svc.renderOTPEmailTemplate("Jane Doe", "483920")
	require.NoError(t, err)

	assert.Contains(t, body, "483920")
	assert.Contains(t, body, "Hello Jane Doe,")
	assert.Contains(t, body, "Company API")
	assert.Contains(t, body, "expire in 5 minutes")
}

func TestRenderOTPEmailTemplateEscapesName(t *testing.T) {
	svc := NewService("smtp.example.com", "587", "user", "pass", "no-reply@example.com", "Company API", "Company API")

	body, err := svc.renderOTPEmailTemplate("<script>alert(1)</script>", "123456")
	require.NoError(t, err)

	assert.NotContains(t, body, "<script>alert(1)</script>")
}
