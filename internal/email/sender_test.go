package email

import (
	"strings"
	"testing"

	"github.com/findr-app/findr-api/internal/config"
)

// TestNewSenderWithoutSMTP проверяет, что без настроенного SMTP
// отправитель не создается
func TestNewSenderWithoutSMTP(t *testing.T) {
	if sender := NewSender(config.SMTPConfig{}); sender != nil {
		t.Error("expected nil sender when SMTP host is empty")
	}
}

// TestResetTemplate проверяет подстановку имени и кода в письмо
func TestResetTemplate(t *testing.T) {
	body, err := renderTemplate(resetTemplate, map[string]string{
		"Name": "Анна",
		"Code": "123456",
	})
	if err != nil {
		t.Fatalf("renderTemplate failed: %v", err)
	}

	if !strings.Contains(body, "Анна") {
		t.Error("rendered body should contain the recipient name")
	}
	if !strings.Contains(body, "123456") {
		t.Error("rendered body should contain the reset code")
	}
}
