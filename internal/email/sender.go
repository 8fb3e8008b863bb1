package email

import (
	"bytes"
	"fmt"
	"html/template"

	"gopkg.in/gomail.v2"

	"github.com/findr-app/findr-api/internal/config"
)

var resetTemplate = template.Must(template.New("password_reset").Parse(`
<p>Здравствуйте, {{.Name}}!</p>
<p>Вы запросили сброс пароля в Findr. Код подтверждения:</p>
<p><b>{{.Code}}</b></p>
<p>Код действует 15 минут. Если вы не запрашивали сброс, просто проигнорируйте это письмо.</p>
`))

// Sender отправляет служебные письма через SMTP
type Sender struct {
	dialer *gomail.Dialer
	from   string
}

// NewSender создает отправителя писем. Возвращает nil, если SMTP не настроен.
func NewSender(cfg config.SMTPConfig) *Sender {
	if cfg.Host == "" {
		return nil
	}

	return &Sender{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

// SendPasswordResetEmail отправляет письмо с кодом сброса пароля
func (s *Sender) SendPasswordResetEmail(to, name, code string) error {
	body, err := renderTemplate(resetTemplate, map[string]string{
		"Name": name,
		"Code": code,
	})
	if err != nil {
		return fmt.Errorf("ошибка при подготовке письма: %w", err)
	}

	return s.send(to, "Сброс пароля Findr", body)
}

func (s *Sender) send(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	return s.dialer.DialAndSend(m)
}

func renderTemplate(t *template.Template, data interface{}) (string, error) {
	buf := new(bytes.Buffer)
	if err := t.Execute(buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
