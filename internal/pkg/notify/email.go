package notify

import (
	"fmt"
	"log/slog"
	"strings"

	"accounthub/internal/config"
	"accounthub/internal/pkg/metrics"

	"gopkg.in/gomail.v2"
)

// EmailNotifier 实现邮件通知。
type EmailNotifier struct {
	cfg    *config.EmailConfig
	logger *slog.Logger
}

// NewEmailNotifier 创建一个新的邮件通知器。
func NewEmailNotifier(cfg *config.EmailConfig, logger *slog.Logger) *EmailNotifier {
	return &EmailNotifier{
		cfg:    cfg,
		logger: logger,
	}
}

// SendVerificationLink 发送注册邮箱验证邮件，link 为带 token 的验证地址。
func (n *EmailNotifier) SendVerificationLink(toEmail string, username string, link string) error {
	body := fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif;">
  <div style="max-width: 520px; margin: 0 auto; padding: 16px;">
    <h2>Verify your email</h2>
    <p>Hi %s, click the link below to verify your email address:</p>
    <p><a href="%s" target="_blank">%s</a></p>
    <p>If you did not create an account, you can ignore this email.</p>
  </div>
</body>
</html>`, username, link, link)

	return n.send(toEmail, "[AccountHub] Email Verification", body)
}

// SendPasswordReset 发送密码重置通知邮件。
func (n *EmailNotifier) SendPasswordReset(toEmail string, username string) error {
	body := fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif;">
  <div style="max-width: 520px; margin: 0 auto; padding: 16px;">
    <h2>Password reset requested</h2>
    <p>Hi %s, we received a request to reset the password of your account.</p>
    <p>If this was not you, please contact support.</p>
  </div>
</body>
</html>`, username)

	return n.send(toEmail, "[AccountHub] Password Reset", body)
}

func (n *EmailNotifier) send(toEmail, subject, htmlBody string) error {
	if n.cfg.SMTPHost == "" || n.cfg.SMTPUser == "" || n.cfg.FromEmail == "" {
		return fmt.Errorf("email config missing")
	}
	if strings.TrimSpace(toEmail) == "" {
		return fmt.Errorf("empty recipient")
	}

	m := gomail.NewMessage()
	m.SetHeader("From", n.cfg.FromEmail)
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", htmlBody)

	d := gomail.NewDialer(n.cfg.SMTPHost, n.cfg.SMTPPort, n.cfg.SMTPUser, n.cfg.SMTPPass)
	if err := d.DialAndSend(m); err != nil {
		metrics.Inc(metrics.MailSendTotal, "error")
		return fmt.Errorf("send email: %w", err)
	}

	metrics.Inc(metrics.MailSendTotal, "ok")
	n.logger.Info("email sent", slog.String("to", toEmail), slog.String("subject", subject))
	return nil
}
