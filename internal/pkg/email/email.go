package email

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/soulspace/soulspace_server/config"
)

type Service struct {
	cfg *config.EmailConfig
}

func NewService(cfg *config.EmailConfig) *Service {
	return &Service{cfg: cfg}
}

// SendVerificationCode sends the signup email verification code.
func (s *Service) SendVerificationCode(to, code string) error {
	subject := "Verify your email - SoulSpace"
	body := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
</head>
<body style="font-family: Georgia, serif; line-height: 1.6; color: #3d3d3d;">
    <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
        <h2 style="color: #7c6aef;">Verify your email</h2>
        <p>Hello,</p>
        <p>You are creating a SoulSpace account. Your verification code is:</p>
        <div style="background-color: #f6f4ff; padding: 15px; text-align: center; font-size: 24px; font-weight: bold; letter-spacing: 5px; margin: 20px 0;">
            %s
        </div>
        <p>The code expires in 10 minutes.</p>
        <p>If you did not request this, you can safely ignore this email.</p>
        <hr style="border: none; border-top: 1px solid #e5e7eb; margin: 20px 0;">
        <p style="color: #6b7280; font-size: 12px;">This email was sent automatically. Please do not reply.</p>
    </div>
</body>
</html>
`, code)

	return s.sendHTML(to, subject, body)
}

// SendWelcome sends the post-verification welcome email.
func (s *Service) SendWelcome(to, username string) error {
	subject := "Welcome to SoulSpace"
	body := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
</head>
<body style="font-family: Georgia, serif; line-height: 1.6; color: #3d3d3d;">
    <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
        <h2 style="color: #7c6aef;">Welcome, %s</h2>
        <p>Your SoulSpace account is ready. You can now:</p>
        <ul>
            <li>Chat with your AI spiritual guide, 5 conversations every day</li>
            <li>Explore guided courses and meditations</li>
            <li>Share your journey with the community</li>
        </ul>
        <p>We are glad you are here.</p>
        <hr style="border: none; border-top: 1px solid #e5e7eb; margin: 20px 0;">
        <p style="color: #6b7280; font-size: 12px;">This email was sent automatically. Please do not reply.</p>
    </div>
</body>
</html>
`, username)

	return s.sendHTML(to, subject, body)
}

// SendTierUpgraded confirms a subscription tier change.
func (s *Service) SendTierUpgraded(to, username, tier string) error {
	subject := "Your SoulSpace plan has changed"
	body := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
</head>
<body style="font-family: Georgia, serif; line-height: 1.6; color: #3d3d3d;">
    <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
        <h2 style="color: #7c6aef;">Plan updated</h2>
        <p>Hello %s,</p>
        <p>Your SoulSpace plan is now <strong>%s</strong>. The new daily chat allowance takes effect immediately.</p>
        <hr style="border: none; border-top: 1px solid #e5e7eb; margin: 20px 0;">
        <p style="color: #6b7280; font-size: 12px;">This email was sent automatically. Please do not reply.</p>
    </div>
</body>
</html>
`, username, tier)

	return s.sendHTML(to, subject, body)
}

func (s *Service) sendHTML(to, subject, body string) error {
	headers := make(map[string]string)
	headers["From"] = s.cfg.From
	headers["To"] = to
	headers["Subject"] = subject
	headers["MIME-Version"] = "1.0"
	headers["Content-Type"] = "text/html; charset=UTF-8"

	var msg strings.Builder
	for k, v := range headers {
		msg.WriteString(fmt.Sprintf("%s: %s\r\n", k, v))
	}
	msg.WriteString("\r\n")
	msg.WriteString(body)

	auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.SMTPHost)
	addr := fmt.Sprintf("%s:%d", s.cfg.SMTPHost, s.cfg.SMTPPort)

	return smtp.SendMail(addr, auth, s.cfg.From, []string{to}, []byte(msg.String()))
}
