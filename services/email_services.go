package services

import (
	"fmt"
	"net/smtp"
	"strings"

	"rangeapi/config"
)

type EmailService struct {
	host     string
	port     string
	username string
	password string
}

func NewEmailService() *EmailService {
	return &EmailService{
		host:     config.MailHost,
		port:     config.MailPort,
		username: config.MailUsername,
		password: config.MailPassword,
	}
}

func (s *EmailService) send(to string, message string) error {
	auth := smtp.PlainAuth("", s.username, s.password, s.host)
	return smtp.SendMail(s.host+":"+s.port, auth, s.username, []string{to}, []byte(message))
}

// SendPasswordResetEmail mails a reset link valid for one hour
func (s *EmailService) SendPasswordResetEmail(to, resetToken string) error {
	resetLink := fmt.Sprintf("%s/reset-password?token=%s", config.ClientUrl, resetToken)

	message := strings.TrimSpace(fmt.Sprintf(`
To: %s
MIME-version: 1.0
Content-Type: text/html; charset="UTF-8"
Subject: Reset your password

<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif;">
    <h2>Reset your password</h2>
    <p>Click the link below to reset your password. The link expires in 1 hour.</p>
    <p><a href="%s">Reset password</a></p>
    <p>If you didn't request this reset, ignore this email.</p>
</body>
</html>
`, to, resetLink))

	return s.send(to, message)
}

// SendAccessCodeEmail mails an enrollment code to a future participant
func (s *EmailService) SendAccessCodeEmail(to, groupName, code string) error {
	message := strings.TrimSpace(fmt.Sprintf(`
To: %s
MIME-version: 1.0
Content-Type: text/html; charset="UTF-8"
Subject: Your enrollment code for %s

<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif;">
    <h2>You have been invited to %s</h2>
    <p>Use this code to enroll:</p>
    <p style="font-size: 24px; font-weight: bold; letter-spacing: 2px;">%s</p>
</body>
</html>
`, to, groupName, groupName, code))

	return s.send(to, message)
}
