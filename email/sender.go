package email

import (
	"crypto/tls"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/OmarEhab007/cafm-backend-sub004/Models"
)

// Send delivers a plain-text notification to a single recipient. It is the
// shortcut the notification hub uses.
func Send(config Models.EmailConfig, to, subject, body string) error {
	return SendEmail(config, Models.EmailMessage{
		To:      []string{to},
		Subject: subject,
		Body:    body,
	})
}

// SendEmail sends an email using the provided configuration and message details
func SendEmail(config Models.EmailConfig, message Models.EmailMessage) error {
	var raw strings.Builder
	raw.WriteString(fmt.Sprintf("From: %s <%s>\r\n", config.FromName, config.FromEmail))
	raw.WriteString(fmt.Sprintf("To: %s\r\n", strings.Join(message.To, ", ")))
	if len(message.CC) > 0 {
		raw.WriteString(fmt.Sprintf("Cc: %s\r\n", strings.Join(message.CC, ", ")))
	}
	raw.WriteString(fmt.Sprintf("Subject: %s\r\n", message.Subject))
	if message.IsHTML {
		raw.WriteString("MIME-Version: 1.0\r\n")
		raw.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	} else {
		raw.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	}
	raw.WriteString("\r\n")
	raw.WriteString(message.Body)

	auth := smtp.PlainAuth("", config.Username, config.Password, config.SMTPServer)

	var recipients []string
	recipients = append(recipients, message.To...)
	recipients = append(recipients, message.CC...)
	recipients = append(recipients, message.BCC...)

	serverAddr := fmt.Sprintf("%s:%d", config.SMTPServer, config.SMTPPort)

	if config.TLSEnabled {
		return sendTLS(config, serverAddr, auth, recipients, raw.String())
	}

	return smtp.SendMail(serverAddr, auth, config.FromEmail, recipients, []byte(raw.String()))
}

// sendTLS speaks SMTP over an implicit TLS connection, for providers that do
// not offer STARTTLS on the plain port.
func sendTLS(config Models.EmailConfig, serverAddr string, auth smtp.Auth, recipients []string, body string) error {
	tlsConfig := &tls.Config{
		ServerName:         config.SMTPServer,
		InsecureSkipVerify: config.SkipTLSCheck,
	}

	conn, err := tls.Dial("tcp", serverAddr, tlsConfig)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %v", err)
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, config.SMTPServer)
	if err != nil {
		return fmt.Errorf("failed to create SMTP client: %v", err)
	}
	defer client.Close()

	if err = client.Auth(auth); err != nil {
		return fmt.Errorf("SMTP authentication failed: %v", err)
	}

	if err = client.Mail(config.FromEmail); err != nil {
		return fmt.Errorf("failed to set sender: %v", err)
	}
	for _, recipient := range recipients {
		if err = client.Rcpt(recipient); err != nil {
			return fmt.Errorf("failed to add recipient %s: %v", recipient, err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to open data connection: %v", err)
	}
	if _, err = w.Write([]byte(body)); err != nil {
		return fmt.Errorf("failed to write email body: %v", err)
	}
	if err = w.Close(); err != nil {
		return fmt.Errorf("failed to close data connection: %v", err)
	}

	return client.Quit()
}
