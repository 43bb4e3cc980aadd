package utils

import (
	"fmt"

	"gopkg.in/gomail.v2"

	"leadpilot/config"
)

// SendTeamInviteEmail notifies an invited address that it has been added to
// a workspace. Returns without error when SMTP is not configured so invite
// flows keep working in development.
func SendTeamInviteEmail(to, teamName, inviterEmail string) error {
	if config.AppConfig.SMTPHost == "" {
		return nil
	}

	body := fmt.Sprintf(`
		<html>
		<body>
			<h2>You've been invited to %s</h2>
			<p>%s has added you to their workspace on LeadPilot.</p>
			<p><a href="%s/login">Sign in</a> to get started.</p>
		</body>
		</html>
	`, teamName, inviterEmail, config.AppConfig.FrontendURL)

	m := gomail.NewMessage()
	m.SetHeader("From", config.AppConfig.FromEmail)
	m.SetHeader("To", to)
	m.SetHeader("Subject", fmt.Sprintf("You've been invited to %s on LeadPilot", teamName))
	m.SetBody("text/html", body)

	d := gomail.NewDialer(
		config.AppConfig.SMTPHost,
		config.AppConfig.SMTPPort,
		config.AppConfig.SMTPUsername,
		config.AppConfig.SMTPPassword,
	)

	return d.DialAndSend(m)
}
