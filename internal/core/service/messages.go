package service

import (
	"fmt"
	"html"

	"github.com/errandly/identity-service/internal/core/domain"
	"github.com/errandly/identity-service/internal/core/ports"
)

func verificationMessage(account *domain.Account, otp *domain.OtpRecord, expiryMinutes int) ports.Message {
	text := fmt.Sprintf(
		"Hi %s,\n\nYour verification code is %s. It expires in %d minutes.\n\nIf you did not sign up, ignore this email.\n",
		account.FullName, otp.Code, expiryMinutes,
	)
	body := fmt.Sprintf(
		"<p>Hi %s,</p><p>Your verification code is <strong>%s</strong>. It expires in %d minutes.</p><p>If you did not sign up, ignore this email.</p>",
		html.EscapeString(account.FullName), otp.Code, expiryMinutes,
	)
	return ports.Message{
		To:      account.Email,
		Subject: "Verify your account",
		Text:    text,
		HTML:    body,
	}
}

func passwordResetMessage(account *domain.Account, link string) ports.Message {
	text := fmt.Sprintf(
		"Hi %s,\n\nUse the link below to choose a new password:\n%s\n\nIf you did not ask for this, ignore this email.\n",
		account.FullName, link,
	)
	body := fmt.Sprintf(
		"<p>Hi %s,</p><p><a href=\"%s\">Choose a new password</a></p><p>If you did not ask for this, ignore this email.</p>",
		html.EscapeString(account.FullName), html.EscapeString(link),
	)
	return ports.Message{
		To:      account.Email,
		Subject: "Reset your password",
		Text:    text,
		HTML:    body,
	}
}
