package accountkit

import (
	"context"
	"errors"
	"net/url"
)

// MailSender is the outbound mail transport consumed by
// [LinkEmailNotifier]. Implementations own delivery, retries, and
// formatting beyond the plain-text body handed to them.
type MailSender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// LinkEmailNotifier builds the externally visible verification link from a
// configured base URL and the token as a ?token= query parameter, and hands
// the message to a [MailSender].
type LinkEmailNotifier struct {
	sender  MailSender
	baseURL string
}

// NewLinkEmailNotifier validates baseURL and returns a notifier.
func NewLinkEmailNotifier(sender MailSender, baseURL string) (*LinkEmailNotifier, error) {
	if sender == nil {
		return nil, errors.New("mail sender required")
	}
	if _, err := url.Parse(baseURL); err != nil || baseURL == "" {
		return nil, errors.New("invalid verification base URL")
	}
	return &LinkEmailNotifier{
		sender:  sender,
		baseURL: baseURL,
	}, nil
}

func (n *LinkEmailNotifier) SendVerification(ctx context.Context, identity, token string) error {
	link := n.baseURL + "?token=" + url.QueryEscape(token)
	body := "Hi,\n\nPlease verify your email by clicking this link:\n" + link +
		"\n\nIf you didn't request this, you can safely ignore this message.\n"

	return n.sender.Send(ctx, identity, "Verify Your Email Address", body)
}

// noopNotifier is the default when no notifier is wired: embedders that
// read tokens out of the signup result (test harnesses, CLIs) need no mail.
type noopNotifier struct{}

func (noopNotifier) SendVerification(context.Context, string, string) error {
	return nil
}
