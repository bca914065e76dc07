package core

import (
	"context"
	"net/mail"
	"net/url"
	"strings"
)

type (
	// EmailMessage is a plain text draft addressed to parents.
	EmailMessage struct {
		To      []mail.Address
		Cc      []mail.Address
		Bcc     []mail.Address
		Subject string
		Body    string
	}

	// EmailService is any service that can hand messages over for delivery.
	// SendMessages returns once every message has been handed over, or on the first failure.
	EmailService interface {
		SendMessages(ctx context.Context, messages ...*EmailMessage) error
	}
)

func (m *EmailMessage) HasRecipients() bool { return len(m.To) > 0 }
func (m *EmailMessage) HasContent() bool    { return m.Subject != "" || m.Body != "" }

// MailtoURL renders the message as a RFC 6068 `mailto:` link.
func (m *EmailMessage) MailtoURL() string {
	q := make([]string, 0, 4)
	if len(m.Cc) > 0 {
		q = append(q, "cc="+mailtoEscape(joinAddresses(m.Cc, true)))
	}
	if len(m.Bcc) > 0 {
		q = append(q, "bcc="+mailtoEscape(joinAddresses(m.Bcc, true)))
	}
	q = append(q, "subject="+mailtoEscape(m.Subject), "body="+mailtoEscape(m.Body))
	return "mailto:" + joinAddresses(m.To, true) + "?" + strings.Join(q, "&")
}

// JoinAddresses renders addrs as a header value.
func JoinAddresses(addrs []mail.Address) string {
	return joinAddresses(addrs, false)
}

func joinAddresses(addrs []mail.Address, bare bool) string {
	toJoin := make([]string, 0, len(addrs))
	for _, a := range addrs {
		if bare {
			toJoin = append(toJoin, a.Address)
		} else {
			toJoin = append(toJoin, a.String())
		}
	}
	return strings.Join(toJoin, ",")
}

// mailtoEscape percent-encodes s; mail clients do not decode "+" as a space.
func mailtoEscape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
