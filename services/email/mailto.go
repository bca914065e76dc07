package emailsvc

import (
	"context"
	"os/exec"
	"runtime"

	"github.com/pkg/errors"

	"github.com/trezcool/absences/core"
)

// MailtoService opens every message as a pre-filled draft in the platform mail client.
// Nothing is sent until the user does it from the client.
type MailtoService struct {
	open func(url string) error
}

var _ core.EmailService = (*MailtoService)(nil)

func NewMailtoService() *MailtoService {
	return &MailtoService{open: openURL}
}

func (svc *MailtoService) SendMessages(ctx context.Context, messages ...*core.EmailMessage) error {
	for _, msg := range messages {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !msg.HasRecipients() {
			return ErrNoRecipient
		}
		if err := svc.open(msg.MailtoURL()); err != nil {
			return errors.Wrap(err, "opening mail client")
		}
	}
	return nil
}

func openURL(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	return cmd.Start()
}

// NewService returns the email service named by conf.Mailer.
func NewService(conf *core.Config) (core.EmailService, error) {
	switch conf.Mailer {
	case "", "console":
		if conf.TestMode {
			return NewConsoleServiceMock(conf), nil
		}
		return NewConsoleService(conf), nil
	case "mailto":
		return NewMailtoService(), nil
	}
	return nil, errors.Errorf("unknown mailer %q", conf.Mailer)
}
