package notification

import (
	"context"
	"fmt"

	"github.com/gofiber/fiber/v2/log"

	"Food-Rescue-Hub/internal/utils/mailing"
)

type (
	Message struct {
		To      string
		Subject string
		Body    string
		ReplyTo string
	}

	// Result reports a delivery attempt. Failures are values, never errors.
	Result struct {
		OK         bool
		Diagnostic string
	}

	// Sink delivers one message. Implementations must not panic or block past
	// ctx.
	Sink interface {
		Notify(ctx context.Context, msg Message) Result
	}

	mailSink struct {
		mailer mailing.Mailer
	}

	logSink struct{}
)

func NewMailSink(mailer mailing.Mailer) Sink {
	return &mailSink{mailer: mailer}
}

// NewLogSink returns a sink that only logs. Used when SMTP is not configured.
func NewLogSink() Sink {
	return logSink{}
}

func (s *mailSink) Notify(ctx context.Context, msg Message) Result {
	if msg.To == "" {
		return Result{Diagnostic: "no recipient"}
	}

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("mailer panic: %v", r)
			}
		}()
		done <- s.mailer.Send(msg.To, msg.Subject, msg.Body, msg.ReplyTo)
	}()

	select {
	case <-ctx.Done():
		return Result{Diagnostic: ctx.Err().Error()}
	case err := <-done:
		if err != nil {
			return Result{Diagnostic: err.Error()}
		}
		return Result{OK: true, Diagnostic: "accepted"}
	}
}

func (logSink) Notify(_ context.Context, msg Message) Result {
	if msg.To == "" {
		return Result{Diagnostic: "no recipient"}
	}
	log.Infow("notification (mail disabled)", "to", msg.To, "subject", msg.Subject)
	return Result{OK: true, Diagnostic: "logged"}
}
