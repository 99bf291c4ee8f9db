package volunteer

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2/log"

	"Food-Rescue-Hub/domain"
	"Food-Rescue-Hub/pkg/notification"
)

type (
	VolunteerService interface {
		Submit(ctx context.Context, req domain.VolunteerRequest) (*domain.VolunteerResponse, error)
	}

	volunteerService struct {
		sink       notification.Sink
		adminEmail string
	}
)

func NewVolunteerService(sink notification.Sink, adminEmail string) VolunteerService {
	return &volunteerService{
		sink:       sink,
		adminEmail: strings.TrimSpace(adminEmail),
	}
}

// Submit mails the form to the admin address synchronously; the caller learns
// whether the message was accepted.
func (s *volunteerService) Submit(ctx context.Context, req domain.VolunteerRequest) (*domain.VolunteerResponse, error) {
	if s.adminEmail == "" {
		return nil, domain.ErrVolunteerAdminNotConfigured
	}

	res := s.sink.Notify(ctx, notification.VolunteerMessage(s.adminEmail, req))
	if !res.OK {
		log.Errorw("volunteer email failed", "to", s.adminEmail, "diagnostic", res.Diagnostic)
		return nil, domain.ErrVolunteerMailFailed
	}

	return &domain.VolunteerResponse{
		Success: true,
		To:      s.adminEmail,
	}, nil
}
