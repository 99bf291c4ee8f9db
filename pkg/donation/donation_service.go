package donation

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"

	"Food-Rescue-Hub/domain"
	"Food-Rescue-Hub/entities"
	"Food-Rescue-Hub/internal/metrics"
	"Food-Rescue-Hub/internal/utils/storage"
	"Food-Rescue-Hub/pkg/notification"
)

const imageFolder = "donations"

type (
	DonationService interface {
		CreateDonation(ctx context.Context, req domain.CreateDonationRequest, donorID string) (*domain.Donation, error)
		UploadDonationImage(ctx context.Context, donationID, donorID string, file *multipart.FileHeader) (*domain.Donation, error)
		GetDonationByID(ctx context.Context, donationID string) (*domain.Donation, error)
		ListDonations(ctx context.Context, req domain.ListDonationsRequest) ([]*domain.Donation, error)
		GetMyClaims(ctx context.Context, receiverID string) ([]*domain.Donation, error)

		ClaimDonation(ctx context.Context, donationID, receiverID string) (*domain.Donation, error)
		ConfirmDonation(ctx context.Context, donationID, donorID string, req domain.ConfirmDonationRequest) (*domain.Donation, error)
		MarkCollected(ctx context.Context, donationID, callerID string) (*domain.Donation, error)
		DeleteDonation(ctx context.Context, donationID, callerID string) error
	}

	// ViewInvalidator drops cached aggregate views after a write that changes them.
	ViewInvalidator interface {
		InvalidateViews(ctx context.Context)
	}

	Options struct {
		Storage          storage.AwsS3
		Notifier         notification.Notifier
		Views            ViewInvalidator
		Metrics          *metrics.Metrics
		CoordinatorEmail string
	}

	donationService struct {
		donationRepository DonationRepository
		s3                 storage.AwsS3
		notifier           notification.Notifier
		views              ViewInvalidator
		metrics            *metrics.Metrics
		coordinatorEmail   string
		now                func() time.Time
	}
)

func NewDonationService(donationRepository DonationRepository, opts Options) DonationService {
	return &donationService{
		donationRepository: donationRepository,
		s3:                 opts.Storage,
		notifier:           opts.Notifier,
		views:              opts.Views,
		metrics:            opts.Metrics,
		coordinatorEmail:   opts.CoordinatorEmail,
		now:                func() time.Time { return time.Now().UTC() },
	}
}

func (s *donationService) CreateDonation(ctx context.Context, req domain.CreateDonationRequest, donorID string) (*domain.Donation, error) {
	donorUUID, err := uuid.Parse(donorID)
	if err != nil {
		return nil, domain.ErrParseUUID
	}

	if !req.Type.Valid() {
		return nil, domain.ErrInvalidDonationType
	}
	kind, err := req.Items.Kind()
	if err != nil {
		return nil, err
	}
	if kind != req.Type {
		return nil, domain.ErrInvalidDonationItems
	}

	address := strings.TrimSpace(req.PickupAddress)
	if address == "" {
		return nil, domain.ErrMissingPickupAddress
	}

	category := req.Category
	if category == "" {
		category = domain.DefaultCategory
	}
	foodType := req.FoodType
	if foodType == "" {
		foodType = domain.DefaultFoodType
	}

	donation := &entities.Donation{
		DonorID:            donorUUID,
		Type:               string(req.Type),
		Items:              req.Items,
		Category:           category,
		FoodType:           foodType,
		PickupAddress:      address,
		Contact:            strings.TrimSpace(req.Contact),
		Status:             string(domain.StatusAvailable),
		ConfirmationStatus: string(domain.ConfirmationPending),
	}
	if c := req.PickupCoords; c != nil {
		if c.Lat < -90 || c.Lat > 90 || c.Lng < -180 || c.Lng > 180 {
			return nil, domain.ErrInvalidCoordinates
		}
		donation.PickupLat = &c.Lat
		donation.PickupLng = &c.Lng
	}

	if err := s.donationRepository.CreateDonation(ctx, donation); err != nil {
		if errors.Is(err, domain.ErrValidation) {
			return nil, err
		}
		return nil, domain.Internal(err)
	}

	log.Infow("donation created", "donation_id", donation.ID, "donor_id", donorUUID, "type", donation.Type)
	return s.GetDonationByID(ctx, donation.ID.String())
}

func (s *donationService) UploadDonationImage(ctx context.Context, donationID, donorID string, file *multipart.FileHeader) (*domain.Donation, error) {
	id, err := parseDonationID(donationID)
	if err != nil {
		return nil, err
	}
	donorUUID, err := uuid.Parse(donorID)
	if err != nil {
		return nil, domain.ErrParseUUID
	}
	if file == nil {
		return nil, fmt.Errorf("%w: image is required", domain.ErrValidation)
	}

	donation, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if donation.DonorID != donorUUID {
		return nil, domain.ErrUnauthorizedDonation
	}
	if donation.LifecycleStatus() != domain.StatusAvailable {
		return nil, domain.ErrDonationNotAvailable
	}
	if s.s3 == nil {
		return nil, storage.ErrStorageDisabled
	}

	objectKey, err := s.s3.UploadFile(ctx, fmt.Sprintf("donation-%s-%d", id, s.now().Unix()), file, imageFolder, storage.AllowImage...)
	if err != nil {
		return nil, err
	}

	items := donation.Items
	items.SetImage(s.s3.GetPublicLinkKey(objectKey))
	ok, err := s.donationRepository.UpdateItems(ctx, id, donorUUID, items)
	if err != nil {
		return nil, domain.Internal(err)
	}
	if !ok {
		if err := s.s3.DeleteFile(context.WithoutCancel(ctx), objectKey); err != nil {
			log.Warnw("orphaned donation image", "donation_id", id, "object_key", objectKey, "error", err)
		}
		return nil, domain.ErrDonationNotAvailable
	}
	return s.GetDonationByID(ctx, donationID)
}

func (s *donationService) GetDonationByID(ctx context.Context, donationID string) (*domain.Donation, error) {
	id, err := parseDonationID(donationID)
	if err != nil {
		return nil, err
	}
	donation, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return toDomainDonation(donation), nil
}

func (s *donationService) ListDonations(ctx context.Context, req domain.ListDonationsRequest) ([]*domain.Donation, error) {
	if req.Type != "" && !domain.DonationType(req.Type).Valid() {
		return nil, domain.ErrInvalidDonationType
	}
	donations, err := s.donationRepository.GetDonations(ctx, DonationFilter{
		Type: req.Type,
		City: strings.TrimSpace(req.City),
	})
	if err != nil {
		return nil, domain.Internal(err)
	}
	return toDomainDonations(donations), nil
}

func (s *donationService) GetMyClaims(ctx context.Context, receiverID string) ([]*domain.Donation, error) {
	receiverUUID, err := uuid.Parse(receiverID)
	if err != nil {
		return nil, domain.ErrParseUUID
	}
	donations, err := s.donationRepository.GetClaimedBy(ctx, receiverUUID)
	if err != nil {
		return nil, domain.Internal(err)
	}
	return toDomainDonations(donations), nil
}

// ClaimDonation moves an Available donation to Claimed for receiverID. The
// transition is a single conditional write; when several receivers race,
// exactly one succeeds and the rest get ErrDonationAlreadyClaimed.
func (s *donationService) ClaimDonation(ctx context.Context, donationID, receiverID string) (result *domain.Donation, err error) {
	defer func() { s.record("claim", err) }()

	id, err := parseDonationID(donationID)
	if err != nil {
		return nil, err
	}
	receiverUUID, err := uuid.Parse(receiverID)
	if err != nil {
		return nil, domain.ErrParseUUID
	}

	current, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.DonorID == receiverUUID {
		return nil, domain.ErrCannotClaimOwnDonation
	}

	claimed, err := s.donationRepository.ClaimIfAvailable(ctx, id, receiverUUID, s.now())
	if err != nil {
		return nil, domain.Internal(err)
	}
	if !claimed {
		if _, err := s.load(ctx, id); err != nil {
			return nil, err
		}
		return nil, domain.ErrDonationAlreadyClaimed
	}

	updated, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	result = toDomainDonation(updated)

	log.Infow("donation claimed", "donation_id", id, "receiver_id", receiverUUID)
	s.notify(notification.ClaimedMessage(party(updated.Donor), party(updated.Claimant), result))
	return result, nil
}

// ConfirmDonation records the donor's decision on a pending claim. A rejection
// reopens the donation in the same write.
func (s *donationService) ConfirmDonation(ctx context.Context, donationID, donorID string, req domain.ConfirmDonationRequest) (result *domain.Donation, err error) {
	defer func() { s.record("confirm", err) }()

	id, err := parseDonationID(donationID)
	if err != nil {
		return nil, err
	}
	donorUUID, err := uuid.Parse(donorID)
	if err != nil {
		return nil, domain.ErrParseUUID
	}

	current, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.DonorID != donorUUID {
		return nil, domain.ErrNotDonationOwner
	}

	switch req.Decision {
	case domain.ConfirmationConfirmed:
		if !req.Method.Valid() {
			return nil, domain.ErrInvalidFulfillmentMethod
		}
	case domain.ConfirmationRejected:
	default:
		return nil, domain.ErrInvalidDecision
	}

	if current.LifecycleStatus() != domain.StatusClaimed ||
		domain.ConfirmationStatus(current.ConfirmationStatus) != domain.ConfirmationPending ||
		current.ClaimedBy == nil {
		return nil, domain.ErrDonationNotClaimed
	}
	claimant := *current.ClaimedBy
	receiver := party(current.Claimant)

	var ok bool
	if req.Decision == domain.ConfirmationConfirmed {
		ok, err = s.donationRepository.ConfirmClaim(ctx, id, claimant, req.Method, s.now())
	} else {
		ok, err = s.donationRepository.RejectClaim(ctx, id, claimant, s.now())
	}
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			return nil, err
		}
		return nil, domain.Internal(err)
	}
	if !ok {
		return nil, domain.ErrDonationNotClaimed
	}

	updated, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	result = toDomainDonation(updated)

	log.Infow("donation claim decided", "donation_id", id, "decision", req.Decision, "method", req.Method)
	s.notify(notification.DecisionMessage(receiver, result, req.Decision))
	if req.Decision == domain.ConfirmationConfirmed && req.Method == domain.FulfillmentDelivery && s.coordinatorEmail != "" {
		s.notify(notification.DeliveryRequestMessage(s.coordinatorEmail, party(updated.Donor), receiver, result))
	}
	return result, nil
}

// MarkCollected finishes a confirmed donation. Either the donor or the current
// claimant may call it, and only once.
func (s *donationService) MarkCollected(ctx context.Context, donationID, callerID string) (result *domain.Donation, err error) {
	defer func() { s.record("collect", err) }()

	id, err := parseDonationID(donationID)
	if err != nil {
		return nil, err
	}
	callerUUID, err := uuid.Parse(callerID)
	if err != nil {
		return nil, domain.ErrParseUUID
	}

	current, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	isDonor := current.DonorID == callerUUID
	isClaimant := current.ClaimedBy != nil && *current.ClaimedBy == callerUUID
	if !isDonor && !isClaimant {
		return nil, domain.ErrNotDonationParticipant
	}

	switch {
	case current.LifecycleStatus() == domain.StatusCollected:
		return nil, domain.ErrDonationAlreadyCollected
	case current.LifecycleStatus() != domain.StatusClaimed,
		domain.ConfirmationStatus(current.ConfirmationStatus) != domain.ConfirmationConfirmed:
		return nil, domain.ErrDonationNotConfirmed
	}

	ok, err := s.donationRepository.MarkCollected(ctx, id, s.now())
	if err != nil {
		return nil, domain.Internal(err)
	}
	if !ok {
		latest, err := s.load(ctx, id)
		if err != nil {
			return nil, err
		}
		if latest.LifecycleStatus() == domain.StatusCollected {
			return nil, domain.ErrDonationAlreadyCollected
		}
		return nil, domain.ErrDonationNotConfirmed
	}

	if s.views != nil {
		s.views.InvalidateViews(ctx)
	}

	updated, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	log.Infow("donation collected", "donation_id", id, "caller_id", callerUUID)
	return toDomainDonation(updated), nil
}

func (s *donationService) DeleteDonation(ctx context.Context, donationID, callerID string) (err error) {
	defer func() { s.record("delete", err) }()

	id, err := parseDonationID(donationID)
	if err != nil {
		return err
	}
	callerUUID, err := uuid.Parse(callerID)
	if err != nil {
		return domain.ErrParseUUID
	}

	current, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if current.DonorID != callerUUID {
		return domain.ErrUnauthorizedDonation
	}
	if current.LifecycleStatus() != domain.StatusAvailable {
		return domain.ErrDonationNotAvailable
	}

	ok, err := s.donationRepository.DeleteIfAvailable(ctx, id, callerUUID)
	if err != nil {
		return domain.Internal(err)
	}
	if !ok {
		return domain.ErrDonationNotAvailable
	}

	log.Infow("donation deleted", "donation_id", id, "donor_id", callerUUID)
	return nil
}

func (s *donationService) load(ctx context.Context, id uuid.UUID) (*entities.Donation, error) {
	donation, err := s.donationRepository.GetDonationByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, domain.ErrDonationNotFound
		}
		return nil, domain.Internal(err)
	}
	return donation, nil
}

func (s *donationService) notify(msg notification.Message) {
	if s.notifier == nil || msg.To == "" {
		return
	}
	s.notifier.Enqueue(msg)
}

func (s *donationService) record(operation string, err error) {
	s.metrics.IncrementTransition(operation, outcome(err))
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrValidation):
		return "invalid"
	case errors.Is(err, domain.ErrAuthorization):
		return "forbidden"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrConflict):
		return "conflict"
	default:
		return "error"
	}
}

func parseDonationID(id string) (uuid.UUID, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, domain.ErrInvalidDonationID
	}
	return parsed, nil
}

func party(u *entities.User) notification.Party {
	if u == nil {
		return notification.Party{}
	}
	return notification.Party{Name: u.Name, Email: u.Email, Phone: u.Phone}
}
