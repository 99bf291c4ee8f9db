package donation

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"os"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"Food-Rescue-Hub/domain"
	"Food-Rescue-Hub/entities"
	"Food-Rescue-Hub/internal/metrics"
	"Food-Rescue-Hub/internal/testutil"
)

type countingViews struct {
	calls atomic.Int32
}

func (c *countingViews) InvalidateViews(context.Context) {
	c.calls.Add(1)
}

type fixture struct {
	db       *gorm.DB
	service  DonationService
	notifier *testutil.RecordingNotifier
	views    *countingViews
	storage  *testutil.FakeStorage
	donor    *entities.User
	receiver *entities.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewDB(t)
	f := &fixture{
		db:       db,
		notifier: &testutil.RecordingNotifier{},
		views:    &countingViews{},
		storage:  testutil.NewFakeStorage(),
		donor:    testutil.CreateUser(t, db, "donor", domain.RoleDonor),
		receiver: testutil.CreateUser(t, db, "receiver", domain.RoleReceiver),
	}
	f.service = NewDonationService(NewDonationRepository(db), Options{
		Storage:          f.storage,
		Notifier:         f.notifier,
		Views:            f.views,
		Metrics:          metrics.New(),
		CoordinatorEmail: "coordinator@example.com",
	})
	return f
}

func (f *fixture) create(t *testing.T) *domain.Donation {
	t.Helper()
	d, err := f.service.CreateDonation(context.Background(), testutil.CookedRequest("5 Temple Street, Chennai"), f.donor.ID.String())
	require.NoError(t, err)
	return d
}

func (f *fixture) reload(t *testing.T, id string) *entities.Donation {
	t.Helper()
	var d entities.Donation
	require.NoError(t, f.db.Where("id = ?", id).First(&d).Error)
	return &d
}

func TestCreateDonation_Defaults(t *testing.T) {
	f := newFixture(t)

	d := f.create(t)

	assert.Equal(t, domain.StatusAvailable, d.Status)
	assert.Equal(t, domain.ConfirmationPending, d.ConfirmationStatus)
	assert.Equal(t, domain.DefaultCategory, d.Category)
	assert.Equal(t, domain.DefaultFoodType, d.FoodType)
	assert.Nil(t, d.ClaimedBy)
	require.NotNil(t, d.Donor)
	assert.Equal(t, f.donor.Name, d.Donor.Name)
}

func TestCreateDonation_RejectsMismatchedItems(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req := testutil.CookedRequest("5 Temple Street")
	req.Type = domain.DonationTypeGrocery
	_, err := f.service.CreateDonation(ctx, req, f.donor.ID.String())
	assert.ErrorIs(t, err, domain.ErrInvalidDonationItems)

	req = testutil.CookedRequest("5 Temple Street")
	req.Items.Grocery = &domain.GroceryItem{ItemName: "Dal", Quantity: 1, Unit: "kg"}
	_, err = f.service.CreateDonation(ctx, req, f.donor.ID.String())
	assert.ErrorIs(t, err, domain.ErrValidation)

	req = testutil.CookedRequest("   ")
	_, err = f.service.CreateDonation(ctx, req, f.donor.ID.String())
	assert.ErrorIs(t, err, domain.ErrMissingPickupAddress)

	req = testutil.CookedRequest("5 Temple Street")
	req.PickupCoords = &domain.Coordinates{Lat: 91, Lng: 0}
	_, err = f.service.CreateDonation(ctx, req, f.donor.ID.String())
	assert.ErrorIs(t, err, domain.ErrInvalidCoordinates)
}

func TestListDonations_FiltersByTypeAndCity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.create(t)
	testutil.CreateDonation(t, f.db, f.donor, domain.StatusAvailable)

	all, err := f.service.ListDonations(ctx, domain.ListDonationsRequest{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	cooked, err := f.service.ListDonations(ctx, domain.ListDonationsRequest{Type: "cooked"})
	require.NoError(t, err)
	require.Len(t, cooked, 1)
	assert.Equal(t, domain.DonationTypeCooked, cooked[0].Type)

	pune, err := f.service.ListDonations(ctx, domain.ListDonationsRequest{City: "pUNE"})
	require.NoError(t, err)
	require.Len(t, pune, 1)
	assert.Contains(t, pune[0].PickupAddress, "Pune")

	none, err := f.service.ListDonations(ctx, domain.ListDonationsRequest{City: "Delhi"})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestClaimDonation_SingleWinner(t *testing.T) {
	f := newFixture(t)
	d := f.create(t)

	const contenders = 20
	receivers := make([]*entities.User, contenders)
	for i := range receivers {
		receivers[i] = testutil.CreateUser(t, f.db, "ngo", domain.RoleReceiver)
	}

	var (
		wg        sync.WaitGroup
		start     = make(chan struct{})
		successes atomic.Int32
		conflicts atomic.Int32
		winner    atomic.Value
	)
	for _, r := range receivers {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			<-start
			_, err := f.service.ClaimDonation(context.Background(), d.ID, id)
			switch {
			case err == nil:
				successes.Add(1)
				winner.Store(id)
			case assert.ErrorIs(t, err, domain.ErrDonationAlreadyClaimed):
				conflicts.Add(1)
			}
		}(r.ID.String())
	}
	close(start)
	wg.Wait()

	assert.EqualValues(t, 1, successes.Load())
	assert.EqualValues(t, contenders-1, conflicts.Load())

	stored := f.reload(t, d.ID)
	assert.Equal(t, string(domain.StatusClaimed), stored.Status)
	require.NotNil(t, stored.ClaimedBy)
	assert.Equal(t, winner.Load(), stored.ClaimedBy.String())
	assert.Len(t, f.notifier.Messages(), 1)
}

func TestClaimDonation_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	d := f.create(t)

	_, err := f.service.ClaimDonation(ctx, d.ID, f.donor.ID.String())
	assert.ErrorIs(t, err, domain.ErrCannotClaimOwnDonation)
	assert.ErrorIs(t, err, domain.ErrAuthorization)

	_, err = f.service.ClaimDonation(ctx, "not-a-uuid", f.receiver.ID.String())
	assert.ErrorIs(t, err, domain.ErrInvalidDonationID)

	_, err = f.service.ClaimDonation(ctx, "3f1a4c4e-9d49-4a53-a7a6-0d7c5a8f0b11", f.receiver.ID.String())
	assert.ErrorIs(t, err, domain.ErrDonationNotFound)

	_, err = f.service.ClaimDonation(ctx, d.ID, f.receiver.ID.String())
	require.NoError(t, err)

	other := testutil.CreateUser(t, f.db, "late", domain.RoleReceiver)
	_, err = f.service.ClaimDonation(ctx, d.ID, other.ID.String())
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestClaimDonation_NotifiesDonor(t *testing.T) {
	f := newFixture(t)
	d := f.create(t)

	claimed, err := f.service.ClaimDonation(context.Background(), d.ID, f.receiver.ID.String())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusClaimed, claimed.Status)
	assert.Equal(t, domain.ConfirmationPending, claimed.ConfirmationStatus)
	assert.NotNil(t, claimed.ClaimedAt)

	msgs := f.notifier.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, f.donor.Email, msgs[0].To)
	assert.Equal(t, "Your donation was claimed", msgs[0].Subject)
	assert.Contains(t, msgs[0].Body, f.receiver.Name)
}

func TestConfirmDonation_RejectionReopens(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	d := f.create(t)

	_, err := f.service.ClaimDonation(ctx, d.ID, f.receiver.ID.String())
	require.NoError(t, err)

	rejected, err := f.service.ConfirmDonation(ctx, d.ID, f.donor.ID.String(), domain.ConfirmDonationRequest{
		Decision: domain.ConfirmationRejected,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAvailable, rejected.Status)
	assert.Equal(t, domain.ConfirmationRejected, rejected.ConfirmationStatus)
	assert.Nil(t, rejected.ClaimedBy)
	assert.Nil(t, rejected.ClaimedAt)
	assert.Nil(t, rejected.FulfillmentMethod)
	assert.NotNil(t, rejected.ConfirmedAt)

	msgs := f.notifier.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, f.receiver.Email, msgs[1].To)
	assert.Equal(t, "Donation rejected", msgs[1].Subject)

	second := testutil.CreateUser(t, f.db, "second", domain.RoleReceiver)
	reclaimed, err := f.service.ClaimDonation(ctx, d.ID, second.ID.String())
	require.NoError(t, err)
	assert.Equal(t, domain.ConfirmationPending, reclaimed.ConfirmationStatus)
	require.NotNil(t, reclaimed.ClaimedBy)
	assert.Equal(t, second.ID.String(), *reclaimed.ClaimedBy)
}

func TestConfirmDonation_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	d := f.create(t)

	_, err := f.service.ConfirmDonation(ctx, d.ID, f.donor.ID.String(), domain.ConfirmDonationRequest{
		Decision: domain.ConfirmationConfirmed, Method: domain.FulfillmentPickup,
	})
	assert.ErrorIs(t, err, domain.ErrDonationNotClaimed)

	_, err = f.service.ClaimDonation(ctx, d.ID, f.receiver.ID.String())
	require.NoError(t, err)

	_, err = f.service.ConfirmDonation(ctx, d.ID, f.receiver.ID.String(), domain.ConfirmDonationRequest{
		Decision: domain.ConfirmationConfirmed, Method: domain.FulfillmentPickup,
	})
	assert.ErrorIs(t, err, domain.ErrNotDonationOwner)

	_, err = f.service.ConfirmDonation(ctx, d.ID, f.donor.ID.String(), domain.ConfirmDonationRequest{
		Decision: "Maybe",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidDecision)

	_, err = f.service.ConfirmDonation(ctx, d.ID, f.donor.ID.String(), domain.ConfirmDonationRequest{
		Decision: domain.ConfirmationConfirmed,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidFulfillmentMethod)

	_, err = f.service.ConfirmDonation(ctx, d.ID, f.donor.ID.String(), domain.ConfirmDonationRequest{
		Decision: domain.ConfirmationConfirmed, Method: domain.FulfillmentPickup,
	})
	require.NoError(t, err)

	_, err = f.service.ConfirmDonation(ctx, d.ID, f.donor.ID.String(), domain.ConfirmDonationRequest{
		Decision: domain.ConfirmationRejected,
	})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestConfirmDonation_DeliveryNotifiesCoordinator(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	d := f.create(t)

	_, err := f.service.ClaimDonation(ctx, d.ID, f.receiver.ID.String())
	require.NoError(t, err)
	confirmed, err := f.service.ConfirmDonation(ctx, d.ID, f.donor.ID.String(), domain.ConfirmDonationRequest{
		Decision: domain.ConfirmationConfirmed, Method: domain.FulfillmentDelivery,
	})
	require.NoError(t, err)
	require.NotNil(t, confirmed.FulfillmentMethod)
	assert.Equal(t, domain.FulfillmentDelivery, *confirmed.FulfillmentMethod)
	assert.Equal(t, domain.StatusClaimed, confirmed.Status)

	msgs := f.notifier.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, "Donation confirmed", msgs[1].Subject)
	assert.Equal(t, "coordinator@example.com", msgs[2].To)
	assert.Equal(t, "Delivery request: donation", msgs[2].Subject)
	assert.Contains(t, msgs[2].Body, f.receiver.Email)
}

func TestMarkCollected_RequiresConfirmation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	d := f.create(t)

	_, err := f.service.MarkCollected(ctx, d.ID, f.donor.ID.String())
	assert.ErrorIs(t, err, domain.ErrDonationNotConfirmed)

	_, err = f.service.ClaimDonation(ctx, d.ID, f.receiver.ID.String())
	require.NoError(t, err)

	_, err = f.service.MarkCollected(ctx, d.ID, f.receiver.ID.String())
	assert.ErrorIs(t, err, domain.ErrDonationNotConfirmed)
	assert.Equal(t, string(domain.StatusClaimed), f.reload(t, d.ID).Status)

	_, err = f.service.ConfirmDonation(ctx, d.ID, f.donor.ID.String(), domain.ConfirmDonationRequest{
		Decision: domain.ConfirmationConfirmed, Method: domain.FulfillmentPickup,
	})
	require.NoError(t, err)

	collected, err := f.service.MarkCollected(ctx, d.ID, f.receiver.ID.String())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCollected, collected.Status)
	assert.NotNil(t, collected.CompletedAt)
	assert.EqualValues(t, 1, f.views.calls.Load())

	_, err = f.service.MarkCollected(ctx, d.ID, f.donor.ID.String())
	assert.ErrorIs(t, err, domain.ErrDonationAlreadyCollected)
	assert.EqualValues(t, 1, f.views.calls.Load())
}

func TestMarkCollected_OnlyParticipants(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	d := f.create(t)

	_, err := f.service.ClaimDonation(ctx, d.ID, f.receiver.ID.String())
	require.NoError(t, err)
	_, err = f.service.ConfirmDonation(ctx, d.ID, f.donor.ID.String(), domain.ConfirmDonationRequest{
		Decision: domain.ConfirmationConfirmed, Method: domain.FulfillmentPickup,
	})
	require.NoError(t, err)

	outsider := testutil.CreateUser(t, f.db, "outsider", domain.RoleReceiver)
	_, err = f.service.MarkCollected(ctx, d.ID, outsider.ID.String())
	assert.ErrorIs(t, err, domain.ErrNotDonationParticipant)
	assert.Equal(t, string(domain.StatusClaimed), f.reload(t, d.ID).Status)

	_, err = f.service.MarkCollected(ctx, d.ID, f.donor.ID.String())
	assert.NoError(t, err)
}

func TestDeleteDonation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	d := f.create(t)
	err := f.service.DeleteDonation(ctx, d.ID, f.receiver.ID.String())
	assert.ErrorIs(t, err, domain.ErrUnauthorizedDonation)

	_, err = f.service.ClaimDonation(ctx, d.ID, f.receiver.ID.String())
	require.NoError(t, err)
	err = f.service.DeleteDonation(ctx, d.ID, f.donor.ID.String())
	assert.ErrorIs(t, err, domain.ErrDonationNotAvailable)

	open := f.create(t)
	require.NoError(t, f.service.DeleteDonation(ctx, open.ID, f.donor.ID.String()))
	_, err = f.service.GetDonationByID(ctx, open.ID)
	assert.ErrorIs(t, err, domain.ErrDonationNotFound)
}

func TestLegacyMissingStatusIsAvailable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, raw := range []interface{}{nil, ""} {
		d := testutil.CreateDonation(t, f.db, f.donor, domain.StatusAvailable)
		require.NoError(t, f.db.Exec("UPDATE donations SET status = ? WHERE id = ?", raw, d.ID).Error)

		got, err := f.service.GetDonationByID(ctx, d.ID.String())
		require.NoError(t, err)
		assert.Equal(t, domain.StatusAvailable, got.Status)

		claimed, err := f.service.ClaimDonation(ctx, d.ID.String(), f.receiver.ID.String())
		require.NoError(t, err)
		assert.Equal(t, domain.StatusClaimed, claimed.Status)
	}
}

func TestGetMyClaims(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := f.create(t)
	f.create(t)
	_, err := f.service.ClaimDonation(ctx, first.ID, f.receiver.ID.String())
	require.NoError(t, err)

	claims, err := f.service.GetMyClaims(ctx, f.receiver.ID.String())
	require.NoError(t, err)
	require.Len(t, claims, 1)
	assert.Equal(t, first.ID, claims[0].ID)
}

func TestUploadDonationImage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	d := f.create(t)
	file := &multipart.FileHeader{Filename: "biryani.jpg", Size: 10}

	_, err := f.service.UploadDonationImage(ctx, d.ID, f.receiver.ID.String(), file)
	assert.ErrorIs(t, err, domain.ErrUnauthorizedDonation)

	updated, err := f.service.UploadDonationImage(ctx, d.ID, f.donor.ID.String(), file)
	require.NoError(t, err)
	require.NotNil(t, updated.Items.Cooked)
	assert.Contains(t, updated.Items.Cooked.Image, "https://cdn.example.com/donations/donation-")
	assert.Len(t, f.storage.Objects, 1)
}

// lateClaimRepository reports that the donation stopped being available
// between the read and the image update.
type lateClaimRepository struct {
	DonationRepository
}

func (lateClaimRepository) UpdateItems(context.Context, uuid.UUID, uuid.UUID, domain.DonationItems) (bool, error) {
	return false, nil
}

func TestUploadDonationImage_LostRaceRemovesUpload(t *testing.T) {
	f := newFixture(t)
	d := f.create(t)
	file := &multipart.FileHeader{Filename: "biryani.jpg", Size: 10}

	svc := NewDonationService(lateClaimRepository{NewDonationRepository(f.db)}, Options{
		Storage: f.storage,
		Views:   f.views,
	})

	_, err := svc.UploadDonationImage(context.Background(), d.ID, f.donor.ID.String(), file)
	assert.ErrorIs(t, err, domain.ErrDonationNotAvailable)
	assert.Empty(t, f.storage.Objects)
}

func TestUploadDonationImage_FailedCleanupIsLogged(t *testing.T) {
	f := newFixture(t)
	d := f.create(t)
	file := &multipart.FileHeader{Filename: "biryani.jpg", Size: 10}
	f.storage.DeleteErr = errors.New("s3 unreachable")

	var buf bytes.Buffer
	log.SetOutput(&buf)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })

	svc := NewDonationService(lateClaimRepository{NewDonationRepository(f.db)}, Options{
		Storage: f.storage,
		Views:   f.views,
	})

	_, err := svc.UploadDonationImage(context.Background(), d.ID, f.donor.ID.String(), file)
	assert.ErrorIs(t, err, domain.ErrDonationNotAvailable)
	assert.Len(t, f.storage.Objects, 1)
	assert.Contains(t, buf.String(), "orphaned donation image")
	assert.Contains(t, buf.String(), "s3 unreachable")
}
