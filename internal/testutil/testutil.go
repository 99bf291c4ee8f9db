// Package testutil holds fixtures shared by package tests: an in-memory
// database, user factories and fakes for the outbound integrations.
package testutil

import (
	"context"
	"fmt"
	"mime/multipart"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	migration "Food-Rescue-Hub/cmd/database/migrate"
	"Food-Rescue-Hub/domain"
	"Food-Rescue-Hub/entities"
	"Food-Rescue-Hub/pkg/notification"
)

const Password = "secret123"

// NewDB opens a private in-memory SQLite database with the schema migrated.
// A single connection serialises access, as SQLite allows one writer.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, migration.Migrate(db))
	return db
}

// CreateUser stores a user whose password is Password.
func CreateUser(t testing.TB, db *gorm.DB, name, role string) *entities.User {
	t.Helper()

	hashed, err := bcrypt.GenerateFromPassword([]byte(Password), bcrypt.MinCost)
	require.NoError(t, err)

	user := &entities.User{
		Name:     name,
		Email:    fmt.Sprintf("%s-%s@example.com", name, uuid.NewString()[:8]),
		Password: string(hashed),
		Role:     role,
		Avatar:   domain.DefaultAvatar,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// CookedRequest is a valid create request for a cooked donation.
func CookedRequest(address string) domain.CreateDonationRequest {
	return domain.CreateDonationRequest{
		Type: domain.DonationTypeCooked,
		Items: domain.DonationItems{
			Cooked: &domain.CookedItem{DishName: "Veg biryani", Servings: 12},
		},
		PickupAddress: address,
		Contact:       "+91 90000 00000",
	}
}

// CreateDonation inserts a donation directly, bypassing the lifecycle engine.
func CreateDonation(t testing.TB, db *gorm.DB, donor *entities.User, status domain.DonationStatus) *entities.Donation {
	t.Helper()

	donation := &entities.Donation{
		DonorID: donor.ID,
		Type:    string(domain.DonationTypeGrocery),
		Items: domain.DonationItems{
			Grocery: &domain.GroceryItem{ItemName: "Rice", Quantity: 5, Unit: "kg"},
		},
		Category:           "grains",
		FoodType:           domain.DefaultFoodType,
		PickupAddress:      "12 Market Road, Pune",
		Status:             string(status),
		ConfirmationStatus: string(domain.ConfirmationPending),
	}
	require.NoError(t, db.Create(donation).Error)
	return donation
}

// RecordingSink captures every message it is asked to deliver.
type RecordingSink struct {
	mu       sync.Mutex
	messages []notification.Message
	Fail     bool
}

func (s *RecordingSink) Notify(_ context.Context, msg notification.Message) notification.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msg)
	if s.Fail {
		return notification.Result{Diagnostic: "smtp unavailable"}
	}
	return notification.Result{OK: true}
}

func (s *RecordingSink) Messages() []notification.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]notification.Message(nil), s.messages...)
}

// WaitFor blocks until at least n messages arrived or the timeout passes.
func (s *RecordingSink) WaitFor(n int, timeout time.Duration) []notification.Message {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if msgs := s.Messages(); len(msgs) >= n {
			return msgs
		}
		time.Sleep(5 * time.Millisecond)
	}
	return s.Messages()
}

// RecordingNotifier records enqueued messages synchronously.
type RecordingNotifier struct {
	mu       sync.Mutex
	messages []notification.Message
}

func (n *RecordingNotifier) Enqueue(msg notification.Message) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, msg)
	return true
}

func (n *RecordingNotifier) Messages() []notification.Message {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notification.Message(nil), n.messages...)
}

// FakeStorage keeps uploaded object keys in memory. DeleteErr, when set, is
// returned by DeleteFile and the object is kept.
type FakeStorage struct {
	mu        sync.Mutex
	Objects   map[string]string
	DeleteErr error
}

func NewFakeStorage() *FakeStorage {
	return &FakeStorage{Objects: map[string]string{}}
}

func (f *FakeStorage) UploadFile(_ context.Context, name string, file *multipart.FileHeader, folder string, _ ...string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := folder + "/" + name
	f.Objects[key] = file.Filename
	return key, nil
}

func (f *FakeStorage) DeleteFile(_ context.Context, objectKey string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.DeleteErr != nil {
		return f.DeleteErr
	}
	delete(f.Objects, objectKey)
	return nil
}

func (f *FakeStorage) GetPublicLinkKey(objectKey string) string {
	return "https://cdn.example.com/" + objectKey
}

func (f *FakeStorage) GetObjectKeyFromLink(link string) string {
	return link[len("https://cdn.example.com/"):]
}
