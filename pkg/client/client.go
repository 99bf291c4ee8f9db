package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"Food-Rescue-Hub/domain"
	"Food-Rescue-Hub/pkg/session"
)

const defaultTimeout = 15 * time.Second

var ErrNotLoggedIn = fmt.Errorf("%w: not logged in", domain.ErrAuthentication)

type (
	// Client calls the HTTP API on behalf of the user held in its session store.
	Client struct {
		baseURL string
		store   session.Store
		timeout time.Duration
	}

	// APIError is a non-2xx answer. It unwraps to the matching domain error
	// kind, so errors.Is(err, domain.ErrConflict) works on the client side too.
	APIError struct {
		StatusCode int
		Message    string
		Detail     string
	}

	envelope[T any] struct {
		Status  bool   `json:"status"`
		Message string `json:"message"`
		Data    T      `json:"data"`
		Error   string `json:"error"`
	}
)

func New(baseURL string, store session.Store) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		store:   store,
		timeout: defaultTimeout,
	}
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%d %s: %s", e.StatusCode, e.Message, e.Detail)
	}
	return fmt.Sprintf("%d %s", e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusBadRequest:
		return domain.ErrValidation
	case http.StatusUnauthorized:
		return domain.ErrAuthentication
	case http.StatusForbidden:
		return domain.ErrAuthorization
	case http.StatusNotFound:
		return domain.ErrNotFound
	case http.StatusConflict:
		return domain.ErrConflict
	default:
		return domain.ErrInternal
	}
}

// Session returns the stored session, or ErrNotLoggedIn.
func (c *Client) Session() (*session.Session, error) {
	s, err := c.store.Load()
	if errors.Is(err, session.ErrNoSession) {
		return nil, ErrNotLoggedIn
	}
	return s, err
}

func (c *Client) Register(req domain.RegisterRequest) (*domain.User, error) {
	var user domain.User
	if err := c.do(fiber.MethodPost, "/api/auth/register", req, false, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Login authenticates and saves the resulting session.
func (c *Client) Login(email, password string) (*session.Session, error) {
	var res domain.LoginResponse
	req := domain.LoginRequest{Email: email, Password: password}
	if err := c.do(fiber.MethodPost, "/api/auth/login", req, false, &res); err != nil {
		return nil, err
	}

	s := &session.Session{
		Token: res.Token,
		User: session.Profile{
			ID:     res.User.ID,
			Name:   res.User.Name,
			Email:  res.User.Email,
			Role:   res.User.Role,
			Avatar: res.User.Avatar,
		},
		SavedAt: time.Now().UTC(),
	}
	if err := c.store.Save(s); err != nil {
		return nil, err
	}
	return s, nil
}

func (c *Client) Logout() error {
	return c.store.Clear()
}

func (c *Client) Me() (*domain.User, error) {
	var user domain.User
	if err := c.do(fiber.MethodGet, "/api/auth/me", nil, true, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) CreateDonation(req domain.CreateDonationRequest) (*domain.Donation, error) {
	var d domain.Donation
	if err := c.do(fiber.MethodPost, "/api/donations", req, true, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

func (c *Client) ListDonations(donationType, city string) ([]*domain.Donation, error) {
	query := url.Values{}
	if donationType != "" {
		query.Set("type", donationType)
	}
	if city != "" {
		query.Set("city", city)
	}
	path := "/api/donations"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var list []*domain.Donation
	if err := c.do(fiber.MethodGet, path, nil, false, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *Client) GetDonation(id string) (*domain.Donation, error) {
	return c.donationCall(fiber.MethodGet, id, "", nil, false)
}

func (c *Client) ClaimDonation(id string) (*domain.Donation, error) {
	return c.donationCall(fiber.MethodPost, id, "/claim", nil, true)
}

func (c *Client) ConfirmDonation(id string, decision domain.ConfirmationStatus, method domain.FulfillmentMethod) (*domain.Donation, error) {
	req := domain.ConfirmDonationRequest{Decision: decision, Method: method}
	return c.donationCall(fiber.MethodPost, id, "/confirm", req, true)
}

func (c *Client) MarkCollected(id string) (*domain.Donation, error) {
	return c.donationCall(fiber.MethodPost, id, "/collected", nil, true)
}

func (c *Client) DeleteDonation(id string) error {
	return c.do(fiber.MethodDelete, "/api/donations/"+url.PathEscape(id), nil, true, nil)
}

func (c *Client) MyClaims() ([]*domain.Donation, error) {
	var list []*domain.Donation
	if err := c.do(fiber.MethodGet, "/api/donations/my-claims", nil, true, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *Client) MyStats() (*domain.DonorStats, error) {
	var stats domain.DonorStats
	if err := c.do(fiber.MethodGet, "/api/donations/me/stats", nil, true, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (c *Client) Leaderboard() ([]domain.LeaderboardEntry, error) {
	var entries []domain.LeaderboardEntry
	if err := c.do(fiber.MethodGet, "/api/donations/leaderboard", nil, false, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (c *Client) RecentActivity() ([]domain.ActivityEntry, error) {
	var entries []domain.ActivityEntry
	if err := c.do(fiber.MethodGet, "/api/donations/activity/recent", nil, false, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (c *Client) donationCall(method, id, suffix string, body interface{}, auth bool) (*domain.Donation, error) {
	var d domain.Donation
	if err := c.do(method, "/api/donations/"+url.PathEscape(id)+suffix, body, auth, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

func (c *Client) do(method, path string, body interface{}, auth bool, out interface{}) error {
	agent := fiber.AcquireAgent()
	req := agent.Request()
	req.Header.SetMethod(method)
	req.SetRequestURI(c.baseURL + path)
	agent.Timeout(c.timeout)

	if auth {
		s, err := c.Session()
		if err != nil {
			fiber.ReleaseAgent(agent)
			return err
		}
		agent.Set(fiber.HeaderAuthorization, "Bearer "+s.Token)
	}
	if body != nil {
		agent.JSON(body)
	}

	if err := agent.Parse(); err != nil {
		fiber.ReleaseAgent(agent)
		return err
	}

	// Bytes releases the agent.
	code, raw, errs := agent.Bytes()
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	var env envelope[json.RawMessage]
	if err := json.Unmarshal(raw, &env); err != nil {
		return &APIError{StatusCode: code, Message: http.StatusText(code), Detail: string(raw)}
	}
	if code < 200 || code >= 300 {
		return &APIError{StatusCode: code, Message: env.Message, Detail: env.Error}
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	return json.Unmarshal(env.Data, out)
}
