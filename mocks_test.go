package identity_test

import (
	"context"
	"sync"

	identity "github.com/lernago/go-identity"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"
)

// MockUserStore implements identity.UserStore
type MockUserStore struct {
	mock.Mock
}

func (m *MockUserStore) GetByEmail(ctx context.Context, email string) (*identity.User, error) {
	args := m.Called(ctx, email)
	user, _ := args.Get(0).(*identity.User)
	return user, args.Error(1)
}

func (m *MockUserStore) GetByUID(ctx context.Context, uid string) (*identity.User, error) {
	args := m.Called(ctx, uid)
	user, _ := args.Get(0).(*identity.User)
	return user, args.Error(1)
}

func (m *MockUserStore) CreateIdentity(ctx context.Context, record *identity.User) (*identity.User, error) {
	args := m.Called(ctx, record)
	user, _ := args.Get(0).(*identity.User)
	return user, args.Error(1)
}

func (m *MockUserStore) ResetPassword(ctx context.Context, uid string, passwordHash string) error {
	args := m.Called(ctx, uid, passwordHash)
	return args.Error(0)
}

// MockNotificationGateway implements identity.NotificationGateway
type MockNotificationGateway struct {
	mock.Mock
}

func (m *MockNotificationGateway) Send(ctx context.Context, recipient, subject, body string) error {
	args := m.Called(ctx, recipient, subject, body)
	return args.Error(0)
}

// MockLogger implements identity.Logger
type MockLogger struct {
	mock.Mock
}

func (m *MockLogger) Debug(format string, args ...any) {
	m.Called(format, args)
}

func (m *MockLogger) Info(format string, args ...any) {
	m.Called(format, args)
}

func (m *MockLogger) Error(format string, args ...any) {
	m.Called(format, args)
}

// MockConfig implements identity.Config
type MockConfig struct {
	mock.Mock
}

func (m *MockConfig) GetSigningKey() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockConfig) GetContextKey() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockConfig) GetTokenExpiration() int {
	args := m.Called()
	return args.Int(0)
}

func (m *MockConfig) GetResetTokenExpiration() int {
	args := m.Called()
	return args.Int(0)
}

func (m *MockConfig) GetAuthScheme() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockConfig) GetIssuer() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockConfig) GetAudience() []string {
	args := m.Called()
	audience, _ := args.Get(0).([]string)
	return audience
}

// memUserStore is a map backed UserStore for round-trip tests.
type memUserStore struct {
	mu      sync.Mutex
	byEmail map[string]*identity.User
	byUID   map[string]*identity.User
}

func newMemUserStore() *memUserStore {
	return &memUserStore{
		byEmail: map[string]*identity.User{},
		byUID:   map[string]*identity.User{},
	}
}

func (s *memUserStore) GetByEmail(_ context.Context, email string) (*identity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user, ok := s.byEmail[identity.NormalizeEmail(email)]; ok {
		return user, nil
	}
	return nil, identity.ErrUserNotFound
}

func (s *memUserStore) GetByUID(_ context.Context, uid string) (*identity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user, ok := s.byUID[uid]; ok {
		return user, nil
	}
	return nil, identity.ErrUserNotFound
}

func (s *memUserStore) CreateIdentity(_ context.Context, record *identity.User) (*identity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	email := identity.NormalizeEmail(record.Email)
	if _, ok := s.byEmail[email]; ok {
		return nil, identity.ErrEmailAlreadyInUse
	}
	s.byEmail[email] = record
	s.byUID[record.ID.String()] = record
	return record, nil
}

func (s *memUserStore) ResetPassword(_ context.Context, uid string, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.byUID[uid]
	if !ok {
		return identity.ErrUserNotFound
	}
	user.PasswordHash = passwordHash
	return nil
}

// recordingGateway captures the last dispatched notification.
type recordingGateway struct {
	mu        sync.Mutex
	Recipient string
	Subject   string
	Body      string
	Sent      int
}

func (g *recordingGateway) Send(_ context.Context, recipient, subject, body string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Recipient = recipient
	g.Subject = subject
	g.Body = body
	g.Sent++
	return nil
}

// testHasher keeps bcrypt at minimum cost so suites stay fast.
func testHasher() *identity.Hasher {
	return identity.NewHasher(bcrypt.MinCost)
}
