package usecase

import (
	"context"
	"errors"
	"io"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/shandysiswandi/passwordless/internal/identity/entity"
	"github.com/shandysiswandi/passwordless/internal/identity/outbound/ledger"
	"github.com/shandysiswandi/passwordless/internal/pkg/clock"
	"github.com/shandysiswandi/passwordless/internal/pkg/config"
	"github.com/shandysiswandi/passwordless/internal/pkg/goerror"
	"github.com/shandysiswandi/passwordless/internal/pkg/hash"
	"github.com/shandysiswandi/passwordless/internal/pkg/instrument"
	"github.com/shandysiswandi/passwordless/internal/pkg/storage"
	"github.com/shandysiswandi/passwordless/internal/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var errStore = errors.New("store down")

var _ otpLedger = (*ledger.Memory)(nil)

// fakeRepo is an in-memory repoDB.
type fakeRepo struct {
	mu       sync.Mutex
	users    map[string]entity.User
	sessions map[string]entity.Session

	getUserErr    error
	createUserErr error
	sessionErr    error
	deleteErr     error
	avatarErr     error
	getUserCalls  int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{users: map[string]entity.User{}, sessions: map[string]entity.Session{}}
}

func (f *fakeRepo) GetUserByEmail(_ context.Context, email string) (*entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getUserCalls++
	if f.getUserErr != nil {
		return nil, f.getUserErr
	}
	for _, u := range f.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, goerror.ErrNotFound
}

func (f *fakeRepo) GetUserByID(_ context.Context, id string) (*entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getUserErr != nil {
		return nil, f.getUserErr
	}
	u, ok := f.users[id]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	return &u, nil
}

func (f *fakeRepo) CreateUser(_ context.Context, u entity.User) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createUserErr != nil {
		return false, f.createUserErr
	}
	for _, existing := range f.users {
		if existing.Email == u.Email {
			return false, nil
		}
	}
	f.users[u.ID] = u
	return true, nil
}

func (f *fakeRepo) UpdateUserProfile(_ context.Context, in entity.UpdateProfile) (*entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[in.ID]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	if in.FirstName != nil {
		u.FirstName = in.FirstName
	}
	if in.LastName != nil {
		u.LastName = in.LastName
	}
	u.UpdatedAt = in.UpdatedAt
	f.users[in.ID] = u
	return &u, nil
}

func (f *fakeRepo) UpdateUserAvatar(_ context.Context, id, url string, at time.Time) (*entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.avatarErr != nil {
		return nil, f.avatarErr
	}
	u, ok := f.users[id]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	u.ProfileImageURL = &url
	u.UpdatedAt = at
	f.users[id] = u
	return &u, nil
}

func (f *fakeRepo) DeleteUser(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[id]; !ok {
		return goerror.ErrNotFound
	}
	delete(f.users, id)
	return nil
}

func (f *fakeRepo) CreateSession(_ context.Context, sess entity.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sessionErr != nil {
		return f.sessionErr
	}
	f.sessions[sess.ID] = sess
	return nil
}

func (f *fakeRepo) GetSession(_ context.Context, sid string, now time.Time) (*entity.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sessionErr != nil {
		return nil, f.sessionErr
	}
	sess, ok := f.sessions[sid]
	if !ok || !sess.ExpiresAt.After(now) {
		return nil, goerror.ErrNotFound
	}
	return &sess, nil
}

func (f *fakeRepo) TouchSession(_ context.Context, sid string, expire time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if sess, ok := f.sessions[sid]; ok {
		sess.ExpiresAt = expire
		f.sessions[sid] = sess
	}
	return nil
}

func (f *fakeRepo) DeleteSession(_ context.Context, sid string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.sessions, sid)
	return nil
}

func (f *fakeRepo) DeleteExpiredSessions(_ context.Context, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for sid, sess := range f.sessions {
		if !sess.ExpiresAt.After(now) {
			delete(f.sessions, sid)
			n++
		}
	}
	return n, nil
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) SendOTP(ctx context.Context, in OTPNotification) error {
	return m.Called(ctx, in).Error(0)
}

// seqOTP hands out 100000, 100001, ...
type seqOTP struct {
	mu   sync.Mutex
	next int
	err  error
}

func (g *seqOTP) Generate() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return "", g.err
	}
	code := strconv.Itoa(100000 + g.next)
	g.next++
	return code, nil
}

type seqID struct {
	mu     sync.Mutex
	prefix string
	n      int
}

func (g *seqID) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return g.prefix + strconv.Itoa(g.n)
}

type memStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
	putErr  error
}

func newMemStorage() *memStorage {
	return &memStorage{objects: map[string][]byte{}}
}

func (s *memStorage) PutObject(_ context.Context, key string, r io.Reader, opts storage.PutOptions) (storage.ObjectInfo, error) {
	if s.putErr != nil {
		return storage.ObjectInfo{}, s.putErr
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return storage.ObjectInfo{}, err
	}
	s.mu.Lock()
	s.objects[key] = b
	s.mu.Unlock()
	return storage.ObjectInfo{Key: key, Size: int64(len(b)), ContentType: opts.ContentType}, nil
}

func (s *memStorage) DeleteObject(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.objects, key)
	s.mu.Unlock()
	return nil
}

func (s *memStorage) URL(key string) string {
	return "https://cdn.test/" + key
}

func (s *memStorage) Close() error {
	return nil
}

type harness struct {
	uc       *Usecase
	repo     *fakeRepo
	ledger   *ledger.Memory
	notifier *mockNotifier
	otp      *seqOTP
	clock    *clock.Fixed
	storage  *memStorage
}

const testConfig = `
app:
  env: development
modules:
  identity:
    otp:
      window_seconds: 300
      max_attempts: 3
`

func newHarness(t *testing.T, yaml string) *harness {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte(yaml))
	require.NoError(t, err)

	v, err := validator.NewV10Validator()
	require.NoError(t, err)

	clk := clock.NewFixed(time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC))
	mem, err := ledger.NewMemory(clk, instrument.NewNoop())
	require.NoError(t, err)

	h := &harness{
		repo:     newFakeRepo(),
		ledger:   mem,
		notifier: &mockNotifier{},
		otp:      &seqOTP{},
		clock:    clk,
		storage:  newMemStorage(),
	}
	h.uc = New(Dependency{
		RepoDB:     h.repo,
		Ledger:     mem,
		Notifier:   h.notifier,
		Validator:  v,
		Config:     cfg,
		Storage:    h.storage,
		CodeHash:   hash.NewHMACSHA256("otp-key"),
		OTP:        h.otp,
		UUID:       &seqID{prefix: "user-"},
		SID:        &seqID{prefix: "sid-"},
		Clock:      clk,
		Instrument: instrument.NewNoop(),
	})
	return h
}

// issue requests a code for email and returns the code the notifier saw.
func (h *harness) issue(t *testing.T, email string) string {
	t.Helper()

	var code string
	h.notifier.On("SendOTP", mock.Anything, mock.MatchedBy(func(in OTPNotification) bool {
		return in.Email == email
	})).Run(func(args mock.Arguments) {
		code = args.Get(1).(OTPNotification).Code
	}).Return(nil).Once()

	require.NoError(t, h.uc.RequestOTP(context.Background(), RequestOTPInput{Email: email}))
	require.NotEmpty(t, code)
	return code
}

func assertMessage(t *testing.T, err error, code goerror.Code, msg string) {
	t.Helper()

	var gerr *goerror.Error
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, code, gerr.Code())
	assert.Equal(t, msg, gerr.Msg())
}
