package mfa_test

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/twofa/pkg/mfa"
	"github.com/dmitrymomot/twofa/pkg/totp"
)

// fakeClock is a settable time source shared by the service under test.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type harness struct {
	t     *testing.T
	svc   *mfa.Service
	store *mfa.MemoryStore
	clock *fakeClock
	cfg   mfa.Config
}

func newHarness(t *testing.T, opts ...mfa.Option) *harness {
	return newHarnessWithConfig(t, mfa.DefaultConfig(), opts...)
}

func newHarnessWithConfig(t *testing.T, cfg mfa.Config, opts ...mfa.Option) *harness {
	t.Helper()
	clock := &fakeClock{now: time.Date(2025, 6, 1, 10, 0, 15, 0, time.UTC)}
	store := mfa.NewMemoryStore()
	base := []mfa.Option{mfa.WithClock(clock.Now), mfa.WithQRCodeSize(0)}
	return &harness{
		t:     t,
		svc:   mfa.NewService(store, cfg, append(base, opts...)...),
		store: store,
		clock: clock,
		cfg:   cfg,
	}
}

// code returns the valid code for the encoded secret at the harness time.
func (h *harness) code(encoded string) string {
	return h.codeAt(encoded, 0)
}

// codeAt returns the code offset steps away from the current one.
func (h *harness) codeAt(encoded string, offset int64) string {
	h.t.Helper()
	secret, err := totp.DecodeSecret(encoded)
	require.NoError(h.t, err)
	step := totp.CurrentTimeStep(h.clock.Now().Unix(), h.cfg.Period) + offset
	return totp.ComputeCode(secret, step, h.cfg.Digits)
}

// wrongCode returns a well-formed code that matches no step in the drift window.
func (h *harness) wrongCode(encoded string) string {
	h.t.Helper()
	secret, err := totp.DecodeSecret(encoded)
	require.NoError(h.t, err)
	for i := 0; ; i++ {
		candidate := strconv.Itoa(100000 + i)
		if !totp.VerifyAt(secret, candidate, h.clock.Now(), h.cfg.Params()) {
			return candidate
		}
	}
}

// activate runs Setup and a successful Verify for userID.
func (h *harness) activate(userID string) mfa.SetupResult {
	h.t.Helper()
	setup := h.svc.Setup(context.Background(), userID, "")
	require.True(h.t, setup.Success, setup.Message)
	res := h.svc.Verify(context.Background(), userID, h.code(setup.Secret))
	require.True(h.t, res.Success, res.Message)
	require.True(h.t, res.Activated)
	return setup
}

type mockStore struct {
	mock.Mock
}

func (m *mockStore) Get(ctx context.Context, userID string) (*mfa.EnrollmentState, error) {
	args := m.Called(ctx, userID)
	state, _ := args.Get(0).(*mfa.EnrollmentState)
	return state, args.Error(1)
}

func (m *mockStore) Save(ctx context.Context, state *mfa.EnrollmentState) error {
	args := m.Called(ctx, state)
	return args.Error(0)
}

func (m *mockStore) Delete(ctx context.Context, userID string) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}
