// File: internal/session/manager_test.go
package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tm-webstudio/service4me-sub000/internal/provider"
	"github.com/tm-webstudio/service4me-sub000/internal/shared"
)

// fakeClient is a scriptable provider.Client. Zero value behaves like a
// configured provider with no session.
type fakeClient struct {
	mu sync.Mutex

	unconfigured bool
	session      *provider.Session
	getErr       error
	signInErr    error
	signUpSess   *provider.Session
	signUpErr    error
	signOutErr   error

	getCalls     int
	signInCalls  int
	signUpCalls  int
	signOutCalls int

	events chan provider.Event
	closed bool
}

func newFakeClient() *fakeClient {
	return &fakeClient{events: make(chan provider.Event, 8)}
}

func (f *fakeClient) Configured() bool { return !f.unconfigured }

func (f *fakeClient) GetSession(ctx context.Context) (*provider.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls++
	return f.session, f.getErr
}

func (f *fakeClient) SignInWithPassword(ctx context.Context, email, password string) (*provider.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signInCalls++
	if f.signInErr != nil {
		return nil, f.signInErr
	}
	if f.session == nil {
		f.session = &provider.Session{UserID: "uid-1", Email: email}
	}
	return f.session, nil
}

func (f *fakeClient) SignUp(ctx context.Context, email, password string, metadata map[string]interface{}) (*provider.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signUpCalls++
	if f.signUpErr != nil {
		return nil, f.signUpErr
	}
	return f.signUpSess, nil
}

func (f *fakeClient) SignOut(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signOutCalls++
	return f.signOutErr
}

func (f *fakeClient) Events() <-chan provider.Event { return f.events }

func (f *fakeClient) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.closed {
		f.closed = true
		close(f.events)
	}
}

func (f *fakeClient) counts() (get, signIn, signUp, signOut int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.getCalls, f.signInCalls, f.signUpCalls, f.signOutCalls
}

// fakeProfiles is an in-memory shared.ProfileService.
type fakeProfiles struct {
	mu sync.Mutex

	rows      map[string]*shared.Profile
	fetchErr  error
	createErr error

	fetchCalls   int
	createCalls  int
	stylistCalls int
}

func newFakeProfiles() *fakeProfiles {
	return &fakeProfiles{rows: make(map[string]*shared.Profile)}
}

func (f *fakeProfiles) FetchProfile(ctx context.Context, userID string) (*shared.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetchCalls++
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.rows[userID], nil
}

func (f *fakeProfiles) CreateFromAuthMetadata(ctx context.Context, userID, email, role string, seed *shared.ProfileSeed) (*shared.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	if f.createErr != nil {
		return nil, f.createErr
	}
	p := &shared.Profile{ID: userID, Email: email, Role: role}
	if seed != nil && seed.DisplayName != "" {
		name := seed.DisplayName
		p.DisplayName = &name
	}
	f.rows[userID] = p
	return p, nil
}

func (f *fakeProfiles) UpdateStylistDetails(ctx context.Context, userID string, details shared.StylistDetails) (*shared.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stylistCalls++
	p, ok := f.rows[userID]
	if !ok {
		return nil, errors.New("profile not found")
	}
	p.Stylist = &shared.StylistProfile{BusinessName: details.BusinessName}
	return p, nil
}

func newTestManager(t *testing.T, client *fakeClient, profiles *fakeProfiles) *Manager {
	t.Helper()
	m := NewManager(client, profiles, zap.NewNop())
	t.Cleanup(m.Close)
	return m
}

// assertInvariant checks that User is set exactly in AUTHENTICATED and Err
// exactly in ERROR.
func assertInvariant(t *testing.T, st State) {
	t.Helper()
	assert.Equal(t, st.Status == StatusAuthenticated, st.User != nil,
		"user snapshot must be present iff AUTHENTICATED, status=%s", st.Status)
	assert.Equal(t, st.Status == StatusError, st.Err != nil,
		"error must be present iff ERROR, status=%s", st.Status)
}

func TestManager_InitializeRunsOnce(t *testing.T) {
	client := newFakeClient()
	m := newTestManager(t, client, newFakeProfiles())

	st := m.Initialize(context.Background())
	assert.Equal(t, StatusUnauthenticated, st.Status)

	m.Initialize(context.Background())
	m.Initialize(context.Background())

	get, _, _, _ := client.counts()
	assert.Equal(t, 1, get, "the provider must be consulted exactly once")
}

func TestManager_InitializeUnconfigured(t *testing.T) {
	client := newFakeClient()
	client.unconfigured = true
	m := newTestManager(t, client, newFakeProfiles())

	st := m.Initialize(context.Background())
	require.Equal(t, StatusError, st.Status)
	require.NotNil(t, st.Err)
	assert.Equal(t, CodeConfigMissing, st.Err.Code)
	assertInvariant(t, st)
}

func TestManager_InitializeRestoresSession(t *testing.T) {
	client := newFakeClient()
	client.session = &provider.Session{UserID: "uid-1", Email: "a@b.co"}
	profiles := newFakeProfiles()
	profiles.rows["uid-1"] = &shared.Profile{ID: "uid-1", Email: "a@b.co", Role: "client"}
	m := newTestManager(t, client, profiles)

	st := m.Initialize(context.Background())
	require.Equal(t, StatusAuthenticated, st.Status)
	require.NotNil(t, st.User)
	assert.Equal(t, "uid-1", st.User.ID)
	assertInvariant(t, st)
}

func TestManager_InitializeCreatesMissingProfileFromMetadata(t *testing.T) {
	client := newFakeClient()
	client.session = &provider.Session{
		UserID: "uid-2",
		Email:  "new@b.co",
		Metadata: map[string]interface{}{
			"role":         "stylist",
			"display_name": "Ada",
		},
	}
	profiles := newFakeProfiles()
	m := newTestManager(t, client, profiles)

	st := m.Initialize(context.Background())
	require.Equal(t, StatusAuthenticated, st.Status)
	require.NotNil(t, st.User)
	assert.Equal(t, "stylist", st.User.Role)
	require.NotNil(t, st.User.DisplayName)
	assert.Equal(t, "Ada", *st.User.DisplayName)
	assert.Equal(t, 1, profiles.createCalls)
}

func TestManager_InitializeProviderFailure(t *testing.T) {
	client := newFakeClient()
	client.getErr = errors.New("connection refused")
	m := newTestManager(t, client, newFakeProfiles())

	st := m.Initialize(context.Background())
	require.Equal(t, StatusError, st.Status)
	require.NotNil(t, st.Err)
	assert.Equal(t, CodeSessionError, st.Err.Code)
	assertInvariant(t, st)
}

func TestManager_SignInSuccess(t *testing.T) {
	client := newFakeClient()
	profiles := newFakeProfiles()
	profiles.rows["uid-1"] = &shared.Profile{ID: "uid-1", Email: "a@b.co", Role: "client"}
	m := newTestManager(t, client, profiles)
	m.Initialize(context.Background())

	ae := m.SignIn(context.Background(), "a@b.co", "secret")
	require.Nil(t, ae)

	st := m.Snapshot()
	assert.Equal(t, StatusAuthenticated, st.Status)
	assertInvariant(t, st)
}

func TestManager_SignInFailureNeverStuckLoading(t *testing.T) {
	client := newFakeClient()
	client.signInErr = errors.New("INVALID_PASSWORD")
	m := newTestManager(t, client, newFakeProfiles())
	m.Initialize(context.Background())

	ae := m.SignIn(context.Background(), "a@b.co", "wrong")
	require.NotNil(t, ae)
	assert.Equal(t, CodeInvalidCredentials, ae.Code)

	st := m.Snapshot()
	assert.Equal(t, StatusError, st.Status)
	assert.NotEqual(t, StatusLoading, st.Status)
	assertInvariant(t, st)
}

func TestManager_SignOutAlwaysUnauthenticated(t *testing.T) {
	client := newFakeClient()
	profiles := newFakeProfiles()
	profiles.rows["uid-1"] = &shared.Profile{ID: "uid-1", Role: "client"}
	m := newTestManager(t, client, profiles)
	m.Initialize(context.Background())
	require.Nil(t, m.SignIn(context.Background(), "a@b.co", "secret"))

	client.mu.Lock()
	client.signOutErr = errors.New("revocation endpoint unavailable")
	client.mu.Unlock()

	m.SignOut(context.Background())

	st := m.Snapshot()
	assert.Equal(t, StatusUnauthenticated, st.Status, "local session must clear even when the provider call fails")
	assertInvariant(t, st)
}

func TestManager_SignUpConfirmationPendingSkipsProfileInsert(t *testing.T) {
	client := newFakeClient()
	sent := time.Now()
	client.signUpSess = &provider.Session{
		UserID:             "uid-3",
		Email:              "pending@b.co",
		ConfirmationSentAt: &sent,
	}
	profiles := newFakeProfiles()
	m := newTestManager(t, client, profiles)
	m.Initialize(context.Background())

	ae := m.SignUp(context.Background(), "pending@b.co", "secret", "client", nil)
	require.Nil(t, ae)

	st := m.Snapshot()
	assert.Equal(t, StatusUnauthenticated, st.Status)
	assert.Equal(t, 0, profiles.createCalls, "no profile row before email confirmation")
}

func TestManager_SignUpStylistAppliesBusinessDetails(t *testing.T) {
	client := newFakeClient()
	confirmed := time.Now()
	client.signUpSess = &provider.Session{
		UserID:           "uid-4",
		Email:            "biz@b.co",
		EmailConfirmedAt: &confirmed,
	}
	profiles := newFakeProfiles()
	m := newTestManager(t, client, profiles)
	m.Initialize(context.Background())

	ae := m.SignUp(context.Background(), "biz@b.co", "secret", "stylist", &SignUpDetails{
		DisplayName:  "Ada",
		BusinessName: "Ada Braids",
		Location:     "London",
	})
	require.Nil(t, ae)

	st := m.Snapshot()
	require.Equal(t, StatusAuthenticated, st.Status)
	require.NotNil(t, st.User)
	assert.Equal(t, "stylist", st.User.Role)
	require.NotNil(t, st.User.Stylist)
	assert.Equal(t, "Ada Braids", st.User.Stylist.BusinessName)
	assert.Equal(t, 1, profiles.stylistCalls)
}

func TestManager_SignUpInvalidRoleDefaultsToClient(t *testing.T) {
	client := newFakeClient()
	confirmed := time.Now()
	client.signUpSess = &provider.Session{UserID: "uid-5", Email: "x@b.co", EmailConfirmedAt: &confirmed}
	profiles := newFakeProfiles()
	m := newTestManager(t, client, profiles)
	m.Initialize(context.Background())

	require.Nil(t, m.SignUp(context.Background(), "x@b.co", "secret", "superuser", nil))

	st := m.Snapshot()
	require.NotNil(t, st.User)
	assert.Equal(t, "client", st.User.Role)
}

func TestManager_SignUpProfileInsertFailure(t *testing.T) {
	client := newFakeClient()
	confirmed := time.Now()
	client.signUpSess = &provider.Session{UserID: "uid-6", Email: "y@b.co", EmailConfirmedAt: &confirmed}
	profiles := newFakeProfiles()
	profiles.createErr = errors.New("pq: insert failed")
	m := newTestManager(t, client, profiles)
	m.Initialize(context.Background())

	ae := m.SignUp(context.Background(), "y@b.co", "secret", "client", nil)
	require.NotNil(t, ae)
	assert.Equal(t, CodeProfileCreateFailed, ae.Code)
	assertInvariant(t, m.Snapshot())
}

func TestManager_RefreshProfileFailureKeepsState(t *testing.T) {
	client := newFakeClient()
	profiles := newFakeProfiles()
	profiles.rows["uid-1"] = &shared.Profile{ID: "uid-1", Role: "client"}
	m := newTestManager(t, client, profiles)
	m.Initialize(context.Background())
	require.Nil(t, m.SignIn(context.Background(), "a@b.co", "secret"))

	profiles.mu.Lock()
	profiles.fetchErr = errors.New("pq: connection lost")
	profiles.mu.Unlock()

	ae := m.RefreshProfile(context.Background())
	require.NotNil(t, ae)
	assert.Equal(t, CodeDatabaseError, ae.Code)

	st := m.Snapshot()
	assert.Equal(t, StatusAuthenticated, st.Status, "a failed refresh must not disturb the session")
	assertInvariant(t, st)
}

func TestManager_RefreshProfileSwapsUser(t *testing.T) {
	client := newFakeClient()
	profiles := newFakeProfiles()
	profiles.rows["uid-1"] = &shared.Profile{ID: "uid-1", Role: "client"}
	m := newTestManager(t, client, profiles)
	m.Initialize(context.Background())
	require.Nil(t, m.SignIn(context.Background(), "a@b.co", "secret"))

	name := "Renamed"
	profiles.mu.Lock()
	profiles.rows["uid-1"] = &shared.Profile{ID: "uid-1", Role: "client", DisplayName: &name}
	profiles.mu.Unlock()

	require.Nil(t, m.RefreshProfile(context.Background()))

	st := m.Snapshot()
	require.NotNil(t, st.User)
	require.NotNil(t, st.User.DisplayName)
	assert.Equal(t, "Renamed", *st.User.DisplayName)
}

func TestManager_RefreshProfileNoSessionIsNoop(t *testing.T) {
	client := newFakeClient()
	profiles := newFakeProfiles()
	m := newTestManager(t, client, profiles)
	m.Initialize(context.Background())

	assert.Nil(t, m.RefreshProfile(context.Background()))
	assert.Equal(t, 0, profiles.fetchCalls)
}

func TestManager_ClearErrorRecoverable(t *testing.T) {
	client := newFakeClient()
	client.signInErr = errors.New("connection reset by peer")
	m := newTestManager(t, client, newFakeProfiles())
	m.Initialize(context.Background())

	ae := m.SignIn(context.Background(), "a@b.co", "secret")
	require.NotNil(t, ae)
	require.True(t, ae.Recoverable)

	m.ClearError()
	st := m.Snapshot()
	assert.Equal(t, StatusUnauthenticated, st.Status)
	assertInvariant(t, st)
}

func TestManager_ClearErrorNonRecoverableStaysPut(t *testing.T) {
	client := newFakeClient()
	client.signInErr = errors.New("INVALID_PASSWORD")
	m := newTestManager(t, client, newFakeProfiles())
	m.Initialize(context.Background())

	require.NotNil(t, m.SignIn(context.Background(), "a@b.co", "wrong"))

	m.ClearError()
	st := m.Snapshot()
	assert.Equal(t, StatusError, st.Status, "a non-recoverable error needs an explicit remediation, not a dismiss")
	require.NotNil(t, st.Err)
	assert.Equal(t, CodeInvalidCredentials, st.Err.Code)
}

func TestManager_ClearErrorWithoutErrorIsNoop(t *testing.T) {
	client := newFakeClient()
	m := newTestManager(t, client, newFakeProfiles())
	m.Initialize(context.Background())

	m.ClearError()
	assert.Equal(t, StatusUnauthenticated, m.Snapshot().Status)
}

func TestManager_RetryReplaysLastSignIn(t *testing.T) {
	client := newFakeClient()
	client.signInErr = errors.New("network timeout")
	profiles := newFakeProfiles()
	profiles.rows["uid-1"] = &shared.Profile{ID: "uid-1", Role: "client"}
	m := newTestManager(t, client, profiles)
	m.Initialize(context.Background())

	require.NotNil(t, m.SignIn(context.Background(), "a@b.co", "secret"))

	client.mu.Lock()
	client.signInErr = nil
	client.mu.Unlock()

	require.Nil(t, m.Retry(context.Background()))
	assert.Equal(t, StatusAuthenticated, m.Snapshot().Status)

	_, signIns, _, _ := client.counts()
	assert.Equal(t, 2, signIns)
}

func TestManager_RetryWithoutAttemptIsNoop(t *testing.T) {
	client := newFakeClient()
	m := newTestManager(t, client, newFakeProfiles())
	m.Initialize(context.Background())

	assert.Nil(t, m.Retry(context.Background()))
	_, signIns, signUps, _ := client.counts()
	assert.Zero(t, signIns)
	assert.Zero(t, signUps)
}

func TestManager_SignedInEventIgnored(t *testing.T) {
	client := newFakeClient()
	m := newTestManager(t, client, newFakeProfiles())
	m.Initialize(context.Background())

	m.handleEvent(provider.Event{
		Type:    provider.EventSignedIn,
		Session: &provider.Session{UserID: "uid-9"},
	})

	st := m.Snapshot()
	assert.Equal(t, StatusUnauthenticated, st.Status, "only the imperative path may authenticate")
}

func TestManager_SignedOutEventForcesUnauthenticated(t *testing.T) {
	client := newFakeClient()
	profiles := newFakeProfiles()
	profiles.rows["uid-1"] = &shared.Profile{ID: "uid-1", Role: "client"}
	m := newTestManager(t, client, profiles)
	m.Initialize(context.Background())
	require.Nil(t, m.SignIn(context.Background(), "a@b.co", "secret"))

	client.events <- provider.Event{Type: provider.EventSignedOut}

	require.Eventually(t, func() bool {
		return m.Snapshot().Status == StatusUnauthenticated
	}, 2*time.Second, 10*time.Millisecond, "a pushed sign-out must clear the session")
	assertInvariant(t, m.Snapshot())
}

func TestManager_TokenRefreshedEventSwapsSession(t *testing.T) {
	client := newFakeClient()
	profiles := newFakeProfiles()
	profiles.rows["uid-1"] = &shared.Profile{ID: "uid-1", Role: "client"}
	m := newTestManager(t, client, profiles)
	m.Initialize(context.Background())
	require.Nil(t, m.SignIn(context.Background(), "a@b.co", "secret"))

	refreshed := &provider.Session{UserID: "uid-1", AccessToken: "fresh"}
	client.events <- provider.Event{Type: provider.EventTokenRefreshed, Session: refreshed}

	require.Eventually(t, func() bool {
		st := m.Snapshot()
		return st.Session != nil && st.Session.AccessToken == "fresh"
	}, 2*time.Second, 10*time.Millisecond)

	st := m.Snapshot()
	assert.Equal(t, StatusAuthenticated, st.Status, "a token refresh must not change the status")
}

func TestManager_TokenRefreshedWithoutSessionIsDropped(t *testing.T) {
	client := newFakeClient()
	m := newTestManager(t, client, newFakeProfiles())
	m.Initialize(context.Background())

	m.handleEvent(provider.Event{
		Type:    provider.EventTokenRefreshed,
		Session: &provider.Session{UserID: "uid-1", AccessToken: "fresh"},
	})

	st := m.Snapshot()
	assert.Equal(t, StatusUnauthenticated, st.Status)
	assert.Nil(t, st.Session)
}

func TestManager_UserUpdatedEventRefreshesProfile(t *testing.T) {
	client := newFakeClient()
	profiles := newFakeProfiles()
	profiles.rows["uid-1"] = &shared.Profile{ID: "uid-1", Role: "client"}
	m := newTestManager(t, client, profiles)
	m.Initialize(context.Background())
	require.Nil(t, m.SignIn(context.Background(), "a@b.co", "secret"))

	name := "Updated"
	profiles.mu.Lock()
	profiles.rows["uid-1"] = &shared.Profile{ID: "uid-1", Role: "client", DisplayName: &name}
	profiles.mu.Unlock()

	client.events <- provider.Event{
		Type:    provider.EventUserUpdated,
		Session: &provider.Session{UserID: "uid-1"},
	}

	require.Eventually(t, func() bool {
		st := m.Snapshot()
		return st.User != nil && st.User.DisplayName != nil && *st.User.DisplayName == "Updated"
	}, 2*time.Second, 10*time.Millisecond)
}

func TestManager_CloseIsIdempotent(t *testing.T) {
	client := newFakeClient()
	m := NewManager(client, newFakeProfiles(), zap.NewNop())
	m.Close()
	m.Close()
	assert.True(t, client.closed)
}
