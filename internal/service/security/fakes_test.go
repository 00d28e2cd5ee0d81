package security

import (
	"context"
	"sync"
	"time"

	"github.com/cmlabs-hris/cafe-backend-go/internal/domain/security"
	"github.com/cmlabs-hris/cafe-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/cafe-backend-go/internal/pkg/email"
)

type fakeSessionRepo struct {
	mu       sync.Mutex
	sessions []security.LoginSession
	getErr   error
}

func (f *fakeSessionRepo) GetLatestByUser(_ context.Context, userID string) (*security.LoginSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	var latest *security.LoginSession
	for i := range f.sessions {
		s := f.sessions[i]
		if s.UserID == userID && (latest == nil || s.LoggedInAt.After(latest.LoggedInAt)) {
			latest = &s
		}
	}
	return latest, nil
}

func (f *fakeSessionRepo) Create(_ context.Context, s security.LoginSession) (security.LoginSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s.ID = "session-" + string(rune('a'+len(f.sessions)))
	f.sessions = append(f.sessions, s)
	return s, nil
}

type fakeAlertRepo struct {
	mu       sync.Mutex
	created  []security.Alert
	notified []string
	listFn   func(ctx context.Context, filter security.AlertFilter) ([]security.Alert, int64, error)
}

func (f *fakeAlertRepo) Create(_ context.Context, a security.Alert) (security.Alert, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a.ID = "alert-" + string(rune('a'+len(f.created)))
	// the row lands after the login it scores
	a.CreatedAt = a.LoggedInAt.Add(5 * time.Minute)
	f.created = append(f.created, a)
	return a, nil
}

func (f *fakeAlertRepo) List(ctx context.Context, filter security.AlertFilter) ([]security.Alert, int64, error) {
	return f.listFn(ctx, filter)
}

func (f *fakeAlertRepo) MarkNotified(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notified = append(f.notified, id)
	return nil
}

type fakeUserRepo struct {
	admins []user.User
	byID   map[string]user.User
}

func (f *fakeUserRepo) GetByEmail(context.Context, string) (user.User, error) {
	return user.User{}, user.ErrUserNotFound
}

func (f *fakeUserRepo) GetByID(_ context.Context, id string) (user.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return user.User{}, user.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeUserRepo) ListByRoles(context.Context, ...user.Role) ([]user.User, error) {
	return f.admins, nil
}

func (f *fakeUserRepo) LinkGoogleAccount(context.Context, string, string) (user.User, error) {
	return user.User{}, nil
}

type sentAlert struct {
	to    string
	alert email.SecurityAlertEmail
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentAlert
	err  error
}

func (f *fakeMailer) SendSecurityAlert(to string, alert email.SecurityAlertEmail) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentAlert{to: to, alert: alert})
	return f.err
}
