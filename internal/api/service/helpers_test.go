package service_test

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/comicshelf/comicshelf/internal/api/media"
	"github.com/comicshelf/comicshelf/internal/api/service"
	"github.com/comicshelf/comicshelf/internal/api/store"
	"github.com/comicshelf/comicshelf/internal/api/store/drivers/sqlite"
	"github.com/comicshelf/comicshelf/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

var dbCounter atomic.Int64

func newTestStore(t *testing.T) store.Store {
	t.Helper()

	dsn := fmt.Sprintf("file:servicetest%d?mode=memory&cache=shared", dbCounter.Add(1))
	st, err := sqlite.NewStore(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	require.NoError(t, st.ApplyMigrations())
	return st
}

// sentMail records one delivered message.
type sentMail struct {
	To       string
	Name     string
	URL      string
	Password string
}

// fakeMailer captures outgoing mail instead of dialing SMTP.
type fakeMailer struct {
	Verifications []sentMail
	Passwords     []sentMail
	FailNext      bool
}

func (m *fakeMailer) SendVerification(to, name, verifyURL string) error {
	if m.FailNext {
		m.FailNext = false
		return fmt.Errorf("smtp unavailable")
	}
	m.Verifications = append(m.Verifications, sentMail{To: to, Name: name, URL: verifyURL})
	return nil
}

func (m *fakeMailer) SendTemporaryPassword(to, name, password string) error {
	if m.FailNext {
		m.FailNext = false
		return fmt.Errorf("smtp unavailable")
	}
	m.Passwords = append(m.Passwords, sentMail{To: to, Name: name, Password: password})
	return nil
}

// lastVerificationSecret pulls the plaintext secret back out of the mailed
// link, the way a user clicking it would.
func (m *fakeMailer) lastVerificationSecret(t *testing.T) string {
	t.Helper()
	require.NotEmpty(t, m.Verifications)
	url := m.Verifications[len(m.Verifications)-1].URL
	idx := strings.LastIndex(url, "/api/verify/")
	require.NotEqual(t, -1, idx)
	return url[idx+len("/api/verify/"):]
}

// fakeMedia is an in-memory object store.
type fakeMedia struct {
	Objects map[string][]byte
	Deleted []string
}

func newFakeMedia() *fakeMedia {
	return &fakeMedia{Objects: make(map[string][]byte)}
}

func (m *fakeMedia) Upload(ctx context.Context, key, contentType string, body io.Reader) (media.Object, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return media.Object{}, err
	}
	m.Objects[key] = data
	return media.Object{Key: key, URL: "https://media.test/" + key}, nil
}

func (m *fakeMedia) Delete(ctx context.Context, key string) error {
	delete(m.Objects, key)
	m.Deleted = append(m.Deleted, key)
	return nil
}

func (m *fakeMedia) KeyForURL(url string) (string, bool) {
	key, ok := strings.CutPrefix(url, "https://media.test/")
	if !ok || key == "" {
		return "", false
	}
	return key, true
}

func newAuthService(t *testing.T, st store.Store, mailer *fakeMailer) *service.AuthService {
	t.Helper()

	accessSigner, err := jwtx.NewSignerHS256([]byte("access-secret"))
	require.NoError(t, err)
	refreshSigner, err := jwtx.NewSignerHS256([]byte("refresh-secret"))
	require.NoError(t, err)

	return &service.AuthService{
		Store:           st,
		Mailer:          mailer,
		AccessSigner:    accessSigner,
		RefreshSigner:   refreshSigner,
		Issuer:          "comicshelf-test",
		AccessTTL:       jwtx.DefaultAccessTokenTTL,
		RefreshTTL:      jwtx.DefaultRefreshTokenTTL,
		BaseURL:         "https://api.test",
		VerificationTTL: time.Hour,
	}
}

// registerVerified runs the full register+verify flow and returns the user id.
func registerVerified(t *testing.T, auth *service.AuthService, mailer *fakeMailer, email, password string) string {
	t.Helper()

	user, err := auth.Register(context.Background(), email, password, "Test User")
	require.NoError(t, err)
	require.NoError(t, auth.Verify(context.Background(), mailer.lastVerificationSecret(t)))
	return user.ID
}
