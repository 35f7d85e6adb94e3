package auth

import (
	"strings"
	"sync"
	"testing"
	"time"

	"project-tracker/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	c.t = t
	c.mu.Unlock()
}

func newService(t *testing.T, ttl time.Duration) (*TokenService, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	svc, err := NewTokenServiceWithClock(testSecret, ttl, clock.Now)
	require.NoError(t, err)
	return svc, clock
}

var alice = &models.User{ID: 7, Username: "alice", Email: "alice@x.com", Role: models.RoleUser}

func TestNewTokenService_Guards(t *testing.T) {
	_, err := NewTokenService("short", time.Hour)
	assert.ErrorIs(t, err, ErrWeakSecret)

	_, err = NewTokenService(testSecret, 0)
	assert.Error(t, err)

	svc, err := NewTokenService(testSecret, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, time.Hour, svc.TTL())
}

func TestIssue_ClaimsAndSubject(t *testing.T) {
	svc, clock := newService(t, time.Hour)

	token, err := svc.Issue(alice)
	require.NoError(t, err)

	assert.True(t, svc.Validate(token))

	subject, err := svc.Subject(token)
	require.NoError(t, err)
	assert.Equal(t, "alice@x.com", subject)

	claims, err := svc.Claims(token)
	require.NoError(t, err)
	assert.Equal(t, "USER", claims.Role)
	assert.True(t, clock.Now().Equal(claims.IssuedAt.Time))
	assert.True(t, clock.Now().Add(time.Hour).Equal(claims.ExpiresAt.Time))

	parsed, _, err := jwt.NewParser().ParseUnverified(token, &Claims{})
	require.NoError(t, err)
	assert.Equal(t, "HS256", parsed.Method.Alg())
}

func TestValidate_ExpiryBoundary(t *testing.T) {
	svc, clock := newService(t, time.Hour)
	issued := clock.Now()

	token, err := svc.Issue(alice)
	require.NoError(t, err)
	expiry := issued.Add(time.Hour)

	tests := []struct {
		name string
		at   time.Time
		want bool
	}{
		{"just issued", issued, true},
		{"one second before expiry", expiry.Add(-time.Second), true},
		{"at expiry", expiry, false},
		{"one second after expiry", expiry.Add(time.Second), false},
		{"long after expiry", expiry.Add(24 * time.Hour), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock.Set(tt.at)
			assert.Equal(t, tt.want, svc.Validate(token))
			_, err := svc.Subject(token)
			assert.Equal(t, tt.want, err == nil)
		})
	}
}

func TestValidate_RejectsBadTokens(t *testing.T) {
	svc, clock := newService(t, time.Hour)
	token, err := svc.Issue(alice)
	require.NoError(t, err)

	other, err := NewTokenServiceWithClock("ffffffffffffffffffffffffffffffff", time.Hour, clock.Now)
	require.NoError(t, err)
	foreign, err := other.Issue(alice)
	require.NoError(t, err)

	claims := Claims{Role: "ADMIN", RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "alice@x.com",
		ExpiresAt: jwt.NewNumericDate(clock.Now().Add(time.Hour)),
	}}
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "alice@x.com"}}).
		SignedString([]byte(testSecret))
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	tamperedPayload, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	tampered := parts[0] + "." + strings.Split(tamperedPayload, ".")[1] + "." + parts[2]

	for name, bad := range map[string]string{
		"empty":          "",
		"garbage":        "not-a-token",
		"two segments":   parts[0] + "." + parts[1],
		"foreign secret": foreign,
		"alg none":       none,
		"alg HS512":      hs512,
		"missing exp":    noExpiry,
		"tampered":       tampered,
	} {
		t.Run(name, func(t *testing.T) {
			assert.False(t, svc.Validate(bad))
			_, err := svc.Subject(bad)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestValidate_Concurrent(t *testing.T) {
	svc, _ := newService(t, time.Hour)
	token, err := svc.Issue(alice)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.True(t, svc.Validate(token))
		}()
	}
	wg.Wait()
}
