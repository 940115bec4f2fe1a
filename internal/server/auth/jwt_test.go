package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/YousefAdel777/chatter-backend-sub000/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCodec(t *testing.T, secret string, now func() time.Time) *Codec {
	t.Helper()
	c, err := NewCodec(CodecConfig{Secret: []byte(secret), Now: now})
	require.NoError(t, err)
	return c
}

func fixedClock(ts time.Time) func() time.Time {
	return func() time.Time { return ts }
}

func TestNewCodec_RejectsEmptySecret(t *testing.T) {
	_, err := NewCodec(CodecConfig{})
	require.Error(t, err)
}

func TestIssueAndParse_Success(t *testing.T) {
	t.Parallel()

	c := newCodec(t, "super-secret", nil)

	access, err := c.Issue("alice@example.com", false, time.Hour)
	require.NoError(t, err)
	refresh, err := c.Issue("alice@example.com", true, 24*time.Hour)
	require.NoError(t, err)
	assert.NotEqual(t, access, refresh)

	sub, err := c.ParseSubject(access)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", sub)

	isRefresh, err := c.ParseIsRefresh(access)
	require.NoError(t, err)
	assert.False(t, isRefresh)

	isRefresh, err = c.ParseIsRefresh(refresh)
	require.NoError(t, err)
	assert.True(t, isRefresh)
}

func TestIssue_SameSecondTokensDiffer(t *testing.T) {
	t.Parallel()

	c := newCodec(t, "k", fixedClock(time.Unix(1_700_000_000, 0)))

	a, err := c.Issue("bob@example.com", true, time.Hour)
	require.NoError(t, err)
	b, err := c.Issue("bob@example.com", true, time.Hour)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestIssue_ClaimsLayout(t *testing.T) {
	t.Parallel()

	issuedAt := time.Unix(1_700_000_000, 0)
	c := newCodec(t, "k", fixedClock(issuedAt))

	tok, err := c.Issue("carol@example.com", true, 10*time.Minute)
	require.NoError(t, err)

	claims, err := c.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, "carol@example.com", claims.Subject)
	assert.True(t, claims.IsRefresh)
	assert.True(t, issuedAt.Equal(claims.IssuedAt.Time))
	assert.True(t, issuedAt.Add(10*time.Minute).Equal(claims.ExpiresAt.Time))
	assert.NotEmpty(t, claims.ID)

	// The wire payload uses the isRefresh claim name.
	unverified := jwt.MapClaims{}
	_, _, err = jwt.NewParser().ParseUnverified(tok, unverified)
	require.NoError(t, err)
	assert.Equal(t, true, unverified["isRefresh"])
	assert.Equal(t, "carol@example.com", unverified["sub"])
}

func TestParse_Expired(t *testing.T) {
	t.Parallel()

	start := time.Unix(1_700_000_000, 0)
	issuer := newCodec(t, "secret", fixedClock(start))
	later := newCodec(t, "secret", fixedClock(start.Add(2*time.Hour)))

	tok, err := issuer.Issue("u1@example.com", true, time.Hour)
	require.NoError(t, err)

	_, err = later.ParseSubject(tok)
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrTokenExpired))
	assert.False(t, errors.Is(err, common.ErrInvalidToken))

	var te *TokenError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, KindExpired, te.Kind)
}

func TestParse_NegativeTTLIsExpired(t *testing.T) {
	t.Parallel()

	c := newCodec(t, "secret", nil)
	tok, err := c.Issue("u1@example.com", false, -1*time.Second)
	require.NoError(t, err)

	_, err = c.ParseIsRefresh(tok)
	assert.ErrorIs(t, err, common.ErrTokenExpired)
}

func TestParse_WrongSecret(t *testing.T) {
	t.Parallel()

	tok, err := newCodec(t, "right-secret", nil).Issue("u2@example.com", false, time.Hour)
	require.NoError(t, err)

	_, err = newCodec(t, "wrong-secret", nil).ParseSubject(tok)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrInvalidToken)

	var te *TokenError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, KindSignatureInvalid, te.Kind)
}

func TestParse_ExpiredWithWrongSecretIsSignatureFailure(t *testing.T) {
	t.Parallel()

	tok, err := newCodec(t, "right", nil).Issue("u@example.com", true, -time.Hour)
	require.NoError(t, err)

	_, err = newCodec(t, "wrong", nil).Parse(tok)
	var te *TokenError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, KindSignatureInvalid, te.Kind)
}

func TestParse_Malformed(t *testing.T) {
	t.Parallel()

	c := newCodec(t, "k", nil)
	for _, in := range []string{"", "not.a.jwt", "abc", strings.Repeat("x", 40)} {
		_, err := c.ParseSubject(in)
		require.Error(t, err, "input %q", in)
		assert.ErrorIs(t, err, common.ErrInvalidToken)

		var te *TokenError
		require.ErrorAs(t, err, &te)
		assert.Equal(t, KindMalformed, te.Kind, "input %q", in)
	}
}

func TestParse_RejectsOtherAlgorithms(t *testing.T) {
	t.Parallel()

	c := newCodec(t, "k", nil)
	tok := jwt.NewWithClaims(jwt.SigningMethodHS512, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "mallory@example.com",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		IsRefresh: true,
	})
	s, err := tok.SignedString([]byte("k"))
	require.NoError(t, err)

	_, err = c.Parse(s)
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestParse_RequiresExpiryAndSubject(t *testing.T) {
	t.Parallel()

	c := newCodec(t, "k", nil)

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "x@example.com"},
	}).SignedString([]byte("k"))
	require.NoError(t, err)
	_, err = c.Parse(noExp)
	assert.ErrorIs(t, err, common.ErrInvalidToken)

	noSub, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}).SignedString([]byte("k"))
	require.NoError(t, err)
	_, err = c.Parse(noSub)
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	c := newCodec(t, "k", nil)
	access, err := c.Issue("dave@example.com", false, time.Hour)
	require.NoError(t, err)
	refresh, err := c.Issue("dave@example.com", true, time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name      string
		token     string
		subject   string
		isRefresh bool
		want      bool
	}{
		{name: "refresh as refresh", token: refresh, subject: "dave@example.com", isRefresh: true, want: true},
		{name: "access as access", token: access, subject: "dave@example.com", isRefresh: false, want: true},
		{name: "access where refresh expected", token: access, subject: "dave@example.com", isRefresh: true, want: false},
		{name: "refresh where access expected", token: refresh, subject: "dave@example.com", isRefresh: false, want: false},
		{name: "other subject", token: refresh, subject: "eve@example.com", isRefresh: true, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := c.Validate(tt.token, tt.subject, tt.isRefresh)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}

	ok, err := c.Validate("garbage", "dave@example.com", true)
	assert.False(t, ok)
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestErrorKind_String(t *testing.T) {
	assert.Equal(t, "malformed", KindMalformed.String())
	assert.Equal(t, "signature invalid", KindSignatureInvalid.String())
	assert.Equal(t, "expired", KindExpired.String())
	assert.Equal(t, "unknown", ErrorKind(0).String())
	assert.Equal(t, "token expired", (&TokenError{Kind: KindExpired}).Error())
}
