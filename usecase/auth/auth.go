package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fastygo/tasklist/domain"
)

// UseCase issues and verifies the bearer tokens that guard the HTTP API.
// With an empty secret the guard is off and every request is allowed.
type UseCase struct {
	secret []byte
	issuer string
	logger *zap.Logger
	now    func() time.Time
}

func New(secret, issuer string, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		secret: []byte(secret),
		issuer: issuer,
		logger: logger,
		now:    time.Now,
	}
}

// Enabled reports whether a secret is configured.
func (uc *UseCase) Enabled() bool {
	return len(uc.secret) > 0
}

// IssueToken signs an HS256 token for subject valid for ttl.
func (uc *UseCase) IssueToken(subject string, ttl time.Duration) (string, time.Time, error) {
	if !uc.Enabled() {
		return "", time.Time{}, domain.NewError(domain.ErrCodeInvalid, "JWT_SECRET is not configured")
	}
	if subject == "" {
		subject = "tasklist"
	}
	if ttl <= 0 {
		ttl = time.Hour
	}

	now := uc.now()
	expires := now.Add(ttl)
	claims := jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   subject,
		Issuer:    uc.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expires),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(uc.secret)
	if err != nil {
		return "", time.Time{}, domain.WrapError(domain.ErrCodeInternal, "sign token", err)
	}
	uc.logger.Info("api token issued", zap.String("subject", subject), zap.Time("expires_at", expires))
	return signed, expires, nil
}

// Verify parses a token and checks signature, expiry and issuer.
func (uc *UseCase) Verify(token string) (*jwt.RegisteredClaims, error) {
	if token == "" {
		return nil, domain.ErrUnauthorized
	}
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return uc.secret, nil
	})
	if err != nil || !parsed.Valid {
		if err == nil {
			err = errors.New("token is not valid")
		}
		return nil, domain.WrapError(domain.ErrCodeUnauthorized, "invalid token", err)
	}
	if uc.issuer != "" && !claims.VerifyIssuer(uc.issuer, true) {
		return nil, domain.NewError(domain.ErrCodeUnauthorized, "unexpected token issuer")
	}
	return claims, nil
}
