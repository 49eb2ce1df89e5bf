package middleware

import (
	"strings"

	"github.com/golang-jwt/jwt/v4"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/tasklist/api/transport"
	"github.com/fastygo/tasklist/domain"
)

// SubjectKey is the user value holding the verified token subject.
const SubjectKey = "token_subject"

// TokenVerifier validates bearer tokens.
type TokenVerifier interface {
	Enabled() bool
	Verify(token string) (*jwt.RegisteredClaims, error)
}

// JWTAuth guards handlers with a bearer token. A disabled verifier lets
// every request through.
func JWTAuth(verifier TokenVerifier, logger *zap.Logger) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		if verifier == nil || !verifier.Enabled() {
			return next
		}
		return func(ctx *fasthttp.RequestCtx) {
			claims, err := verifier.Verify(extractToken(ctx))
			if err != nil {
				logger.Warn("rejected api request",
					zap.ByteString("path", ctx.Path()),
					zap.Error(err))
				ctx.Response.Header.SetContentType("application/json")
				ctx.SetStatusCode(fasthttp.StatusUnauthorized)
				ctx.SetBodyString(transport.NewError(domain.ErrCodeUnauthorized, domain.ErrUnauthorized.Error(), nil).String())
				return
			}
			ctx.SetUserValue(SubjectKey, claims.Subject)
			next(ctx)
		}
	}
}

func extractToken(ctx *fasthttp.RequestCtx) string {
	header := string(ctx.Request.Header.Peek("Authorization"))
	if header == "" {
		// EventSource cannot set headers.
		return string(ctx.QueryArgs().Peek("access_token"))
	}
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return header
}
