package careauth

import (
	"log"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
)

// TokenValidator validates bearer tokens and extracts claims without tying
// callers to a specific signing implementation.
type TokenValidator interface {
	Validate(tokenString string) (*AuthClaims, error)
}

// JWKSValidator validates tokens issued by a hosted identity backend using
// its published JWK Set. Keys refresh in the background for the lifetime of
// the validator.
type JWKSValidator struct {
	jwks     *keyfunc.JWKS
	issuer   string
	audience []string
}

// NewJWKSValidator fetches the JWK Set and returns a validator for tokens
// signed by the backend identified in cfg.
func NewJWKSValidator(cfg Config) (*JWKSValidator, error) {
	endpoint := cfg.GetJWKSEndpoint()
	if endpoint == "" {
		return nil, errors.New("JWKS endpoint is required", errors.CategoryBadInput)
	}

	jwks, err := keyfunc.Get(endpoint, keyfunc.Options{
		RefreshErrorHandler: func(err error) {
			log.Printf("failed to do a background refresh of JWT set: %s", err)
		},
		RefreshInterval:   time.Hour,
		RefreshRateLimit:  time.Minute * 5,
		RefreshTimeout:    time.Second * 10,
		RefreshUnknownKID: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryOperation, "failed to fetch JWK Set")
	}

	return &JWKSValidator{
		jwks:     jwks,
		issuer:   cfg.GetIssuer(),
		audience: cfg.GetAudience(),
	}, nil
}

// Validate implements TokenValidator.
func (v *JWKSValidator) Validate(tokenString string) (*AuthClaims, error) {
	parserOptions := make([]jwt.ParserOption, 0, 2)
	if v.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(v.issuer))
	}
	if len(v.audience) > 0 {
		parserOptions = append(parserOptions, jwt.WithAudience(v.audience...))
	}

	token, err := jwt.ParseWithClaims(tokenString, &AuthClaims{}, v.jwks.Keyfunc, parserOptions...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, errors.Wrap(err, ErrTokenMalformed.Category, ErrTokenMalformed.Message).WithTextCode(ErrTokenMalformed.TextCode)
	}

	if claims, ok := token.Claims.(*AuthClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, ErrTokenMalformed
}

// Close stops background JWKS refreshes.
func (v *JWKSValidator) Close() {
	if v.jwks != nil {
		v.jwks.EndBackground()
	}
}
