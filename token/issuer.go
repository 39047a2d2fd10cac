package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	pkgerrors "github.com/pkg/errors"
)

// IssuedAtPrecision is the resolution of iat and exp in minted tokens.
// Revocation cutoffs are compared at the same resolution.
const IssuedAtPrecision = time.Millisecond

func init() {
	jwt.TimePrecision = IssuedAtPrecision
}

// ErrTokenInvalid covers every verification failure: bad signature, expiry, wrong type
var ErrTokenInvalid = errors.New("token invalid")

// Issuer mints and verifies access and refresh tokens. Each kind has its own
// signer and lifetime, so a token of one kind never verifies as the other.
type Issuer struct {
	accessSigner       Signer
	refreshSigner      Signer
	accessTokenExpiry  time.Duration
	refreshTokenExpiry time.Duration
	issuer             string
	revocations        RevocationList
	nowFunc            func() time.Time
}

type IssuerOption func(*Issuer)

func WithTokenExpiry(accessTokenExpiry, refreshTokenExpiry time.Duration) IssuerOption {
	return func(i *Issuer) {
		i.accessTokenExpiry = accessTokenExpiry
		i.refreshTokenExpiry = refreshTokenExpiry
	}
}

func WithNowFunc(now func() time.Time) IssuerOption {
	return func(i *Issuer) {
		i.nowFunc = now
	}
}

func WithIssuer(issuer string) IssuerOption {
	return func(i *Issuer) {
		i.issuer = issuer
	}
}

func WithRevocationList(list RevocationList) IssuerOption {
	return func(i *Issuer) {
		i.revocations = list
	}
}

func NewIssuer(accessSigner, refreshSigner Signer, options ...IssuerOption) (*Issuer, error) {
	if accessSigner == nil || refreshSigner == nil {
		return nil, errors.New("[NewIssuer] access and refresh signers are required")
	}
	i := &Issuer{
		accessSigner:  accessSigner,
		refreshSigner: refreshSigner,
	}
	for _, opt := range options {
		opt(i)
	}
	if i.accessTokenExpiry <= 0 {
		i.accessTokenExpiry = 15 * time.Minute
	}
	if i.refreshTokenExpiry <= 0 {
		i.refreshTokenExpiry = 7 * 24 * time.Hour
	}
	if i.nowFunc == nil {
		i.nowFunc = time.Now
	}
	if i.revocations == nil {
		i.revocations = NewInMemoryRevocationList(i.nowFunc)
	}
	return i, nil
}

// AccessTokenExpiry is the lifetime given to access tokens
func (i *Issuer) AccessTokenExpiry() time.Duration {
	return i.accessTokenExpiry
}

// RefreshTokenExpiry is the lifetime given to refresh tokens and their sessions
func (i *Issuer) RefreshTokenExpiry() time.Duration {
	return i.refreshTokenExpiry
}

// Revocations exposes the list consulted by VerifyAccess
func (i *Issuer) Revocations() RevocationList {
	return i.revocations
}

// IssuePair mints an access token and a refresh token bound to deviceID.
func (i *Issuer) IssuePair(payload Payload, deviceID string) (*Pair, error) {
	now := i.nowFunc()
	accessExp := now.Add(i.accessTokenExpiry)
	refreshExp := now.Add(i.refreshTokenExpiry)

	access, err := i.accessSigner.Sign(i.claims(payload, TypeAccess, "", now, accessExp))
	if err != nil {
		return nil, pkgerrors.Wrap(err, "[Issuer.IssuePair] access")
	}
	refresh, err := i.refreshSigner.Sign(i.claims(payload, TypeRefresh, deviceID, now, refreshExp))
	if err != nil {
		return nil, pkgerrors.Wrap(err, "[Issuer.IssuePair] refresh")
	}

	return &Pair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// VerifyAccess checks signature, expiry, type and the revocation list.
func (i *Issuer) VerifyAccess(raw string) (*Claims, error) {
	claims, err := i.verify(raw, i.accessSigner, TypeAccess)
	if err != nil {
		return nil, err
	}
	if i.revocations.IsRevoked(claims.Subject, claims.IssuedAtTime()) {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// VerifyRefresh checks signature, expiry and type. Session matching is the caller's job.
func (i *Issuer) VerifyRefresh(raw string) (*Claims, error) {
	return i.verify(raw, i.refreshSigner, TypeRefresh)
}

func (i *Issuer) claims(payload Payload, typ, deviceID string, now, exp time.Time) *Claims {
	return &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.issuer,
			Subject:   payload.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        uuid.New().String(),
		},
		Email:    payload.Email,
		IsAdmin:  payload.IsAdmin,
		Type:     typ,
		DeviceID: deviceID,
	}
}

func (i *Issuer) verify(raw string, signer Signer, typ string) (*Claims, error) {
	if raw == "" {
		return nil, ErrTokenInvalid
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{signer.GetSigningMethod().Alg()}),
		jwt.WithTimeFunc(i.nowFunc),
		jwt.WithExpirationRequired(),
	}
	if i.issuer != "" {
		opts = append(opts, jwt.WithIssuer(i.issuer))
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(raw, claims, signer.GetVerificationKey, opts...)
	if err != nil || !parsed.Valid {
		return nil, ErrTokenInvalid
	}
	if claims.Type != typ || claims.Subject == "" {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}
