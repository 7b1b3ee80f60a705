// Package tenantkey issues and checks tenant API keys. A key has the form
// "<tenant id>:<secret>"; only the sha256 of the secret is stored.
package tenantkey

import (
	"crypto/sha256"
	"crypto/subtle"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/xerrors"

	"github.com/printwatch/printwatch/cryptorand"
	"github.com/printwatch/printwatch/printd/database"
	"github.com/printwatch/printwatch/printd/database/dbtime"
)

const secretLength = 48

// New returns the insert parameters for a tenant together with the
// plaintext key. The key is not recoverable afterwards.
func New(name, city string, now time.Time) (database.InsertTenantParams, string, error) {
	id := uuid.New()
	secret, err := cryptorand.HexString(secretLength)
	if err != nil {
		return database.InsertTenantParams{}, "", xerrors.Errorf("generate secret: %w", err)
	}

	return database.InsertTenantParams{
		ID:           id,
		Name:         name,
		City:         city,
		HashedSecret: HashSecret(secret),
		CreatedAt:    dbtime.Time(now),
	}, Format(id, secret), nil
}

func Format(id uuid.UUID, secret string) string {
	return fmt.Sprintf("%s:%s", id, secret)
}

// Parse splits a key into its tenant ID and secret.
func Parse(key string) (uuid.UUID, string, error) {
	rawID, secret, ok := strings.Cut(key, ":")
	if !ok || secret == "" {
		return uuid.Nil, "", xerrors.New("invalid key format")
	}
	id, err := uuid.Parse(rawID)
	if err != nil {
		return uuid.Nil, "", xerrors.Errorf("parse tenant id: %w", err)
	}
	return id, secret, nil
}

func HashSecret(secret string) []byte {
	h := sha256.Sum256([]byte(secret))
	return h[:]
}

// Matches reports whether secret hashes to the tenant's stored secret.
func Matches(tenant database.Tenant, secret string) bool {
	return subtle.ConstantTimeCompare(tenant.HashedSecret, HashSecret(secret)) == 1
}
