package auth

import (
	"fmt"

	"github.com/avekens/threadlens/internal/models"
)

// Store key layout. Presence of a "{uid}:{kind}:{jti}" record is the
// authoritative proof that a token has not been revoked; the mapping
// record lets refresh-driven flows find the paired access jti without
// decoding the access token.
const mappingSegment = "refresh_to_access"

func tokenKey(uid string, kind models.TokenKind, jti string) string {
	return fmt.Sprintf("%s:%s:%s", uid, kind, jti)
}

func mappingKey(uid, refreshJTI string) string {
	return fmt.Sprintf("%s:%s:%s", uid, mappingSegment, refreshJTI)
}

func tokenPrefix(uid string, kind models.TokenKind) string {
	return fmt.Sprintf("%s:%s:", uid, kind)
}

func mappingPrefix(uid string) string {
	return fmt.Sprintf("%s:%s:", uid, mappingSegment)
}

func cooldownKey(purpose, email string) string {
	return fmt.Sprintf("%s:%s", purpose, email)
}

func stateKey(state string) string {
	return fmt.Sprintf("tokens:%s", state)
}
