package model

import "time"

// RevokedToken is one blacklist row. The token id (jti claim), not the signed
// string, is the unit of revocation; ExpiresAt lets dead rows be dropped once
// the token could no longer verify anyway.
type RevokedToken struct {
	TokenID   string
	ExpiresAt time.Time
	CreatedAt time.Time
}
