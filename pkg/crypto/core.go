// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package crypto provides the commitment primitive pkg/settlement uses to
// produce an auditable fingerprint of ledger state.
package crypto

import "crypto/sha256"

// CreateCommitment returns a SHA-256 commitment to data, for audit.
func CreateCommitment(data []byte) []byte {
	hash := sha256.Sum256(data)
	return hash[:]
}
