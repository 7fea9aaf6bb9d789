// ABOUTME: Peer-trust record fingerprint recalculation after key-storage format changes
// ABOUTME: Triggered by the migration step that introduces the fingerprint columns

package account

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// keyFingerprint derives the display fingerprint of a stored peer key.
func keyFingerprint(key []byte) string {
	if len(key) == 0 {
		return ""
	}
	sum := sha256.Sum256(key)
	return strings.ToUpper(hex.EncodeToString(sum[:]))
}

// recalcFingerprints recomputes and persists the fingerprint of every
// stored peer-trust record.
func (c *Context) recalcFingerprints(ctx context.Context) error {
	rows, err := c.sql.Query(ctx, "SELECT id, public_key, gossip_key FROM acpeerstates;")
	if err != nil {
		return err
	}

	type peer struct {
		id                 int64
		publicKey, gossipKey []byte
	}
	var peers []peer
	for rows.Next() {
		var p peer
		var publicKey, gossipKey []byte
		if err := rows.Scan(&p.id, &publicKey, &gossipKey); err != nil {
			rows.Close()
			return err
		}
		p.publicKey = publicKey
		p.gossipKey = gossipKey
		peers = append(peers, p)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	rows.Close()

	for _, p := range peers {
		_, err := c.sql.Execute(ctx,
			"UPDATE acpeerstates SET public_key_fingerprint=?, gossip_key_fingerprint=? WHERE id=?;",
			keyFingerprint(p.publicKey), keyFingerprint(p.gossipKey), p.id)
		if err != nil {
			return err
		}
	}

	if len(peers) > 0 {
		c.logger.Info("recalculated peer fingerprints", "count", len(peers))
	}
	return nil
}
