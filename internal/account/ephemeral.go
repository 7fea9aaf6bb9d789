// ABOUTME: Ephemeral-message expiry: deletes due messages and arms a timer for the next one
// ABOUTME: Restarted on every database open and after every housekeeping pass

package account

import (
	"context"
	"database/sql"
	"time"
)

// StartEphemeralTimers deletes all messages whose expiry countdown has
// elapsed and schedules the next deletion pass for the earliest remaining
// expiry. Safe to call repeatedly; each call replaces the pending timer.
func (c *Context) StartEphemeralTimers(ctx context.Context) error {
	now := time.Now().Unix()

	deleted, err := c.sql.Execute(ctx,
		"DELETE FROM msgs WHERE ephemeral_timestamp!=0 AND ephemeral_timestamp<=?;", now)
	if err != nil {
		return err
	}
	if deleted > 0 {
		c.logger.Info("deleted expired ephemeral messages", "count", deleted)
		c.emit(Event{Kind: KindMsgsChanged})
	}

	var next sql.NullInt64
	if _, err := c.sql.QueryGetValue(ctx, &next,
		"SELECT MIN(ephemeral_timestamp) FROM msgs WHERE ephemeral_timestamp>?;", now); err != nil {
		return err
	}

	c.ephemeralMu.Lock()
	defer c.ephemeralMu.Unlock()
	if c.ephemeralTimer != nil {
		c.ephemeralTimer.Stop()
		c.ephemeralTimer = nil
	}
	if next.Valid {
		d := time.Until(time.Unix(next.Int64, 0))
		c.ephemeralTimer = time.AfterFunc(d, func() {
			if err := c.StartEphemeralTimers(context.Background()); err != nil {
				c.logger.Warn("ephemeral timer pass failed", "error", err)
			}
		})
	}
	return nil
}

// stopEphemeralTimer cancels a pending expiry timer, if any.
func (c *Context) stopEphemeralTimer() {
	c.ephemeralMu.Lock()
	defer c.ephemeralMu.Unlock()
	if c.ephemeralTimer != nil {
		c.ephemeralTimer.Stop()
		c.ephemeralTimer = nil
	}
}
