// ABOUTME: Versioned schema migration table and its runner
// ABOUTME: Each checkpoint matches pre-existing database files byte for byte; never renumber

package sqlstore

import (
	"context"
	"fmt"
)

// show_emails settings; installations that predate the setting implicitly
// behaved like showEmailsAll.
const (
	showEmailsOff = 0
	showEmailsAll = 2
)

// migration is one version-gated schema step. The recorded dbversion is the
// only idempotence mechanism: a step runs exactly when the database version
// is still below it, so statements never need defensive existence checks.
type migration struct {
	version    int
	statements []string
	// apply runs after statements for steps that do pure data migration.
	apply func(ctx context.Context, s *Sql, existedBefore bool) error

	recalcFingerprints bool
	updateIcons        bool
}

var migrationList = []migration{
	{
		version: 1,
		statements: []string{
			`CREATE TABLE leftgrps ( id INTEGER PRIMARY KEY, grpid TEXT DEFAULT '');`,
			`CREATE INDEX leftgrps_index1 ON leftgrps (grpid);`,
		},
	},
	{
		version: 2,
		statements: []string{
			`ALTER TABLE contacts ADD COLUMN authname TEXT DEFAULT '';`,
		},
	},
	{
		version: 7,
		statements: []string{
			`CREATE TABLE keypairs (
				id INTEGER PRIMARY KEY,
				addr TEXT DEFAULT '' COLLATE NOCASE,
				is_default INTEGER DEFAULT 0,
				private_key,
				public_key,
				created INTEGER DEFAULT 0);`,
		},
	},
	{
		version: 10,
		statements: []string{
			`CREATE TABLE acpeerstates (
				id INTEGER PRIMARY KEY,
				addr TEXT DEFAULT '' COLLATE NOCASE,
				last_seen INTEGER DEFAULT 0,
				last_seen_autocrypt INTEGER DEFAULT 0,
				public_key,
				prefer_encrypted INTEGER DEFAULT 0);`,
			`CREATE INDEX acpeerstates_index1 ON acpeerstates (addr);`,
		},
	},
	{
		version: 12,
		statements: []string{
			`CREATE TABLE msgs_mdns ( msg_id INTEGER,  contact_id INTEGER);`,
			`CREATE INDEX msgs_mdns_index1 ON msgs_mdns (msg_id);`,
		},
	},
	{
		version: 17,
		statements: []string{
			`ALTER TABLE chats ADD COLUMN archived INTEGER DEFAULT 0;`,
			`CREATE INDEX chats_index2 ON chats (archived);`,
			// 'starred' is not used currently, but dropping a column is
			// not easily doable and stopping to add it would complicate
			// reusing it later.
			`ALTER TABLE msgs ADD COLUMN starred INTEGER DEFAULT 0;`,
			`CREATE INDEX msgs_index5 ON msgs (starred);`,
		},
	},
	{
		version: 18,
		statements: []string{
			`ALTER TABLE acpeerstates ADD COLUMN gossip_timestamp INTEGER DEFAULT 0;`,
			`ALTER TABLE acpeerstates ADD COLUMN gossip_key;`,
		},
	},
	{
		version: 27,
		statements: []string{
			// chat.id=1 and chat.id=2 are the old deaddrops, the current
			// ones are defined by chats.blocked=2.
			`DELETE FROM msgs WHERE chat_id=1 OR chat_id=2;`,
			`CREATE INDEX chats_contacts_index2 ON chats_contacts (contact_id);`,
			`ALTER TABLE msgs ADD COLUMN timestamp_sent INTEGER DEFAULT 0;`,
			`ALTER TABLE msgs ADD COLUMN timestamp_rcvd INTEGER DEFAULT 0;`,
		},
	},
	{
		version: 34,
		statements: []string{
			`ALTER TABLE msgs ADD COLUMN hidden INTEGER DEFAULT 0;`,
			`ALTER TABLE msgs_mdns ADD COLUMN timestamp_sent INTEGER DEFAULT 0;`,
			`ALTER TABLE acpeerstates ADD COLUMN public_key_fingerprint TEXT DEFAULT '';`,
			`ALTER TABLE acpeerstates ADD COLUMN gossip_key_fingerprint TEXT DEFAULT '';`,
			`CREATE INDEX acpeerstates_index3 ON acpeerstates (public_key_fingerprint);`,
			`CREATE INDEX acpeerstates_index4 ON acpeerstates (gossip_key_fingerprint);`,
		},
		recalcFingerprints: true,
	},
	{
		version: 39,
		statements: []string{
			`CREATE TABLE tokens (
				id INTEGER PRIMARY KEY,
				namespc INTEGER DEFAULT 0,
				foreign_id INTEGER DEFAULT 0,
				token TEXT DEFAULT '',
				timestamp INTEGER DEFAULT 0);`,
			`ALTER TABLE acpeerstates ADD COLUMN verified_key;`,
			`ALTER TABLE acpeerstates ADD COLUMN verified_key_fingerprint TEXT DEFAULT '';`,
			`CREATE INDEX acpeerstates_index5 ON acpeerstates (verified_key_fingerprint);`,
		},
	},
	{
		version: 40,
		statements: []string{
			`ALTER TABLE jobs ADD COLUMN thread INTEGER DEFAULT 0;`,
		},
	},
	{
		version: 44,
		statements: []string{
			`ALTER TABLE msgs ADD COLUMN mime_headers TEXT;`,
		},
	},
	{
		version: 46,
		statements: []string{
			`ALTER TABLE msgs ADD COLUMN mime_in_reply_to TEXT;`,
			`ALTER TABLE msgs ADD COLUMN mime_references TEXT;`,
		},
	},
	{
		version: 47,
		statements: []string{
			`ALTER TABLE jobs ADD COLUMN tries INTEGER DEFAULT 0;`,
		},
	},
	{
		version: 48,
		statements: []string{
			// move_state is not used anymore.
			`ALTER TABLE msgs ADD COLUMN move_state INTEGER DEFAULT 1;`,
		},
	},
	{
		version: 49,
		statements: []string{
			`ALTER TABLE chats ADD COLUMN gossiped_timestamp INTEGER DEFAULT 0;`,
		},
	},
	{
		version: 50,
		// Installations that existed before the show_emails setting showed
		// all emails implicitly; keep that default for them and use the
		// restrictive default only for new installations.
		apply: func(ctx context.Context, s *Sql, existedBefore bool) error {
			if existedBefore {
				return s.SetRawConfigInt(ctx, "show_emails", showEmailsAll)
			}
			return nil
		},
	},
	{
		version: 53,
		statements: []string{
			// messages containing _only_ locations are added as _hidden_.
			`CREATE TABLE locations (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				latitude REAL DEFAULT 0.0,
				longitude REAL DEFAULT 0.0,
				accuracy REAL DEFAULT 0.0,
				timestamp INTEGER DEFAULT 0,
				chat_id INTEGER DEFAULT 0,
				from_id INTEGER DEFAULT 0);`,
			`CREATE INDEX locations_index1 ON locations (from_id);`,
			`CREATE INDEX locations_index2 ON locations (timestamp);`,
			`ALTER TABLE chats ADD COLUMN locations_send_begin INTEGER DEFAULT 0;`,
			`ALTER TABLE chats ADD COLUMN locations_send_until INTEGER DEFAULT 0;`,
			`ALTER TABLE chats ADD COLUMN locations_last_sent INTEGER DEFAULT 0;`,
			`CREATE INDEX chats_index3 ON chats (locations_send_until);`,
		},
	},
	{
		version: 54,
		statements: []string{
			`ALTER TABLE msgs ADD COLUMN location_id INTEGER DEFAULT 0;`,
			`CREATE INDEX msgs_index6 ON msgs (location_id);`,
		},
	},
	{
		version: 55,
		statements: []string{
			`ALTER TABLE locations ADD COLUMN independent INTEGER DEFAULT 0;`,
		},
	},
	{
		version: 59,
		statements: []string{
			// devmsglabels records are kept when the message is deleted,
			// so msg_id may or may not exist.
			`CREATE TABLE devmsglabels (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				label TEXT,
				msg_id INTEGER DEFAULT 0);`,
			`CREATE INDEX devmsglabels_index1 ON devmsglabels (label);`,
		},
		apply: func(ctx context.Context, s *Sql, existedBefore bool) error {
			if !existedBefore {
				return nil
			}
			_, found, err := s.GetRawConfigInt(ctx, "bcc_self")
			if err != nil {
				return err
			}
			if !found {
				return s.SetRawConfigInt(ctx, "bcc_self", 1)
			}
			return nil
		},
	},
	{
		version: 60,
		statements: []string{
			`ALTER TABLE chats ADD COLUMN created_timestamp INTEGER DEFAULT 0;`,
		},
	},
	{
		version: 61,
		statements: []string{
			`ALTER TABLE contacts ADD COLUMN selfavatar_sent INTEGER DEFAULT 0;`,
		},
		updateIcons: true,
	},
	{
		version: 62,
		statements: []string{
			`ALTER TABLE chats ADD COLUMN muted_until INTEGER DEFAULT 0;`,
		},
	},
	{
		version: 63,
		statements: []string{
			`UPDATE chats SET grpid='' WHERE type=100`,
		},
	},
	{
		version: 64,
		statements: []string{
			`ALTER TABLE msgs ADD COLUMN error TEXT DEFAULT '';`,
		},
	},
	{
		version: 65,
		statements: []string{
			`ALTER TABLE chats ADD COLUMN ephemeral_timer INTEGER`,
			`ALTER TABLE msgs ADD COLUMN ephemeral_timer INTEGER DEFAULT 0`,
			`ALTER TABLE msgs ADD COLUMN ephemeral_timestamp INTEGER DEFAULT 0`,
		},
	},
	{
		version:     66,
		updateIcons: true,
	},
	{
		version: 67,
		// Reinterpret the legacy server_flags bitmask into the dedicated
		// mail_security / send_security settings.
		apply: migrateServerFlags,
	},
	{
		version: 68,
		statements: []string{
			// speeds up the fresh-message count and mark-noticed paths.
			`CREATE INDEX IF NOT EXISTS msgs_index7 ON msgs (state, hidden, chat_id);`,
		},
	},
	{
		version: 69,
		statements: []string{
			`ALTER TABLE chats ADD COLUMN protected INTEGER DEFAULT 0;`,
			// 120=group, 130=old verified group
			`UPDATE chats SET protected=1, type=120 WHERE type=130;`,
		},
	},
}

// migrateServerFlags rewrites the packed socket-security bits of the legacy
// server_flags config value into the mail_security and send_security
// enumerations, for both the user-entered and the configured variants.
func migrateServerFlags(ctx context.Context, s *Sql, _ bool) error {
	for _, prefix := range []string{"", "configured_"} {
		serverFlags, found, err := s.GetRawConfigInt(ctx, prefix+"server_flags")
		if err != nil {
			return err
		}
		if !found {
			continue
		}

		security := func(flags int, starttls, ssltls, plain int) int {
			switch flags {
			case starttls:
				return 2
			case ssltls:
				return 1
			case plain:
				return 3
			default:
				return 0
			}
		}

		imapFlags := serverFlags & 0x700
		if err := s.SetRawConfigInt(ctx, prefix+"mail_security",
			security(imapFlags, 0x100, 0x200, 0x400)); err != nil {
			return err
		}
		smtpFlags := serverFlags & 0x70000
		if err := s.SetRawConfigInt(ctx, prefix+"send_security",
			security(smtpFlags, 0x10000, 0x20000, 0x40000)); err != nil {
			return err
		}
	}
	return nil
}

// migrate brings the database from its recorded version to the newest
// checkpoint. The new version is persisted immediately after each step so a
// crash mid-migration resumes from the last completed step. Errors abort the
// open without advancing past the last completed step.
func (s *Sql) migrate(ctx context.Context, existedBefore bool) (MigrationResult, error) {
	res := MigrationResult{UpdateIcons: !existedBefore}

	hasConfig, err := s.TableExists(ctx, "config")
	if err != nil {
		return MigrationResult{}, err
	}
	if !hasConfig {
		s.logger.Info("creating database structure")
		for _, stmt := range baseSchema {
			if _, err := s.Execute(ctx, stmt); err != nil {
				return MigrationResult{}, fmt.Errorf("creating schema: %w", err)
			}
		}
	}

	version, _, err := s.GetRawConfigInt(ctx, "dbversion")
	if err != nil {
		return MigrationResult{}, err
	}

	for _, m := range migrationList {
		if version >= m.version {
			continue
		}
		s.logger.Info("applying schema migration", "version", m.version)

		for _, stmt := range m.statements {
			if _, err := s.Execute(ctx, stmt); err != nil {
				return MigrationResult{}, fmt.Errorf("migration v%d: %w", m.version, err)
			}
		}
		if m.apply != nil {
			if err := m.apply(ctx, s, existedBefore); err != nil {
				return MigrationResult{}, fmt.Errorf("migration v%d: %w", m.version, err)
			}
		}
		if m.recalcFingerprints {
			res.RecalcFingerprints = true
		}
		if m.updateIcons {
			res.UpdateIcons = true
		}

		if err := s.SetRawConfigInt(ctx, "dbversion", m.version); err != nil {
			return MigrationResult{}, fmt.Errorf("migration v%d: persisting version: %w", m.version, err)
		}
		version = m.version
	}

	return res, nil
}
