// ABOUTME: Base table set created for brand-new database files
// ABOUTME: Everything past this baseline is applied by the versioned migrations

package sqlstore

// baseSchema is the version-0 structure. The reserved contact and chat rows
// (self contact id 1, trash chat id 3, ...) are part of the baseline and are
// referenced by id throughout the code.
var baseSchema = []string{
	`CREATE TABLE config (id INTEGER PRIMARY KEY, keyname TEXT, value TEXT);`,
	`CREATE INDEX config_index1 ON config (keyname);`,

	`CREATE TABLE contacts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT DEFAULT '',
		addr TEXT DEFAULT '' COLLATE NOCASE,
		origin INTEGER DEFAULT 0,
		blocked INTEGER DEFAULT 0,
		last_seen INTEGER DEFAULT 0,
		param TEXT DEFAULT '');`,
	`CREATE INDEX contacts_index1 ON contacts (name COLLATE NOCASE);`,
	`CREATE INDEX contacts_index2 ON contacts (addr COLLATE NOCASE);`,
	`INSERT INTO contacts (id,name,origin) VALUES
		(1,'self',262144), (2,'info',262144), (3,'rsvd',262144),
		(4,'rsvd',262144), (5,'device',262144), (6,'rsvd',262144),
		(7,'rsvd',262144), (8,'rsvd',262144), (9,'rsvd',262144);`,

	`CREATE TABLE chats (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		type INTEGER DEFAULT 0,
		name TEXT DEFAULT '',
		draft_timestamp INTEGER DEFAULT 0,
		draft_txt TEXT DEFAULT '',
		blocked INTEGER DEFAULT 0,
		grpid TEXT DEFAULT '',
		param TEXT DEFAULT '');`,
	`CREATE INDEX chats_index1 ON chats (grpid);`,
	`CREATE TABLE chats_contacts (chat_id INTEGER, contact_id INTEGER);`,
	`CREATE INDEX chats_contacts_index1 ON chats_contacts (chat_id);`,
	`INSERT INTO chats (id,type,name) VALUES
		(1,120,'deaddrop'), (2,120,'rsvd'), (3,120,'trash'),
		(4,120,'msgs_in_creation'), (5,120,'starred'), (6,120,'archivedlink'),
		(7,100,'rsvd'), (8,100,'rsvd'), (9,100,'rsvd');`,

	`CREATE TABLE msgs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		rfc724_mid TEXT DEFAULT '',
		server_folder TEXT DEFAULT '',
		server_uid INTEGER DEFAULT 0,
		chat_id INTEGER DEFAULT 0,
		from_id INTEGER DEFAULT 0,
		to_id INTEGER DEFAULT 0,
		timestamp INTEGER DEFAULT 0,
		type INTEGER DEFAULT 0,
		state INTEGER DEFAULT 0,
		msgrmsg INTEGER DEFAULT 1,
		bytes INTEGER DEFAULT 0,
		txt TEXT DEFAULT '',
		txt_raw TEXT DEFAULT '',
		param TEXT DEFAULT '');`,
	`CREATE INDEX msgs_index1 ON msgs (rfc724_mid);`,
	`CREATE INDEX msgs_index2 ON msgs (chat_id);`,
	`CREATE INDEX msgs_index3 ON msgs (timestamp);`,
	`CREATE INDEX msgs_index4 ON msgs (state);`,

	`CREATE TABLE jobs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		added_timestamp INTEGER,
		desired_timestamp INTEGER DEFAULT 0,
		action INTEGER,
		foreign_id INTEGER,
		param TEXT DEFAULT '');`,
	`CREATE INDEX jobs_index1 ON jobs (desired_timestamp);`,
}
