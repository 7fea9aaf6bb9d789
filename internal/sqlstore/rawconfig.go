// ABOUTME: Typed key/value configuration stored in the config table
// ABOUTME: Strings, ints and bools as decimal text; bool false is stored as key absence

package sqlstore

import (
	"context"
	"strconv"
)

// SetRawConfig stores a configuration value. A nil value deletes the key.
// The update-or-insert is a check-then-act rather than an upsert so it works
// on engines without one.
func (s *Sql) SetRawConfig(ctx context.Context, key string, value *string) error {
	if !s.IsOpen() {
		return ErrNoConnection
	}

	if value == nil {
		_, err := s.Execute(ctx, "DELETE FROM config WHERE keyname=?;", key)
		return err
	}

	exists, err := s.Exists(ctx, "SELECT COUNT(*) FROM config WHERE keyname=?;", key)
	if err != nil {
		return err
	}
	if exists {
		_, err = s.Execute(ctx, "UPDATE config SET value=? WHERE keyname=?;", *value, key)
	} else {
		_, err = s.Execute(ctx, "INSERT INTO config (keyname, value) VALUES (?, ?);", key, *value)
	}
	return err
}

// GetRawConfig reads a configuration value. The second return is false when
// the key is absent.
func (s *Sql) GetRawConfig(ctx context.Context, key string) (string, bool, error) {
	if !s.IsOpen() || key == "" {
		return "", false, ErrNoConnection
	}
	var value string
	found, err := s.QueryGetValue(ctx, &value, "SELECT value FROM config WHERE keyname=?;", key)
	if err != nil {
		return "", false, err
	}
	return value, found, nil
}

// SetRawConfigInt stores an integer value as decimal text.
func (s *Sql) SetRawConfigInt(ctx context.Context, key string, value int) error {
	v := strconv.Itoa(value)
	return s.SetRawConfig(ctx, key, &v)
}

// GetRawConfigInt reads an integer value. Missing or unparsable values read
// back as absent, not as an error; malformed rows must never crash readers.
func (s *Sql) GetRawConfigInt(ctx context.Context, key string) (int, bool, error) {
	value, found, err := s.GetRawConfig(ctx, key)
	if err != nil || !found {
		return 0, false, err
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, false, nil
	}
	return n, true, nil
}

// SetRawConfigInt64 stores a 64-bit integer value as decimal text.
func (s *Sql) SetRawConfigInt64(ctx context.Context, key string, value int64) error {
	v := strconv.FormatInt(value, 10)
	return s.SetRawConfig(ctx, key, &v)
}

// GetRawConfigInt64 reads a 64-bit integer value, treating missing or
// unparsable values as absent.
func (s *Sql) GetRawConfigInt64(ctx context.Context, key string) (int64, bool, error) {
	value, found, err := s.GetRawConfig(ctx, key)
	if err != nil || !found {
		return 0, false, err
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, false, nil
	}
	return n, true, nil
}

// SetRawConfigBool stores a boolean value. True is stored as "1"; false is
// stored by deleting the key. Not the most obvious encoding, but it is a
// matter of backward compatibility with existing database files.
func (s *Sql) SetRawConfigBool(ctx context.Context, key string, value bool) error {
	if value {
		v := "1"
		return s.SetRawConfig(ctx, key, &v)
	}
	return s.SetRawConfig(ctx, key, nil)
}

// GetRawConfigBool reads a boolean value; absence reads back as false.
func (s *Sql) GetRawConfigBool(ctx context.Context, key string) (bool, error) {
	n, found, err := s.GetRawConfigInt(ctx, key)
	if err != nil {
		return false, err
	}
	return found && n > 0, nil
}
