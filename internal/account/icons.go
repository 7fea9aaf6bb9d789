// ABOUTME: Built-in synthetic avatar icons for the saved-messages chat and the device chat
// ABOUTME: Regenerated on fresh databases and whenever a migration changes avatar semantics

package account

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/2389/driftmail/internal/param"
)

const (
	savedMessagesIconName = "icon-saved-messages.svg"
	deviceChatIconName    = "icon-device-chat.svg"

	// reserved row ids from the base schema
	chatIDSavedMessages = 5
	contactIDDevice     = 5
)

const savedMessagesIcon = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 48 48">
<circle cx="24" cy="24" r="24" fill="#2196f3"/>
<path d="M17 12h14a2 2 0 0 1 2 2v22l-9-5-9 5V14a2 2 0 0 1 2-2z" fill="#fff"/>
</svg>
`

const deviceChatIcon = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 48 48">
<circle cx="24" cy="24" r="24" fill="#607d8b"/>
<rect x="15" y="11" width="18" height="26" rx="2" fill="#fff"/>
<rect x="21" y="32" width="6" height="2" rx="1" fill="#607d8b"/>
</svg>
`

// updateBuiltinIcons writes the two synthetic avatars into the blob
// directory and points the reserved saved-messages chat and device contact
// at them.
func (c *Context) updateBuiltinIcons(ctx context.Context) error {
	if err := c.setIcon(ctx, "chats", chatIDSavedMessages, savedMessagesIconName, savedMessagesIcon); err != nil {
		return fmt.Errorf("saved messages icon: %w", err)
	}
	if err := c.setIcon(ctx, "contacts", contactIDDevice, deviceChatIconName, deviceChatIcon); err != nil {
		return fmt.Errorf("device chat icon: %w", err)
	}
	return nil
}

// setIcon writes the icon blob and stores its $BLOBDIR reference in the
// profile-image parameter of the given row.
func (c *Context) setIcon(ctx context.Context, table string, rowID int64, name, data string) error {
	if err := os.WriteFile(filepath.Join(c.blobdir, name), []byte(data), 0o600); err != nil {
		return err
	}

	var raw string
	query := fmt.Sprintf("SELECT param FROM %s WHERE id=?;", table)
	if _, err := c.sql.QueryGetValue(ctx, &raw, query, rowID); err != nil {
		return err
	}

	p := param.Parse(raw)
	p.Set(param.ProfileImage, param.BlobDirPrefix+name)

	update := fmt.Sprintf("UPDATE %s SET param=? WHERE id=?;", table)
	_, err := c.sql.Execute(ctx, update, p.String(), rowID)
	return err
}
