package model

import (
	"errors"
	"fmt"

	"github.com/nvinuesa/bw2kp/internal/security"
)

// Validation errors.
var (
	ErrMissingItemID   = errors.New("item ID is required")
	ErrUnknownItemType = errors.New("unknown item type")
	ErrMissingSSHKey   = errors.New("SSH private key is required")
)

// Validate checks that an item can be written to KeePass. It does not
// decide whether the item type is migrated; see ItemType.Migrated.
func (it *Item) Validate() error {
	if it.ID == "" {
		return ErrMissingItemID
	}
	if !it.Type.Valid() {
		return fmt.Errorf("%w: %d", ErrUnknownItemType, int(it.Type))
	}

	if err := security.CheckLength("name", it.Name, security.MaxTitleLength); err != nil {
		return err
	}
	if err := security.CheckLength("notes", it.Notes, security.MaxNotesLength); err != nil {
		return err
	}
	if err := security.CheckLength("username", it.Username(), security.MaxUsernameLength); err != nil {
		return err
	}
	if err := security.CheckLength("password", it.Password(), security.MaxPasswordLength); err != nil {
		return err
	}
	for _, u := range it.URIs() {
		if err := security.CheckURL(u); err != nil {
			return err
		}
	}

	for _, f := range it.Fields {
		if err := security.CheckLength("custom field name", f.Name, security.MaxCustomFieldKey); err != nil {
			return err
		}
		if err := security.CheckLength("custom field value", f.Value, security.MaxCustomFieldValue); err != nil {
			return err
		}
	}

	if len(it.Attachments) > security.MaxAttachmentCount {
		return &security.LimitError{What: "attachment count", Size: len(it.Attachments), Max: security.MaxAttachmentCount}
	}

	if it.Type == ItemTypeSSHKey && (it.SSHKey == nil || it.SSHKey.PrivateKey == "") {
		return ErrMissingSSHKey
	}

	return nil
}
