package model

import (
	"time"
)

// Folder is a Bitwarden folder record. Nesting is encoded in Name with a
// delimiter; there is no parent reference.
//
// The "No Folder" bucket returned by `bw list folders` has a null id, which
// decodes to an empty ID.
type Folder struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// IsNoFolder reports whether f is the implicit "no folder" bucket.
func (f Folder) IsNoFolder() bool {
	return f.ID == ""
}

// Item is a single Bitwarden vault item.
type Item struct {
	ID             string       `json:"id"`
	OrganizationID string       `json:"organizationId"`
	FolderID       string       `json:"folderId"`
	Type           ItemType     `json:"type"`
	Name           string       `json:"name"`
	Notes          string       `json:"notes"`
	Favorite       bool         `json:"favorite"`
	Login          *Login       `json:"login,omitempty"`
	SecureNote     *SecureNote  `json:"secureNote,omitempty"`
	SSHKey         *SSHKey      `json:"sshKey,omitempty"`
	Fields         []Field      `json:"fields,omitempty"`
	Attachments    []Attachment `json:"attachments,omitempty"`
	CollectionIDs  []string     `json:"collectionIds"`
	CreationDate   string       `json:"creationDate"`
	RevisionDate   string       `json:"revisionDate"`
	Reprompt       int          `json:"reprompt"`
}

// Login holds the login data of an item.
type Login struct {
	URIs     []URI  `json:"uris"`
	Username string `json:"username"`
	Password string `json:"password"`
	TOTP     string `json:"totp"`
}

// URI is one URI entry of a login.
type URI struct {
	URI   string `json:"uri"`
	Match *int   `json:"match,omitempty"`
}

// SecureNote holds secure note metadata. The content lives in Item.Notes.
type SecureNote struct {
	Type int `json:"type"`
}

// SSHKey holds an SSH key pair.
type SSHKey struct {
	PrivateKey     string `json:"privateKey"`
	PublicKey      string `json:"publicKey"`
	KeyFingerprint string `json:"keyFingerprint"`
}

// Field is a custom field of an item.
type Field struct {
	Name     string    `json:"name"`
	Value    string    `json:"value"`
	Type     FieldType `json:"type"`
	LinkedID *int      `json:"linkedId,omitempty"`
}

// Attachment describes a file attached to an item. The content has to be
// fetched separately.
type Attachment struct {
	ID       string `json:"id"`
	FileName string `json:"fileName"`
	SizeName string `json:"sizeName"`
	URL      string `json:"url"`
}

// Username returns the login username or "" when the item is not a login.
func (it *Item) Username() string {
	if it.Login == nil {
		return ""
	}
	return it.Login.Username
}

// Password returns the login password or "" when the item is not a login.
func (it *Item) Password() string {
	if it.Login == nil {
		return ""
	}
	return it.Login.Password
}

// URIs returns the login URIs, nil when the item is not a login.
func (it *Item) URIs() []string {
	if it.Login == nil {
		return nil
	}
	out := make([]string, 0, len(it.Login.URIs))
	for _, u := range it.Login.URIs {
		out = append(out, u.URI)
	}
	return out
}

// TOTP returns the parsed TOTP seed, or nil when none is configured.
func (it *Item) TOTP() *TOTPSeed {
	if it.Login == nil || it.Login.TOTP == "" {
		return nil
	}
	return ParseTOTP(it.Login.TOTP)
}

// Created returns the item creation time, zero if absent or unparseable.
func (it *Item) Created() time.Time {
	return ParseTimestamp(it.CreationDate)
}

// Modified returns the item revision time, zero if absent or unparseable.
func (it *Item) Modified() time.Time {
	return ParseTimestamp(it.RevisionDate)
}

// ParseTimestamp parses an ISO 8601 timestamp string.
func ParseTimestamp(s string) time.Time {
	if s == "" {
		return time.Time{}
	}

	formats := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02",
	}

	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}

	return time.Time{}
}
