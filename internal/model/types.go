// Package model defines the Bitwarden vault records consumed by the migration.
package model

import (
	"fmt"
	"strings"
)

// ItemType represents the kind of a Bitwarden vault item.
type ItemType int

const (
	// ItemTypeLogin is a username/password login.
	ItemTypeLogin ItemType = 1
	// ItemTypeSecureNote is a free-text secure note.
	ItemTypeSecureNote ItemType = 2
	// ItemTypeCard is a payment card.
	ItemTypeCard ItemType = 3
	// ItemTypeIdentity is a personal identity record.
	ItemTypeIdentity ItemType = 4
	// ItemTypeSSHKey is an SSH key pair.
	ItemTypeSSHKey ItemType = 5
)

// String returns the string representation of the ItemType.
func (t ItemType) String() string {
	switch t {
	case ItemTypeLogin:
		return "login"
	case ItemTypeSecureNote:
		return "secure-note"
	case ItemTypeCard:
		return "card"
	case ItemTypeIdentity:
		return "identity"
	case ItemTypeSSHKey:
		return "ssh-key"
	default:
		return fmt.Sprintf("unknown(%d)", int(t))
	}
}

// Valid reports whether t is one of the known item types.
func (t ItemType) Valid() bool {
	return t >= ItemTypeLogin && t <= ItemTypeSSHKey
}

// Migrated reports whether items of this type are copied into KeePass.
// Cards and identities have no sensible KeePass mapping and are skipped.
func (t ItemType) Migrated() bool {
	switch t {
	case ItemTypeLogin, ItemTypeSecureNote, ItemTypeSSHKey:
		return true
	default:
		return false
	}
}

// FieldType represents the kind of a custom field.
type FieldType int

const (
	// FieldTypeText is a plain text field.
	FieldTypeText FieldType = 0
	// FieldTypeHidden is a masked field.
	FieldTypeHidden FieldType = 1
	// FieldTypeBoolean is a checkbox field.
	FieldTypeBoolean FieldType = 2
	// FieldTypeLinked points at another field of the item.
	FieldTypeLinked FieldType = 3
)

// String returns the string representation of the FieldType.
func (t FieldType) String() string {
	switch t {
	case FieldTypeText:
		return "text"
	case FieldTypeHidden:
		return "hidden"
	case FieldTypeBoolean:
		return "boolean"
	case FieldTypeLinked:
		return "linked"
	default:
		return fmt.Sprintf("unknown(%d)", int(t))
	}
}

// Protected reports whether values of this field type must be stored as
// protected (in-memory encrypted) values.
func (t FieldType) Protected() bool {
	return t == FieldTypeHidden
}

// URIKind classifies a login URI.
type URIKind int

const (
	// URIKindWeb is a regular URL.
	URIKindWeb URIKind = iota
	// URIKindAndroidApp is an androidapp:// package identifier.
	URIKindAndroidApp
	// URIKindIOSApp is an iosapp:// bundle identifier.
	URIKindIOSApp
)

// String returns the string representation of the URIKind.
func (k URIKind) String() string {
	switch k {
	case URIKindWeb:
		return "web"
	case URIKindAndroidApp:
		return "android-app"
	case URIKindIOSApp:
		return "ios-app"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// ClassifyURI returns the kind of uri and, for app URIs, the identifier
// after the scheme. Web URIs are returned unchanged.
func ClassifyURI(uri string) (URIKind, string) {
	scheme, rest, ok := strings.Cut(uri, "://")
	if !ok {
		return URIKindWeb, uri
	}
	switch scheme {
	case "androidapp":
		return URIKindAndroidApp, rest
	case "iosapp":
		return URIKindIOSApp, rest
	default:
		return URIKindWeb, uri
	}
}
