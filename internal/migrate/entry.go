package migrate

import (
	"context"
	"fmt"

	"github.com/nvinuesa/bw2kp/internal/keepass"
	"github.com/nvinuesa/bw2kp/internal/logger"
	"github.com/nvinuesa/bw2kp/internal/model"
	"github.com/nvinuesa/bw2kp/internal/security"
	"github.com/nvinuesa/bw2kp/internal/sources"
)

// Custom property names written for Bitwarden data that has no standard
// KeePass field.
const (
	PropTOTPSeed     = "TOTP Seed"
	PropTOTPSettings = "TOTP Settings"
	PropPrivateKey   = "Private Key"
	PropPublicKey    = "Public Key"
	PropFingerprint  = "Fingerprint"
	PropAndroidApp   = "AndroidApp"

	// TagFavorite marks items starred in Bitwarden.
	TagFavorite = "Favorite"
)

type migrator struct {
	vault  Vault
	store  Store
	groups map[string]keepass.GroupRef
	log    *logger.Logger
}

func (m *migrator) importItem(ctx context.Context, item *model.Item) error {
	if err := item.Validate(); err != nil {
		return err
	}

	group, ok := m.groups[item.FolderID]
	if !ok {
		m.log.Warnf("Item %q references unknown folder %s; placing it in the root group.", item.Name, item.FolderID)
		group = m.store.Root()
	}

	e, err := m.convert(ctx, item)
	if err != nil {
		return err
	}

	if m.store.HasEntry(group, e.Title, e.UserName) {
		e.Title = DuplicateTitle(item)
	}

	if err := m.store.AddEntry(group, e); err != nil {
		return err
	}
	m.log.Debugf("Imported %s item %q.", item.Type, e.Title)
	return nil
}

// DuplicateTitle is the entry title used when the item name is already taken
// by an entry with the same username in the same group.
func DuplicateTitle(item *model.Item) string {
	return fmt.Sprintf("%s - (%s)", item.Name, item.ID)
}

func (m *migrator) convert(ctx context.Context, item *model.Item) (*keepass.Entry, error) {
	e := &keepass.Entry{
		ID:       item.ID,
		Title:    item.Name,
		UserName: item.Username(),
		Password: item.Password(),
		Notes:    item.Notes,
		Created:  item.Created(),
		Modified: item.Modified(),
	}
	if item.Favorite {
		e.Tags = append(e.Tags, TagFavorite)
	}

	if seed := item.TOTP(); seed != nil {
		e.Set(PropTOTPSeed, seed.Secret, true)
		e.Set(PropTOTPSettings, seed.Settings(), false)
	}

	setURLs(e, item.URIs())

	for _, f := range item.Fields {
		e.Set(f.Name, f.Value, f.Type.Protected())
	}

	if item.Type == model.ItemTypeSSHKey && item.SSHKey != nil {
		e.Set(PropPrivateKey, item.SSHKey.PrivateKey, true)
		if item.SSHKey.PublicKey != "" {
			e.Set(PropPublicKey, item.SSHKey.PublicKey, false)
		}
		if item.SSHKey.KeyFingerprint != "" {
			e.Set(PropFingerprint, item.SSHKey.KeyFingerprint, false)
		}
	}

	for _, a := range item.Attachments {
		data, err := m.vault.Attachment(ctx, item.ID, a.ID)
		if err != nil {
			if sources.IsUnsupported(err) {
				m.log.Warnf("Attachment %q of item %q was not copied: %v", a.FileName, item.Name, err)
				continue
			}
			return nil, fmt.Errorf("attachment %q: %w", a.FileName, err)
		}
		if security.IsExecutable(a.FileName) {
			m.log.Warnf("Attachment %q of item %q has an executable file extension.", a.FileName, item.Name)
		}
		e.Attachments = append(e.Attachments, keepass.Attachment{Name: a.FileName, Data: data})
	}

	return e, nil
}

// setURLs maps login URIs onto the entry. The first web URI is the entry URL
// and later ones become URL_1, URL_2, ... Android apps become AndroidApp,
// AndroidApp_1, ... and iOS apps "iOS app #1", "iOS app #2", ...
func setURLs(e *keepass.Entry, uris []string) {
	var android, ios, extra int
	urlSet := false

	for _, uri := range uris {
		if uri == "" {
			continue
		}
		kind, value := model.ClassifyURI(uri)
		switch kind {
		case model.URIKindAndroidApp:
			key := PropAndroidApp
			if android > 0 {
				key = fmt.Sprintf("%s_%d", PropAndroidApp, android)
			}
			android++
			e.Set(key, value, false)
		case model.URIKindIOSApp:
			ios++
			e.Set(fmt.Sprintf("iOS app #%d", ios), value, false)
		default:
			if !urlSet {
				e.URL = value
				urlSet = true
				continue
			}
			extra++
			e.Set(fmt.Sprintf("URL_%d", extra), value, false)
		}
	}
}
