package i18n

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

//go:embed locales/active.*.toml
var embeddedLocales embed.FS

type Translations struct {
	bundle   *i18n.Bundle
	localize *i18n.Localizer
}

// NewTranslations builds the message bundle. An empty localesDir loads the
// catalogs compiled into the binary.
func NewTranslations(defaultLang string, localesDir string) (*Translations, error) {
	if defaultLang == "" {
		return nil, errors.New("language cannot be empty")
	}

	bundle := i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	var err error
	if localesDir == "" {
		err = loadEmbedded(bundle)
	} else {
		err = loadDir(bundle, localesDir)
	}
	if err != nil {
		return nil, err
	}

	return &Translations{
		bundle:   bundle,
		localize: i18n.NewLocalizer(bundle, defaultLang),
	}, nil
}

func loadEmbedded(bundle *i18n.Bundle) error {
	files, err := fs.Glob(embeddedLocales, "locales/active.*.toml")
	if err != nil {
		return fmt.Errorf("error reading embedded locales: %w", err)
	}
	for _, file := range files {
		data, err := embeddedLocales.ReadFile(file)
		if err != nil {
			return fmt.Errorf("error loading locale file %s: %w", file, err)
		}
		if _, err := bundle.ParseMessageFileBytes(data, path.Base(file)); err != nil {
			return fmt.Errorf("error loading locale file %s: %w", file, err)
		}
	}
	return nil
}

func loadDir(bundle *i18n.Bundle, dir string) error {
	files, err := filepath.Glob(filepath.Join(dir, "active.*.toml"))
	if err != nil {
		return fmt.Errorf("error reading locales: %w", err)
	}
	if len(files) == 0 {
		return errors.New("no translation files found")
	}

	for _, file := range files {
		if _, err := bundle.LoadMessageFile(file); err != nil {
			return fmt.Errorf("error loading locale file %s: %w", file, err)
		}
	}
	return nil
}

func (t *Translations) SetLanguage(lang string) error {
	for _, tag := range t.bundle.LanguageTags() {
		if tag.String() == lang {
			t.localize = i18n.NewLocalizer(t.bundle, lang)
			return nil
		}
	}
	return fmt.Errorf("language '%s' not supported", lang)
}

func (t *Translations) GetMessage(messageID string, count int, templateData interface{}) string {
	localized, err := t.localize.Localize(&i18n.LocalizeConfig{
		DefaultMessage: &i18n.Message{
			ID: messageID,
		},
		PluralCount:  count,
		TemplateData: templateData,
	})
	if err != nil {
		return "Translation missing: " + messageID
	}
	return localized
}
