package i18n

import (
	"embed"
	"encoding/json"
	"errors"
	"sync"

	goi18n "github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

//go:embed locales/*.json
var localeFS embed.FS

var (
	mu     sync.RWMutex
	bundle *goi18n.Bundle
)

var errNotInitialised = errors.New("i18n: bundle not initialised, call Init first")

// Init builds the bundle from the embedded locale files.
func Init() {
	b := goi18n.NewBundle(language.English)
	b.RegisterUnmarshalFunc("json", json.Unmarshal)
	for _, name := range []string{"locales/active.en.json", "locales/active.fil.json"} {
		if _, err := b.LoadMessageFileFS(localeFS, name); err != nil {
			panic(err)
		}
	}

	mu.Lock()
	bundle = b
	mu.Unlock()
}

// Load merges an external message file (e.g. active.id.json) into the bundle.
func Load(path string) error {
	mu.Lock()
	defer mu.Unlock()
	if bundle == nil {
		return errNotInitialised
	}
	_, err := bundle.LoadMessageFile(path)
	return err
}

// T localizes messageID for the given Accept-Language style tags. Unknown ids
// fall back to the id itself so callers always get something printable.
func T(lang, messageID string, data map[string]interface{}) string {
	mu.RLock()
	b := bundle
	mu.RUnlock()
	if b == nil {
		return messageID
	}

	loc := goi18n.NewLocalizer(b, lang, "en")
	msg, err := loc.Localize(&goi18n.LocalizeConfig{
		MessageID:    messageID,
		TemplateData: data,
	})
	if err != nil {
		return messageID
	}
	return msg
}
