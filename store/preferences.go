package store

import "fyne.io/fyne/v2"

// PreferencesProvider stores values in the fyne application preferences.
type PreferencesProvider struct {
	prefs fyne.Preferences
}

// NewPreferencesProvider wraps prefs, usually fyne.App.Preferences().
func NewPreferencesProvider(prefs fyne.Preferences) *PreferencesProvider {
	return &PreferencesProvider{prefs: prefs}
}

// Get returns the preference string for key.
func (p *PreferencesProvider) Get(key string) (string, error) {
	return p.prefs.String(key), nil
}

// Set writes the preference string for key.
func (p *PreferencesProvider) Set(key, value string) error {
	p.prefs.SetString(key, value)
	return nil
}

var _ Provider = (*PreferencesProvider)(nil)
