package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := map[string]string{
		"pt_BR":  "pt",
		"es-419": "es",
		"RU":     "ru",
		"de_DE":  "en",
		"":       "en",
	}
	for in, want := range tests {
		assert.Equal(t, want, normalize(in), "locale %q", in)
	}
}

func TestT(t *testing.T) {
	prev := GetLang()
	t.Cleanup(func() { lang = prev })

	SetLang("es")
	assert.Equal(t, "es", GetLang())
	assert.Equal(t, "Reanudar", T("Resume"))
	assert.Equal(t, "Missing key", T("Missing key"))

	SetLang("")
	assert.Equal(t, "es", GetLang(), "empty keeps the current language")

	SetLang("fr")
	assert.Equal(t, "Resume", T("Resume"))
}
