package i18n

import (
	"log"
	"os"
	"strings"

	"github.com/jeandeaual/go-locale"
)

// EnvLang overrides the detected language.
const EnvLang = "COUNTDOWN_LANG"

var lang string

var supported = []string{"pt", "es", "ru"}

var translations = map[string]map[string]string{
	"mm:ss or seconds": {
		"pt": "mm:ss ou segundos",
		"es": "mm:ss o segundos",
		"ru": "мм:сс или секунды",
	},
	"Play all": {
		"pt": "Iniciar todos",
		"es": "Iniciar todos",
		"ru": "Запустить все",
	},
	"Pause": {
		"pt": "Pausar",
		"es": "Pausar",
		"ru": "Пауза",
	},
	"Resume": {
		"pt": "Continuar",
		"es": "Reanudar",
		"ru": "Продолжить",
	},
	"Restart": {
		"pt": "Reiniciar",
		"es": "Reiniciar",
		"ru": "Перезапуск",
	},
	"Freeze": {
		"pt": "Congelar",
		"es": "Congelar",
		"ru": "Заморозить",
	},
	"Remove all": {
		"pt": "Remover todos",
		"es": "Eliminar todos",
		"ru": "Удалить все",
	},
	"Remove all timers? Stored countdowns are lost.": {
		"pt": "Remover todos os timers? As contagens salvas serão perdidas.",
		"es": "¿Eliminar todos los temporizadores? Se perderán las cuentas guardadas.",
		"ru": "Удалить все таймеры? Сохранённые отсчёты будут потеряны.",
	},
	"Overview": {
		"pt": "Resumo",
		"es": "Resumen",
		"ru": "Обзор",
	},
	"Timed out": {
		"pt": "Tempo esgotado",
		"es": "Tiempo agotado",
		"ru": "Время вышло",
	},
	"Close": {
		"pt": "Fechar",
		"es": "Cerrar",
		"ru": "Закрыть",
	},
}

func init() {
	if forcedLang := strings.TrimSpace(os.Getenv(EnvLang)); forcedLang != "" {
		log.Printf("%s is set to: '%s'", EnvLang, forcedLang)
		lang = normalize(forcedLang)
		return
	}

	userLocales, err := locale.GetLocales()
	if err != nil {
		log.Println("Could not get user locale, defaulting to english")
		lang = "en"
		return
	}

	if len(userLocales) == 0 {
		log.Println("No user locale detected, defaulting to english")
		lang = "en"
		return
	}
	log.Printf("Detected user locale: %s", userLocales[0])
	lang = normalize(userLocales[0])
	log.Printf("Language set to: %s", lang)
}

// normalize maps a locale such as "pt_BR" or "es-419" to a supported language,
// falling back to english.
func normalize(l string) string {
	l = strings.ToLower(l)
	for _, s := range supported {
		if strings.HasPrefix(l, s) {
			return s
		}
	}
	return "en"
}

// T returns the translation of key, or key itself.
func T(key string) string {
	if translated, ok := translations[key][lang]; ok {
		return translated
	}
	return key
}

// SetLang forces the language. An empty value keeps the detected one.
func SetLang(l string) {
	if l = strings.TrimSpace(l); l != "" {
		lang = normalize(l)
	}
}

func GetLang() string {
	return lang
}
