package config

import (
	"github.com/knadh/koanf/providers/confmap"
)

func DefaultConfig() map[string]interface{} {
	return map[string]interface{}{
		"storage": map[string]interface{}{
			"backend": BackendJSON,
			"dir":     "~/.todo-alarm",
			"key":     "todos",
			"db_file": "todo-alarm.db",
		},
		"alarm": map[string]interface{}{
			"poll_interval_ms": 1000,
			"reset_policy":     "session", // session | daily
		},
		"audio": map[string]interface{}{
			"source":           "",
			"command":          "", // e.g. "paplay {file}" or "afplay {file}"; empty rings the terminal bell
			"cache_dir":        "~/.todo-alarm/audio",
			"bell_interval_ms": 2000,
		},
		"ui": map[string]interface{}{
			"colored_output": true,
		},
		"log": map[string]interface{}{
			"level":  "info",
			"format": "console",
			"file":   "~/.todo-alarm/todo-alarm.log",
		},
		"watch": map[string]interface{}{
			"enabled":     true,
			"debounce_ms": 300,
		},
		"notify": map[string]interface{}{
			"telegram": map[string]interface{}{
				"bot_token": "",
				"chat_id":   "",
			},
		},
	}
}

func NewDefaultProvider() *confmap.Confmap {
	return confmap.Provider(DefaultConfig(), ".")
}

func GetDefaultConfigPath() string {
	return "~/.todo-alarm/config.yaml"
}
