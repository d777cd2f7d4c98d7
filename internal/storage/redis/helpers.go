package redis

import (
	"sort"

	"github.com/goodtune/screenbreak/internal/storage"
)

// settingsKey returns the hash key holding the custom settings mapping
func settingsKey(prefix string) string {
	if prefix == "" {
		prefix = "screenbreak"
	}
	return prefix + ":custom_settings"
}

// parseCustomSettings converts a Redis hash to CustomSettings
func parseCustomSettings(data map[string]string) storage.CustomSettings {
	settings := make(storage.CustomSettings, len(data))
	for field, value := range data {
		settings[field] = []byte(value)
	}
	return settings
}

// flattenCustomSettings converts CustomSettings to field/value script
// arguments in a stable order
func flattenCustomSettings(settings storage.CustomSettings) []interface{} {
	fields := make([]string, 0, len(settings))
	for field := range settings {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	args := make([]interface{}, 0, len(fields)*2)
	for _, field := range fields {
		args = append(args, field, string(settings[field]))
	}
	return args
}
