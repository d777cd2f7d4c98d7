package redis

const (
	// replaceSettingsScript atomically replaces the custom settings hash
	replaceSettingsScript = `
local settings_key = KEYS[1]   -- {prefix}:custom_settings

-- Drop the previous mapping
redis.call('DEL', settings_key)

-- ARGV holds field/value pairs
for i = 1, #ARGV, 2 do
  redis.call('HSET', settings_key, ARGV[i], ARGV[i + 1])
end

return 'OK'
`
)
