package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# Edgeday Journal Configuration

[journal]
# Identifier for this journal's owner
user_id = "local"
# Journal database path (defaults to <config dir>/journal.db)
db_path = ""
# Directory for daily wrap reports (defaults to <config dir>/reports)
report_dir = ""
# Directory for the offline bias cache (defaults to <config dir>/cache)
cache_dir = ""
# Local time for the automatic daily wrap, HH:MM
daily_wrap_time = "21:00"

[backend]
# Bias-state backend database path (defaults to <config dir>/backend.db)
db_path = ""
# Tier provisioning flags. Disable to exercise the fallback cascade locally.
rpc_provisioned = true
view_provisioned = true
table_provisioned = true

[ui]
# Enable colored output
color_enabled = true
# Date format
date_format = "02-Jan-2006"
# Time format
time_format = "15:04:05"

[notifications]
# Enable notifications
enabled = false
# Notification level: all, wraps_only, errors_only
level = "all"

[notifications.webhook]
enabled = false
url = ""

[logging]
# Log level: debug, info, warn, error
level = "info"
console = true
file = true
# Log file path (defaults to <config dir>/logs/edgeday.log)
file_path = ""
max_size = 100
max_backups = 7
max_age = 30
`

func createTemplateConfig(configDir, name string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, name+".toml")
	if err := os.WriteFile(path, []byte(configTemplate), 0644); err != nil {
		return fmt.Errorf("writing config template: %w", err)
	}

	return fmt.Errorf("config file not found, created template at %s", path)
}
