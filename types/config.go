/* Copyright © 2025 The TaskTide Authors */
package types

// AppConfig represents the complete application configuration
type AppConfig struct {
	Verbose bool   `mapstructure:"verbose"`
	Config  string `mapstructure:"config"`

	Project       ProjectConfig       `mapstructure:"project" validate:"required"`
	Data          DataConfig          `mapstructure:"data" validate:"required"`
	Calendar      CalendarConfig      `mapstructure:"calendar"`
	Suggestions   SuggestionsConfig   `mapstructure:"suggestions"`
	Notifications NotificationsConfig `mapstructure:"notifications"`
	Watch         WatchConfig         `mapstructure:"watch"`
	AI            AIConfig            `mapstructure:"ai"`
}

// ProjectConfig holds project-level paths. Everything TaskTide persists lives
// under RootDir.
type ProjectConfig struct {
	RootDir string `mapstructure:"rootDir" validate:"required"`
}

// DataConfig holds task storage configuration.
type DataConfig struct {
	File   string `mapstructure:"file" validate:"required"`
	Format string `mapstructure:"format" validate:"required,oneof=json yaml toml"`
}

// CalendarConfig controls calendar synchronization.
type CalendarConfig struct {
	// SyncEnabled turns the bidirectional sync passes on.
	SyncEnabled bool `mapstructure:"syncEnabled"`
	// DBFile is the local calendar mirror (SQLite). Empty runs an in-memory
	// calendar, useful for trying the sync flow without a real calendar.
	DBFile string `mapstructure:"dbFile"`
	// BusyOnly pushes placeholder event titles instead of task content.
	BusyOnly bool `mapstructure:"busyOnly"`
	// CompletionPolicy is what happens to a linked event when its task is
	// completed: keep (mark the title) or delete.
	CompletionPolicy string `mapstructure:"completionPolicy" validate:"omitempty,oneof=keep delete"`
}

// SuggestionsConfig tunes the ranking output.
type SuggestionsConfig struct {
	// TopPicks is how many diverse suggestions `next` shows.
	TopPicks int `mapstructure:"topPicks" validate:"omitempty,min=1,max=10"`
}

// NotificationsConfig controls reminder and conflict notifications.
type NotificationsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// WatchConfig tunes the background reconciler.
type WatchConfig struct {
	// DebounceMs is the quiet period applied to change bursts.
	DebounceMs int `mapstructure:"debounceMs" validate:"omitempty,min=50,max=10000"`
	// SnoozeSweepSeconds is how often expired snoozes are swept.
	SnoozeSweepSeconds int `mapstructure:"snoozeSweepSeconds" validate:"omitempty,min=5,max=3600"`
}

// AIConfig holds configuration for the optional suggestion decorator. The
// ranking itself never depends on it.
type AIConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	BaseURL   string `mapstructure:"baseUrl" validate:"omitempty,url"`
	ModelName string `mapstructure:"modelName" validate:"omitempty,min=1"`
	APIKey    string `mapstructure:"apiKey"`
	// RequestTimeoutSeconds controls the HTTP client timeout for decorator calls
	RequestTimeoutSeconds int `mapstructure:"requestTimeoutSeconds" validate:"omitempty,min=5,max=600"`
}
