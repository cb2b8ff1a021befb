package driven

// ConfigStore provides persistent key-value configuration.
type ConfigStore interface {
	// Get retrieves a raw value by key.
	Get(key string) (any, bool)

	// GetString retrieves a string value, or "" if not set.
	GetString(key string) string

	// GetInt retrieves an integer value, or 0 if not set.
	GetInt(key string) int

	// GetFloat retrieves a float value, or 0 if not set.
	GetFloat(key string) float64

	// GetBool retrieves a boolean value, or false if not set.
	GetBool(key string) bool

	// Set stores a value by key.
	Set(key string, value any) error

	// Save persists the configuration.
	Save() error
}
