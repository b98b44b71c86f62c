package config

// Reloadable is implemented by components that can apply configuration
// changes in place. The reloadable logger and middleware manager implement
// it so log level and middleware toggles follow the config file without a
// service restart.
type Reloadable interface {
	// OnConfigChange is called with the updated configuration section.
	// Implementations should validate it and apply changes atomically,
	// returning an error to reject the change.
	OnConfigChange(newConfig interface{}) error
}
