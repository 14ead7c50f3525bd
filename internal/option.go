package internal

// Option configures the daemon assembled by Run.
type Option func(*application)

type application struct {
	config *Config
}

// WithConfig supplies the loaded daemon configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}
