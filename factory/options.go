package factory

// Options control how a factory persists the instances it builds.
type Options struct {
	// GetOrCreate lists the model field names forming the lookup key for
	// GetOrCreate. Empty means every call creates a new row.
	GetOrCreate []string

	// BatchSize is the number of rows per INSERT statement during bulk
	// creation.
	BatchSize int

	// SkipHooks disables gorm hooks (BeforeCreate etc.) on the session
	// used for persistence. Factory signals still fire.
	SkipHooks bool
}

// Option mutates factory Options.
type Option func(*Options)

const defaultBatchSize = 100

func defaultOptions() Options {
	return Options{BatchSize: defaultBatchSize}
}

// WithGetOrCreate sets the lookup key fields for GetOrCreate.
func WithGetOrCreate(fields ...string) Option {
	return func(o *Options) {
		o.GetOrCreate = fields
	}
}

// WithBatchSize sets the rows-per-INSERT batch size.
func WithBatchSize(n int) Option {
	return func(o *Options) {
		if n > 0 {
			o.BatchSize = n
		}
	}
}

// WithSkipHooks disables gorm hooks during persistence.
func WithSkipHooks() Option {
	return func(o *Options) {
		o.SkipHooks = true
	}
}
