package mediastorage

// Option is a function that configures Options
type Option func(*Options)

// Options holds the engine-level configuration.
type Options struct {
	DefaultDisk string
	RootPath    string
	Clock       Clock
	Logger      Logger
	LogLevel    LogLevel
	PathPlanner PathPlanner
}

// WithDefaultDisk sets the storage area used when a create call does not
// name one.
func WithDefaultDisk(disk string) Option {
	return func(o *Options) {
		o.DefaultDisk = disk
	}
}

// WithDisk is an alias for WithDefaultDisk
func WithDisk(disk string) Option {
	return WithDefaultDisk(disk)
}

// WithRootPath sets the root directory all planned paths live under.
func WithRootPath(root string) Option {
	return func(o *Options) {
		o.RootPath = root
	}
}

// WithClock injects the clock used for date-based path segments.
func WithClock(clock Clock) Option {
	return func(o *Options) {
		o.Clock = clock
	}
}

// WithLogger injects a custom logger.
func WithLogger(logger Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

// WithLogLevel sets the level of the default logger.
func WithLogLevel(level LogLevel) Option {
	return func(o *Options) {
		o.LogLevel = level
	}
}

// WithPathPlanner replaces the default target path planner.
func WithPathPlanner(planner PathPlanner) Option {
	return func(o *Options) {
		o.PathPlanner = planner
	}
}
