package repository

// Option configures either store implementation.
type Option func(*options)

type options struct {
	historyLimit int
}

func defaultOptions() options {
	return options{historyLimit: 500}
}

// WithHistoryLimit caps the health snapshots kept per group. Older ones are
// pruned on save. Zero or negative keeps everything.
func WithHistoryLimit(n int) Option {
	return func(o *options) {
		o.historyLimit = n
	}
}
