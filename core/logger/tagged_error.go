package logger

import "errors"

// DefaultErrorTag is used for command failures nobody tagged
const DefaultErrorTag = "cli"

// TaggedError is a command failure annotated for the final log line: the
// logger tag it is reported under and, when known, the benchmark run and
// vendor it concerns.
type TaggedError struct {
	tag    string
	runID  string
	vendor string
	err    error
}

func (e *TaggedError) Error() string {
	if e == nil || e.err == nil {
		return ""
	}
	return e.err.Error()
}

func (e *TaggedError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.err
}

// Tag returns the associated logger tag.
func (e *TaggedError) Tag() string {
	if e == nil {
		return ""
	}
	return e.tag
}

// RunID returns the benchmark run the failure belongs to, if any
func (e *TaggedError) RunID() string {
	if e == nil {
		return ""
	}
	return e.runID
}

// Vendor returns the vendor the failure concerns, if any
func (e *TaggedError) Vendor() string {
	if e == nil {
		return ""
	}
	return e.vendor
}

// WithTag wraps err with a logger tag. If err is nil, nil is returned.
func WithTag(tag string, err error) error {
	return annotate(err, func(t *TaggedError) { t.tag = tag })
}

// WithRun records the benchmark run ID on err, keeping any tag or vendor
// already attached further down the chain.
func WithRun(runID string, err error) error {
	return annotate(err, func(t *TaggedError) { t.runID = runID })
}

// WithVendor records the vendor err concerns, keeping any tag or run ID
// already attached.
func WithVendor(vendor string, err error) error {
	return annotate(err, func(t *TaggedError) { t.vendor = vendor })
}

func annotate(err error, set func(*TaggedError)) error {
	if err == nil {
		return nil
	}
	wrapped := &TaggedError{err: err}
	if inner := taggedIn(err); inner != nil {
		wrapped.tag = inner.tag
		wrapped.runID = inner.runID
		wrapped.vendor = inner.vendor
	}
	set(wrapped)
	return wrapped
}

func taggedIn(err error) *TaggedError {
	var tagged *TaggedError
	if errors.As(err, &tagged) {
		return tagged
	}
	return nil
}

// ErrorTag extracts a logger tag from an error chain.
func ErrorTag(err error) string {
	return taggedIn(err).Tag()
}

// ErrorLogger returns the logger a command failure is reported with: tagged
// with the error's tag (DefaultErrorTag when untagged) and carrying the run
// ID and vendor as fields when they are known.
func ErrorLogger(err error) Logger {
	tagged := taggedIn(err)

	tag := tagged.Tag()
	if tag == "" {
		tag = DefaultErrorTag
	}
	log := New(tag)
	if runID := tagged.RunID(); runID != "" {
		log = log.With("run_id", runID)
	}
	if vendor := tagged.Vendor(); vendor != "" {
		log = log.With("vendor", vendor)
	}
	return log
}
