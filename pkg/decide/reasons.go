package decide

import (
	"fmt"
	"slices"
	"sync"
)

// Reasons accumulates the human-readable trail of a decision. Info messages
// are retained only when includeInfo is set; error messages are always kept.
type Reasons struct {
	mu          sync.Mutex
	includeInfo bool
	errors      []string
	infos       []string
}

// NewReasons creates an accumulator honouring opts.IncludeReasons.
func NewReasons(opts Options) *Reasons {
	return &Reasons{includeInfo: opts.IncludeReasons}
}

// NewDetailedReasons creates an accumulator that keeps every message. Inner
// evaluation steps use it and let the caller's Append apply the filter.
func NewDetailedReasons() *Reasons {
	return &Reasons{includeInfo: true}
}

// AddInfo formats and records an informational reason. The formatted message
// is returned so callers can reuse it for logging.
func (r *Reasons) AddInfo(format string, args ...any) string {
	msg := fmt.Sprintf(format, args...)
	if r == nil {
		return msg
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.includeInfo {
		r.infos = append(r.infos, msg)
	}
	return msg
}

// AddError formats and records an error reason.
func (r *Reasons) AddError(format string, args ...any) string {
	msg := fmt.Sprintf(format, args...)
	if r == nil {
		return msg
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors = append(r.errors, msg)
	return msg
}

// Append copies the reasons recorded in other into r, preserving order.
func (r *Reasons) Append(other *Reasons) {
	if r == nil || other == nil || r == other {
		return
	}
	other.mu.Lock()
	errs := slices.Clone(other.errors)
	infos := slices.Clone(other.infos)
	other.mu.Unlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors = append(r.errors, errs...)
	if r.includeInfo {
		r.infos = append(r.infos, infos...)
	}
}

// ToReport returns error reasons followed by info reasons.
func (r *Reasons) ToReport() []string {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	report := make([]string, 0, len(r.errors)+len(r.infos))
	report = append(report, r.errors...)
	return append(report, r.infos...)
}

// Errors returns only the error reasons.
func (r *Reasons) Errors() []string {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.errors)
}
