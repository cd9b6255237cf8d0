// Package history keeps the audit trail of executed service steps.
package history

import (
	"sync"
	"time"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r3"
)

// Record is one executed step. Optional fields are nil when the step did not
// produce them.
type Record struct {
	RunID  string    `json:"run_id,omitempty"`
	Step   string    `json:"step,omitempty"`
	Door   string    `json:"door,omitempty"`
	Action string    `json:"action"`
	Time   time.Time `json:"time"`

	Degrees             *float64 `json:"degrees,omitempty"`
	Duration            *float64 `json:"duration,omitempty"`
	Easing              *string  `json:"easing,omitempty"`
	TargetPosition      *r3.Vec  `json:"target_position,omitempty"`
	OriginalPosition    *r3.Vec  `json:"original_position,omitempty"`
	RotationAngle       *float64 `json:"rotation_angle,omitempty"`
	RotationAxis        *r3.Vec  `json:"rotation_axis,omitempty"`
	ExtractDirection    *r3.Vec  `json:"extract_direction,omitempty"`
	TranslationDistance *float64 `json:"translation_distance,omitempty"`

	// Skipped marks a step that produced no result and was passed over.
	Skipped bool `json:"skipped,omitempty"`
	// Message is the human-readable summary.
	Message string `json:"message"`
}

// Float returns a pointer to v for optional Record fields.
func Float(v float64) *float64 { return &v }

// String returns a pointer to v for optional Record fields.
func String(v string) *string { return &v }

// Vec returns a pointer to v for optional Record fields.
func Vec(v r3.Vec) *r3.Vec { return &v }

// Fields renders the record as zap fields.
func (r Record) Fields() []zap.Field {
	fields := []zap.Field{
		zap.String("action", r.Action),
		zap.String("message", r.Message),
	}
	if r.RunID != "" {
		fields = append(fields, zap.String("run_id", r.RunID))
	}
	if r.Step != "" {
		fields = append(fields, zap.String("step", r.Step))
	}
	if r.Door != "" {
		fields = append(fields, zap.String("door", r.Door))
	}
	if r.Degrees != nil {
		fields = append(fields, zap.Float64("degrees", *r.Degrees))
	}
	if r.Duration != nil {
		fields = append(fields, zap.Float64("duration", *r.Duration))
	}
	if r.TranslationDistance != nil {
		fields = append(fields, zap.Float64("translation_distance", *r.TranslationDistance))
	}
	if r.RotationAngle != nil {
		fields = append(fields, zap.Float64("rotation_angle", *r.RotationAngle))
	}
	if r.TargetPosition != nil {
		fields = append(fields, zap.Any("target_position", *r.TargetPosition))
	}
	if r.Skipped {
		fields = append(fields, zap.Bool("skipped", true))
	}
	return fields
}

// Log is an in-memory, append-only history safe for concurrent use. Every
// appended record is also written to the logger.
type Log struct {
	mu      sync.Mutex
	records []Record
	logger  *zap.Logger
	now     func() time.Time
}

// NewLog creates an empty log. A nil logger is replaced with a no-op logger.
func NewLog(logger *zap.Logger) *Log {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Log{logger: logger.With(zap.String("component", "history")), now: time.Now}
}

// Append stores r, stamping Time when it is zero.
func (l *Log) Append(r Record) {
	if r.Time.IsZero() {
		r.Time = l.now()
	}
	l.mu.Lock()
	l.records = append(l.records, r)
	l.mu.Unlock()

	if r.Skipped {
		l.logger.Warn("step skipped", r.Fields()...)
		return
	}
	l.logger.Info("step recorded", r.Fields()...)
}

// Records returns a copy of every record in append order.
func (l *Log) Records() []Record {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Record, len(l.records))
	copy(out, l.records)
	return out
}

// Run returns the records of one run.
func (l *Log) Run(runID string) []Record {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []Record
	for _, r := range l.records {
		if r.RunID == runID {
			out = append(out, r)
		}
	}
	return out
}

// Len returns the number of records.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records)
}

// Last returns the most recent record.
func (l *Log) Last() (Record, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.records) == 0 {
		return Record{}, false
	}
	return l.records[len(l.records)-1], true
}

// Clear drops every record.
func (l *Log) Clear() {
	l.mu.Lock()
	l.records = nil
	l.mu.Unlock()
}
