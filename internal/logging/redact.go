package logging

import (
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
)

const (
	redacted        = "[REDACTED]"
	redactedPattern = "[REDACTED:pattern]"
	maxPatternLen   = 200
)

// redactor decides what an encoded value becomes.
type redactor struct {
	keys     map[string]struct{}
	patterns []*regexp.Regexp
}

func compileRedactor(cfg RedactionConfig) (*redactor, error) {
	r := &redactor{keys: make(map[string]struct{}, len(cfg.Keys))}
	for _, k := range cfg.Keys {
		r.keys[strings.ToLower(k)] = struct{}{}
	}
	for _, p := range cfg.Patterns {
		if len(p) > maxPatternLen {
			return nil, fmt.Errorf("redaction pattern longer than %d characters", maxPatternLen)
		}
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid redaction pattern %q: %w", p, err)
		}
		r.patterns = append(r.patterns, re)
	}
	return r, nil
}

func (r *redactor) key(k string) bool {
	_, ok := r.keys[strings.ToLower(k)]
	return ok
}

// str returns the value to write for a string field.
func (r *redactor) str(k, v string) string {
	if r.key(k) {
		return redacted
	}
	for _, re := range r.patterns {
		if re.MatchString(v) {
			return redactedPattern
		}
	}
	return v
}

// redactingEncoder filters every field, including those added through
// With, before the wrapped encoder sees it.
type redactingEncoder struct {
	zapcore.Encoder
	r *redactor
}

func newRedactingEncoder(base zapcore.Encoder, cfg RedactionConfig) (zapcore.Encoder, error) {
	if !cfg.Enabled {
		return base, nil
	}
	r, err := compileRedactor(cfg)
	if err != nil {
		return nil, err
	}
	return &redactingEncoder{Encoder: base, r: r}, nil
}

func (e *redactingEncoder) AddString(k, v string) {
	e.Encoder.AddString(k, e.r.str(k, v))
}

func (e *redactingEncoder) AddByteString(k string, v []byte) {
	if s := e.r.str(k, string(v)); s != string(v) {
		e.Encoder.AddString(k, s)
		return
	}
	e.Encoder.AddByteString(k, v)
}

func (e *redactingEncoder) AddReflected(k string, v interface{}) error {
	if e.r.key(k) {
		e.Encoder.AddString(k, redacted)
		return nil
	}
	return e.Encoder.AddReflected(k, v)
}

func (e *redactingEncoder) AddObject(k string, v zapcore.ObjectMarshaler) error {
	if e.r.key(k) {
		e.Encoder.AddString(k, redacted)
		return nil
	}
	return e.Encoder.AddObject(k, v)
}

func (e *redactingEncoder) AddArray(k string, v zapcore.ArrayMarshaler) error {
	if e.r.key(k) {
		e.Encoder.AddString(k, redacted)
		return nil
	}
	return e.Encoder.AddArray(k, v)
}

func (e *redactingEncoder) Clone() zapcore.Encoder {
	return &redactingEncoder{Encoder: e.Encoder.Clone(), r: e.r}
}

// EncodeEntry applies per-call fields through the filtering methods; the
// wrapped encoder would otherwise add them to itself directly.
func (e *redactingEncoder) EncodeEntry(ent zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	c := &redactingEncoder{Encoder: e.Encoder.Clone(), r: e.r}
	for _, f := range fields {
		f.AddTo(c)
	}
	if ent.Message != "" {
		ent.Message = e.r.str("", ent.Message)
	}
	return c.Encoder.EncodeEntry(ent, nil)
}
