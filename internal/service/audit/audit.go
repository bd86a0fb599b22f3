package audit

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/capilarmax/clinic-api/internal/model"
)

// Actions recorded in the audit trail.
const (
	ActionList           = "list"
	ActionRead           = "read"
	ActionCreate         = "create"
	ActionUpdate         = "update"
	ActionRecordVital    = "record_vital"
	ActionSchedule       = "schedule"
	ActionAddNote        = "add_note"
	ActionConsentReject  = "consent_reject"
	ActionConsentSign    = "consent_sign"
	ActionConsentDiscard = "consent_discard"
	ActionConsentExport  = "consent_export"
	ActionLogin          = "login"
	ActionSwitchClinic   = "switch_clinic"
)

type Config struct {
	Level       string
	OutputPaths []string
}

type LogOptions struct {
	Changes   interface{}
	Metadata  map[string]interface{}
	IPAddress string
	UserAgent string
	Redacted  bool
}

// RequestInfo identifies the client behind an audited call.
type RequestInfo struct {
	IPAddress string
	UserAgent string
	RequestID string
}

type requestInfoKey struct{}

// WithRequestInfo attaches client details that Log picks up when the call
// does not pass them explicitly.
func WithRequestInfo(ctx context.Context, info RequestInfo) context.Context {
	return context.WithValue(ctx, requestInfoKey{}, info)
}

func requestInfo(ctx context.Context) RequestInfo {
	if ctx == nil {
		return RequestInfo{}
	}
	info, _ := ctx.Value(requestInfoKey{}).(RequestInfo)
	return info
}

// Logger writes one structured entry per access to or change of patient
// data.
type Logger struct {
	z *zap.Logger
}

func New(z *zap.Logger) *Logger {
	return &Logger{z: z.Named("audit")}
}

// NewFromConfig builds a JSON zap logger writing to cfg.OutputPaths.
func NewFromConfig(cfg Config) (*Logger, error) {
	level := zap.InfoLevel
	if cfg.Level != "" {
		if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
			return nil, fmt.Errorf("invalid audit level %q: %w", cfg.Level, err)
		}
	}
	outputs := cfg.OutputPaths
	if len(outputs) == 0 {
		outputs = []string{"stdout"}
	}

	zcfg := zap.Config{
		Level:    zap.NewAtomicLevelAt(level),
		Encoding: "json",
		EncoderConfig: zapcore.EncoderConfig{
			TimeKey:        "time",
			LevelKey:       "level",
			NameKey:        "logger",
			MessageKey:     "msg",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    zapcore.LowercaseLevelEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			EncodeDuration: zapcore.StringDurationEncoder,
		},
		OutputPaths:      outputs,
		ErrorOutputPaths: []string{"stderr"},
	}
	z, err := zcfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build audit logger: %w", err)
	}
	return New(z), nil
}

// Nop discards every entry.
func Nop() *Logger {
	return New(zap.NewNop())
}

// Log records action on an entity by the session's user.
func (l *Logger) Log(ctx context.Context, sess *model.Session, action, entityType, entityID string, opts *LogOptions) {
	fields := []zap.Field{
		zap.String("action", action),
		zap.String("entity_type", entityType),
		zap.String("entity_id", entityID),
	}
	if sess != nil {
		fields = append(fields,
			zap.String("session_id", sess.ID),
			zap.String("user_id", sess.User.ID),
			zap.String("role", string(sess.User.Role)),
			zap.String("active_clinic", sess.ActiveClinicID),
		)
	}

	if opts == nil {
		opts = &LogOptions{}
	}
	info := requestInfo(ctx)
	ip, ua := opts.IPAddress, opts.UserAgent
	if ip == "" {
		ip, ua = info.IPAddress, info.UserAgent
	}
	if info.RequestID != "" {
		fields = append(fields, zap.String("request_id", info.RequestID))
	}
	if ip != "" {
		fields = append(fields, zap.String("ip_address", ip))
	}
	if ua != "" {
		fields = append(fields, zap.String("user_agent", ua))
	}
	if opts.Redacted {
		fields = append(fields, zap.Bool("redacted", true))
	}
	if opts.Changes != nil {
		fields = append(fields, zap.Any("changes", opts.Changes))
	}
	for k, v := range opts.Metadata {
		fields = append(fields, zap.Any(k, v))
	}

	l.z.Info("audit", fields...)
}

func (l *Logger) Sync() error {
	return l.z.Sync()
}
