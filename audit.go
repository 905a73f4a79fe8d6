package goRevoke

import (
	"io"
	"time"

	"github.com/MrEthical07/goRevoke/internal/audit"
	"github.com/MrEthical07/goRevoke/jwt"
	"github.com/MrEthical07/goRevoke/revocation"
)

// AuditEvent is an exported constant or variable used by the revocation engine.
type AuditEvent = audit.Event

// AuditSink is an exported constant or variable used by the revocation engine.
type AuditSink = audit.Sink

// NoOpAuditSink is an exported constant or variable used by the revocation engine.
type NoOpAuditSink = audit.NoOpSink

// ChannelAuditSink is an exported constant or variable used by the revocation engine.
type ChannelAuditSink = audit.ChannelSink

// JSONWriterAuditSink is an exported constant or variable used by the revocation engine.
type JSONWriterAuditSink = audit.JSONWriterSink

// NewChannelAuditSink creates a channel-backed audit sink.
func NewChannelAuditSink(buffer int) *ChannelAuditSink {
	return audit.NewChannelSink(buffer)
}

// NewJSONWriterAuditSink creates a sink that writes one JSON line per event.
func NewJSONWriterAuditSink(w io.Writer) *JSONWriterAuditSink {
	return audit.NewJSONWriterSink(w)
}

// Audit event types emitted by the engine.
const (
	AuditRegister     = "register"
	AuditLogin        = "login"
	AuditRefresh      = "refresh"
	AuditAuthenticate = "authenticate"
	AuditLogout       = "logout"
	AuditLogoutAll    = "logout_all"
	AuditInvalidate   = "invalidate"
	AuditCheckToken   = "check_token"
	AuditReap         = "reap"
)

func (e *Engine) emitAudit(eventType, subjectID string, success bool, err error, kind string, reason string) {
	if e.audit == nil {
		return
	}
	event := AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		SubjectID: subjectID,
		TokenKind: kind,
		Reason:    reason,
		Success:   success,
	}
	if err != nil {
		event.Error = err.Error()
	}
	e.audit.Emit(event)
}

func auditKind(kind jwt.Kind) string {
	return string(kind)
}

func auditReason(reason revocation.Reason) string {
	switch reason {
	case revocation.ReasonLogout:
		return "logout"
	case revocation.ReasonLogoutAll:
		return "logout_all"
	case revocation.ReasonManual:
		return "manual"
	default:
		return "unknown"
	}
}
