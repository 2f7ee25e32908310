package goSession

import (
	"context"
	"errors"
	"io"
	"time"

	internalaudit "github.com/MrEthical07/goSession/internal/audit"
	"github.com/MrEthical07/goSession/record"
	"github.com/MrEthical07/goSession/securestore"
)

// AuditEvent is a structured audit record emitted by the manager.
type AuditEvent = internalaudit.Event

// AuditSink receives [AuditEvent] values from the manager's audit dispatcher.
type AuditSink = internalaudit.Sink

// NoOpSink is an [AuditSink] that silently discards all events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink is a buffered channel-based [AuditSink].
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink is an [AuditSink] that writes JSON-encoded events to an [io.Writer].
type JSONWriterSink = internalaudit.JSONWriterSink

// NewChannelSink creates a [ChannelSink] with the given buffer capacity.
func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

// NewJSONWriterSink creates a [JSONWriterSink] that writes to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}

const (
	AuditInitCompleted          = "session_init_completed"
	AuditCacheRestored          = "session_cache_restored"
	AuditCacheExpired           = "session_cache_expired"
	AuditCacheCorrupt           = "session_cache_corrupt"
	AuditCacheUnavailable       = "session_cache_unavailable"
	AuditRemoteAccepted         = "session_remote_accepted"
	AuditRemoteFailed           = "session_remote_failed"
	AuditNotificationApplied    = "session_notification_applied"
	AuditNotificationRejected   = "session_notification_rejected"
	AuditSignedIn               = "session_signed_in"
	AuditSignedOut              = "session_signed_out"
	AuditSignOutRemoteFailed    = "session_signout_remote_failed"
	auditSourceInit             = "init"
	auditSourceNotification     = "notification"
	auditSourceSignIn           = "signin"
	auditSourceSignOut          = "signout"
	auditMetadataNotificationID = "notification_id"
	auditMetadataKind           = "kind"
	auditMetadataVersion        = "version"
)

// AuditErrorCode is the stable error classification written to AuditEvent.Error.
type AuditErrorCode string

const (
	auditErrNotFound    AuditErrorCode = "not_found"
	auditErrCorrupt     AuditErrorCode = "corrupt"
	auditErrMalformed   AuditErrorCode = "malformed"
	auditErrUnavailable AuditErrorCode = "backend_unavailable"
	auditErrTimeout     AuditErrorCode = "timeout"
	auditErrCanceled    AuditErrorCode = "canceled"
	auditErrSuperseded  AuditErrorCode = "superseded"
	auditErrInternal    AuditErrorCode = "internal_error"
)

func (m *Manager) emitAudit(
	eventType string,
	source string,
	success bool,
	s *record.Session,
	err error,
	metadataBuilder func() map[string]string,
) {
	if m == nil || m.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		Timestamp: m.now().UTC(),
		EventType: eventType,
		Source:    source,
		Success:   success,
		Metadata:  metadata,
	}
	if s != nil {
		event.Identity = s.Identity
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	m.audit.Emit(context.Background(), event)
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrSignInSuperseded):
		return auditErrSuperseded
	case errors.Is(err, securestore.ErrNotFound):
		return auditErrNotFound
	case errors.Is(err, securestore.ErrCorrupt):
		return auditErrCorrupt
	case errors.Is(err, record.ErrMalformed):
		return auditErrMalformed
	case errors.Is(err, context.DeadlineExceeded):
		return auditErrTimeout
	case errors.Is(err, context.Canceled):
		return auditErrCanceled
	case errors.Is(err, securestore.ErrUnavailable):
		return auditErrUnavailable
	default:
		return auditErrInternal
	}
}

func auditTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
