package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyCollection = "collection"
	KeyDocument   = "document"
	KeyAction     = "action"
	KeyDurationMS = "duration_ms"
	KeyError      = "error"
	KeyMethod     = "method"
	KeyPath       = "path"
	KeyStatus     = "status"
	KeyRequestID  = "request_id"
	KeyRemoteAddr = "remote_addr"
	KeyUserAgent  = "user_agent"
	KeySubject    = "subject"
	KeyURL        = "url"
	KeyJobID      = "job_id"
	KeyJobName    = "job_name"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func Collection(c string) slog.Attr   { return slog.String(KeyCollection, c) }
func Document(d string) slog.Attr     { return slog.String(KeyDocument, d) }
func Action(a string) slog.Attr       { return slog.String(KeyAction, a) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Method(m string) slog.Attr       { return slog.String(KeyMethod, m) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Status(s int) slog.Attr          { return slog.Int(KeyStatus, s) }
func RequestID(id string) slog.Attr   { return slog.String(KeyRequestID, id) }
func RemoteAddr(a string) slog.Attr   { return slog.String(KeyRemoteAddr, a) }
func UserAgent(ua string) slog.Attr   { return slog.String(KeyUserAgent, ua) }
func Subject(s string) slog.Attr      { return slog.String(KeySubject, s) }
func URL(u string) slog.Attr          { return slog.String(KeyURL, u) }
func JobID(id string) slog.Attr       { return slog.String(KeyJobID, id) }
func JobName(n string) slog.Attr      { return slog.String(KeyJobName, n) }

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
