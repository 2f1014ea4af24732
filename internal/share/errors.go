// Package share authenticates against the benchmark results service and
// uploads finished reports. Authentication uses a device-code flow; tokens
// persist locally with their expiry and are never refreshed implicitly, so
// an expired token surfaces to the caller for explicit re-authentication.
package share

import "fmt"

// AuthErrorKind classifies credential failures.
type AuthErrorKind string

// Auth failure kinds.
const (
	AuthExpired AuthErrorKind = "expired"
	AuthDenied  AuthErrorKind = "denied"
	AuthTimeout AuthErrorKind = "timeout"
)

// AuthError reports a credential problem. The caller is expected to run the
// login flow again; nothing is retried implicitly.
type AuthError struct {
	Kind   AuthErrorKind
	Detail string
}

func (e *AuthError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("auth: %s", e.Kind)
	}
	return fmt.Sprintf("auth: %s: %s", e.Kind, e.Detail)
}

// UploadError reports a transport or server rejection during upload. The
// report stays in the local store, so the user retries the upload without
// rerunning the matrix.
type UploadError struct {
	StatusCode int
	Detail     string
}

func (e *UploadError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("upload: %s", e.Detail)
	}
	return fmt.Sprintf("upload: server returned %d: %s", e.StatusCode, e.Detail)
}
