package logging

// Attempt runs a best-effort platform call and reports whether it succeeded.
// Failures are logged at debug level and otherwise swallowed; moderation and
// bulk-job code count the outcome instead of propagating the error.
func Attempt(what string, fn func() error) bool {
	if err := fn(); err != nil {
		Debug("[ATTEMPT] %s failed: %v", what, err)
		return false
	}
	return true
}
