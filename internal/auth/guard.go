package auth

// Decision is the outcome of checking a command against the session.
type Decision int

const (
	Allow Decision = iota
	// RequireLogin means the command needs a session and there is none.
	RequireLogin
	// AlreadyLoggedIn means a login was asked for while a session exists.
	AlreadyLoggedIn
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case RequireLogin:
		return "require-login"
	case AlreadyLoggedIn:
		return "already-logged-in"
	}
	return "unknown"
}

// Decide applies the guard rule: protected commands need a session, and
// the login command is a no-op while one exists.
func Decide(requiresAuth, isLogin, authenticated bool) Decision {
	switch {
	case requiresAuth && !authenticated:
		return RequireLogin
	case isLogin && authenticated:
		return AlreadyLoggedIn
	}
	return Allow
}
