// Package guard decides whether a view may render for the current session.
package guard

const (
	PathDashboard         = "/dashboard"
	PathLogin             = "/auth/login"
	PathLearningStyleTest = "/learning-style-test"
)

type Kind string

const (
	Allow    Kind = "allow"
	Redirect Kind = "redirect"
	// Pending means the inputs needed to decide have not resolved yet. It is never a denial.
	Pending Kind = "pending"
)

type Decision struct {
	Kind Kind   `json:"kind"`
	Path string `json:"path,omitempty"`
}

func allow() Decision               { return Decision{Kind: Allow} }
func pending() Decision             { return Decision{Kind: Pending} }
func redirect(path string) Decision { return Decision{Kind: Redirect, Path: path} }

// State is what a guard is allowed to look at.
type State struct {
	Authenticated            bool     `json:"authenticated"`
	LoadingAuth              bool     `json:"loadingAuth"`
	RolesLoaded              bool     `json:"rolesLoaded"`
	Roles                    []string `json:"roles"`
	ProfileLoaded            bool     `json:"profileLoaded"`
	HasAssignedLearningStyle bool     `json:"hasAssignedLearningStyle"`
}

func (s State) hasAnyRole(allowed []string) bool {
	for _, want := range allowed {
		for _, have := range s.Roles {
			if have == want {
				return true
			}
		}
	}
	return false
}

// Public is for views only anonymous visitors should see.
func Public(s State) Decision {
	if s.LoadingAuth {
		return pending()
	}
	if s.Authenticated {
		return redirect(PathDashboard)
	}
	return allow()
}

func AuthOnly(s State) Decision {
	if s.LoadingAuth {
		return pending()
	}
	if !s.Authenticated {
		return redirect(PathLogin)
	}
	return allow()
}

// Dashboard lets admins through unconditionally and sends everyone else to the
// learning-style test until a style is assigned. Unresolved roles or an unresolved profile are
// Pending, not "no roles" or "no style".
func Dashboard(s State) Decision {
	if s.LoadingAuth {
		return pending()
	}
	if !s.Authenticated {
		return redirect(PathLogin)
	}
	if !s.RolesLoaded {
		return pending()
	}
	if s.hasAnyRole([]string{"admin"}) {
		return allow()
	}
	if !s.ProfileLoaded {
		return pending()
	}
	if !s.HasAssignedLearningStyle {
		return redirect(PathLearningStyleTest)
	}
	return allow()
}

// Role allows sessions holding any of allowed roles. Others go to fallback, or the dashboard
// when fallback is empty.
func Role(allowed []string, fallback string) func(State) Decision {
	if fallback == "" {
		fallback = PathDashboard
	}
	return func(s State) Decision {
		if s.LoadingAuth {
			return pending()
		}
		if !s.Authenticated {
			return redirect(PathLogin)
		}
		if !s.RolesLoaded {
			return pending()
		}
		if s.hasAnyRole(allowed) {
			return allow()
		}
		return redirect(fallback)
	}
}

// ForView resolves a view name to its guard. ok is false for unknown views.
func ForView(view string) (fn func(State) Decision, ok bool) {
	switch view {
	case "public":
		return Public, true
	case "auth":
		return AuthOnly, true
	case "dashboard":
		return Dashboard, true
	case "admin":
		return Role([]string{"admin"}, PathDashboard), true
	}
	return nil, false
}
