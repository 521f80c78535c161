package auth

// Action is the outcome of a guard evaluation.
type Action int

const (
	// Pending means session resolution has not finished; the caller should
	// show a loading state and must not treat this as either allow or deny.
	Pending Action = iota
	Proceed
	RedirectToLogin
	RedirectToHome
)

func (a Action) String() string {
	switch a {
	case Pending:
		return "pending"
	case Proceed:
		return "proceed"
	case RedirectToLogin:
		return "redirect-login"
	case RedirectToHome:
		return "redirect-home"
	}
	return "unknown"
}

// Requirements describe what a navigation target demands.
type Requirements struct {
	RequireAuth  bool
	RequireAgent bool
	RequireAdmin bool
}

// Decision is a pure routing verdict; the caller performs the navigation.
// From carries the originally requested path on RedirectToLogin so the login
// flow can return the user afterward.
type Decision struct {
	Action Action
	From   string
}

// Guard evaluates requirements against a snapshot. Rules are checked in
// order: pending resolution, authentication, agent capability, admin role.
// Absent or malformed principal data degrades to unauthenticated.
func Guard(resolving bool, snap Snapshot, path string, req Requirements) Decision {
	if resolving {
		return Decision{Action: Pending}
	}
	if req.RequireAuth && !snap.IsAuthenticated() {
		return Decision{Action: RedirectToLogin, From: path}
	}
	if req.RequireAgent && !snap.IsPlatformAgent() {
		return Decision{Action: RedirectToHome}
	}
	if req.RequireAdmin && !snap.IsPlatformAdmin() {
		return Decision{Action: RedirectToHome}
	}
	return Decision{Action: Proceed}
}
