package rbac

// Role names. Keep these stable; they are part of auth/RBAC contracts.
const (
	// RoleCallEngine reports call lifecycle and tone playback events.
	RoleCallEngine = "call_engine"
	// RoleHardware reports headset presence and wireless audio confirmations.
	RoleHardware = "hardware"
	// RoleUser switches routes and toggles mute.
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Roles lists every role a token may carry.
func Roles() []string {
	return []string{RoleCallEngine, RoleHardware, RoleUser, RoleAdmin}
}

func IsAdmin(role string) bool { return role == RoleAdmin }

func IsValid(role string) bool {
	for _, r := range Roles() {
		if r == role {
			return true
		}
	}
	return false
}
