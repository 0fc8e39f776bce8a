package wire

// Role is a role assigned to a user.
type Role struct {
	// ID is the role identifier.
	ID int64 `json:"id"`
	// Name is the role name.
	Name string `json:"name"`
}

// UserInfo is the identity record returned by the userinfo and login flows.
//
// ID 0 means no user is authenticated. The record is only ever replaced as a
// whole after an identity-changing operation; it is never patched field by
// field.
type UserInfo struct {
	// ID is the user identifier (0 = anonymous).
	ID int64 `json:"id"`
	// FirstName is the user's first name.
	FirstName string `json:"first_name"`
	// LastName is the user's last name.
	LastName string `json:"last_name"`
	// Username is the login name, if set.
	Username string `json:"username,omitempty"`
	// Email is the account email, if set.
	Email string `json:"email,omitempty"`
	// Active indicates whether the account is enabled.
	Active bool `json:"active,omitempty"`
	// Roles lists the roles assigned to the user.
	Roles []Role `json:"roles,omitempty"`
	// LoginCount is the number of recorded logins.
	LoginCount int64 `json:"login_count,omitempty"`
	// CurrentLoginAt is the timestamp of the current login ("%F %T").
	CurrentLoginAt string `json:"current_login_at,omitempty"`
	// LastLoginAt is the timestamp of the previous login.
	LastLoginAt string `json:"last_login_at,omitempty"`
	// CurrentLoginIP is the address the current session logged in from.
	CurrentLoginIP string `json:"current_login_ip,omitempty"`
	// LastLoginIP is the address of the previous login.
	LastLoginIP string `json:"last_login_ip,omitempty"`
	// ConfirmedAt is when the account email was confirmed.
	ConfirmedAt string `json:"confirmed_at,omitempty"`
	// CreateDatetime is when the account was created.
	CreateDatetime string `json:"create_datetime,omitempty"`
	// UpdateDatetime is when the account was last updated.
	UpdateDatetime string `json:"update_datetime,omitempty"`
}

// Anonymous returns the identity record used when nobody is logged in.
func Anonymous() UserInfo {
	return UserInfo{ID: 0, FirstName: "Anonymous", LastName: "User", Username: "anonymous"}
}

// IsAnonymous reports whether the record represents the anonymous user.
func (u UserInfo) IsAnonymous() bool {
	return u.ID == 0
}

// VersionInfo is the payload returned by the hello call.
type VersionInfo struct {
	// Message is the server greeting.
	Message string `json:"message"`
	// Version is the last recorded backend version, if any.
	Version string `json:"version,omitempty"`
	// Modified is when that version was recorded ("%F %T").
	Modified string `json:"modified,omitempty"`
}
