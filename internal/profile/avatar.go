package profile

import "net/url"

// DefaultAvatarURL builds the fallback avatar for profiles without a
// photo, an initials image keyed on the display name (or the email
// local part when the name is empty).
func DefaultAvatarURL(displayName, email string) string {
	name := displayName
	if name == "" {
		name = emailLocalPart(email)
	}
	return "https://ui-avatars.com/api/?name=" + url.QueryEscape(name) + "&background=2c3e50&color=fff"
}
