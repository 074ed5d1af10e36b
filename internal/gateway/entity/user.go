package entity

import (
	"net/http"
	"strings"
)

// HeaderUserID carries the caller identity recorded as an artifact's
// createdBy.
const HeaderUserID = "X-User-ID"

const AnonymousUserID UserID = "anonymous"

// UserID identifies the caller that created an artifact.
type UserID string

func NormalizeUserID(raw string) UserID {
	return UserID(strings.TrimSpace(raw))
}

// UserFromRequest reads HeaderUserID, falling back to AnonymousUserID.
func UserFromRequest(r *http.Request) UserID {
	id := NormalizeUserID(r.Header.Get(HeaderUserID))
	if id.IsZero() {
		return AnonymousUserID
	}
	return id
}

func (id UserID) String() string {
	return strings.TrimSpace(string(id))
}

func (id UserID) IsZero() bool {
	return id.String() == ""
}
