package repository

var (
	_ UserStore    = (*UserRepo)(nil)
	_ ContactStore = (*ContactRepo)(nil)
	_ ProjectStore = (*ProjectRepo)(nil)
	_ SessionStore = (*SessionRepo)(nil)
)
