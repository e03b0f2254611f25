package service

// Actor is the member invoking an operation
type Actor struct {
	ID        int64
	Moderator bool
}
