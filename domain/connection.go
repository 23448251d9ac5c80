package domain

// Connection identifies one live real-time session of a user.
// It only exists for the lifetime of the underlying transport connection.
type Connection struct {
	ID       string
	Username string
}
