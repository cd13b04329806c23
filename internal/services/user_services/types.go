package user_services

// Logger interface for all user services
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	Debug(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
}

// Identity is what the identity provider asserts about the caller.
type Identity struct {
	Subject   string
	Email     string
	FirstName string
	LastName  string
}
