package core

// Logger is the application-wide logging contract. The args convention
// follows the rollbar client: error, map[string]interface{} and the acting
// user may all be passed as trailing args.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}
