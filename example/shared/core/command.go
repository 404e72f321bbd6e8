package core

// Command represents the intent of a caller. Each variant is a plain value struct.
type Command interface {
	CommandType() string
}
