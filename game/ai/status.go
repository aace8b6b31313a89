package ai

// Status is the result of a behavior tree node tick.
type Status int

const (
	StatusFailure Status = iota
	StatusSuccess
	StatusRunning
)

func (s Status) String() string {
	switch s {
	case StatusFailure:
		return "Failure"
	case StatusSuccess:
		return "Success"
	case StatusRunning:
		return "Running"
	}
	return "Failure"
}

// Node is a single node in a behavior tree.
type Node interface {
	Tick(a *Agent, ctx *Context) Status
}

// NodeFunc adapts a plain function to Node.
type NodeFunc func(a *Agent, ctx *Context) Status

func (f NodeFunc) Tick(a *Agent, ctx *Context) Status { return f(a, ctx) }
