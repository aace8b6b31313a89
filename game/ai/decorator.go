package ai

// Inverter negates the result of its child. Running passes through.
type Inverter struct {
	Child Node
}

func (i *Inverter) Tick(a *Agent, ctx *Context) Status {
	switch i.Child.Tick(a, ctx) {
	case StatusSuccess:
		return StatusFailure
	case StatusFailure:
		return StatusSuccess
	default:
		return StatusRunning
	}
}

// RunUntilFail keeps reporting Running until its child fails.
type RunUntilFail struct {
	Child Node
}

func (r *RunUntilFail) Tick(a *Agent, ctx *Context) Status {
	if r.Child.Tick(a, ctx) == StatusFailure {
		return StatusFailure
	}
	return StatusRunning
}
