// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package route

// A Step is the next action a caller should take to establish a route.
type Step int

const (
	// Unreachable means the planned route cannot be reached from the
	// current state of the connection.
	Unreachable Step = -1
	// Complete means the planned route has been established.
	Complete Step = 0
	// ConnectTarget means a direct connection to the target must be
	// opened.
	ConnectTarget Step = 1
)

var stepNames = map[Step]string{
	Unreachable:   "Unreachable",
	Complete:      "Complete",
	ConnectTarget: "ConnectTarget",
}

// String returns the name of the step.
func (s Step) String() string {
	if n, ok := stepNames[s]; ok {
		return n
	}
	return "Step(?)"
}

// A Director computes the next step to establish a planned route,
// given the route established so far (nil if none).
type Director interface {
	NextStep(plan Route, fact *Route) Step
}

// DirectorFunc adapts an ordinary function to the Director interface.
type DirectorFunc func(plan Route, fact *Route) Step

// NextStep calls f(plan, fact).
func (f DirectorFunc) NextStep(plan Route, fact *Route) Step {
	return f(plan, fact)
}

// Direct is the Director for single-hop routes.
var Direct Director = DirectorFunc(directStep)

func directStep(plan Route, fact *Route) Step {
	if fact == nil {
		return ConnectTarget
	}
	if !plan.Target.Equal(fact.Target) {
		return Unreachable
	}
	if plan.Secure != fact.Secure {
		return Unreachable
	}
	if plan.Local.IsValid() && plan.Local != fact.Local {
		return Unreachable
	}
	return Complete
}
