// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package execchain

import (
	"log/slog"
	"net/http"

	"github.com/gogama/httpexec/metrics"
	"github.com/gogama/httpexec/redirect"
	"github.com/gogama/httpexec/request"
	"github.com/gogama/httpexec/route"
)

// RedirectExec follows redirect responses accepted by its strategy,
// re-planning the route whenever the redirect leads to another target.
type RedirectExec struct {
	// Next executes each request in the redirect sequence.
	Next Executor
	// Planner plans routes to redirect targets. The default is
	// route.DefaultPlanner.
	Planner route.Planner
	// Strategy decides which responses are followed. The default is
	// redirect.Default.
	Strategy redirect.Strategy
	// Logger receives debug output.
	Logger *slog.Logger
	// Metrics, if not nil, counts redirects followed.
	Metrics *metrics.Collector
}

// Execute executes req, following redirects while
// e.Config.RedirectsEnabled is set.
func (x *RedirectExec) Execute(r route.Route, req *request.Request, e *request.Execution, aware *Aware) (*http.Response, error) {
	next := mustHaveNext(x.Next)
	strategy := x.strategy()
	current := req
	currentRoute := r

	for count := 0; ; count++ {
		resp, err := next.Execute(currentRoute, current, e, aware)
		if err != nil {
			return nil, err
		}
		if !e.Config.RedirectsEnabled {
			return resp, nil
		}
		ok, err := strategy.IsRedirected(current, resp, e)
		if err != nil {
			closeResponse(resp)
			return nil, err
		}
		if !ok {
			return resp, nil
		}
		if count >= e.Config.MaxRedirects {
			closeResponse(resp)
			return nil, &redirect.LimitError{Max: e.Config.MaxRedirects}
		}

		redirected, err := strategy.Redirect(current, resp, e)
		if err != nil {
			closeResponse(resp)
			return nil, err
		}
		if !redirected.Repeatable() {
			closeResponse(resp)
			return nil, &NonReplayableRequestError{}
		}
		target, err := TargetOf(redirected.URL)
		if err != nil {
			closeResponse(resp)
			return nil, err
		}
		nextRoute, err := x.planner().Plan(target, e.Config.LocalAddress)
		if err != nil {
			closeResponse(resp)
			return nil, err
		}

		logger(x.Logger).Debug("redirect requested", "status", resp.StatusCode, "location", redirected.URL.String())
		closeResponse(resp)

		current = redirected.Wrap()
		e.Request = current
		e.Fire(request.AfterRedirect)
		x.Metrics.Redirect()
		if nextRoute != currentRoute {
			currentRoute = nextRoute
			e.Route = &nextRoute
			e.Fire(request.AfterRoutePlanned)
		}
	}
}

func (x *RedirectExec) planner() route.Planner {
	if x.Planner == nil {
		return route.DefaultPlanner
	}
	return x.Planner
}

func (x *RedirectExec) strategy() redirect.Strategy {
	if x.Strategy == nil {
		return redirect.Default
	}
	return x.Strategy
}
