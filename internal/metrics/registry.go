package metrics

import (
	"fmt"
	"sync/atomic"
)

// Registry holds process-wide counters for moderation and bulk-role activity.
// All methods are nil-safe so components can run without metrics in tests.
type Registry struct {
	MessagesEvaluated atomic.Uint64
	AntiLinkHits      atomic.Uint64
	AntiSpamHits      atomic.Uint64
	ActionsWarn       atomic.Uint64
	ActionsDelete     atomic.Uint64
	ActionsTimeout    atomic.Uint64

	JobsStarted    atomic.Uint64
	JobsAborted    atomic.Uint64
	JobsCompleted  atomic.Uint64
	RoleGrantsOK   atomic.Uint64
	RoleGrantsFail atomic.Uint64
}

func NewRegistry() *Registry {
	return &Registry{}
}

func (r *Registry) AddEvaluated() {
	if r != nil {
		r.MessagesEvaluated.Add(1)
	}
}

func (r *Registry) AddAntiLinkHit() {
	if r != nil {
		r.AntiLinkHits.Add(1)
	}
}

func (r *Registry) AddAntiSpamHit() {
	if r != nil {
		r.AntiSpamHits.Add(1)
	}
}

// AddAction records an enforcement action by kind ("WARN", "DELETE", "TIMEOUT").
func (r *Registry) AddAction(kind string) {
	if r == nil {
		return
	}
	switch kind {
	case "WARN":
		r.ActionsWarn.Add(1)
	case "DELETE":
		r.ActionsDelete.Add(1)
	case "TIMEOUT":
		r.ActionsTimeout.Add(1)
	}
}

func (r *Registry) AddJobStarted() {
	if r != nil {
		r.JobsStarted.Add(1)
	}
}

func (r *Registry) AddJobAborted() {
	if r != nil {
		r.JobsAborted.Add(1)
	}
}

func (r *Registry) AddJobCompleted() {
	if r != nil {
		r.JobsCompleted.Add(1)
	}
}

func (r *Registry) AddRoleGrant(ok bool) {
	if r == nil {
		return
	}
	if ok {
		r.RoleGrantsOK.Add(1)
	} else {
		r.RoleGrantsFail.Add(1)
	}
}

// Export renders all counters in a plain "name value" text format for the
// internal API.
func (r *Registry) Export() string {
	if r == nil {
		return ""
	}
	return fmt.Sprintf(
		"messages_evaluated %d\n"+
			"antilink_hits %d\n"+
			"antispam_hits %d\n"+
			"actions_warn %d\n"+
			"actions_delete %d\n"+
			"actions_timeout %d\n"+
			"jobs_started %d\n"+
			"jobs_aborted %d\n"+
			"jobs_completed %d\n"+
			"role_grants_ok %d\n"+
			"role_grants_failed %d\n",
		r.MessagesEvaluated.Load(),
		r.AntiLinkHits.Load(),
		r.AntiSpamHits.Load(),
		r.ActionsWarn.Load(),
		r.ActionsDelete.Load(),
		r.ActionsTimeout.Load(),
		r.JobsStarted.Load(),
		r.JobsAborted.Load(),
		r.JobsCompleted.Load(),
		r.RoleGrantsOK.Load(),
		r.RoleGrantsFail.Load(),
	)
}
