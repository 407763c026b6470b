package tools

import (
	"github.com/ChrisPatten/capital-os/pkg/approval"
	"github.com/ChrisPatten/capital-os/pkg/config"
	"github.com/ChrisPatten/capital-os/pkg/export"
	"github.com/ChrisPatten/capital-os/pkg/ledgerstore"
	"github.com/ChrisPatten/capital-os/pkg/period"
	"github.com/ChrisPatten/capital-os/pkg/policy"
)

// Deps bundles every store a tool handler might need. A single
// struct keeps NewRegistry's construction site short and makes the
// dependency surface of the whole registry visible at a glance.
type Deps struct {
	Ledger       *ledgerstore.Store
	Approval     *approval.Store
	Orchestrator *approval.Orchestrator
	Period       *period.Store
	Policy       *policy.Store
	Config       *config.AppConfig
	Export       export.Sink // nil when archival is disabled
}
