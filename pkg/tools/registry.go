package tools

import "github.com/ChrisPatten/capital-os/pkg/toolruntime"

// NewRegistry wires every handler in this package into the tool
// execution runtime's dispatch table. Class is left unset on each
// descriptor so toolruntime.NewRegistry derives it from
// toolruntime.WriteClassTools rather than this package repeating the
// read/write split a second time.
func NewRegistry(d Deps) toolruntime.Registry {
	return toolruntime.NewRegistry(
		toolruntime.ToolDescriptor{Name: "create_account", Handler: d.CreateAccount},
		toolruntime.ToolDescriptor{Name: "update_account_metadata", Handler: d.UpdateAccountMetadata},
		toolruntime.ToolDescriptor{Name: "record_transaction_bundle", Handler: d.RecordTransactionBundle},
		toolruntime.ToolDescriptor{Name: "record_balance_snapshot", Handler: d.RecordBalanceSnapshot},
		toolruntime.ToolDescriptor{Name: "create_or_update_obligation", Handler: d.CreateOrUpdateObligation},
		toolruntime.ToolDescriptor{Name: "fulfill_obligation", Handler: d.FulfillObligation},
		toolruntime.ToolDescriptor{Name: "approve_proposed_transaction", Handler: d.ApproveProposedTransaction},
		toolruntime.ToolDescriptor{Name: "reject_proposed_transaction", Handler: d.RejectProposedTransaction},
		toolruntime.ToolDescriptor{Name: "propose_config_change", Handler: d.ProposeConfigChange},
		toolruntime.ToolDescriptor{Name: "approve_config_change", Handler: d.ApproveConfigChange},
		toolruntime.ToolDescriptor{Name: "close_period", Handler: d.ClosePeriod},
		toolruntime.ToolDescriptor{Name: "lock_period", Handler: d.LockPeriod},

		toolruntime.ToolDescriptor{Name: "compute_capital_posture", Handler: d.ComputeCapitalPosture},
		toolruntime.ToolDescriptor{Name: "compute_consolidated_posture", Handler: d.ComputeConsolidatedPosture},
		toolruntime.ToolDescriptor{Name: "simulate_spend", Handler: d.SimulateSpend},
		toolruntime.ToolDescriptor{Name: "analyze_debt", Handler: d.AnalyzeDebt},
		toolruntime.ToolDescriptor{Name: "list_accounts", Handler: d.ListAccounts},
		toolruntime.ToolDescriptor{Name: "get_account_tree", Handler: d.GetAccountTree},
		toolruntime.ToolDescriptor{Name: "get_account_balances", Handler: d.GetAccountBalances},
		toolruntime.ToolDescriptor{Name: "list_transactions", Handler: d.ListTransactions},
		toolruntime.ToolDescriptor{Name: "get_transaction_by_external_id", Handler: d.GetTransactionByExternalID},
		toolruntime.ToolDescriptor{Name: "list_obligations", Handler: d.ListObligations},
		toolruntime.ToolDescriptor{Name: "list_proposals", Handler: d.ListProposals},
		toolruntime.ToolDescriptor{Name: "get_proposal", Handler: d.GetProposal},
		toolruntime.ToolDescriptor{Name: "reconcile_account", Handler: d.ReconcileAccount},
		toolruntime.ToolDescriptor{Name: "get_config", Handler: d.GetConfig},
	)
}
