package ports

// Repositories bundles the persistence ports a storage backend provides.
type Repositories struct {
	Clients      ClientRepository
	Transactions TransactionRepository
	Ledger       LedgerRepository
	Approvers    ApproverRepository
}
