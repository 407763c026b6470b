package ledgerstore

// schema creates every table ledgerstore owns ("the ledger
// store exclusively owns accounts, transactions, postings, snapshots,
// and obligations"), plus the append-only triggers that reject
// UPDATE/DELETE on immutable columns. Grounded on the teacher's
// CREATE-TABLE-IF-NOT-EXISTS bootstrap idiom in
// pkg/store/ledger/postgres_ledger.go, generalized from one table to
// the full ledger schema and from RLS policy guards to append-only
// trigger guards.
const schema = `
CREATE TABLE IF NOT EXISTS entities (
	entity_id TEXT PRIMARY KEY,
	code TEXT UNIQUE NOT NULL,
	name TEXT NOT NULL,
	metadata JSONB,
	is_default BOOLEAN NOT NULL DEFAULT false
);

CREATE TABLE IF NOT EXISTS accounts (
	account_id TEXT PRIMARY KEY,
	code TEXT UNIQUE NOT NULL,
	name TEXT NOT NULL,
	account_type TEXT NOT NULL,
	parent_account_id TEXT REFERENCES accounts(account_id),
	entity_id TEXT NOT NULL REFERENCES entities(entity_id),
	metadata JSONB
);

CREATE TABLE IF NOT EXISTS ledger_transactions (
	transaction_id TEXT PRIMARY KEY,
	source_system TEXT NOT NULL,
	external_id TEXT NOT NULL,
	transaction_date TIMESTAMP NOT NULL,
	description TEXT NOT NULL,
	correlation_id TEXT NOT NULL,
	input_hash TEXT NOT NULL,
	entity_id TEXT NOT NULL REFERENCES entities(entity_id),
	is_adjusting_entry BOOLEAN NOT NULL DEFAULT false,
	adjusting_reason_code TEXT,
	response_payload TEXT,
	output_hash TEXT,
	created_at TIMESTAMP NOT NULL DEFAULT now(),
	UNIQUE (source_system, external_id)
);

CREATE TABLE IF NOT EXISTS ledger_postings (
	posting_id TEXT PRIMARY KEY,
	transaction_id TEXT NOT NULL REFERENCES ledger_transactions(transaction_id),
	account_id TEXT NOT NULL REFERENCES accounts(account_id),
	amount TEXT NOT NULL,
	currency TEXT NOT NULL,
	memo TEXT
);

CREATE TABLE IF NOT EXISTS balance_snapshots (
	snapshot_id TEXT PRIMARY KEY,
	account_id TEXT NOT NULL REFERENCES accounts(account_id),
	snapshot_date TIMESTAMP NOT NULL,
	source_system TEXT NOT NULL,
	balance TEXT NOT NULL,
	currency TEXT NOT NULL,
	source_artifact_id TEXT,
	entity_id TEXT NOT NULL REFERENCES entities(entity_id),
	UNIQUE (account_id, snapshot_date)
);

CREATE TABLE IF NOT EXISTS obligations (
	obligation_id TEXT PRIMARY KEY,
	source_system TEXT NOT NULL,
	name TEXT NOT NULL,
	account_id TEXT NOT NULL REFERENCES accounts(account_id),
	cadence TEXT NOT NULL,
	expected_amount TEXT NOT NULL,
	variability_flag BOOLEAN NOT NULL DEFAULT false,
	next_due_date TIMESTAMP NOT NULL,
	metadata JSONB,
	active BOOLEAN NOT NULL DEFAULT true,
	fulfilled_by_transaction_id TEXT REFERENCES ledger_transactions(transaction_id),
	fulfilled_at TIMESTAMP,
	UNIQUE (source_system, name, account_id)
);

CREATE OR REPLACE FUNCTION reject_ledger_transaction_mutation() RETURNS trigger AS $$
BEGIN
	IF TG_OP = 'DELETE' THEN
		RAISE EXCEPTION 'ledger_transactions is append-only';
	END IF;
	IF OLD.transaction_id IS DISTINCT FROM NEW.transaction_id
		OR OLD.source_system IS DISTINCT FROM NEW.source_system
		OR OLD.external_id IS DISTINCT FROM NEW.external_id
		OR OLD.transaction_date IS DISTINCT FROM NEW.transaction_date
		OR OLD.description IS DISTINCT FROM NEW.description
		OR OLD.correlation_id IS DISTINCT FROM NEW.correlation_id
		OR OLD.input_hash IS DISTINCT FROM NEW.input_hash
		OR OLD.entity_id IS DISTINCT FROM NEW.entity_id
		OR OLD.is_adjusting_entry IS DISTINCT FROM NEW.is_adjusting_entry
		OR OLD.adjusting_reason_code IS DISTINCT FROM NEW.adjusting_reason_code THEN
		RAISE EXCEPTION 'ledger_transactions immutable columns cannot change';
	END IF;
	IF OLD.response_payload IS NOT NULL AND OLD.response_payload IS DISTINCT FROM NEW.response_payload THEN
		RAISE EXCEPTION 'ledger_transactions.response_payload can only transition NULL -> value once';
	END IF;
	IF OLD.output_hash IS NOT NULL AND OLD.output_hash IS DISTINCT FROM NEW.output_hash THEN
		RAISE EXCEPTION 'ledger_transactions.output_hash can only transition NULL -> value once';
	END IF;
	RETURN NEW;
END;
$$ LANGUAGE plpgsql;

DROP TRIGGER IF EXISTS trg_ledger_transactions_append_only ON ledger_transactions;
CREATE TRIGGER trg_ledger_transactions_append_only
	BEFORE UPDATE OR DELETE ON ledger_transactions
	FOR EACH ROW EXECUTE FUNCTION reject_ledger_transaction_mutation();

CREATE OR REPLACE FUNCTION reject_ledger_postings_mutation() RETURNS trigger AS $$
BEGIN
	RAISE EXCEPTION 'ledger_postings is append-only';
END;
$$ LANGUAGE plpgsql;

DROP TRIGGER IF EXISTS trg_ledger_postings_append_only ON ledger_postings;
CREATE TRIGGER trg_ledger_postings_append_only
	BEFORE UPDATE OR DELETE ON ledger_postings
	FOR EACH ROW EXECUTE FUNCTION reject_ledger_postings_mutation();
`
