package postgresql

// migrations returns the ordered schema migrations for the PostgreSQL
// persistence layer. Versions must be contiguous and never rewritten once
// shipped.
func migrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE IF NOT EXISTS workflows (
				id UUID PRIMARY KEY,
				name VARCHAR(255) NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				trigger_object VARCHAR(100) NOT NULL,
				trigger_event VARCHAR(32) NOT NULL,
				trigger_conditions JSONB,
				trigger_schedule VARCHAR(100) NOT NULL DEFAULT '',
				active BOOLEAN NOT NULL DEFAULT TRUE,
				actions JSONB NOT NULL DEFAULT '[]',
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			);

			CREATE INDEX IF NOT EXISTS idx_workflows_trigger
				ON workflows (trigger_object, trigger_event)
				WHERE active;

			CREATE TABLE IF NOT EXISTS workflow_executions (
				id VARCHAR(64) PRIMARY KEY,
				workflow_id UUID NOT NULL,
				trigger_record_id VARCHAR(255) NOT NULL,
				trigger_data JSONB,
				status VARCHAR(16) NOT NULL,
				started_at TIMESTAMP WITH TIME ZONE NOT NULL,
				completed_at TIMESTAMP WITH TIME ZONE,
				results JSONB,
				error_message TEXT NOT NULL DEFAULT ''
			);

			CREATE INDEX IF NOT EXISTS idx_executions_workflow
				ON workflow_executions (workflow_id, started_at DESC);

			CREATE TABLE IF NOT EXISTS audit_log (
				id UUID PRIMARY KEY,
				table_name VARCHAR(100) NOT NULL,
				record_id VARCHAR(255) NOT NULL,
				action VARCHAR(64) NOT NULL,
				old_values JSONB,
				new_values JSONB,
				user_id VARCHAR(255) NOT NULL DEFAULT '',
				source VARCHAR(32) NOT NULL,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX IF NOT EXISTS idx_audit_log_record
				ON audit_log (table_name, record_id, created_at DESC);

			CREATE TABLE IF NOT EXISTS scheduled_continuations (
				id UUID PRIMARY KEY,
				execution_id VARCHAR(64) NOT NULL,
				workflow_id UUID NOT NULL,
				action_id VARCHAR(64) NOT NULL,
				scheduled_for TIMESTAMP WITH TIME ZONE NOT NULL,
				status VARCHAR(16) NOT NULL,
				payload JSONB NOT NULL,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX IF NOT EXISTS idx_continuations_due
				ON scheduled_continuations (scheduled_for)
				WHERE status = 'PENDING';
		`,
	}
}
