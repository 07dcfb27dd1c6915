package postgres

// SQL queries for the validated-event history and the rule store.

const (
	// querySaveEvent appends one validated record. No uniqueness constraint
	// on the fingerprint: duplicates coexist transiently until the dedup
	// pass deletes the older ones, which is what keeps concurrent duplicate
	// writes convergent instead of conflicting.
	querySaveEvent = `
		INSERT INTO events (
			id, app_id, event_type, payload,
			field_results, status, fingerprint, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	// queryDeleteOlderDuplicates removes every record sharing the content
	// fingerprint except the explicitly named keeper.
	queryDeleteOlderDuplicates = `
		DELETE FROM events
		WHERE app_id = $1
		  AND event_type = $2
		  AND fingerprint = $3
		  AND id <> $4
	`

	// queryPageEvents reads one history page, newest first. The id tiebreak
	// makes the order total, so consecutive pages never overlap.
	queryPageEvents = `
		SELECT
			id, app_id, event_type, payload,
			field_results, status, fingerprint, created_at
		FROM events
		WHERE app_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`

	queryCountEvents = `
		SELECT COUNT(*) FROM events WHERE app_id = $1
	`

	queryDistinctEventTypes = `
		SELECT DISTINCT event_type FROM events
		WHERE app_id = $1
		ORDER BY event_type
	`

	queryListEventsSince = `
		SELECT
			id, app_id, event_type, payload,
			field_results, status, fingerprint, created_at
		FROM events
		WHERE app_id = $1
		  AND created_at >= $2
		ORDER BY created_at DESC, id DESC
	`

	queryDeleteOlderThan = `
		DELETE FROM events
		WHERE app_id = $1
		  AND created_at < $2
	`

	// --- rule store ---

	queryRulesFor = `
		SELECT field_name, data_type, required, pattern
		FROM validation_rules
		WHERE app_id = $1
		  AND event_type = $2
		ORDER BY id
	`

	queryRuleEventTypes = `
		SELECT DISTINCT event_type FROM validation_rules
		WHERE app_id = $1
		ORDER BY event_type
	`

	queryDeleteRules = `
		DELETE FROM validation_rules WHERE app_id = $1
	`

	queryInsertRule = `
		INSERT INTO validation_rules (
			app_id, event_type, field_name, data_type, required, pattern
		)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
)
