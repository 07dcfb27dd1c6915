package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/beacon-lab/project-beacon/internal/rules"
)

// RulesAdapter implements rules.Repository for PostgreSQL.
// Shares the event adapter's connection pool.
type RulesAdapter struct {
	db *sql.DB
}

// NewRulesAdapter creates a rule store backed by the given connection.
func NewRulesAdapter(db *sql.DB) *RulesAdapter {
	return &RulesAdapter{db: db}
}

// RulesFor returns all rules for (app, event type), normalized at read time
// so lookups stay insensitive to how the import spelled names.
func (a *RulesAdapter) RulesFor(ctx context.Context, appID, eventType string) ([]rules.Rule, error) {
	rows, err := a.db.QueryContext(ctx, queryRulesFor, appID, rules.NormalizeEventType(eventType))
	if err != nil {
		return nil, fmt.Errorf("failed to query rules: %w", err)
	}
	defer rows.Close()

	var result []rules.Rule
	for rows.Next() {
		var r rules.Rule
		var pattern sql.NullString
		if err := rows.Scan(&r.Field, &r.Type, &r.Required, &pattern); err != nil {
			return nil, fmt.Errorf("failed to scan rule row: %w", err)
		}
		r.AppID = appID
		r.EventType = rules.NormalizeEventType(eventType)
		r.Field = rules.NormalizeField(r.Field)
		r.Pattern = pattern.String
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rules: %w", err)
	}
	return result, nil
}

// EventTypes returns the distinct event type names declared for an app.
func (a *RulesAdapter) EventTypes(ctx context.Context, appID string) ([]string, error) {
	rows, err := a.db.QueryContext(ctx, queryRuleEventTypes, appID)
	if err != nil {
		return nil, fmt.Errorf("failed to query rule event types: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan rule event type: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rule event types: %w", err)
	}
	return names, nil
}

// Replace atomically swaps the app's entire rule set inside one
// transaction: delete everything, then bulk insert the new set.
func (a *RulesAdapter) Replace(ctx context.Context, appID string, ruleSet []rules.Rule) error {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin rule replace: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, queryDeleteRules, appID); err != nil {
		return fmt.Errorf("failed to delete prior rules: %w", err)
	}

	for _, r := range ruleSet {
		var pattern interface{}
		if r.Pattern != "" {
			pattern = r.Pattern
		}
		_, err := tx.ExecContext(ctx, queryInsertRule,
			appID,
			rules.NormalizeEventType(r.EventType),
			rules.NormalizeField(r.Field),
			r.Type,
			r.Required,
			pattern,
		)
		if err != nil {
			return fmt.Errorf("failed to insert rule %s.%s: %w", r.EventType, r.Field, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit rule replace: %w", err)
	}

	slog.Info("[Postgres] Replaced rule set", "app_id", appID, "rules", len(ruleSet))
	return nil
}
