package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/beacon-lab/project-beacon/internal/rules"
	"github.com/stretchr/testify/require"
)

func newMockRulesAdapter(t *testing.T) (*RulesAdapter, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewRulesAdapter(db), mock
}

func TestRulesAdapter_RulesFor(t *testing.T) {
	adapter, mock := newMockRulesAdapter(t)

	mock.ExpectQuery(regexp.QuoteMeta(queryRulesFor)).
		WithArgs("aj12", "card_click").
		WillReturnRows(sqlmock.NewRows([]string{"field_name", "data_type", "required", "pattern"}).
			AddRow("Card Name", "text", true, nil).
			AddRow("amount", "integer", false, "^[0-9]+$"),
		).RowsWillBeClosed()

	// Event type is normalized before it reaches the query.
	got, err := adapter.RulesFor(context.Background(), "aj12", "Card_Click")
	require.NoError(t, err)
	require.Len(t, got, 2)

	require.Equal(t, "card_name", got[0].Field)
	require.Equal(t, "card_click", got[0].EventType)
	require.Equal(t, rules.TypeText, got[0].Type)
	require.True(t, got[0].Required)
	require.Empty(t, got[0].Pattern)

	require.Equal(t, "amount", got[1].Field)
	require.Equal(t, rules.TypeInteger, got[1].Type)
	require.Equal(t, "^[0-9]+$", got[1].Pattern)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRulesAdapter_RulesFor_UnknownTypeEmpty(t *testing.T) {
	adapter, mock := newMockRulesAdapter(t)

	mock.ExpectQuery(regexp.QuoteMeta(queryRulesFor)).
		WithArgs("aj12", "never_declared").
		WillReturnRows(sqlmock.NewRows([]string{"field_name", "data_type", "required", "pattern"}))

	got, err := adapter.RulesFor(context.Background(), "aj12", "never_declared")
	require.NoError(t, err)
	require.Empty(t, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRulesAdapter_EventTypes(t *testing.T) {
	adapter, mock := newMockRulesAdapter(t)

	mock.ExpectQuery(regexp.QuoteMeta(queryRuleEventTypes)).
		WithArgs("aj12").
		WillReturnRows(sqlmock.NewRows([]string{"event_type"}).
			AddRow("card_click").
			AddRow("screen_view"),
		)

	names, err := adapter.EventTypes(context.Background(), "aj12")
	require.NoError(t, err)
	require.Equal(t, []string{"card_click", "screen_view"}, names)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRulesAdapter_Replace(t *testing.T) {
	adapter, mock := newMockRulesAdapter(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(queryDeleteRules)).
		WithArgs("aj12").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(regexp.QuoteMeta(queryInsertRule)).
		WithArgs("aj12", "card_click", "card_name", rules.TypeText, true, nil).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta(queryInsertRule)).
		WithArgs("aj12", "card_click", "amount", rules.TypeInteger, false, "^[0-9]+$").
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	err := adapter.Replace(context.Background(), "aj12", []rules.Rule{
		{EventType: "Card_Click", Field: "Card Name", Type: rules.TypeText, Required: true},
		{EventType: "card_click", Field: "amount", Type: rules.TypeInteger, Pattern: "^[0-9]+$"},
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRulesAdapter_Replace_InsertFailureRollsBack(t *testing.T) {
	adapter, mock := newMockRulesAdapter(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(queryDeleteRules)).
		WithArgs("aj12").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(queryInsertRule)).
		WillReturnError(errors.New("value too long"))
	mock.ExpectRollback()

	err := adapter.Replace(context.Background(), "aj12", []rules.Rule{
		{EventType: "card_click", Field: "card_name", Type: rules.TypeText},
	})
	require.Error(t, err)
	require.ErrorContains(t, err, "failed to insert rule")
	require.NoError(t, mock.ExpectationsWereMet())
}
