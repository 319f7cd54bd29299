package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/lorrc/service-desk-insights/internal/core/domain"
	apperrors "github.com/lorrc/service-desk-insights/internal/core/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newIncidentRepo() *IncidentRepository {
	return NewIncidentRepository(testPool, NewTransactionManager(testPool))
}

func sampleRecords() []domain.RawIncidentRecord {
	return []domain.RawIncidentRecord{
		{Number: "INC001", ShortDescription: "VPN down", Priority: "1 - Critical", State: "In Progress",
			AssignmentGroup: "Network", Region: "Europe", Opened: "2024-03-14 09:00:00",
			ReassignmentCount: domain.NewFlexNumber(4)},
		{Number: "INC002", ShortDescription: "Laptop broken", Priority: "2 - High", State: "Resolved",
			ResolvedBy: "Bo Chen", Opened: "2024-03-13 09:00:00", Resolved: "2024-03-13 21:00:00",
			ResolveTime: domain.NewFlexNumber(43200)},
		{Number: "INC003", State: "Closed"},
	}
}

func TestIncidentRepository_ReplaceAllAndList(t *testing.T) {
	ctx := context.Background()
	resetTables(t)
	repo := newIncidentRepo()

	n, err := repo.ReplaceAll(ctx, sampleRecords())
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)

	got, err := repo.ListAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, sampleRecords(), got, "records must round-trip unchanged and in order")

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, count)

	// A second import replaces, not appends.
	n, err = repo.ReplaceAll(ctx, sampleRecords()[:1])
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	got, err = repo.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, domain.FlexString("INC001"), got[0].Number)
}

func TestIncidentRepository_ReplaceAllRollsBack(t *testing.T) {
	ctx := context.Background()
	resetTables(t)
	repo := newIncidentRepo()
	tm := NewTransactionManager(testPool)

	_, err := repo.ReplaceAll(ctx, sampleRecords())
	require.NoError(t, err)

	boom := errors.New("boom")
	err = tm.WithTransaction(ctx, func(ctx context.Context, _ pgx.Tx) error {
		if _, err := repo.ReplaceAll(ctx, nil); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, count, "the outer rollback must undo the nested replace")
}

func TestIncidentRepository_FetchIncidents(t *testing.T) {
	ctx := context.Background()
	resetTables(t)
	repo := newIncidentRepo()

	_, err := repo.FetchIncidents(ctx)
	assert.ErrorIs(t, err, apperrors.ErrSourceUnavailable)

	_, err = repo.ReplaceAll(ctx, sampleRecords())
	require.NoError(t, err)

	got, err := repo.FetchIncidents(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 3)
	assert.Equal(t, SourceName, repo.Name())
}
