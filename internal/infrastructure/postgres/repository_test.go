package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comparaprecios/backend/internal/domain"
)

func newMockRepository(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewRepository(db), mock
}

func TestRepository_List(t *testing.T) {
	repo, mock := newMockRepository(t)
	updated := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows(listingColumns).
		AddRow("a", "Leche", "Dia", 0.99, updated).
		AddRow("b", "Leche", "Lidl", 0.89, nil)
	mock.ExpectQuery(`SELECT id, name, supermarket, price, updated_at FROM listings ORDER BY seq`).
		WillReturnRows(rows)

	listings, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, listings, 2)

	assert.Equal(t, domain.Listing{ID: "a", Name: "Leche", Supermarket: "Dia", Price: 0.99, UpdatedAt: updated}, listings[0])
	assert.True(t, listings[1].UpdatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_ListEmpty(t *testing.T) {
	repo, mock := newMockRepository(t)
	mock.ExpectQuery(`SELECT (.+) FROM listings`).WillReturnRows(sqlmock.NewRows(listingColumns))

	listings, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, listings)
	assert.Empty(t, listings)
}

func TestRepository_ListError(t *testing.T) {
	repo, mock := newMockRepository(t)
	dbErr := errors.New("connection reset")
	mock.ExpectQuery(`SELECT (.+) FROM listings`).WillReturnError(dbErr)

	_, err := repo.List(context.Background())
	assert.ErrorIs(t, err, dbErr)
}

func TestRepository_Add(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectExec(`INSERT INTO listings \(id,name,supermarket,price,updated_at\) VALUES \(\$1,\$2,\$3,\$4,\$5\)`).
		WithArgs(sqlmock.AnyArg(), "Pan", "Dia", 1.15, nil).
		WillReturnResult(sqlmock.NewResult(1, 1))

	created, err := repo.Add(context.Background(), domain.Listing{Name: "Pan", Supermarket: "Dia", Price: 1.15})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_AddBatch(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO listings (.+) VALUES \(\$1,\$2,\$3,\$4,\$5\),\(\$6,\$7,\$8,\$9,\$10\)`).
		WithArgs("x", "Arroz", "Dia", 1.0, nil, sqlmock.AnyArg(), "Arroz", "Lidl", 0.95, nil).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	n, err := repo.AddBatch(context.Background(), []domain.Listing{
		{ID: "x", Name: "Arroz", Supermarket: "Dia", Price: 1.0},
		{Name: "Arroz", Supermarket: "Lidl", Price: 0.95},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_AddBatchRollsBack(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO listings`).WillReturnError(errors.New("duplicate key"))
	mock.ExpectRollback()

	n, err := repo.AddBatch(context.Background(), []domain.Listing{{ID: "x", Name: "Arroz", Supermarket: "Dia", Price: 1}})
	require.Error(t, err)
	assert.Zero(t, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_AddBatchEmpty(t *testing.T) {
	repo, mock := newMockRepository(t)

	n, err := repo.AddBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_Delete(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectExec(`DELETE FROM listings WHERE id = \$1`).
		WithArgs("a").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM listings WHERE id = \$1`).
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.Delete(context.Background(), "a"))
	assert.ErrorIs(t, repo.Delete(context.Background(), "missing"), domain.ErrListingNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_EnsureSchema(t *testing.T) {
	repo, mock := newMockRepository(t)
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS listings`).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.EnsureSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
