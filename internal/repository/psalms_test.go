package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/goccy/go-json"

	"github.com/cabellfineart/gallery-api/internal/models"
)

func setupPsalmsMock(t *testing.T) (*PostgresPsalmsRepository, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock database: %v", err)
	}
	repo := NewPostgresPsalmsRepository(db)
	cleanup := func() { db.Close() }
	return repo, mock, cleanup
}

var testPsalm = models.Psalm{
	Number:             2,
	DemoThumbnailColor: "#1482cd",
	Statement: &models.Statement{
		Title: "Psalm Piece 2",
		Text:  []models.Paragraph{{Key: 0, Text: "Test paragraph"}},
	},
	DemoPath:      "2-demo",
	ThumbnailPath: "2-thumbnail",
}

func psalmDoc(t *testing.T, p models.Psalm) string {
	t.Helper()
	b, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("marshal psalm: %v", err)
	}
	return string(b)
}

func TestPsalmsList(t *testing.T) {
	repo, mock, cleanup := setupPsalmsMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT doc FROM psalms ORDER BY number`)).
		WillReturnRows(sqlmock.NewRows([]string{"doc"}).AddRow([]byte(psalmDoc(t, testPsalm))))

	psalms, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(psalms) != 1 || psalms[0].Number != 2 || psalms[0].Statement.Title != "Psalm Piece 2" {
		t.Errorf("unexpected psalms: %+v", psalms)
	}
}

func TestPsalmsList_Empty(t *testing.T) {
	repo, mock, cleanup := setupPsalmsMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT doc FROM psalms`)).
		WillReturnRows(sqlmock.NewRows([]string{"doc"}))

	psalms, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if psalms == nil || len(psalms) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", psalms)
	}
}

func TestPsalmsGet_NotFound(t *testing.T) {
	repo, mock, cleanup := setupPsalmsMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT doc FROM psalms WHERE number = $1`)).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"doc"}))

	_, err := repo.Get(context.Background(), 1)
	var ke *models.KeyError
	if !errors.As(err, &ke) || ke.Key != "1" || !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected not found KeyError for 1, got %v", err)
	}
}

func TestPsalmsCreate_Conflict(t *testing.T) {
	repo, mock, cleanup := setupPsalmsMock(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO psalms (number, doc)`)).
		WithArgs(testPsalm.Number, psalmDoc(t, testPsalm)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Create(context.Background(), testPsalm)
	if !errors.Is(err, models.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestPsalmsReplace(t *testing.T) {
	repo, mock, cleanup := setupPsalmsMock(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE psalms SET doc = $2::jsonb WHERE number = $1`)).
		WithArgs(testPsalm.Number, psalmDoc(t, testPsalm)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := repo.Replace(context.Background(), testPsalm); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestPsalmsReplace_Missing(t *testing.T) {
	repo, mock, cleanup := setupPsalmsMock(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE psalms`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.Replace(context.Background(), testPsalm)
	if !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPsalmsDelete(t *testing.T) {
	repo, mock, cleanup := setupPsalmsMock(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM psalms WHERE number = $1`)).
		WithArgs(int64(99)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.Delete(context.Background(), 99); err != nil {
		t.Fatalf("deleting a missing psalm should succeed, got %v", err)
	}
}

func TestPsalmsListMetadata(t *testing.T) {
	repo, mock, cleanup := setupPsalmsMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT doc FROM psalms_metadata ORDER BY id`)).
		WillReturnRows(sqlmock.NewRows([]string{"doc"}).
			AddRow([]byte(`{"number":1,"title":"Psalm 1"}`)).
			AddRow([]byte(`{"number":2,"title":"Psalm 2"}`)))

	docs, err := repo.ListMetadata(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(docs) != 2 || string(docs[1]) != `{"number":2,"title":"Psalm 2"}` {
		t.Errorf("unexpected docs: %s", docs)
	}
}
