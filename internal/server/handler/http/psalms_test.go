package http

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"

	"github.com/cabellfineart/gallery-api/internal/imaging"
	"github.com/cabellfineart/gallery-api/internal/models"
	"github.com/cabellfineart/gallery-api/internal/service"
)

// fakePsalmsService implements PsalmsService for testing.
type fakePsalmsService struct {
	psalms    []models.Psalm
	metadata  []json.RawMessage
	listErr   error
	createErr error
	updateErr error
	uploadErr error

	gotPsalm   models.Psalm
	gotPsalms  []models.Psalm
	gotNumber  int64
	gotKind    service.ImageKind
	uploadBody []byte
}

func (f *fakePsalmsService) List(ctx context.Context) ([]models.Psalm, error) {
	return f.psalms, f.listErr
}

func (f *fakePsalmsService) Metadata(ctx context.Context) ([]json.RawMessage, error) {
	return f.metadata, nil
}

func (f *fakePsalmsService) Create(ctx context.Context, p models.Psalm) error {
	f.gotPsalm = p
	return f.createErr
}

func (f *fakePsalmsService) Update(ctx context.Context, psalms []models.Psalm) error {
	f.gotPsalms = psalms
	return f.updateErr
}

func (f *fakePsalmsService) Delete(ctx context.Context, number int64) error {
	f.gotNumber = number
	return nil
}

func (f *fakePsalmsService) Upload(ctx context.Context, number int64, kind service.ImageKind, r io.Reader) error {
	f.gotNumber, f.gotKind = number, kind
	f.uploadBody, _ = io.ReadAll(r)
	return f.uploadErr
}

const validPsalm = `{"number":2,"demoThumbnailColor":"#1482cd","statement":{"title":"Psalm Piece 2","text":[{"key":0,"text":"Test paragraph"}]}}`

func TestPsalmsHandler_List(t *testing.T) {
	rec := httptest.NewRecorder()
	svc := &fakePsalmsService{psalms: []models.Psalm{{Number: 1, DemoThumbnailColor: "#fff", DemoPath: "1-demo", ThumbnailPath: "1-thumbnail"}}}
	(&PsalmsHandler{PsalmsService: svc}).List(rec, httptest.NewRequest("GET", "/psalms/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"number":1,"demoThumbnailColor":"#fff","demoPath":"1-demo","thumbnailPath":"1-thumbnail"}]`, rec.Body.String())
}

func TestPsalmsHandler_Metadata(t *testing.T) {
	rec := httptest.NewRecorder()
	svc := &fakePsalmsService{metadata: []json.RawMessage{json.RawMessage(`{"number":1,"title":"Blessed"}`)}}
	(&PsalmsHandler{PsalmsService: svc}).Metadata(rec, httptest.NewRequest("GET", "/art/psalms-metadata", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"number":1,"title":"Blessed"}]`, rec.Body.String())
}

func TestPsalmsHandler_Create(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		svc := &fakePsalmsService{}
		rec := httptest.NewRecorder()
		(&PsalmsHandler{PsalmsService: svc}).Create(rec, jsonRequest("PUT", "/psalms/", validPsalm))

		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, "2-demo", svc.gotPsalm.DemoPath)
		assert.Equal(t, "2-thumbnail", svc.gotPsalm.ThumbnailPath)
	})

	t.Run("duplicate", func(t *testing.T) {
		svc := &fakePsalmsService{createErr: &models.KeyError{Kind: "psalm", Key: "2", Err: models.ErrConflict}}
		rec := httptest.NewRecorder()
		(&PsalmsHandler{PsalmsService: svc}).Create(rec, jsonRequest("PUT", "/psalms/add", validPsalm))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"msg":"Psalm 2 already exists"}`, rec.Body.String())
	})

	t.Run("nested errors", func(t *testing.T) {
		rec := httptest.NewRecorder()
		body := `{"number":0,"demoThumbnailColor":"blue","statement":{"text":[{"key":-1,"text":"x"}]}}`
		(&PsalmsHandler{PsalmsService: &fakePsalmsService{}}).Create(rec, jsonRequest("PUT", "/psalms/", body))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		var got map[string]any
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Contains(t, got, "number")
		assert.Contains(t, got, "demoThumbnailColor")
		assert.Contains(t, got, "statement")
	})
}

func TestPsalmsHandler_Update_Missing(t *testing.T) {
	svc := &fakePsalmsService{updateErr: &models.KeyError{Kind: "psalm", Key: "2", Err: models.ErrNotFound}}
	rec := httptest.NewRecorder()
	(&PsalmsHandler{PsalmsService: svc}).Update(rec, jsonRequest("POST", "/psalms/update", "["+validPsalm+"]"))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"msg":"Psalm 2 does not exist"}`, rec.Body.String())
	assert.Len(t, svc.gotPsalms, 1)
}

func TestPsalmsHandler_Delete(t *testing.T) {
	svc := &fakePsalmsService{}
	rec := httptest.NewRecorder()
	(&PsalmsHandler{PsalmsService: svc}).Delete(rec, jsonRequest("DELETE", "/psalms/delete", `{"number":7}`))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{}`, rec.Body.String())
	assert.Equal(t, int64(7), svc.gotNumber)

	rec = httptest.NewRecorder()
	(&PsalmsHandler{PsalmsService: svc}).Delete(rec, jsonRequest("DELETE", "/psalms/delete", `{}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"number":["Missing data for required field."]}`, rec.Body.String())
}

func TestPsalmsHandler_Upload(t *testing.T) {
	img := []byte("img")
	tests := []struct {
		name         string
		fields       map[string]string
		service      *fakePsalmsService
		expectedCode int
		expectedMsg  string
	}{
		{"no number", map[string]string{"imageType": "demo"}, &fakePsalmsService{}, http.StatusBadRequest, "Please specify a psalm"},
		{"bad number", map[string]string{"number": "two", "imageType": "demo"}, &fakePsalmsService{}, http.StatusBadRequest, "Please specify a psalm"},
		{"bad image type", map[string]string{"number": "2", "imageType": "full"}, &fakePsalmsService{}, http.StatusBadRequest, "Please enter a valid image type"},
		{"unknown psalm", map[string]string{"number": "9", "imageType": "demo"},
			&fakePsalmsService{uploadErr: &models.KeyError{Kind: "psalm", Key: "9", Err: models.ErrNotFound}},
			http.StatusNotFound, "Psalm 9 not found"},
		{"not an image", map[string]string{"number": "2", "imageType": "thumbnail"},
			&fakePsalmsService{uploadErr: fmt.Errorf("%w: bad", imaging.ErrNotImage)},
			http.StatusBadRequest, "Please upload a valid image file."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := multipartRequest(t, "/psalms/upload", tt.fields, "p.png", img)
			(&PsalmsHandler{PsalmsService: tt.service}).Upload(rec, req)

			assert.Equal(t, tt.expectedCode, rec.Code)
			assert.JSONEq(t, fmt.Sprintf(`{"msg":%q}`, tt.expectedMsg), rec.Body.String())
		})
	}
}

func TestPsalmsHandler_Upload_Success(t *testing.T) {
	svc := &fakePsalmsService{}
	rec := httptest.NewRecorder()
	req := multipartRequest(t, "/psalms/upload", map[string]string{"number": "2", "imageType": "demo"}, "p.png", []byte("png"))
	(&PsalmsHandler{PsalmsService: svc}).Upload(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, int64(2), svc.gotNumber)
	assert.Equal(t, service.ImageDemo, svc.gotKind)
	assert.Equal(t, []byte("png"), svc.uploadBody)
}
