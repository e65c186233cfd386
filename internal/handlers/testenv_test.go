package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/akozlov/clothes-shop/internal/apperr"
	"github.com/akozlov/clothes-shop/internal/media"
	"github.com/akozlov/clothes-shop/internal/models"
)

var testSecret = []byte("test-secret")

func newTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect to in-memory db: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Product{}); err != nil {
		t.Fatalf("failed to migrate tables: %v", err)
	}
	return db
}

// fakeMedia records every gateway call so tests can assert which remote
// operations happened.
type fakeMedia struct {
	uploads    []string
	deletes    []string
	failUpload bool
	failDelete bool
}

func (f *fakeMedia) Upload(_ context.Context, _ []byte, filename, _ string) (models.Image, error) {
	if f.failUpload {
		return models.Image{}, errors.New("remote upload error")
	}
	f.uploads = append(f.uploads, filename)
	key := media.ObjectKey(filename)
	return models.Image{PublicID: key, URL: "http://media.local/" + key}, nil
}

func (f *fakeMedia) Delete(_ context.Context, publicID string) error {
	f.deletes = append(f.deletes, publicID)
	if f.failDelete {
		return errors.New("remote delete error")
	}
	return nil
}

func newAuthHandler(db *gorm.DB) *AuthHandler {
	return &AuthHandler{DB: db, JWTSecret: testSecret, TokenTTL: time.Hour}
}

func newProductHandler(db *gorm.DB, host *fakeMedia) *ProductHandler {
	return &ProductHandler{DB: db, Media: host}
}

func jsonRequest(t *testing.T, method, target string, payload any) *http.Request {
	t.Helper()
	var body bytes.Buffer
	if payload != nil {
		require.NoError(t, json.NewEncoder(&body).Encode(payload))
	}
	req := httptest.NewRequest(method, target, &body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

// multipartRequest builds a multipart body with the given fields plus an
// optional image part carrying an explicit content type.
func multipartRequest(t *testing.T, method, target string, fields map[string]string, filename, contentType string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if filename != "" {
		hdr := textproto.MIMEHeader{}
		hdr.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename=%q`, filename))
		hdr.Set("Content-Type", contentType)
		part, err := w.CreatePart(hdr)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(method, target, &body)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	return req
}

func newContext(req *http.Request) (echo.Context, *httptest.ResponseRecorder) {
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)
	return c, rec
}

func requireAppErr(t *testing.T, err error, status int, message string) {
	t.Helper()
	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, status, appErr.Status)
	require.Equal(t, message, appErr.Message)
}

func seedProduct(t *testing.T, db *gorm.DB, name, category string) models.Product {
	t.Helper()
	product := models.Product{
		Name: name,
		Image: models.Image{
			PublicID: "products/" + name,
			URL:      "http://media.local/products/" + name,
		},
		Price:    19.99,
		Size:     42,
		Category: category,
	}
	require.NoError(t, db.Create(&product).Error)
	return product
}
