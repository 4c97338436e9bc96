package httpx_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aussiebroadwan/grimoire/pkg/httpx"
	"github.com/stretchr/testify/require"
)

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	httpx.WriteError(rec, http.StatusBadRequest, "validation_failed", "invalid request",
		map[string]string{"email": "required"})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	require.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	require.JSONEq(t,
		`{"error":"validation_failed","message":"invalid request","details":{"email":"required"}}`,
		rec.Body.String())
}

func TestWriteErrorOmitsEmptyDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	httpx.WriteError(rec, http.StatusConflict, "conflict", "email already registered", nil)
	require.JSONEq(t, `{"error":"conflict","message":"email already registered"}`, rec.Body.String())
}

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Email string `json:"email"`
	}

	tests := []struct {
		name    string
		body    string
		want    string
		wantErr bool
	}{
		{name: "valid", body: `{"email":"a@example.com"}`, want: "a@example.com"},
		{name: "unknown fields ignored", body: `{"email":"b@example.com","x":1}`, want: "b@example.com"},
		{name: "empty", body: ``, wantErr: true},
		{name: "malformed", body: `{"email":`, wantErr: true},
		{name: "too large", body: `{"email":"` + strings.Repeat("a", httpx.MaxBodyBytes) + `"}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()

			var got payload
			err := httpx.DecodeJSON(rec, req, &got)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got.Email)
		})
	}
}
