package email

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Suscripciones-api/internal/application/notification"
)

func TestPostmarkSender_Send(t *testing.T) {
	var (
		gotToken string
		gotBody  postmarkRequest
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/email", r.URL.Path)
		gotToken = r.Header.Get(PostmarkHeader)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ErrorCode":0,"Message":"OK","MessageID":"m-1"}`))
	}))
	defer srv.Close()

	s := NewPostmarkSender(srv.URL, "tok")
	err := s.Send(context.Background(), notification.Mail{
		From:    "no-reply@app.test",
		To:      "ana@example.com",
		Subject: "Termina tu registro",
		HTML:    "<p>hola</p>",
		Text:    "hola",
		Attachments: []notification.Attachment{
			{Name: "comprobante.pdf", ContentType: "application/pdf", Content: []byte("%PDF-1.4")},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "tok", gotToken)
	assert.Equal(t, "ana@example.com", gotBody.To)
	assert.Equal(t, "outbound", gotBody.MessageStream)
	require.Len(t, gotBody.Attachments, 1)
	raw, err := base64.StdEncoding.DecodeString(gotBody.Attachments[0].Content)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(raw))
}

func TestPostmarkSender_Rejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"ErrorCode":300,"Message":"Invalid 'To' address"}`))
	}))
	defer srv.Close()

	err := NewPostmarkSender(srv.URL, "tok").Send(context.Background(), notification.Mail{To: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid 'To' address")
}

func TestLogSender(t *testing.T) {
	assert.NoError(t, LogSender{}.Send(context.Background(), notification.Mail{To: "a@b.c"}))
}
