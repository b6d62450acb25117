package mail

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"erent/internal/app/policies"
)

func TestSendGridSend(t *testing.T) {
	var (
		auth string
		body map[string]any
	)
	status := http.StatusAccepted
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v3/mail/send", r.URL.Path)
		auth = r.Header.Get("Authorization")
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &body)
		w.WriteHeader(status)
	}))
	defer srv.Close()

	client := NewSendGrid("SG.key", "noreply@erent.local", "eRent").WithHost(srv.URL)
	msg := policies.Email{ToName: "Lejla", ToAddr: "lejla@example.com", Subject: "Rent accepted", Text: "Your rent was accepted."}

	require.NoError(t, client.Send(context.Background(), msg))
	assert.Equal(t, "Bearer SG.key", auth)
	assert.Equal(t, "Rent accepted", body["subject"])

	status = http.StatusBadRequest
	assert.Error(t, client.Send(context.Background(), msg))

	assert.ErrorIs(t, client.Send(context.Background(), policies.Email{Subject: "x"}), ErrRecipientRequired)
}

func TestLogMailer(t *testing.T) {
	m := Log{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	assert.NoError(t, m.Send(context.Background(), policies.Email{ToAddr: "a@b.c", Subject: "hi"}))
	assert.ErrorIs(t, m.Send(context.Background(), policies.Email{}), ErrRecipientRequired)
}
