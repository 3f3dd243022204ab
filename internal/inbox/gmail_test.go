package inbox

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"mailtriage/internal/logger"
)

func TestGmailSourceFetch(t *testing.T) {
	raw := base64.URLEncoding.EncodeToString([]byte(plainMessage))

	mux := http.NewServeMux()
	mux.HandleFunc("/gmail/v1/users/me/messages", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "INBOX", r.URL.Query().Get("labelIds"))
		assert.Equal(t, "5", r.URL.Query().Get("maxResults"))
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"messages": []map[string]string{{"id": "abc"}, {"id": "missing"}},
		})
	})
	mux.HandleFunc("/gmail/v1/users/me/messages/abc", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "raw", r.URL.Query().Get("format"))
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"id":           "abc",
			"raw":          raw,
			"internalDate": "1752676800000",
		})
	})
	mux.HandleFunc("/gmail/v1/users/me/messages/missing", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"code":404,"message":"not found"}}`, http.StatusNotFound)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	src, err := NewGmailSourceWithOptions(context.Background(), logger.Nop(),
		option.WithEndpoint(srv.URL+"/"), option.WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	msgs, err := src.Fetch(context.Background(), "INBOX", 5)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "gmail-abc", msgs[0].ID)
	assert.Equal(t, "gmail", msgs[0].Provider)
	assert.Equal(t, int64(1752676800000), msgs[0].ReceivedAt.UnixMilli())
	assert.Equal(t, plainMessage, string(msgs[0].Raw))
}

func TestNewGmailSourceRequiresCredentials(t *testing.T) {
	_, err := NewGmailSource(context.Background(), GmailOptions{ClientID: "id"}, logger.Nop())
	assert.Error(t, err)
}

func TestDecodeBase64URL(t *testing.T) {
	for _, enc := range []*base64.Encoding{base64.URLEncoding, base64.RawURLEncoding} {
		got, err := decodeBase64URL(enc.EncodeToString([]byte("hi?>")))
		require.NoError(t, err)
		assert.Equal(t, "hi?>", string(got))
	}
}
