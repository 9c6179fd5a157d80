package services

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/mrnavastar/blockman/api"
	"github.com/mrnavastar/blockman/util/fileutils"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

// setup points the launcher at a fresh data directory.
func setup(t *testing.T) string {
	keyring.MockInit()
	dir := t.TempDir()
	require.NoError(t, fileutils.Setup(dir))
	return dir
}

// accounts fakes every authentication endpoint after the browser login.
type accounts struct {
	srv      *httptest.Server
	mu       sync.Mutex
	calls    []string
	entitled bool
}

func newAccounts(t *testing.T) *accounts {
	a := &accounts{entitled: true}
	a.srv = httptest.NewServer(http.HandlerFunc(a.serve))
	t.Cleanup(a.srv.Close)

	endpoints := map[*string]string{
		&api.MS_AUTH_TOKEN_URL:   "/token",
		&api.XBL_AUTH_URL:        "/user",
		&api.XSTS_AUTH_URL:       "/xsts",
		&api.MC_AUTH_URL:         "/login",
		&api.MC_ENTITLEMENTS_URL: "/entitlements",
		&api.MC_PROFILE_URL:      "/profile",
	}
	for endpoint, path := range endpoints {
		endpoint, old := endpoint, *endpoint
		*endpoint = a.srv.URL + path
		t.Cleanup(func() { *endpoint = old })
	}
	return a
}

func (a *accounts) serve(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	a.calls = append(a.calls, r.URL.Path)
	entitled := a.entitled
	a.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch r.URL.Path {
	case "/token":
		w.Write([]byte(`{"access_token":"ms-refreshed","token_type":"bearer","refresh_token":"refresh-2","expires_in":3600}`))
	case "/user", "/xsts":
		w.Write([]byte(`{"NotAfter":"2099-09-06T04:00:00.1234567Z","Token":"token` + r.URL.Path + `","DisplayClaims":{"xui":[{"uhs":"hash"}]}}`))
	case "/login":
		w.Write([]byte(`{"username":"c0ffee","access_token":"mc-token","token_type":"Bearer","expires_in":86400}`))
	case "/entitlements":
		if entitled {
			w.Write([]byte(`{"items":[{"name":"game_minecraft","signature":"sig"}],"signature":"all","keyId":"1"}`))
		} else {
			w.Write([]byte(`{"items":[],"signature":"all","keyId":"1"}`))
		}
	case "/profile":
		w.Write([]byte(`{"id":"069a79f444e94726a5befca90e38aaf5","name":"Notch","skins":[],"capes":[]}`))
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (a *accounts) requests() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.calls...)
}
