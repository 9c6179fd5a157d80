package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/mrnavastar/blockman/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const manifestJson = `{
	"latest": {"release": "1.19.2", "snapshot": "22w46a"},
	"versions": [
		{"id": "22w46a", "type": "snapshot", "url": "https://example.com/22w46a.json", "time": "2022-11-16T13:29:14+00:00", "releaseTime": "2022-11-16T13:27:11+00:00"},
		{"id": "1.19.2", "type": "release", "url": "https://example.com/1.19.2.json", "time": "2022-08-05T11:57:05+00:00", "releaseTime": "2022-08-05T11:57:05+00:00"},
		{"id": "b1.7.3", "type": "old_beta", "url": "https://example.com/b1.7.3.json", "time": "2019-03-04T11:33:32+00:00", "releaseTime": "2011-07-07T22:00:00+00:00"}
	]
}`

// redirect points one endpoint variable at srv for the duration of the test.
func redirect(t *testing.T, endpoint *string, srv *httptest.Server) {
	old := *endpoint
	*endpoint = srv.URL
	t.Cleanup(func() { *endpoint = old })
}

func TestGetManifest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(manifestJson))
	}))
	defer srv.Close()
	redirect(t, &VERSION_MANIFEST_URL, srv)

	manifest, err := GetManifest()
	require.NoError(t, err)

	assert.Equal(t, "1.19.2", manifest.Latest.Release)
	require.Len(t, manifest.Versions, 3)
	assert.Equal(t, Release, manifest.Versions["1.19.2"].Type)
	assert.Equal(t, "https://example.com/1.19.2.json", manifest.Versions["1.19.2"].Url)
	assert.Equal(t, 2022, time.Time(manifest.Versions["1.19.2"].ReleaseTime).Year())

	sorted := manifest.Sorted(Release, OldBeta)
	require.Len(t, sorted, 2)
	assert.Equal(t, "1.19.2", sorted[0].Id)
	assert.Equal(t, "b1.7.3", sorted[1].Id)
}

func TestGetManifestFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/broken" {
			w.Write([]byte("{not json"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	old := VERSION_MANIFEST_URL
	defer func() { VERSION_MANIFEST_URL = old }()

	VERSION_MANIFEST_URL = srv.URL + "/down"
	_, err := GetManifest()
	assert.ErrorIs(t, err, util.ErrHttpFailed)

	VERSION_MANIFEST_URL = srv.URL + "/broken"
	_, err = GetManifest()
	assert.ErrorIs(t, err, util.ErrParseFailed)
}

func TestAuthenticateMicrosoft(t *testing.T) {
	var form url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		form = r.PostForm
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"ms-token","refresh_token":"ms-refresh","token_type":"bearer","expires_in":3600}`))
	}))
	defer srv.Close()
	redirect(t, &MS_AUTH_TOKEN_URL, srv)

	old := OpenBrowser
	defer func() { OpenBrowser = old }()

	var authorize url.Values
	OpenBrowser = func(link string) error {
		parsed, err := url.Parse(link)
		if err != nil {
			return err
		}
		authorize = parsed.Query()
		go func() {
			resp, err := http.Get(authorize.Get("redirect_uri") + "?code=the-code&state=" + authorize.Get("state"))
			if err == nil {
				io.Copy(io.Discard, resp.Body)
				resp.Body.Close()
			}
		}()
		return nil
	}

	start := time.Now()
	token, err := AuthenticateMicrosoft(context.Background(), Credentials{ClientId: "client"})
	require.NoError(t, err)

	assert.Equal(t, "ms-token", token.Token)
	assert.Equal(t, "ms-refresh", token.RefreshToken)
	require.NotNil(t, token.Exp)
	assert.WithinDuration(t, start.Add(time.Hour-time.Minute), *token.Exp, 5*time.Second)

	assert.Equal(t, "S256", authorize.Get("code_challenge_method"))
	assert.Equal(t, "XboxLive.signin XboxLive.offline_access", authorize.Get("scope"))
	assert.Regexp(t, `^http://localhost:\d+/blocky_auth$`, authorize.Get("redirect_uri"))

	assert.Equal(t, "the-code", form.Get("code"))
	assert.Equal(t, "client", form.Get("client_id"))
	assert.NotEmpty(t, form.Get("code_verifier"))
}

func TestAuthenticateMicrosoftWithoutBrowser(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"ms-token","token_type":"bearer","expires_in":3600}`))
	}))
	defer srv.Close()
	redirect(t, &MS_AUTH_TOKEN_URL, srv)

	oldOpen, oldShow := OpenBrowser, ShowAuthURL
	defer func() { OpenBrowser, ShowAuthURL = oldOpen, oldShow }()

	OpenBrowser = func(string) error { return errors.New("no display") }
	shown := make(chan string, 1)
	ShowAuthURL = func(link string) {
		shown <- link
		parsed, err := url.Parse(link)
		if err != nil {
			return
		}
		query := parsed.Query()
		go func() {
			resp, err := http.Get(query.Get("redirect_uri") + "?code=the-code&state=" + query.Get("state"))
			if err == nil {
				io.Copy(io.Discard, resp.Body)
				resp.Body.Close()
			}
		}()
	}

	token, err := AuthenticateMicrosoft(context.Background(), Credentials{ClientId: "client"})
	require.NoError(t, err)
	assert.Equal(t, "ms-token", token.Token)

	select {
	case link := <-shown:
		assert.Contains(t, link, "code_challenge_method=S256")
	default:
		t.Fatal("authorize address was never shown")
	}
}

func TestAuthenticateMicrosoftTimeout(t *testing.T) {
	old := OpenBrowser
	defer func() { OpenBrowser = old }()
	OpenBrowser = func(string) error { return nil }

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := AuthenticateMicrosoft(ctx, Credentials{ClientId: "client"})
	assert.ErrorIs(t, err, util.ErrAuthProtocol)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRefreshMicrosoft(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "refresh_token", r.PostForm.Get("grant_type"))
		assert.Equal(t, "old-refresh", r.PostForm.Get("refresh_token"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"new-token","token_type":"bearer","expires_in":3600}`))
	}))
	defer srv.Close()
	redirect(t, &MS_AUTH_TOKEN_URL, srv)

	token, err := RefreshMicrosoft(context.Background(), Credentials{ClientId: "client"}, util.MicrosoftToken{Token: "old", RefreshToken: "old-refresh"})
	require.NoError(t, err)
	assert.Equal(t, "new-token", token.Token)
	assert.Equal(t, "old-refresh", token.RefreshToken)

	_, err = RefreshMicrosoft(context.Background(), Credentials{}, util.MicrosoftToken{Token: "old"})
	assert.ErrorIs(t, err, util.ErrAuthNotAuthenticated)
}

func TestXboxLiveChain(t *testing.T) {
	var bodies []map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		bodies = append(bodies, body)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"IssueInstant":"2022-09-05T12:00:00.1234567Z","NotAfter":"2099-09-06T04:00:00.1234567Z","Token":"xbl-` + r.URL.Path[1:] + `","DisplayClaims":{"xui":[{"uhs":"hash"}]}}`))
	}))
	defer srv.Close()

	oldXbl, oldXsts := XBL_AUTH_URL, XSTS_AUTH_URL
	defer func() { XBL_AUTH_URL, XSTS_AUTH_URL = oldXbl, oldXsts }()
	XBL_AUTH_URL = srv.URL + "/user"
	XSTS_AUTH_URL = srv.URL + "/xsts"

	xbl, err := AuthenticateXboxLive(util.MicrosoftToken{Token: "ms"})
	require.NoError(t, err)
	assert.Equal(t, "xbl-user", xbl.Token)
	assert.Equal(t, "hash", xbl.UserHash)
	require.NotNil(t, xbl.Exp)
	assert.Equal(t, 2099, xbl.Exp.Year())

	xsts, err := AuthenticateXboxLiveSecurity(xbl)
	require.NoError(t, err)
	assert.Equal(t, "xbl-xsts", xsts.Token)
	assert.Equal(t, "hash", xsts.UserHash)

	require.Len(t, bodies, 2)
	assert.Equal(t, "d=ms", bodies[0]["Properties"].(map[string]interface{})["RpsTicket"])
	assert.Equal(t, "http://auth.xboxlive.com", bodies[0]["RelyingParty"])
	assert.Equal(t, "RETAIL", bodies[1]["Properties"].(map[string]interface{})["SandboxId"])
	assert.Equal(t, "rp://api.minecraftservices.com/", bodies[1]["RelyingParty"])
}

func TestXboxLiveErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"Identity":"0","XErr":2148916233,"Message":"","Redirect":"https://start.ui.xboxlive.com/CreateAccount"}`))
	}))
	defer srv.Close()
	redirect(t, &XSTS_AUTH_URL, srv)

	_, err := AuthenticateXboxLiveSecurity(util.XboxLiveToken{Token: "xbl"})
	assert.ErrorIs(t, err, util.ErrAuthProtocol)
	assert.Contains(t, err.Error(), "no Xbox profile")

	expired := time.Now().Add(-time.Hour)
	_, err = AuthenticateXboxLive(util.MicrosoftToken{Token: "ms", Exp: &expired})
	assert.ErrorIs(t, err, util.ErrAuthExpired)
	assert.Contains(t, err.Error(), string(util.TokenMicrosoft))
}

func TestMinecraftServices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/login":
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "XBL3.0 x=hash;xsts", body["identityToken"])
			w.Write([]byte(`{"username":"c0ffee","access_token":"mc-token","token_type":"Bearer","expires_in":86400}`))
		case "/entitlements":
			assert.Equal(t, "Bearer mc-token", r.Header.Get("Authorization"))
			w.Write([]byte(`{"items":[{"name":"product_minecraft","signature":"sig"},{"name":"game_minecraft","signature":"sig"}],"signature":"all","keyId":"1"}`))
		case "/profile":
			assert.Equal(t, "Bearer mc-token", r.Header.Get("Authorization"))
			w.Write([]byte(`{"id":"069a79f444e94726a5befca90e38aaf5","name":"Notch","skins":[{"id":"s","state":"ACTIVE"}],"capes":[]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	oldAuth, oldEnt, oldProfile := MC_AUTH_URL, MC_ENTITLEMENTS_URL, MC_PROFILE_URL
	defer func() { MC_AUTH_URL, MC_ENTITLEMENTS_URL, MC_PROFILE_URL = oldAuth, oldEnt, oldProfile }()
	MC_AUTH_URL = srv.URL + "/login"
	MC_ENTITLEMENTS_URL = srv.URL + "/entitlements"
	MC_PROFILE_URL = srv.URL + "/profile"

	start := time.Now()
	minecraft, err := AuthenticateMinecraft(util.XboxLiveSecurityToken{Token: "xsts", UserHash: "hash"})
	require.NoError(t, err)
	assert.Equal(t, "mc-token", minecraft.Token)
	assert.Equal(t, "c0ffee", minecraft.Username)
	require.NotNil(t, minecraft.Exp)
	assert.WithinDuration(t, start.Add(24*time.Hour-time.Minute), *minecraft.Exp, 5*time.Second)

	entitlements, err := GetEntitlements(minecraft)
	require.NoError(t, err)
	assert.True(t, entitlements.OwnsMinecraft())
	assert.Equal(t, "1", entitlements.KeyId)

	profile, err := GetMinecraftProfile(minecraft)
	require.NoError(t, err)
	assert.Equal(t, "Notch", profile.Name)
	assert.Len(t, profile.Skins, 1)

	MC_PROFILE_URL = srv.URL + "/missing"
	_, err = GetMinecraftProfile(minecraft)
	assert.ErrorIs(t, err, util.ErrHttpFailed)
}
