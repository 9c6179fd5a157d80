package api

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"
	"golang.org/x/oauth2"
)

var client = resty.New()

var (
	VERSION_MANIFEST_URL = "https://launchermeta.mojang.com/mc/game/version_manifest.json"

	MS_AUTH_CODE_URL  = "https://login.live.com/oauth20_authorize.srf"
	MS_AUTH_TOKEN_URL = "https://login.live.com/oauth20_token.srf"

	XBL_AUTH_URL  = "https://user.auth.xboxlive.com/user/authenticate"
	XSTS_AUTH_URL = "https://xsts.auth.xboxlive.com/xsts/authorize"

	MC_AUTH_URL         = "https://api.minecraftservices.com/authentication/login_with_xbox"
	MC_ENTITLEMENTS_URL = "https://api.minecraftservices.com/entitlements/mcstore"
	MC_PROFILE_URL      = "https://api.minecraftservices.com/minecraft/profile"
)

// oauthContext makes the oauth2 package send its requests through the
// shared resty transport.
func oauthContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, client.GetClient())
}

type statusError struct {
	status string
	body   string
}

func (s statusError) Error() string {
	if s.body == "" {
		return "unexpected status " + s.status
	}
	return fmt.Sprintf("unexpected status %s: %s", s.status, s.body)
}

func newStatusError(resp *resty.Response) error {
	body := resp.String()
	if len(body) > 200 {
		body = body[:200]
	}
	return statusError{status: resp.Status(), body: body}
}
