package api

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/mrnavastar/blockman/util"
)

type minecraftLogin struct {
	Username    string `json:"username"`
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

func AuthenticateMinecraft(security util.XboxLiveSecurityToken) (util.MinecraftToken, error) {
	if err := security.CheckExpired(); err != nil {
		return util.MinecraftToken{}, err
	}

	util.Debug("Logging in to Minecraft")
	resp, err := client.R().
		SetHeader("Accept", "application/json").
		SetBody(map[string]string{"identityToken": fmt.Sprintf("XBL3.0 x=%s;%s", security.UserHash, security.Token)}).
		Post(MC_AUTH_URL)
	if err := checkResponse(MC_AUTH_URL, resp, err); err != nil {
		return util.MinecraftToken{}, err
	}

	var login minecraftLogin
	if err := json.Unmarshal(resp.Body(), &login); err != nil || login.AccessToken == "" {
		return util.MinecraftToken{}, util.Wrap(util.ErrAuthProtocol, MC_AUTH_URL, err)
	}

	token := util.MinecraftToken{Username: login.Username, Token: login.AccessToken}
	if login.ExpiresIn > 0 {
		exp := time.Now().Add(time.Duration(login.ExpiresIn)*time.Second - expirySkew)
		token.Exp = &exp
	}
	return token, nil
}

func GetEntitlements(minecraft util.MinecraftToken) (util.Entitlements, error) {
	var entitlements util.Entitlements
	err := getMinecraftServices(MC_ENTITLEMENTS_URL, minecraft, &entitlements)
	return entitlements, err
}

func GetMinecraftProfile(minecraft util.MinecraftToken) (util.MinecraftProfile, error) {
	var profile util.MinecraftProfile
	err := getMinecraftServices(MC_PROFILE_URL, minecraft, &profile)
	return profile, err
}

func getMinecraftServices(url string, minecraft util.MinecraftToken, result interface{}) error {
	if err := minecraft.CheckExpired(); err != nil {
		return err
	}

	util.Debug("Requesting %s", url)
	resp, err := client.R().
		SetHeader("Accept", "application/json").
		SetAuthToken(minecraft.Token).
		Get(url)
	if err := checkResponse(url, resp, err); err != nil {
		return err
	}

	if err := json.Unmarshal(resp.Body(), result); err != nil {
		return util.Wrap(util.ErrAuthProtocol, url, err)
	}
	return nil
}

func checkResponse(url string, resp *resty.Response, err error) error {
	if err != nil {
		return util.Wrap(util.ErrHttpFailed, url, err)
	}
	if !resp.IsSuccess() {
		return util.Wrap(util.ErrHttpFailed, url, newStatusError(resp))
	}
	return nil
}
