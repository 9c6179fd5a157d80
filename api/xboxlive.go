package api

import (
	"errors"
	"fmt"
	"time"

	"github.com/mrnavastar/blockman/util"
	"github.com/tidwall/gjson"
)

var xboxErrors = map[int64]string{
	2148916233: "the account has no Xbox profile",
	2148916235: "Xbox Live is not available in the account's country",
	2148916236: "the account needs adult verification",
	2148916237: "the account needs adult verification",
	2148916238: "the account is a child account and must be added to a family",
}

type xboxLiveResult struct {
	token    string
	userHash string
	exp      *time.Time
}

func AuthenticateXboxLive(microsoft util.MicrosoftToken) (util.XboxLiveToken, error) {
	if err := microsoft.CheckExpired(); err != nil {
		return util.XboxLiveToken{}, err
	}

	util.Debug("Authenticating with Xbox Live")
	result, err := postXbox(XBL_AUTH_URL, map[string]interface{}{
		"Properties": map[string]interface{}{
			"AuthMethod": "RPS",
			"SiteName":   "user.auth.xboxlive.com",
			"RpsTicket":  "d=" + microsoft.Token,
		},
		"RelyingParty": "http://auth.xboxlive.com",
		"TokenType":    "JWT",
	})
	if err != nil {
		return util.XboxLiveToken{}, err
	}
	return util.XboxLiveToken{Token: result.token, UserHash: result.userHash, Exp: result.exp}, nil
}

func AuthenticateXboxLiveSecurity(xboxLive util.XboxLiveToken) (util.XboxLiveSecurityToken, error) {
	if err := xboxLive.CheckExpired(); err != nil {
		return util.XboxLiveSecurityToken{}, err
	}

	util.Debug("Authenticating with Xbox Live Security")
	result, err := postXbox(XSTS_AUTH_URL, map[string]interface{}{
		"Properties": map[string]interface{}{
			"SandboxId":  "RETAIL",
			"UserTokens": []string{xboxLive.Token},
		},
		"RelyingParty": "rp://api.minecraftservices.com/",
		"TokenType":    "JWT",
	})
	if err != nil {
		return util.XboxLiveSecurityToken{}, err
	}

	if result.userHash == "" {
		result.userHash = xboxLive.UserHash
	}
	return util.XboxLiveSecurityToken{Token: result.token, UserHash: result.userHash, Exp: result.exp}, nil
}

func postXbox(url string, body interface{}) (xboxLiveResult, error) {
	resp, err := client.R().
		SetHeader("Accept", "application/json").
		SetBody(body).
		Post(url)
	if err != nil {
		return xboxLiveResult{}, util.Wrap(util.ErrHttpFailed, url, err)
	}

	if !resp.IsSuccess() {
		if xerr := gjson.GetBytes(resp.Body(), "XErr"); xerr.Exists() {
			message, ok := xboxErrors[xerr.Int()]
			if !ok {
				message = gjson.GetBytes(resp.Body(), "Message").String()
			}
			return xboxLiveResult{}, util.Wrap(util.ErrAuthProtocol, url, fmt.Errorf("XErr %d: %s", xerr.Int(), message))
		}
		return xboxLiveResult{}, util.Wrap(util.ErrHttpFailed, url, newStatusError(resp))
	}

	if !gjson.ValidBytes(resp.Body()) {
		return xboxLiveResult{}, util.Wrap(util.ErrAuthProtocol, url, errors.New("malformed response"))
	}

	parsed := gjson.ParseBytes(resp.Body())
	result := xboxLiveResult{
		token:    parsed.Get("Token").String(),
		userHash: parsed.Get("DisplayClaims.xui.0.uhs").String(),
	}
	if result.token == "" {
		return xboxLiveResult{}, util.Wrap(util.ErrAuthProtocol, url, errors.New("response has no token"))
	}

	if notAfter := parsed.Get("NotAfter"); notAfter.Exists() {
		exp, err := time.Parse(time.RFC3339Nano, notAfter.String())
		if err != nil {
			return xboxLiveResult{}, util.Wrap(util.ErrAuthProtocol, url, err)
		}
		result.exp = &exp
	}
	return result, nil
}
