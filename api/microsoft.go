package api

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/mrnavastar/blockman/util"
	"github.com/pkg/browser"
	"github.com/pterm/pterm"
	"golang.org/x/oauth2"
)

const loginPage = "<html><body><h1>Logged in</h1><p>You can close this window and return to blockman.</p></body></html>"

// Tokens are considered expired a minute before Microsoft says they are.
const expirySkew = 60 * time.Second

type Credentials struct {
	ClientId     string
	ClientSecret string
}

// OpenBrowser shows the authorize page to the user.
var OpenBrowser = browser.OpenURL

// ShowAuthURL is the fallback when no browser could be opened, e.g. over ssh.
var ShowAuthURL = func(authURL string) {
	pterm.Warning.Printfln("Could not open a browser, open this address to sign in:\n%s", authURL)
}

func oauthConfig(creds Credentials, redirect string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     creds.ClientId,
		ClientSecret: creds.ClientSecret,
		Endpoint: oauth2.Endpoint{
			AuthURL:   MS_AUTH_CODE_URL,
			TokenURL:  MS_AUTH_TOKEN_URL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
		RedirectURL: redirect,
		Scopes:      []string{"XboxLive.signin", "XboxLive.offline_access"},
	}
}

// AuthenticateMicrosoft runs the authorization code flow with PKCE through a
// one-shot loopback listener. It gives up when ctx is done.
func AuthenticateMicrosoft(ctx context.Context, creds Credentials) (util.MicrosoftToken, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return util.MicrosoftToken{}, util.Wrap(util.ErrAuthProtocol, "loopback", err)
	}
	defer listener.Close()

	redirect := fmt.Sprintf("http://localhost:%d/blocky_auth", listener.Addr().(*net.TCPAddr).Port)
	conf := oauthConfig(creds, redirect)

	verifier := oauth2.GenerateVerifier()
	state := uuid.NewString()
	authURL := conf.AuthCodeURL(state, oauth2.S256ChallengeOption(verifier))

	util.Debug("Opening %s", authURL)
	if err := OpenBrowser(authURL); err != nil {
		util.Debug("Could not open browser: %s", err)
		ShowAuthURL(authURL)
	}

	code, err := acceptCode(ctx, listener, state)
	if err != nil {
		return util.MicrosoftToken{}, err
	}

	token, err := conf.Exchange(oauthContext(ctx), code, oauth2.VerifierOption(verifier))
	if err != nil {
		return util.MicrosoftToken{}, util.Wrap(util.ErrAuthProtocol, "code exchange", err)
	}
	return microsoftToken(token), nil
}

// RefreshMicrosoft trades the stored refresh token for a new access token.
func RefreshMicrosoft(ctx context.Context, creds Credentials, token util.MicrosoftToken) (util.MicrosoftToken, error) {
	if token.RefreshToken == "" {
		return util.MicrosoftToken{}, util.Wrap(util.ErrAuthNotAuthenticated, string(util.TokenMicrosoft), nil)
	}

	util.Debug("Refreshing Microsoft token")
	source := oauthConfig(creds, "").TokenSource(oauthContext(ctx), &oauth2.Token{RefreshToken: token.RefreshToken})
	refreshed, err := source.Token()
	if err != nil {
		return util.MicrosoftToken{}, util.Wrap(util.ErrAuthProtocol, "refresh", err)
	}
	return microsoftToken(refreshed), nil
}

func microsoftToken(token *oauth2.Token) util.MicrosoftToken {
	result := util.MicrosoftToken{Token: token.AccessToken, RefreshToken: token.RefreshToken}
	if !token.Expiry.IsZero() {
		exp := token.Expiry.Add(-expirySkew)
		result.Exp = &exp
	}
	return result
}

func acceptCode(ctx context.Context, listener net.Listener, state string) (string, error) {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			listener.Close()
		case <-done:
		}
	}()

	conn, err := listener.Accept()
	if err != nil {
		if ctx.Err() != nil {
			return "", util.Wrap(util.ErrAuthProtocol, "login timed out", ctx.Err())
		}
		return "", util.Wrap(util.ErrAuthProtocol, "loopback", err)
	}
	defer conn.Close()

	req, err := http.ReadRequest(bufio.NewReader(conn))
	if err != nil {
		return "", util.Wrap(util.ErrAuthProtocol, "loopback", err)
	}
	fmt.Fprintf(conn, "HTTP/1.1 200 OK\r\nContent-Type: text/html\r\nContent-Length: %d\r\nConnection: close\r\n\r\n%s", len(loginPage), loginPage)

	query := req.URL.Query()
	if reason := query.Get("error"); reason != "" {
		return "", util.Wrap(util.ErrAuthProtocol, reason, errors.New(query.Get("error_description")))
	}
	if query.Get("state") != state {
		return "", util.Wrap(util.ErrAuthProtocol, "loopback", errors.New("state does not match"))
	}

	code := query.Get("code")
	if code == "" {
		return "", util.Wrap(util.ErrAuthProtocol, "loopback", errors.New("no code in redirect"))
	}
	return code, nil
}
