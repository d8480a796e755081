package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
	"golang.org/x/oauth2/google"

	"github.com/mkarel/portfolio-api/internal/auth"
	"github.com/mkarel/portfolio-api/internal/config"
	"github.com/mkarel/portfolio-api/internal/model"
	"github.com/mkarel/portfolio-api/internal/service"
)

const (
	stateCookieName = "oauth_state"
	stateCookieTTL  = 10 * time.Minute
)

// OAuthHandler drives the provider redirect flow: the initiating endpoint
// sends the browser to the provider's authorization URL with a state value
// carrying the intent (login vs register) and a CSRF nonce; the callback
// exchanges the authorization code server-side, fetches the provider's
// userinfo and hands the profile to identity resolution.
type OAuthHandler struct {
	Cfg      config.Config
	Identity *service.IdentityService
}

func NewOAuthHandler(cfg config.Config, identity *service.IdentityService) *OAuthHandler {
	return &OAuthHandler{Cfg: cfg, Identity: identity}
}

// oauthConfig builds the oauth2 client configuration for a provider name.
func (h *OAuthHandler) oauthConfig(provider string) (*oauth2.Config, error) {
	redirect := fmt.Sprintf("%s/v1/auth/oauth/%s/callback", h.Cfg.OAuthRedirectBase, provider)
	switch provider {
	case model.ProviderGoogle:
		return &oauth2.Config{
			ClientID:     h.Cfg.GoogleClientID,
			ClientSecret: h.Cfg.GoogleClientSecret,
			RedirectURL:  redirect,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		}, nil
	case model.ProviderGitHub:
		return &oauth2.Config{
			ClientID:     h.Cfg.GitHubClientID,
			ClientSecret: h.Cfg.GitHubClientSecret,
			RedirectURL:  redirect,
			Scopes:       []string{"read:user", "user:email"},
			Endpoint:     github.Endpoint,
		}, nil
	default:
		return nil, fmt.Errorf("unknown provider %q", provider)
	}
}

// Redirect sends the client to the provider's authorization URL. The
// optional ?intent=register query switches the state from the default
// login intent.
func (h *OAuthHandler) Redirect(c echo.Context) error {
	conf, err := h.oauthConfig(c.Param("provider"))
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "unknown provider"})
	}

	intent := c.QueryParam("intent")
	if intent != "register" {
		intent = "login"
	}
	nonce, err := auth.NewOpaqueToken()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}

	c.SetCookie(&http.Cookie{
		Name:     stateCookieName,
		Value:    nonce,
		Path:     "/",
		MaxAge:   int(stateCookieTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return c.Redirect(http.StatusFound, conf.AuthCodeURL(intent+"."+nonce))
}

// Callback handles the provider redirect: state/nonce check, code exchange,
// userinfo fetch, then identity resolution and token issuance.
func (h *OAuthHandler) Callback(c echo.Context) error {
	provider := c.Param("provider")
	conf, err := h.oauthConfig(provider)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "unknown provider"})
	}

	state := c.QueryParam("state")
	intent, nonce, ok := strings.Cut(state, ".")
	cookie, cerr := c.Cookie(stateCookieName)
	if !ok || cerr != nil || cookie.Value == "" || cookie.Value != nonce {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "state mismatch"})
	}
	if intent != "login" && intent != "register" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "state mismatch"})
	}
	code := c.QueryParam("code")
	if code == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "code required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	tok, err := conf.Exchange(ctx, code)
	if err != nil {
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "code exchange failed"})
	}

	identity, err := fetchProfile(ctx, conf, provider, tok)
	if err != nil {
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "profile fetch failed"})
	}

	// Resolution is uniform for both intents; the state only distinguishes
	// the client flow that initiated it.
	u, session, exp, err := h.Identity.ResolveOAuth(ctx, identity)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, sessionResp{User: u.Sanitized(), Token: session, Expires: exp})
}

// fetchProfile queries the provider's userinfo endpoint with the exchanged
// access token and reduces the response to an OAuthIdentity.
func fetchProfile(ctx context.Context, conf *oauth2.Config, provider string, tok *oauth2.Token) (service.OAuthIdentity, error) {
	client := conf.Client(ctx, tok)
	switch provider {
	case model.ProviderGoogle:
		return fetchGoogleProfile(client)
	case model.ProviderGitHub:
		return fetchGitHubProfile(client)
	}
	return service.OAuthIdentity{}, fmt.Errorf("unknown provider %q", provider)
}

func fetchGoogleProfile(client *http.Client) (service.OAuthIdentity, error) {
	var info struct {
		ID      string `json:"id"`
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	if err := getJSON(client, "https://www.googleapis.com/oauth2/v2/userinfo", &info); err != nil {
		return service.OAuthIdentity{}, err
	}
	if info.Email == "" {
		return service.OAuthIdentity{}, fmt.Errorf("google profile has no email")
	}
	return service.OAuthIdentity{
		Provider:   model.ProviderGoogle,
		ProviderID: info.ID,
		Email:      info.Email,
		Name:       info.Name,
		Picture:    info.Picture,
	}, nil
}

func fetchGitHubProfile(client *http.Client) (service.OAuthIdentity, error) {
	var info struct {
		ID        int64  `json:"id"`
		Login     string `json:"login"`
		Name      string `json:"name"`
		Email     string `json:"email"`
		AvatarURL string `json:"avatar_url"`
	}
	if err := getJSON(client, "https://api.github.com/user", &info); err != nil {
		return service.OAuthIdentity{}, err
	}
	email := info.Email
	if email == "" {
		// Profile email is often private; fall back to the emails API.
		var emails []struct {
			Email   string `json:"email"`
			Primary bool   `json:"primary"`
		}
		if err := getJSON(client, "https://api.github.com/user/emails", &emails); err != nil {
			return service.OAuthIdentity{}, err
		}
		for _, e := range emails {
			if e.Primary {
				email = e.Email
				break
			}
		}
	}
	if email == "" {
		return service.OAuthIdentity{}, fmt.Errorf("github profile has no email")
	}
	name := info.Name
	if name == "" {
		name = info.Login
	}
	return service.OAuthIdentity{
		Provider:   model.ProviderGitHub,
		ProviderID: fmt.Sprintf("%d", info.ID),
		Email:      email,
		Name:       name,
		Picture:    info.AvatarURL,
	}, nil
}

func getJSON(client *http.Client, url string, out any) error {
	resp, err := client.Get(url)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: status %d", url, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
