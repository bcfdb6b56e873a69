package handler

import (
	"log/slog"
	"net/http"
	"net/url"

	"shopauth/config"
	"shopauth/internal/delivery/http/response"
	"shopauth/internal/domain/entity"
	domainerrors "shopauth/internal/domain/errors"
	"shopauth/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// OAuthHandler holds dependencies for the OAuth2 handshake endpoints.
type OAuthHandler struct {
	uc     usecase.AuthUsecase
	cfg    *config.Config
	logger *slog.Logger
}

// NewOAuthHandler is the constructor for OAuthHandler, injected by Fx.
func NewOAuthHandler(uc usecase.AuthUsecase, cfg *config.Config, logger *slog.Logger) *OAuthHandler {
	return &OAuthHandler{uc: uc, cfg: cfg, logger: logger}
}

type exchangeRequest struct {
	Code string `json:"code" validate:"required"`
}

// Authorize starts the provider handshake. With redirect=true the browser is
// sent straight to the provider; otherwise the URL is returned for the
// frontend to navigate.
func (h *OAuthHandler) Authorize(c echo.Context) error {
	provider := entity.ProviderType(c.Param("provider"))

	authURL, err := h.uc.OAuth2AuthorizationURL(c.Request().Context(), provider)
	if err != nil {
		return errors.WithStack(err)
	}

	if c.QueryParam("redirect") == "true" {
		return c.Redirect(http.StatusTemporaryRedirect, authURL)
	}

	return response.Success(c, http.StatusOK, map[string]string{
		"oauth_url": authURL,
	}, "Authorization URL generated successfully")
}

// Callback completes the provider handshake. The browser lands here, so the
// outcome travels as a redirect: a one-time code on success, a generic
// failure page otherwise. Tokens never appear in a URL.
func (h *OAuthHandler) Callback(c echo.Context) error {
	provider := entity.ProviderType(c.Param("provider"))

	code, err := h.uc.OAuth2Login(c.Request().Context(), provider, usecase.OAuth2CallbackInput{
		Code:   c.QueryParam("code"),
		State:  c.QueryParam("state"),
		Client: extractClientContext(c),
	})
	if err != nil {
		h.logger.Warn("OAuth2 callback failed",
			slog.String("provider", provider.String()),
			slog.Any("error", err))

		return c.Redirect(http.StatusTemporaryRedirect, h.failureRedirect(provider, err))
	}

	target := h.cfg.OAuth2.FrontendCallbackURL + "?code=" + url.QueryEscape(code)

	return c.Redirect(http.StatusTemporaryRedirect, target)
}

// failureRedirect tags the failure page with the provider and a reason code
// so the frontend can distinguish a locked account from a provider rejection.
// The reason is the business error code, never the error message.
func (h *OAuthHandler) failureRedirect(provider entity.ProviderType, err error) string {
	reason := "OAUTH2_FAILED"
	var appErr domainerrors.AppError
	if errors.As(err, &appErr) {
		reason = appErr.ErrorCode()
	}

	return h.cfg.OAuth2.FrontendFailureURL +
		"?provider=" + url.QueryEscape(provider.String()) +
		"&reason=" + url.QueryEscape(reason)
}

// Exchange trades a one-time code for the token pair over JSON, away from
// browser history and referrer leakage.
func (h *OAuthHandler) Exchange(c echo.Context) error {
	var req exchangeRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid exchange input")
	}
	if err := c.Validate(&req); err != nil {
		return errors.WithStack(err)
	}

	output, err := h.uc.ExchangeOneTimeCode(c.Request().Context(), req.Code)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, output, "Code exchanged successfully")
}
