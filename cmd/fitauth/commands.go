package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/andyleap/fitauth/internal/models"
	"github.com/andyleap/fitauth/internal/oauth"
	"github.com/andyleap/fitauth/internal/storage"
)

type AuthorizeCommand struct {
	Scopes []string `long:"scope" short:"s" description:"Scope to request in addition to the provider defaults (repeatable)"`

	opts *Options
	out  io.Writer
}

func (c *AuthorizeCommand) Execute(args []string) error {
	if c.opts.RedirectURI == "" {
		return errors.New("--redirect-uri is required to start a login")
	}
	return withApp(c.opts, func(ctx context.Context, a *App) error {
		authURL, req, err := a.client.AuthorizationURL(c.opts.RedirectURI, c.Scopes)
		if err != nil {
			return err
		}
		if err := a.states.SaveAuthorizationRequest(ctx, req); err != nil {
			return fmt.Errorf("failed to save authorization request: %w", err)
		}
		a.logger.Info("Login started", "provider", a.client.Config().Name, "expires_at", req.ExpiresAt.Format(time.RFC3339))
		fmt.Fprintln(c.out, authURL)
		return nil
	})
}

type ExchangeCommand struct {
	Code    string `long:"code" required:"true" description:"Authorization code from the callback"`
	State   string `long:"state" required:"true" description:"State from the callback"`
	Subject string `long:"subject" description:"Store the token under this key instead of the resource owner id"`

	opts *Options
	out  io.Writer
}

func (c *ExchangeCommand) Execute(args []string) error {
	return withApp(c.opts, func(ctx context.Context, a *App) error {
		req, err := a.states.TakeAuthorizationRequest(ctx, c.State)
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("unknown, expired or already used state, restart the login: %w", oauth.ErrInvalidState)
		}
		if err != nil {
			return err
		}

		tok, err := a.client.ExchangeCode(ctx, c.Code, req, c.State)
		if err != nil {
			return err
		}

		subject := c.Subject
		if tok.ResourceOwnerID == "" {
			owner, err := a.client.FetchOwner(ctx, tok)
			if err != nil {
				return fmt.Errorf("token issued but resource owner lookup failed: %w", err)
			}
			tok.ResourceOwnerID = owner.ID
		}
		if subject == "" {
			subject = tok.ResourceOwnerID
		}

		if err := a.tokens.SaveToken(ctx, subject, tok); err != nil {
			return fmt.Errorf("failed to save token: %w", err)
		}
		a.logger.Info("Token stored", "subject", subject)
		fmt.Fprintln(c.out, subject)
		return nil
	})
}

type RefreshCommand struct {
	Subject string `long:"subject" required:"true" description:"Stored token key"`

	opts *Options
	out  io.Writer
}

func (c *RefreshCommand) Execute(args []string) error {
	return withApp(c.opts, func(ctx context.Context, a *App) error {
		tok, err := a.loadToken(ctx, c.Subject)
		if err != nil {
			return err
		}
		next, err := a.refreshAndSave(ctx, c.Subject, *tok)
		if err != nil {
			return err
		}
		if next.ExpiresAt.IsZero() {
			fmt.Fprintln(c.out, "refreshed")
		} else {
			fmt.Fprintf(c.out, "refreshed, expires %s\n", next.ExpiresAt.Format(time.RFC3339))
		}
		return nil
	})
}

type RevokeCommand struct {
	Subject string `long:"subject" required:"true" description:"Stored token key"`
	UserID  string `long:"user-id" description:"Provider user id to revoke (defaults to the token owner)"`

	opts *Options
	out  io.Writer
}

func (c *RevokeCommand) Execute(args []string) error {
	return withApp(c.opts, func(ctx context.Context, a *App) error {
		tok, err := a.loadToken(ctx, c.Subject)
		if err != nil {
			return err
		}

		userID := c.UserID
		if userID == "" && tok.ResourceOwnerID == "" {
			userID = c.Subject
		}
		if err := a.client.Revoke(ctx, *tok, userID); err != nil {
			return err
		}
		if err := a.tokens.DeleteToken(ctx, c.Subject); err != nil {
			return fmt.Errorf("token revoked but could not be removed from storage: %w", err)
		}
		fmt.Fprintln(c.out, "revoked")
		return nil
	})
}

type WhoamiCommand struct {
	Subject string `long:"subject" required:"true" description:"Stored token key"`

	opts *Options
	out  io.Writer
}

func (c *WhoamiCommand) Execute(args []string) error {
	return withApp(c.opts, func(ctx context.Context, a *App) error {
		tok, err := a.loadToken(ctx, c.Subject)
		if err != nil {
			return err
		}

		if tok.Expired(time.Now()) && tok.HasRefreshToken() {
			a.logger.Info("Token expired, refreshing", "subject", c.Subject)
			next, err := a.refreshAndSave(ctx, c.Subject, *tok)
			if err != nil {
				return err
			}
			tok = &next
		}

		owner, err := a.client.FetchOwner(ctx, *tok)
		var perr *oauth.ProviderError
		if errors.As(err, &perr) && perr.StatusCode == http.StatusUnauthorized && tok.HasRefreshToken() {
			// the provider is the source of truth for expiry
			a.logger.Info("Token rejected, refreshing", "subject", c.Subject)
			next, rerr := a.refreshAndSave(ctx, c.Subject, *tok)
			if rerr != nil {
				return rerr
			}
			owner, err = a.client.FetchOwner(ctx, next)
		}
		if err != nil {
			return err
		}
		return writeOwner(c.out, owner)
	})
}

func writeOwner(w io.Writer, owner models.ResourceOwner) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(owner)
}
