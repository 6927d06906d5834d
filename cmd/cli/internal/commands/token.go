package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/jwstudio/portal/internal/token"
)

type TokenCmd struct {
	Generate TokenGenerateCmd `cmd:"" help:"Print new random tokens"`
	Check    TokenCheckCmd    `cmd:"" help:"Normalize and validate tokens"`
}

type TokenGenerateCmd struct {
	Count int `help:"number of tokens to print" default:"1" short:"n"`
}

func (t *TokenGenerateCmd) Run(ctx context.Context) error {
	if t.Count < 1 {
		return errors.New("count must be at least 1")
	}

	gen := token.NewGenerator()
	p := printer{out: os.Stdout}

	for range t.Count {
		p.plain("%s", gen.Generate())
	}

	if !gen.Secure() {
		printer{out: os.Stderr}.warning("secure randomness was unavailable, tokens above are pseudo-random")
	}

	return nil
}

type TokenCheckCmd struct {
	Tokens []string `arg:"" help:"tokens to check"`
	Server string   `help:"portal base URL; when set, also reports whether each token belongs to a project" env:"PORTAL_URL"`
}

// errInvalidTokens makes the command exit non-zero when any token failed.
var errInvalidTokens = errors.New("one or more tokens are invalid")

func (t *TokenCheckCmd) Run(ctx context.Context) error {
	return t.check(ctx, printer{out: os.Stdout}, http.DefaultClient)
}

func (t *TokenCheckCmd) check(ctx context.Context, p printer, client *http.Client) error {
	failed := false

	for _, raw := range t.Tokens {
		normalized := token.Normalize(raw)
		if !token.Validate(normalized) {
			p.failure("%q is not a valid token, expected %s", raw, token.Pattern)
			failed = true
			continue
		}

		if t.Server == "" {
			p.success("%s", normalized)
			continue
		}

		exists, err := lookup(ctx, client, t.Server, normalized)
		switch {
		case err != nil:
			return err
		case exists:
			p.success("%s belongs to a project", normalized)
		default:
			p.warning("%s is valid but unused", normalized)
		}
	}

	if failed {
		return errInvalidTokens
	}
	return nil
}

// lookup asks the public portal API whether tok belongs to a project.
func lookup(ctx context.Context, client *http.Client, server, tok string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	endpoint := strings.TrimSuffix(server, "/") + "/api/portal/" + url.PathEscape(tok)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return false, fmt.Errorf("failed to reach portal: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, fmt.Errorf("portal answered %s", resp.Status)
	}
}
