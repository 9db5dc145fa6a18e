// Package authkey mints single-use mesh pre-auth keys for verified operators
// and fetches them on the operator side.
package authkey

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// DefaultAPIBase is the mesh admin API.
const DefaultAPIBase = "https://api.tailscale.com"

// Key is a freshly minted pre-auth key.
type Key struct {
	AuthKey   string  `json:"auth_key"`
	ExpiresAt *string `json:"expires_at"`
}

// KeyOptions shapes the minted key.
type KeyOptions struct {
	Reusable      bool
	Ephemeral     bool
	Preauthorized bool
	Tags          []string
	ExpirySeconds int
}

// DefaultKeyOptions issues a pre-authorised, single-use, persistent key tagged
// for operators that expires after five minutes.
func DefaultKeyOptions() KeyOptions {
	return KeyOptions{
		Preauthorized: true,
		Tags:          []string{"tag:operator"},
		ExpirySeconds: 300,
	}
}

// Minter creates pre-auth keys.
type Minter interface {
	Mint(ctx context.Context) (Key, error)
}

// TailnetMinter mints keys through the admin API using OAuth client
// credentials.
type TailnetMinter struct {
	creds   clientcredentials.Config
	apiBase string
	tailnet string
	opts    KeyOptions
	// base is the transport the OAuth client wraps; nil uses the default.
	base *http.Client
}

// NewTailnetMinter returns a minter for tailnet. An empty apiBase uses
// DefaultAPIBase.
func NewTailnetMinter(clientID, clientSecret, tailnet, apiBase string, opts KeyOptions, base *http.Client) *TailnetMinter {
	if apiBase == "" {
		apiBase = DefaultAPIBase
	}
	apiBase = strings.TrimRight(apiBase, "/")
	return &TailnetMinter{
		creds: clientcredentials.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			TokenURL:     apiBase + "/api/v2/oauth/token",
			AuthStyle:    oauth2.AuthStyleInHeader,
		},
		apiBase: apiBase,
		tailnet: tailnet,
		opts:    opts,
		base:    base,
	}
}

type createKeyRequest struct {
	Capabilities struct {
		Devices struct {
			Create struct {
				Reusable      bool     `json:"reusable"`
				Ephemeral     bool     `json:"ephemeral"`
				Preauthorized bool     `json:"preauthorized"`
				Tags          []string `json:"tags"`
			} `json:"create"`
		} `json:"devices"`
	} `json:"capabilities"`
	ExpirySeconds int `json:"expirySeconds"`
}

type createKeyResponse struct {
	Key     string `json:"key"`
	AuthKey string `json:"authKey"`
	Expires string `json:"expires"`
	Expiry  string `json:"expiry"`
}

// ErrUpstream marks failures talking to the admin API.
var ErrUpstream = errors.New("upstream failure")

func (m *TailnetMinter) Mint(ctx context.Context) (Key, error) {
	if m.base != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, m.base)
	}
	client := m.creds.Client(ctx)

	var body createKeyRequest
	create := &body.Capabilities.Devices.Create
	create.Reusable = m.opts.Reusable
	create.Ephemeral = m.opts.Ephemeral
	create.Preauthorized = m.opts.Preauthorized
	create.Tags = m.opts.Tags
	body.ExpirySeconds = m.opts.ExpirySeconds

	buf, err := json.Marshal(body)
	if err != nil {
		return Key{}, fmt.Errorf("encode key request: %w", err)
	}
	endpoint := fmt.Sprintf("%s/api/v2/tailnet/%s/keys", m.apiBase, url.PathEscape(m.tailnet))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(buf))
	if err != nil {
		return Key{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return Key{}, fmt.Errorf("%w: create key: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Key{}, fmt.Errorf("%w: create key: %s: %s", ErrUpstream, resp.Status, strings.TrimSpace(string(snippet)))
	}

	var out createKeyResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Key{}, fmt.Errorf("%w: decode key response: %v", ErrUpstream, err)
	}
	key := Key{AuthKey: out.Key}
	if key.AuthKey == "" {
		key.AuthKey = out.AuthKey
	}
	if key.AuthKey == "" {
		return Key{}, fmt.Errorf("%w: key missing from response", ErrUpstream)
	}
	if exp := firstNonEmpty(out.Expires, out.Expiry); exp != "" {
		key.ExpiresAt = &exp
	}
	return key, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
