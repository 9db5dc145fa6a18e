package authkey

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Fetch asks the mint service at endpoint for a key on behalf of the operator
// identified by token.
func Fetch(ctx context.Context, client *http.Client, endpoint, token string) (Key, error) {
	if token == "" {
		return Key{}, errors.New("operator token is empty")
	}
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return Key{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("User-Agent", "teleop/1.0")

	resp, err := client.Do(req)
	if err != nil {
		return Key{}, fmt.Errorf("fetch auth key: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Key{}, fmt.Errorf("fetch auth key: %s: %s", resp.Status, strings.TrimSpace(string(msg)))
	}

	var key Key
	if err := json.NewDecoder(resp.Body).Decode(&key); err != nil {
		return Key{}, fmt.Errorf("decode auth key: %w", err)
	}
	if key.AuthKey == "" {
		return Key{}, errors.New("fetch auth key: response has no key")
	}
	return key, nil
}
