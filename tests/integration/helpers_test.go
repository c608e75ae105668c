//go:build integration
// +build integration

package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/gokatarajesh/starknow-arena/internal/auth/jwt"
)

type player struct {
	Phone       string
	Name        string
	AccessToken string
}

func envOrDefault(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func baseURL() string {
	return envOrDefault("INTEGRATION_BASE_URL", "http://localhost:3002")
}

// newPlayer mints a token with the secret the API under test was started with.
func newPlayer(t *testing.T, name string) player {
	t.Helper()

	tokens := jwt.NewManager(jwt.TokenConfig{
		Secret: []byte(envOrDefault("INTEGRATION_JWT_SECRET", "integration-secret")),
		Issuer: envOrDefault("INTEGRATION_JWT_ISSUER", "starknow-auth"),
	})
	phone := fmt.Sprintf("139%08d", time.Now().UnixNano()%100000000)
	token, err := tokens.GenerateAccessToken(jwt.User{Phone: phone, Name: name})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return player{Phone: phone, Name: name, AccessToken: token}
}

func doJSON(t *testing.T, p player, method, path string, payload interface{}) (int, map[string]interface{}) {
	t.Helper()

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, baseURL()+path, body)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if p.AccessToken != "" {
		req.Header.Set("Authorization", "Bearer "+p.AccessToken)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, path, err)
	}
	defer resp.Body.Close()

	var out map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil && err != io.EOF {
		t.Fatalf("decode %s %s response: %v", method, path, err)
	}
	return resp.StatusCode, out
}
