// Package main provides a CI-friendly smoke test for the RoadReady auth API.
//
// It validates:
//   - signup -> token pair issued
//   - me with the access token
//   - refresh -> rotated access token works, stale one does not
//   - logout -> session revoked
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

type sessionPayload struct {
	SessionID    string `json:"session_id"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type signupPayload struct {
	User struct {
		ID    int64  `json:"id"`
		Email string `json:"email"`
	} `json:"user"`
	Session sessionPayload `json:"session"`
}

type refreshPayload struct {
	AccessToken string `json:"access_token"`
}

func main() {
	var (
		baseURL = flag.String("url", "http://127.0.0.1:8080", "Server base URL")
		timeout = flag.Duration("timeout", 7*time.Second, "Per-request timeout")
		verbose = flag.Bool("v", false, "Verbose output")
	)
	flag.Parse()

	client := &http.Client{Timeout: *timeout}
	email := fmt.Sprintf("smoke-%d@example.com", time.Now().UnixNano())

	logf := func(format string, args ...any) {
		if *verbose {
			fmt.Printf(format+"\n", args...)
		}
	}

	// signup
	var signedUp signupPayload
	status, err := call(client, http.MethodPost, *baseURL+"/api/v1/auth/signup", "",
		map[string]string{"email": email, "password": "smoke test password"}, &signedUp)
	if err != nil || status != http.StatusCreated {
		fatalf("signup: status=%d err=%v", status, err)
	}
	if signedUp.Session.AccessToken == "" || signedUp.Session.RefreshToken == "" {
		fatalf("signup: missing token pair")
	}
	logf("signup ok: user=%d", signedUp.User.ID)

	// me
	status, err = call(client, http.MethodGet, *baseURL+"/api/v1/auth/me", signedUp.Session.AccessToken, nil, nil)
	if err != nil || status != http.StatusOK {
		fatalf("me: status=%d err=%v", status, err)
	}
	logf("me ok")

	// refresh
	var refreshed refreshPayload
	status, err = call(client, http.MethodPost, *baseURL+"/api/v1/auth/refresh", "",
		map[string]string{"refresh_token": signedUp.Session.RefreshToken}, &refreshed)
	if err != nil || status != http.StatusOK {
		fatalf("refresh: status=%d err=%v", status, err)
	}
	status, err = call(client, http.MethodGet, *baseURL+"/api/v1/auth/me", refreshed.AccessToken, nil, nil)
	if err != nil || status != http.StatusOK {
		fatalf("me with rotated token: status=%d err=%v", status, err)
	}
	status, err = call(client, http.MethodGet, *baseURL+"/api/v1/auth/me", signedUp.Session.AccessToken, nil, nil)
	if err != nil || status != http.StatusUnauthorized {
		fatalf("me with stale token: status=%d err=%v (want 401)", status, err)
	}
	logf("refresh ok")

	// logout
	status, err = call(client, http.MethodPost, *baseURL+"/api/v1/auth/logout", refreshed.AccessToken, nil, nil)
	if err != nil || status != http.StatusNoContent {
		fatalf("logout: status=%d err=%v", status, err)
	}
	status, err = call(client, http.MethodGet, *baseURL+"/api/v1/auth/me", refreshed.AccessToken, nil, nil)
	if err != nil || status != http.StatusUnauthorized {
		fatalf("me after logout: status=%d err=%v (want 401)", status, err)
	}
	logf("logout ok")

	fmt.Println("auth smoke: PASS")
}

func call(client *http.Client, method, url, bearer string, body any, dst any) (int, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return 0, err
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer func() { _ = resp.Body.Close() }()

	if dst != nil && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
			return resp.StatusCode, err
		}
	} else {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20))
	}
	return resp.StatusCode, nil
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "auth smoke: FAIL: "+format+"\n", args...)
	os.Exit(1)
}
