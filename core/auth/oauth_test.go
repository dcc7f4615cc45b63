package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"mixvault/config"

	"golang.org/x/oauth2"
)

func newTestOAuthClient(serverURL string) *OAuthClient {
	return NewOAuthClient(&config.Config{
		OAuthProvider:     "github",
		OAuthClientID:     "client-id",
		OAuthClientSecret: "client-secret",
		OAuthRedirectURL:  "http://localhost/api/auth/callback",
		OAuthAuthURL:      serverURL + "/authorize",
		OAuthTokenURL:     serverURL + "/token",
		OAuthUserInfoURL:  serverURL + "/user",
	})
}

func TestOAuthFlow(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("token request method = %s", r.Method)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"test-token","token_type":"bearer"}`))
	})
	mux.HandleFunc("/user", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("userinfo Authorization = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":42,"login":"djtest","email":"DJ@Example.com","avatar_url":"http://img/a.png"}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := newTestOAuthClient(server.URL)

	token, err := client.Exchange(context.Background(), "auth-code")
	if err != nil {
		t.Fatalf("Exchange: %v", err)
	}
	if token.AccessToken != "test-token" {
		t.Errorf("access token = %q", token.AccessToken)
	}

	identity, err := client.FetchIdentity(context.Background(), token)
	if err != nil {
		t.Fatalf("FetchIdentity: %v", err)
	}
	if identity.Provider != "github" {
		t.Errorf("provider = %q, want github", identity.Provider)
	}
	if identity.SubjectID != "42" {
		t.Errorf("subject = %q, want 42", identity.SubjectID)
	}
	if identity.Username != "djtest" {
		t.Errorf("username = %q", identity.Username)
	}
	if identity.Email != "dj@example.com" {
		t.Errorf("email = %q, want lowercased", identity.Email)
	}
	if identity.AvatarURL != "http://img/a.png" {
		t.Errorf("avatar = %q", identity.AvatarURL)
	}
}

func TestFetchIdentityShapes(t *testing.T) {
	cases := []struct {
		name        string
		body        string
		wantErr     bool
		wantSubject string
		wantName    string
		wantAvatar  string
	}{
		{
			name:        "oidc fields",
			body:        `{"sub":"abc-123","name":"DJ Test","picture":"http://img/p.png"}`,
			wantSubject: "abc-123",
			wantName:    "DJ Test",
			wantAvatar:  "http://img/p.png",
		},
		{
			name:    "missing subject",
			body:    `{"login":"nobody"}`,
			wantErr: true,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(tc.body))
			}))
			defer server.Close()

			client := newTestOAuthClient(server.URL)
			identity, err := client.FetchIdentity(context.Background(), &oauth2.Token{AccessToken: "tok"})
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("FetchIdentity: %v", err)
			}
			if identity.SubjectID != tc.wantSubject {
				t.Errorf("subject = %q, want %q", identity.SubjectID, tc.wantSubject)
			}
			if identity.Username != tc.wantName {
				t.Errorf("username = %q, want %q", identity.Username, tc.wantName)
			}
			if identity.AvatarURL != tc.wantAvatar {
				t.Errorf("avatar = %q, want %q", identity.AvatarURL, tc.wantAvatar)
			}
		})
	}
}
