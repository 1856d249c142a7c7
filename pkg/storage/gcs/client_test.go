package gcs

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"golang.org/x/oauth2"

	"github.com/angelmondragon/shirtforge-backend/pkg/config"
)

type roundTripFunc func(*http.Request) *http.Response

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req), nil
}

func staticToken() oauth2.TokenSource {
	return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "token", TokenType: "Bearer"})
}

func testClient(rt roundTripFunc) *Client {
	return &Client{
		httpClient:    &http.Client{Transport: rt},
		defaultBucket: "shirt-art",
		apiBase:       defaultAPIBase,
		tokens:        staticToken(),
	}
}

func respond(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Status:     http.StatusText(status),
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     http.Header{},
	}
}

func TestPutObjectUploadsMedia(t *testing.T) {
	t.Parallel()

	var gotBody []byte
	client := testClient(func(req *http.Request) *http.Response {
		if req.Method != http.MethodPost {
			t.Fatalf("expected POST, got %s", req.Method)
		}
		if req.URL.Path != "/upload/storage/v1/b/shirt-art/o" {
			t.Fatalf("unexpected path %s", req.URL.Path)
		}
		if req.URL.Query().Get("uploadType") != "media" || req.URL.Query().Get("name") != "design-orders/abc/front-design.png" {
			t.Fatalf("unexpected query %s", req.URL.RawQuery)
		}
		if req.Header.Get("Authorization") != "Bearer token" {
			t.Fatalf("unexpected auth %s", req.Header.Get("Authorization"))
		}
		if req.Header.Get("Content-Type") != "image/png" {
			t.Fatalf("unexpected content type %s", req.Header.Get("Content-Type"))
		}
		gotBody, _ = io.ReadAll(req.Body)
		return respond(http.StatusOK, `{"name":"design-orders/abc/front-design.png"}`)
	})

	u, err := client.PutObject(context.Background(), "/design-orders/abc/front-design.png", "image/png", []byte("png-bytes"))
	if err != nil {
		t.Fatalf("PutObject: %v", err)
	}
	if string(gotBody) != "png-bytes" {
		t.Fatalf("unexpected body %q", gotBody)
	}
	if u != "https://storage.googleapis.com/shirt-art/design-orders/abc/front-design.png" {
		t.Fatalf("unexpected url %s", u)
	}
}

func TestPutObjectErrors(t *testing.T) {
	t.Parallel()

	client := testClient(func(*http.Request) *http.Response {
		return respond(http.StatusForbidden, `{"error":"denied"}`)
	})
	if _, err := client.PutObject(context.Background(), "a.png", "image/png", nil); err == nil || !strings.Contains(err.Error(), "denied") {
		t.Fatalf("expected upload error with body, got %v", err)
	}
	if _, err := client.PutObject(context.Background(), " ", "image/png", nil); err == nil {
		t.Fatal("expected error for empty object")
	}
	if _, err := client.PutObject(context.Background(), "a.png", "", nil); err == nil {
		t.Fatal("expected error for empty content type")
	}
	var nilClient *Client
	if _, err := nilClient.PutObject(context.Background(), "a.png", "image/png", nil); err == nil {
		t.Fatal("expected error for nil client")
	}
}

func TestDeleteObject(t *testing.T) {
	t.Parallel()

	for _, status := range []int{http.StatusNoContent, http.StatusNotFound} {
		client := testClient(func(req *http.Request) *http.Response {
			if req.Method != http.MethodDelete {
				t.Fatalf("expected DELETE, got %s", req.Method)
			}
			if !strings.HasSuffix(req.URL.EscapedPath(), "/o/design-orders%2Fabc%2Ffront.png") {
				t.Fatalf("object name must be escaped, got %s", req.URL.EscapedPath())
			}
			return respond(status, "")
		})
		if err := client.DeleteObject(context.Background(), "design-orders/abc/front.png"); err != nil {
			t.Fatalf("DeleteObject with %d: %v", status, err)
		}
	}

	failing := testClient(func(*http.Request) *http.Response { return respond(http.StatusInternalServerError, "") })
	if err := failing.DeleteObject(context.Background(), "x.png"); err == nil {
		t.Fatal("expected error on 500")
	}
}

func TestPing(t *testing.T) {
	t.Parallel()

	ok := testClient(func(req *http.Request) *http.Response {
		if req.URL.Path != "/storage/v1/b/shirt-art/o" {
			t.Fatalf("unexpected path %s", req.URL.Path)
		}
		return respond(http.StatusOK, `{"items":[]}`)
	})
	if err := ok.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}

	denied := testClient(func(*http.Request) *http.Response { return respond(http.StatusForbidden, "") })
	if err := denied.Ping(context.Background()); err == nil {
		t.Fatal("expected ping failure")
	}

	var nilClient *Client
	if err := nilClient.Ping(context.Background()); err == nil {
		t.Fatal("expected error for nil client")
	}
}

func TestObjectURLUsesPublicBase(t *testing.T) {
	t.Parallel()

	client := &Client{defaultBucket: "shirt-art", publicBaseURL: "https://cdn.example.com/art"}
	if got := client.ObjectURL("design-orders/a b/front.png"); got != "https://cdn.example.com/art/design-orders/a%20b/front.png" {
		t.Fatalf("unexpected url %s", got)
	}
}

func TestNewClientRequiresBucket(t *testing.T) {
	t.Parallel()

	if _, err := NewClient(context.Background(), config.GCSConfig{}, config.GCPConfig{}, nil); err == nil {
		t.Fatal("expected error without bucket")
	}
	if _, err := NewClient(context.Background(), config.GCSConfig{BucketName: "b"}, config.GCPConfig{CredentialsJSON: "{"}, nil); err == nil {
		t.Fatal("expected error for malformed credentials")
	}
}

func TestTokenSourceReportsMissingFile(t *testing.T) {
	t.Parallel()

	_, err := tokenSourceFor(context.Background(), http.DefaultClient, config.GCPConfig{ApplicationCredentials: "/nonexistent/key.json"})
	if err == nil || !strings.Contains(err.Error(), "reading credentials file") {
		t.Fatalf("expected file error, got %v", err)
	}
}

func TestServiceAccountTokenExchange(t *testing.T) {
	t.Parallel()

	key := mustGenerateKey(t)
	pemKey := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})
	creds, err := json.Marshal(map[string]string{
		"type":         "service_account",
		"client_email": "signer@example.com",
		"private_key":  string(pemKey),
		"token_uri":    "https://oauth.example.com/token",
	})
	if err != nil {
		t.Fatalf("marshal creds: %v", err)
	}

	exchanges := 0
	httpClient := &http.Client{Transport: roundTripFunc(func(req *http.Request) *http.Response {
		exchanges++
		if req.URL.String() != "https://oauth.example.com/token" {
			t.Errorf("unexpected token endpoint %s", req.URL)
		}
		body, _ := io.ReadAll(req.Body)
		form, err := url.ParseQuery(string(body))
		if err != nil {
			t.Fatalf("parse form: %v", err)
		}
		parts := strings.Split(form.Get("assertion"), ".")
		if len(parts) != 3 {
			t.Fatalf("assertion is not a jwt: %q", form.Get("assertion"))
		}
		sig, err := base64.RawURLEncoding.DecodeString(parts[2])
		if err != nil {
			t.Fatalf("decode signature: %v", err)
		}
		hash := sha256.Sum256([]byte(parts[0] + "." + parts[1]))
		if err := rsa.VerifyPKCS1v15(&key.PublicKey, crypto.SHA256, hash[:], sig); err != nil {
			t.Fatalf("verify signature: %v", err)
		}
		return respond(http.StatusOK, `{"access_token":"exchanged","token_type":"Bearer","expires_in":3600}`)
	})}

	ts, err := tokenSourceFor(context.Background(), httpClient, config.GCPConfig{CredentialsJSON: string(creds)})
	if err != nil {
		t.Fatalf("token source: %v", err)
	}
	for i := 0; i < 3; i++ {
		token, err := ts.Token()
		if err != nil {
			t.Fatalf("Token: %v", err)
		}
		if token.AccessToken != "exchanged" {
			t.Fatalf("unexpected token %q", token.AccessToken)
		}
	}
	if exchanges != 1 {
		t.Fatalf("expected the token to be reused, got %d exchanges", exchanges)
	}
}

func mustGenerateKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate rsa key: %v", err)
	}
	return key
}
