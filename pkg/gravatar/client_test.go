package gravatar

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kubitskyi/contacts-api/pkg/config"
)

type roundTripFunc func(req *http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

// md5("myemailaddress@example.com"), the value published in the Gravatar docs.
const exampleHash = "0bc83cb571cd1c50ba6f3e8a78ef1346"

func TestURLNormalisesEmail(t *testing.T) {
	client := NewClient(config.GravatarConfig{})

	got, err := client.URL("  MyEmailAddress@example.com ")
	if err != nil {
		t.Fatalf("url: %v", err)
	}
	if want := "https://www.gravatar.com/avatar/" + exampleHash; got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}

	if _, err := client.URL("   "); err == nil {
		t.Fatal("expected blank email to fail")
	}
}

func TestURLIncludesSizeAndDefault(t *testing.T) {
	client := NewClient(config.GravatarConfig{
		BaseURL:      "http://avatars.test/avatar/",
		Size:         200,
		DefaultImage: "identicon",
	})

	got, err := client.URL("myemailaddress@example.com")
	if err != nil {
		t.Fatalf("url: %v", err)
	}
	if want := "http://avatars.test/avatar/" + exampleHash + "?d=identicon&s=200"; got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}
}

func TestResolveWithoutVerify(t *testing.T) {
	called := false
	client := NewClient(config.GravatarConfig{}, WithHTTPClient(&http.Client{
		Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			called = true
			return nil, errors.New("unexpected call")
		}),
	}))

	res := client.Resolve(context.Background(), "myemailaddress@example.com")
	if res.Status != StatusResolved {
		t.Fatalf("expected resolved, got %+v", res)
	}
	if res.Avatar() == nil || !strings.HasSuffix(*res.Avatar(), exampleHash) {
		t.Fatalf("unexpected avatar %v", res.Avatar())
	}
	if called {
		t.Fatal("no network call expected without verify")
	}
}

func TestResolveVerifyProbe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodHead {
			t.Errorf("expected HEAD probe, got %s", r.Method)
		}
		if r.URL.Query().Get("d") != "404" {
			t.Errorf("probe must request d=404, got %q", r.URL.RawQuery)
		}
		if strings.HasSuffix(r.URL.Path, exampleHash) {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewClient(config.GravatarConfig{BaseURL: srv.URL + "/avatar", Verify: true, DefaultImage: "mp"})

	res := client.Resolve(context.Background(), "myemailaddress@example.com")
	if res.Status != StatusResolved {
		t.Fatalf("expected resolved, got %+v", res)
	}
	if !strings.Contains(res.URL, "d=mp") {
		t.Fatalf("stored url should keep the configured default image, got %s", res.URL)
	}

	res = client.Resolve(context.Background(), "nobody@example.com")
	if res.Status != StatusSkipped || res.Avatar() != nil {
		t.Fatalf("expected skipped for unknown address, got %+v", res)
	}
}

func TestResolveSkipsOnFailures(t *testing.T) {
	cases := []struct {
		name string
		rt   roundTripFunc
	}{
		{
			name: "transport error",
			rt: func(req *http.Request) (*http.Response, error) {
				return nil, errors.New("dial tcp: connection refused")
			},
		},
		{
			name: "server error",
			rt: func(req *http.Request) (*http.Response, error) {
				return &http.Response{StatusCode: http.StatusBadGateway, Body: io.NopCloser(strings.NewReader(""))}, nil
			},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := NewClient(config.GravatarConfig{Verify: true}, WithHTTPClient(&http.Client{Transport: tc.rt}))
			res := client.Resolve(context.Background(), "ann@example.com")
			if res.Status != StatusSkipped {
				t.Fatalf("expected skipped, got %+v", res)
			}
			if res.Reason == "" {
				t.Fatal("expected a reason for the skip")
			}
		})
	}
}

func TestResolveHonoursTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewClient(config.GravatarConfig{BaseURL: srv.URL, Verify: true, Timeout: 20 * time.Millisecond})
	if res := client.Resolve(context.Background(), "ann@example.com"); res.Status != StatusSkipped {
		t.Fatalf("expected timeout to skip, got %+v", res)
	}
}

func TestNilClientSkips(t *testing.T) {
	var client *Client
	if res := client.Resolve(context.Background(), "ann@example.com"); res.Status != StatusSkipped {
		t.Fatalf("expected skipped, got %+v", res)
	}
}
