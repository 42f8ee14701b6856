package gateway

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/jmehdipour/rfm-dashboard/internal/model"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(Options{BaseURL: srv.URL + "/api/", FailThreshold: 2, OpenForMs: 60000})
}

func TestAnalysis_SendsFiltersAndAuthHeader(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/rfm/analysis/" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Token abc" {
			t.Errorf("got Authorization %q", got)
		}
		if r.Header.Get("X-Request-ID") == "" {
			t.Error("missing X-Request-ID")
		}
		if r.URL.Query().Get("segment") != "At Risk" || r.URL.Query().Get("min_monetary") != "50" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		_, _ = io.WriteString(w, `{"rfm_data":[{"customer_id":"C1","monetary":"75.00","segment":"At Risk"}],
			"summary":{"total_customers":1,"segment_counts":{"At Risk":1},"filters_applied":{"segment":"At Risk","min_monetary":"50"}}}`)
	})
	c.SetAuthToken("abc")

	res, err := c.Analysis(context.Background(), model.FilterState{Segment: "At Risk", MinMonetary: "50"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Rows) != 1 || res.Rows[0].Monetary != 75 {
		t.Fatalf("unexpected rows %+v", res.Rows)
	}
	if !res.Filtered() {
		t.Fatal("expected filtered result")
	}
}

func TestNoAuthHeaderWhenDetached(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "" {
			t.Errorf("unexpected Authorization header %q", r.Header.Get("Authorization"))
		}
		_, _ = io.WriteString(w, `{"ranking":[]}`)
	})
	c.SetAuthToken("abc")
	c.SetAuthToken("")

	if _, err := c.Ranking(context.Background(), ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestStatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		kind   error
	}{
		{"not found", 404, `{"message":"No transaction data found for this user. Please upload a file."}`, ErrNotFound},
		{"server error", 500, `{"error":"boom"}`, ErrTransient},
		{"bad filter", 400, `{"error":"Invalid value for min_monetary filter."}`, ErrValidation},
		{"unauthorized", 401, `{"detail":"Invalid token."}`, ErrAuthentication},
		{"teapot", 418, ``, ErrProtocol},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})
			_, err := c.Analysis(context.Background(), model.FilterState{})
			if !errors.Is(err, tt.kind) {
				t.Fatalf("got %v, want kind %v", err, tt.kind)
			}
			if StatusOf(err) != tt.status {
				t.Fatalf("got status %d, want %d", StatusOf(err), tt.status)
			}
		})
	}
}

func TestAuthenticate_BadCredentials(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"non_field_errors":["Unable to log in with provided credentials."]}`)
	})

	_, err := c.Authenticate(context.Background(), "ann", "wrong")
	if !errors.Is(err, ErrAuthentication) {
		t.Fatalf("got %v, want ErrAuthentication", err)
	}
	if errors.Is(err, ErrValidation) {
		t.Fatal("authentication failure must not also be a validation error")
	}
	if !strings.Contains(err.Error(), "Unable to log in") {
		t.Fatalf("message lost: %v", err)
	}
}

func TestRegister_FieldErrors(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"username":["A user with that username already exists."],"password":["Password fields didn't match."]}`)
	})

	_, err := c.Register(context.Background(), model.Registration{Username: "ann"})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("got %v, want ErrValidation", err)
	}
	fields := FieldErrors(err)
	if len(fields["username"]) != 1 || len(fields["password"]) != 1 {
		t.Fatalf("unexpected fields %v", fields)
	}
}

func TestRegister_AnyClientErrorIsValidation(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound, http.StatusTooManyRequests} {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
			_, _ = io.WriteString(w, `{"detail":"Registration is closed."}`)
		})

		_, err := c.Register(context.Background(), model.Registration{Username: "ann"})
		if !errors.Is(err, ErrValidation) {
			t.Fatalf("status %d: got %v, want ErrValidation", status, err)
		}
		if errors.Is(err, ErrAuthentication) || errors.Is(err, ErrNotFound) || errors.Is(err, ErrTransient) {
			t.Fatalf("status %d: error matches a second kind: %v", status, err)
		}
		if Detail(err) != "Registration is closed." {
			t.Fatalf("status %d: got detail %q", status, Detail(err))
		}
	}
}

func TestParseErrorBody_MessagePriority(t *testing.T) {
	body := []byte(`{"message":"third","detail":"second","error":"first","non_field_errors":["fourth"],"email":["bad email"]}`)
	for i := 0; i < 20; i++ {
		msg, fields := parseErrorBody(body)
		if msg != "first" {
			t.Fatalf("run %d: got message %q, want first", i, msg)
		}
		if len(fields) != 2 || fields["email"][0] != "bad email" || fields["non_field_errors"][0] != "fourth" {
			t.Fatalf("run %d: unexpected fields %v", i, fields)
		}
	}

	msg, _ := parseErrorBody([]byte(`{"message":"third","detail":"second"}`))
	if msg != "second" {
		t.Fatalf("got %q, want second", msg)
	}
}

func TestUnauthorizedHook(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	var got string
	c.OnUnauthorized(func(token string) { got = token })
	c.SetAuthToken("stale")

	_, _ = c.VIPCustomers(context.Background())
	if got != "stale" {
		t.Fatalf("hook got %q, want stale", got)
	}
}

func TestMalformedBodyIsProtocolError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `<html>oops</html>`)
	})
	_, err := c.AvgOrderValue(context.Background())
	if !errors.Is(err, ErrProtocol) {
		t.Fatalf("got %v, want ErrProtocol", err)
	}
}

func TestBreakerFailsFast(t *testing.T) {
	var hits atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	})

	for i := 0; i < 2; i++ {
		_, _ = c.CustomerAnalytics(context.Background())
	}
	_, err := c.CustomerAnalytics(context.Background())
	if !errors.Is(err, ErrCircuitOpen) || !errors.Is(err, ErrTransient) {
		t.Fatalf("got %v, want transient circuit-open error", err)
	}
	if hits.Load() != 2 {
		t.Fatalf("server hit %d times, want 2", hits.Load())
	}
}

func TestUpload_Multipart(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		f, hdr, err := r.FormFile("file")
		if err != nil {
			t.Errorf("form file: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer f.Close()
		b, _ := io.ReadAll(f)
		if hdr.Filename != "tx.csv" || string(b) != "customer_id,amount\nC1,10\n" {
			t.Errorf("unexpected upload %q %q", hdr.Filename, b)
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"message":"Successfully uploaded 1 transactions."}`)
	})

	msg, err := c.Upload(context.Background(), "/tmp/tx.csv", strings.NewReader("customer_id,amount\nC1,10\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(msg, "Successfully") {
		t.Fatalf("got %q", msg)
	}
}

func TestUpload_RowErrors(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"errors":["Row 2: invalid date"]}`)
	})

	_, err := c.Upload(context.Background(), "tx.csv", strings.NewReader("x"))
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("got %v, want ErrValidation", err)
	}
	if got := FieldErrors(err)["errors"]; len(got) != 1 {
		t.Fatalf("unexpected fields %v", FieldErrors(err))
	}
}

func TestDownloadUploadedFile(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/rfm/uploaded-files/7/download/" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_, _ = io.WriteString(w, "raw,bytes\n")
	})

	var buf bytes.Buffer
	n, err := c.DownloadUploadedFile(context.Background(), 7, &buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 10 || buf.String() != "raw,bytes\n" {
		t.Fatalf("got %d %q", n, buf.String())
	}
}

func TestIdentity_EmptyIsProtocolError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{}`)
	})
	if _, err := c.Identity(context.Background()); !errors.Is(err, ErrProtocol) {
		t.Fatalf("got %v, want ErrProtocol", err)
	}
}
