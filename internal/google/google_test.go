package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	googleAuthIDTokenVerifier "github.com/futurenda/google-auth-id-token-verifier"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/jws"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type recorded struct {
	method string
	path   string
	query  url.Values
	body   []byte
}

type fakeGoogle struct {
	mu       sync.Mutex
	requests []recorded
	handle   func(w http.ResponseWriter, r *http.Request, body []byte)
}

func (f *fakeGoogle) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.requests = append(f.requests, recorded{method: r.Method, path: r.URL.Path, query: r.URL.Query(), body: body})
	f.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")
	f.handle(w, r, body)
}

func (f *fakeGoogle) count(method, fragment string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, r := range f.requests {
		if r.method == method && strings.Contains(r.path, fragment) {
			n++
		}
	}
	return n
}

func (f *fakeGoogle) last() recorded {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

func newFake(t *testing.T, handle func(w http.ResponseWriter, r *http.Request, body []byte)) (*fakeGoogle, *httptest.Server) {
	t.Helper()
	f := &fakeGoogle{handle: handle}
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	return f, srv
}

func fakeOptions(srv *httptest.Server) []option.ClientOption {
	return []option.ClientOption{option.WithEndpoint(srv.URL + "/"), option.WithHTTPClient(srv.Client())}
}

func sheetsHandler(w http.ResponseWriter, r *http.Request, _ []byte) {
	switch {
	case r.Method == http.MethodGet && strings.Contains(r.URL.Path, "/values/"):
		fmt.Fprint(w, `{"range":"events!A2:M","values":[["e1","Assembly","2025-05-01"],["e2","Exam","2025-05-02","",""," ",3]]}`)
	case r.Method == http.MethodGet:
		fmt.Fprint(w, `{"sheets":[{"properties":{"sheetId":7,"title":"other"}},{"properties":{"sheetId":42,"title":"events"}}]}`)
	default:
		fmt.Fprint(w, `{}`)
	}
}

func TestSheetsReadRows(t *testing.T) {
	fake, srv := newFake(t, sheetsHandler)
	c, err := NewSheetsClient(context.Background(), testLogger(), "sid", "events", fakeOptions(srv)...)
	if err != nil {
		t.Fatalf("NewSheetsClient: %v", err)
	}

	rows, err := c.ReadRows(context.Background())
	if err != nil {
		t.Fatalf("ReadRows: %v", err)
	}
	want := [][]string{
		{"e1", "Assembly", "2025-05-01"},
		{"e2", "Exam", "2025-05-02", "", "", " ", "3"},
	}
	if !reflect.DeepEqual(rows, want) {
		t.Errorf("rows = %q, want %q", rows, want)
	}
	if got := fake.last().path; !strings.HasSuffix(got, "/values/events!A2:M") {
		t.Errorf("read range path = %s", got)
	}
}

func TestSheetsAppendAndUpdate(t *testing.T) {
	fake, srv := newFake(t, sheetsHandler)
	c, err := NewSheetsClient(context.Background(), testLogger(), "sid", "events", fakeOptions(srv)...)
	if err != nil {
		t.Fatalf("NewSheetsClient: %v", err)
	}
	ctx := context.Background()

	if err := c.AppendRows(ctx, [][]string{{"a"}, {"b"}}); err != nil {
		t.Fatalf("AppendRows: %v", err)
	}
	req := fake.last()
	if !strings.HasSuffix(req.path, "/values/events!A:M:append") || req.query.Get("valueInputOption") != "USER_ENTERED" {
		t.Errorf("append request = %s %v", req.path, req.query)
	}
	var vr sheets.ValueRange
	if err := json.Unmarshal(req.body, &vr); err != nil {
		t.Fatalf("decode append body: %v", err)
	}
	if len(vr.Values) != 2 || vr.Values[1][0] != "b" {
		t.Errorf("append values = %v", vr.Values)
	}

	if err := c.UpdateRow(ctx, 1, []string{"e2", "New"}); err != nil {
		t.Fatalf("UpdateRow: %v", err)
	}
	req = fake.last()
	if req.method != http.MethodPut || !strings.HasSuffix(req.path, "/values/events!A3:M3") {
		t.Errorf("update request = %s %s, want row 3", req.method, req.path)
	}
}

func TestSheetsDeleteRowCachesSheetID(t *testing.T) {
	fake, srv := newFake(t, sheetsHandler)
	c, err := NewSheetsClient(context.Background(), testLogger(), "sid", "events", fakeOptions(srv)...)
	if err != nil {
		t.Fatalf("NewSheetsClient: %v", err)
	}
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := c.DeleteRow(ctx, 0); err != nil {
			t.Fatalf("DeleteRow: %v", err)
		}
	}

	if n := fake.count(http.MethodGet, "/spreadsheets/sid"); n != 1 {
		t.Errorf("metadata lookups = %d, want 1", n)
	}
	var body sheets.BatchUpdateSpreadsheetRequest
	if err := json.Unmarshal(fake.last().body, &body); err != nil {
		t.Fatalf("decode batchUpdate: %v", err)
	}
	rng := body.Requests[0].DeleteDimension.Range
	if rng.SheetId != 42 || rng.Dimension != "ROWS" || rng.StartIndex != 1 || rng.EndIndex != 2 {
		t.Errorf("delete range = %+v, want sheet 42 rows [1,2)", rng)
	}
}

func TestSheetsDeleteRowUnknownTab(t *testing.T) {
	_, srv := newFake(t, sheetsHandler)
	c, err := NewSheetsClient(context.Background(), testLogger(), "sid", "missing", fakeOptions(srv)...)
	if err != nil {
		t.Fatalf("NewSheetsClient: %v", err)
	}
	if err := c.DeleteRow(context.Background(), 0); err == nil {
		t.Error("expected an error for an unknown tab")
	}
}

func TestSheetsUpstreamError(t *testing.T) {
	_, srv := newFake(t, func(w http.ResponseWriter, _ *http.Request, _ []byte) {
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"error":{"code":403,"message":"denied"}}`)
	})
	c, err := NewSheetsClient(context.Background(), testLogger(), "sid", "events", fakeOptions(srv)...)
	if err != nil {
		t.Fatalf("NewSheetsClient: %v", err)
	}
	if _, err := c.ReadRows(context.Background()); err == nil {
		t.Error("expected an error")
	}
}

func TestHolidayClientPagesAndFilters(t *testing.T) {
	fake, srv := newFake(t, func(w http.ResponseWriter, r *http.Request, _ []byte) {
		if r.URL.Query().Get("pageToken") == "" {
			fmt.Fprint(w, `{"items":[
				{"summary":"신정","start":{"date":"2025-01-01"}},
				{"summary":"no start"}
			],"nextPageToken":"p2"}`)
			return
		}
		fmt.Fprint(w, `{"items":[
			{"summary":"어린이날","start":{"date":"2025-05-05"}},
			{"summary":"timed","start":{"dateTime":"2025-06-06T09:00:00+09:00"}}
		]}`)
	})
	loc := time.FixedZone("KST", 9*60*60)
	c, err := NewHolidayClient(context.Background(), testLogger(), "ko.south_korea#holiday@group.v.calendar.google.com", loc, fakeOptions(srv)...)
	if err != nil {
		t.Fatalf("NewHolidayClient: %v", err)
	}

	got, err := c.Holidays(context.Background(), 2025)
	if err != nil {
		t.Fatalf("Holidays: %v", err)
	}
	want := []string{"2025-01-01 신정", "2025-05-05 어린이날", "2025-06-06 timed"}
	var have []string
	for _, h := range got {
		have = append(have, h.Date+" "+h.Title)
	}
	if !reflect.DeepEqual(have, want) {
		t.Errorf("holidays = %v, want %v", have, want)
	}

	q := fake.requests[0].query
	if q.Get("timeMin") != "2025-01-01T00:00:00+09:00" || q.Get("timeMax") != "2026-01-01T00:00:00+09:00" {
		t.Errorf("time range = %s..%s", q.Get("timeMin"), q.Get("timeMax"))
	}
	if q.Get("singleEvents") != "true" {
		t.Error("singleEvents not requested")
	}
}

func TestHolidayClientError(t *testing.T) {
	_, srv := newFake(t, func(w http.ResponseWriter, _ *http.Request, _ []byte) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	c, err := NewHolidayClient(context.Background(), testLogger(), "cal", nil, fakeOptions(srv)...)
	if err != nil {
		t.Fatalf("NewHolidayClient: %v", err)
	}
	if _, err := c.Holidays(context.Background(), 2025); err == nil {
		t.Error("expected an error")
	}
}

func newTestLogin(t *testing.T, idToken string, verify IDTokenVerifier) *LoginClient {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		if r.Form.Get("code") != "good-code" {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, `{"error":"invalid_grant"}`)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"access_token":"at","token_type":"Bearer","expires_in":3600,"id_token":%q}`, idToken)
	}))
	t.Cleanup(srv.Close)

	c, err := NewLoginClient(testLogger(), "client-id", "client-secret", "http://localhost:3000/auth/google/callback")
	if err != nil {
		t.Fatalf("NewLoginClient: %v", err)
	}
	c.config.Endpoint = oauth2.Endpoint{AuthURL: srv.URL + "/auth", TokenURL: srv.URL + "/token", AuthStyle: oauth2.AuthStyleInParams}
	c.verify = verify
	return c
}

func TestLoginIdentify(t *testing.T) {
	var gotAudience string
	c := newTestLogin(t, "id.token.value", func(idToken, clientID string) (*googleAuthIDTokenVerifier.ClaimSet, error) {
		gotAudience = clientID
		if idToken != "id.token.value" {
			return nil, errors.New("unexpected token")
		}
		return &googleAuthIDTokenVerifier.ClaimSet{ClaimSet: jws.ClaimSet{Sub: "123"}, Email: "t@school.ac.kr", Name: "Teacher", Picture: "https://p"}, nil
	})

	id, err := c.Identify(context.Background(), "good-code")
	if err != nil {
		t.Fatalf("Identify: %v", err)
	}
	if id.ID != "123" || id.Email != "t@school.ac.kr" || id.DisplayName != "Teacher" || id.Photo != "https://p" {
		t.Errorf("identity = %+v", id)
	}
	if gotAudience != "client-id" {
		t.Errorf("audience = %q", gotAudience)
	}
}

func TestLoginIdentifyFailures(t *testing.T) {
	ok := func(string, string) (*googleAuthIDTokenVerifier.ClaimSet, error) {
		return &googleAuthIDTokenVerifier.ClaimSet{Email: "t@school.ac.kr"}, nil
	}
	tests := []struct {
		name    string
		idToken string
		code    string
		verify  IDTokenVerifier
	}{
		{"bad code", "tok", "bad-code", ok},
		{"no id token", "", "good-code", ok},
		{"verification fails", "tok", "good-code", func(string, string) (*googleAuthIDTokenVerifier.ClaimSet, error) {
			return nil, errors.New("expired")
		}},
		{"no email", "tok", "good-code", func(string, string) (*googleAuthIDTokenVerifier.ClaimSet, error) {
			return &googleAuthIDTokenVerifier.ClaimSet{ClaimSet: jws.ClaimSet{Sub: "1"}}, nil
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestLogin(t, tt.idToken, tt.verify)
			if _, err := c.Identify(context.Background(), tt.code); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestAuthCodeURL(t *testing.T) {
	c, err := NewLoginClient(testLogger(), "client-id", "secret", "http://localhost:3000/auth/google/callback")
	if err != nil {
		t.Fatalf("NewLoginClient: %v", err)
	}
	u, err := url.Parse(c.AuthCodeURL("state-123"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	q := u.Query()
	if q.Get("state") != "state-123" || q.Get("client_id") != "client-id" || q.Get("redirect_uri") != "http://localhost:3000/auth/google/callback" {
		t.Errorf("query = %v", q)
	}
	if !strings.Contains(q.Get("scope"), "email") {
		t.Errorf("scope = %q", q.Get("scope"))
	}

	if _, err := NewLoginClient(testLogger(), "", "", ""); err == nil {
		t.Error("missing client credentials should fail")
	}
}

func TestServiceHTTPClientRequiresCredentials(t *testing.T) {
	if _, err := ServiceHTTPClient(context.Background(), ServiceAccount{}); err == nil {
		t.Error("expected an error without credentials")
	}
	if _, err := ServiceHTTPClient(context.Background(), ServiceAccount{CredentialsFile: t.TempDir() + "/absent.json"}); err == nil {
		t.Error("expected an error for a missing file")
	}
	if _, err := ServiceHTTPClient(context.Background(), ServiceAccount{Email: "robot@x.iam.gserviceaccount.com", PrivateKey: "key"}); err != nil {
		t.Errorf("email/key pair: %v", err)
	}
}
