package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"petstore/internal/adapters/storage"
	"petstore/internal/domain/health"
	"petstore/internal/domain/pets"
	"petstore/internal/router"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()

	st, err := storage.Open(context.Background(), storage.Options{URL: "sqlite://"})
	if err != nil {
		t.Fatalf("open storage: %v", err)
	}
	t.Cleanup(st.Close)

	ts := httptest.NewServer(router.NewRouter(router.Options{
		Pets:   pets.NewService(st.Pets),
		Health: health.NewService(st, "test"),
	}))
	t.Cleanup(ts.Close)
	return ts
}

func TestHTTP_CreateMatchesContract(t *testing.T) {
	ts := newServer(t)

	st, body := doReq(t, ts.URL, "POST", "/pets", `{"name":"Fluffy","species":"Cat","price":100.0}`)
	if st != http.StatusCreated {
		t.Fatalf("expected 201 create pet, got %d body=%s", st, string(body))
	}

	want := `{"id":1,"name":"Fluffy","species":"Cat","breed":null,"age":null,"price":100.0,"status":"available"}`
	if got := strings.TrimSpace(string(body)); got != want {
		t.Fatalf("unexpected body\n got: %s\nwant: %s", got, want)
	}
}

func TestHTTP_PetLifecycle(t *testing.T) {
	ts := newServer(t)

	// 1) Crear con todos los campos
	created := createPet(t, ts.URL, map[string]any{
		"name":    "Milo",
		"species": "Dog",
		"breed":   "Beagle",
		"age":     3,
		"price":   80.5,
		"status":  "pending",
	})
	id := strconv.FormatInt(created.ID, 10)

	// 2) GET devuelve exactamente lo creado
	{
		st, body := doReq(t, ts.URL, "GET", "/pets/"+id, "")
		if st != http.StatusOK {
			t.Fatalf("expected 200 get pet, got %d body=%s", st, string(body))
		}
		got := decodePet(t, body)
		if got != created.normalized() {
			t.Fatalf("get after create mismatch: %+v vs %+v", got, created.normalized())
		}
	}

	// 3) PUT parcial: solo cambia price, el resto queda igual; id del body se ignora
	{
		st, body := doReq(t, ts.URL, "PUT", "/pets/"+id, `{"price":60,"id":999,"owner":"ignored"}`)
		if st != http.StatusOK {
			t.Fatalf("expected 200 update, got %d body=%s", st, string(body))
		}
		got := decodePet(t, body)
		want := created.normalized()
		want.Price = 60
		if got != want {
			t.Fatalf("partial update mismatch: %+v vs %+v", got, want)
		}
	}

	// 4) breed: null limpia el campo
	{
		st, body := doReq(t, ts.URL, "PUT", "/pets/"+id, `{"breed":null}`)
		if st != http.StatusOK {
			t.Fatalf("expected 200 update, got %d body=%s", st, string(body))
		}
		if got := decodePet(t, body); got.Breed != "<nil>" {
			t.Fatalf("expected breed cleared, got %q", got.Breed)
		}
	}

	// 5) DELETE dos veces: 200 y luego 404
	{
		st, body := doReq(t, ts.URL, "DELETE", "/pets/"+id, "")
		if st != http.StatusOK {
			t.Fatalf("expected 200 delete, got %d body=%s", st, string(body))
		}
		if !strings.Contains(string(body), `"message":"Pet deleted successfully"`) {
			t.Fatalf("unexpected delete body=%s", string(body))
		}
	}
	{
		st, body := doReq(t, ts.URL, "DELETE", "/pets/"+id, "")
		if st != http.StatusNotFound {
			t.Fatalf("expected 404 second delete, got %d body=%s", st, string(body))
		}
		expectError(t, body, "Pet not found")
	}

	// 6) El id borrado no se reutiliza
	next := createPet(t, ts.URL, map[string]any{"name": "Rex", "species": "Dog"})
	if next.ID <= created.ID {
		t.Fatalf("expected fresh id > %d, got %d", created.ID, next.ID)
	}
}

func TestHTTP_ListFiltersByStatus(t *testing.T) {
	ts := newServer(t)

	for i, status := range []string{"sold", "available", "sold", "pending"} {
		createPet(t, ts.URL, map[string]any{
			"name":    "pet-" + strconv.Itoa(i),
			"species": "Cat",
			"status":  status,
		})
	}

	st, body := doReq(t, ts.URL, "GET", "/pets?status=sold", "")
	if st != http.StatusOK {
		t.Fatalf("expected 200 list, got %d body=%s", st, string(body))
	}
	var sold []petJSON
	if err := json.Unmarshal(body, &sold); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(sold) != 2 {
		t.Fatalf("expected 2 sold pets, got %d", len(sold))
	}
	for _, p := range sold {
		if p.Status != "sold" {
			t.Fatalf("expected only sold pets, got %q", p.Status)
		}
	}

	st, body = doReq(t, ts.URL, "GET", "/pets", "")
	if st != http.StatusOK {
		t.Fatalf("expected 200 list, got %d", st)
	}
	var all []petJSON
	_ = json.Unmarshal(body, &all)
	if len(all) != 4 {
		t.Fatalf("expected 4 pets, got %d", len(all))
	}
}

func TestHTTP_EmptyListIsArray(t *testing.T) {
	ts := newServer(t)

	st, body := doReq(t, ts.URL, "GET", "/pets?status=sold", "")
	if st != http.StatusOK || strings.TrimSpace(string(body)) != "[]" {
		t.Fatalf("expected 200 [], got %d body=%s", st, string(body))
	}
}

func TestHTTP_BadRequests(t *testing.T) {
	ts := newServer(t)
	existing := createPet(t, ts.URL, map[string]any{"name": "Milo", "species": "Dog"})
	petPath := "/pets/" + strconv.FormatInt(existing.ID, 10)

	cases := []struct {
		name    string
		method  string
		path    string
		body    string
		wantErr string
	}{
		{"create without body", "POST", "/pets", "", "Invalid request data"},
		{"create with empty object", "POST", "/pets", "{}", "Invalid request data"},
		{"create with array", "POST", "/pets", "[1,2]", "Invalid request data"},
		{"create with broken json", "POST", "/pets", `{"name":`, "Invalid request data"},
		{"create with trailing data", "POST", "/pets", `{"name":"a","species":"b"} trailing-garbage`, "Invalid request data"},
		{"create with two objects", "POST", "/pets", `{"name":"a","species":"b"}{"name":"c"}`, "Invalid request data"},
		{"update with trailing data", "PUT", petPath, `{"price":1} x`, "Invalid request data"},
		{"create missing name", "POST", "/pets", `{"species":"Cat"}`, "Missing required field: name"},
		{"create missing species", "POST", "/pets", `{"name":"Fluffy"}`, "Missing required field: species"},
		{"create wrong type", "POST", "/pets", `{"name":"Fluffy","species":"Cat","price":"free"}`, "Invalid request data"},
		{"create long name", "POST", "/pets", `{"name":"` + strings.Repeat("n", 51) + `","species":"Cat"}`, ""},
		{"create bad status", "POST", "/pets", `{"name":"Fluffy","species":"Cat","status":"lost"}`, ""},
		{"update without body", "PUT", petPath, "", "Invalid request data"},
		{"update with empty object", "PUT", petPath, "{}", "Invalid request data"},
		{"update bad status", "PUT", petPath, `{"status":"gone"}`, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			st, body := doReq(t, ts.URL, tc.method, tc.path, tc.body)
			if st != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d body=%s", st, string(body))
			}
			if tc.wantErr != "" {
				expectError(t, body, tc.wantErr)
			}
		})
	}
}

func TestHTTP_NotFound(t *testing.T) {
	ts := newServer(t)

	cases := []struct {
		method, path, body, wantErr string
	}{
		{"GET", "/pets/42", "", "Pet not found"},
		{"PUT", "/pets/42", `{"name":"x"}`, "Pet not found"},
		{"DELETE", "/pets/42", "", "Pet not found"},
		{"GET", "/pets/abc", "", "Resource not found"},
		{"GET", "/nope", "", "Resource not found"},
	}
	for _, tc := range cases {
		st, body := doReq(t, ts.URL, tc.method, tc.path, tc.body)
		if st != http.StatusNotFound {
			t.Fatalf("%s %s: expected 404, got %d body=%s", tc.method, tc.path, st, string(body))
		}
		expectError(t, body, tc.wantErr)
	}

	// fuera del prefijo versionado
	res, err := http.Get(ts.URL + "/pets")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 without /api/v1 prefix, got %d", res.StatusCode)
	}
}

// brokenRepo falla en todas las operaciones, como una base caída a mitad de request.
type brokenRepo struct{}

var errDiskIO = errors.New("disk I/O error")

func (brokenRepo) List(context.Context, pets.ListFilter) ([]pets.Pet, error) { return nil, errDiskIO }
func (brokenRepo) GetByID(context.Context, int64) (pets.Pet, error)         { return pets.Pet{}, errDiskIO }
func (brokenRepo) Create(context.Context, pets.Pet) (pets.Pet, error)       { return pets.Pet{}, errDiskIO }
func (brokenRepo) Update(context.Context, int64, pets.Patch) (pets.Pet, error) {
	return pets.Pet{}, errDiskIO
}
func (brokenRepo) Delete(context.Context, int64) error { return errDiskIO }

func TestHTTP_StorageFailuresAreInternalErrors(t *testing.T) {
	ts := httptest.NewServer(router.NewRouter(router.Options{
		Pets:   pets.NewService(brokenRepo{}),
		Health: health.NewService(downPinger{}, "test"),
	}))
	defer ts.Close()

	cases := []struct {
		method, path, body string
	}{
		{"GET", "/pets", ""},
		{"GET", "/pets/1", ""},
		{"POST", "/pets", `{"name":"Fluffy","species":"Cat"}`},
		{"PUT", "/pets/1", `{"price":10}`},
		{"DELETE", "/pets/1", ""},
	}
	for _, tc := range cases {
		st, body := doReq(t, ts.URL, tc.method, tc.path, tc.body)
		if st != http.StatusInternalServerError {
			t.Fatalf("%s %s: expected 500, got %d body=%s", tc.method, tc.path, st, string(body))
		}
		expectError(t, body, "Internal server error")
		if strings.Contains(string(body), "disk") {
			t.Fatalf("%s %s: driver error leaked to client: %s", tc.method, tc.path, string(body))
		}
	}
}

func TestHTTP_MethodNotAllowed(t *testing.T) {
	ts := newServer(t)

	st, body := doReq(t, ts.URL, "PATCH", "/pets", `{"name":"x"}`)
	if st != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d body=%s", st, string(body))
	}
	expectError(t, body, "Method not allowed")
}

func TestHTTP_Health(t *testing.T) {
	ts := newServer(t)

	st, body := doReq(t, ts.URL, "GET", "/health", "")
	if st != http.StatusOK {
		t.Fatalf("expected 200 health, got %d body=%s", st, string(body))
	}

	st, body = doReq(t, ts.URL, "GET", "/health/details", "")
	if st != http.StatusOK {
		t.Fatalf("expected 200 health details, got %d body=%s", st, string(body))
	}
	var details struct {
		Environment string `json:"environment"`
		Database    struct {
			Type string `json:"type"`
		} `json:"database"`
	}
	if err := json.Unmarshal(body, &details); err != nil {
		t.Fatalf("decode details: %v", err)
	}
	if details.Environment != "test" || details.Database.Type != "sqlite" {
		t.Fatalf("unexpected details: %+v", details)
	}
}

type downPinger struct{}

func (downPinger) Ping(context.Context) error { return errors.New("connection refused") }
func (downPinger) DriverName() string         { return "postgres" }

func TestHTTP_HealthDatabaseDown(t *testing.T) {
	st, err := storage.Open(context.Background(), storage.Options{URL: "memory://"})
	if err != nil {
		t.Fatalf("open storage: %v", err)
	}
	ts := httptest.NewServer(router.NewRouter(router.Options{
		Pets:   pets.NewService(st.Pets),
		Health: health.NewService(downPinger{}, "test"),
	}))
	defer ts.Close()

	for _, path := range []string{"/health", "/health/details"} {
		code, body := doReq(t, ts.URL, "GET", path, "")
		if code != http.StatusServiceUnavailable {
			t.Fatalf("%s: expected 503, got %d body=%s", path, code, string(body))
		}
	}
}

func TestHTTP_RequestIDAndMetrics(t *testing.T) {
	ts := newServer(t)

	req, _ := http.NewRequest("GET", ts.URL+router.APIPrefix+"/pets", nil)
	req.Header.Set("X-Request-ID", "req-123")
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	res.Body.Close()
	if got := res.Header.Get("X-Request-ID"); got != "req-123" {
		t.Fatalf("expected request id to be echoed, got %q", got)
	}

	res, err = http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("get metrics: %v", err)
	}
	defer res.Body.Close()
	b, _ := io.ReadAll(res.Body)
	if !strings.Contains(string(b), `petstore_http_requests_total{method="GET",route="/api/v1/pets`) {
		t.Fatalf("expected request counter in metrics, got:\n%s", string(b))
	}
}

// -------------------------
// helpers
// -------------------------

type petJSON struct {
	ID      int64    `json:"id"`
	Name    string   `json:"name"`
	Species string   `json:"species"`
	Breed   *string  `json:"breed"`
	Age     *float64 `json:"age"`
	Price   float64  `json:"price"`
	Status  string   `json:"status"`
}

// flatPet es comparable con == (sin punteros).
type flatPet struct {
	ID      int64
	Name    string
	Species string
	Breed   string
	Age     string
	Price   float64
	Status  string
}

func (p petJSON) normalized() flatPet {
	breed, age := "<nil>", "<nil>"
	if p.Breed != nil {
		breed = *p.Breed
	}
	if p.Age != nil {
		age = strconv.FormatFloat(*p.Age, 'f', -1, 64)
	}
	return flatPet{p.ID, p.Name, p.Species, breed, age, p.Price, p.Status}
}

func decodePet(t *testing.T, body []byte) flatPet {
	t.Helper()
	var p petJSON
	if err := json.Unmarshal(body, &p); err != nil {
		t.Fatalf("decode pet: %v body=%s", err, string(body))
	}
	return p.normalized()
}

func createPet(t *testing.T, baseURL string, payload map[string]any) petJSON {
	t.Helper()

	b, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("json marshal: %v", err)
	}
	st, body := doReq(t, baseURL, "POST", "/pets", string(b))
	if st != http.StatusCreated {
		t.Fatalf("expected 201 create pet, got %d body=%s", st, string(body))
	}

	var resp petJSON
	_ = json.Unmarshal(body, &resp)
	if resp.ID <= 0 {
		t.Fatalf("create pet: missing id body=%s", string(body))
	}
	if _, ok := payload["status"]; !ok && resp.Status != "available" {
		t.Fatalf("create pet: expected default status available, got %q", resp.Status)
	}
	return resp
}

func expectError(t *testing.T, body []byte, want string) {
	t.Helper()

	var resp map[string]any
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatalf("error body is not json: %s", string(body))
	}
	if len(resp) != 1 || resp["error"] != want {
		t.Fatalf("expected {\"error\":%q}, got %s", want, string(body))
	}
}

func doReq(t *testing.T, baseURL, method, path, body string) (int, []byte) {
	t.Helper()

	var rdr io.Reader
	if body != "" {
		rdr = bytes.NewReader([]byte(body))
	}

	req, err := http.NewRequest(method, baseURL+router.APIPrefix+path, rdr)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer res.Body.Close()

	respBody, _ := io.ReadAll(res.Body)
	return res.StatusCode, respBody
}
