package wordpress

import (
	"encoding/json"
	"html"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
)

// fakeSite is an in-memory WordPress REST API.
type fakeSite struct {
	mu sync.Mutex

	terms      map[Taxonomy][]Term
	nextTermID int64
	failLookup map[string]bool // term names whose search returns 500

	uploads      []uploadRecord
	uploadStatus int
	uploadError  errorBody

	posts      []PostRequest
	postStatus int
	postError  errorBody

	lookups int
	user    string
	pass    string
}

type uploadRecord struct {
	filename    string
	contentType string
}

func newFakeSite(t *testing.T) (*fakeSite, *httptest.Server) {
	t.Helper()
	f := &fakeSite{
		terms:      map[Taxonomy][]Term{},
		nextTermID: 100,
		failLookup: map[string]bool{},
		user:       "editor",
		pass:       "app pass",
	}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /wp-json/wp/v2/media", f.handleMedia)
	mux.HandleFunc("GET /wp-json/wp/v2/{tax}", f.handleSearch)
	mux.HandleFunc("POST /wp-json/wp/v2/posts", f.handlePost)
	mux.HandleFunc("POST /wp-json/wp/v2/{tax}", f.handleCreateTerm)
	mux.HandleFunc("GET /wp-json/wp/v2/users/me", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, User{ID: 7, Name: "Editor", Roles: []string{"editor"}})
	})
	srv := httptest.NewServer(f.auth(mux))
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeSite) client(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	c, err := NewClient(Credentials{SiteURL: srv.URL + "/", Username: f.user, Password: f.pass})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func (f *fakeSite) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, p, ok := r.BasicAuth()
		if !ok || u != f.user || p != f.pass {
			writeJSON(w, http.StatusUnauthorized, errorBody{Code: "incorrect_password", Message: "The password you entered is incorrect."})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// handleMedia expects bodies of the form "img-<id>" so tests control ids
// regardless of upload order.
func (f *fakeSite) handleMedia(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.uploadStatus != 0 {
		writeJSON(w, f.uploadStatus, f.uploadError)
		return
	}
	body, _ := io.ReadAll(r.Body)
	id, err := strconv.ParseInt(strings.TrimPrefix(string(body), "img-"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Code: "rest_upload_unknown_error", Message: "bad body"})
		return
	}
	disp := r.Header.Get("Content-Disposition")
	f.uploads = append(f.uploads, uploadRecord{
		filename:    strings.TrimSuffix(strings.TrimPrefix(disp, `attachment; filename="`), `"`),
		contentType: r.Header.Get("Content-Type"),
	})
	writeJSON(w, http.StatusCreated, Media{ID: id, SourceURL: "https://example.com/wp-content/uploads/" + strconv.FormatInt(id, 10) + ".jpg"})
}

func (f *fakeSite) handleSearch(w http.ResponseWriter, r *http.Request) {
	tax := Taxonomy(r.PathValue("tax"))
	search := r.URL.Query().Get("search")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lookups++
	if f.failLookup[search] {
		writeJSON(w, http.StatusInternalServerError, errorBody{Code: "db_error", Message: "database went away"})
		return
	}
	matches := []Term{}
	for _, t := range f.terms[tax] {
		if strings.Contains(strings.ToLower(html.UnescapeString(t.Name)), strings.ToLower(search)) {
			matches = append(matches, t)
		}
	}
	writeJSON(w, http.StatusOK, matches)
}

func (f *fakeSite) handleCreateTerm(w http.ResponseWriter, r *http.Request) {
	tax := Taxonomy(r.PathValue("tax"))
	var in struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Code: "rest_invalid_json", Message: err.Error()})
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextTermID++
	t := Term{ID: f.nextTermID, Name: in.Name}
	f.terms[tax] = append(f.terms[tax], t)
	writeJSON(w, http.StatusCreated, t)
}

func (f *fakeSite) handlePost(w http.ResponseWriter, r *http.Request) {
	var pr PostRequest
	if err := json.NewDecoder(r.Body).Decode(&pr); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Code: "rest_invalid_json", Message: err.Error()})
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.postStatus != 0 {
		writeJSON(w, f.postStatus, f.postError)
		return
	}
	f.posts = append(f.posts, pr)
	id := len(f.posts)
	writeJSON(w, http.StatusCreated, Post{ID: int64(id), Link: "https://example.com/?p=" + strconv.Itoa(id), Status: string(pr.Status)})
}

func (f *fakeSite) addTerm(tax Taxonomy, id int64, name string) {
	f.mu.Lock()
	f.terms[tax] = append(f.terms[tax], Term{ID: id, Name: name})
	f.mu.Unlock()
}

func (f *fakeSite) lastPost(t *testing.T) PostRequest {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.posts) == 0 {
		t.Fatal("no post submitted")
	}
	return f.posts[len(f.posts)-1]
}

func imageUpload(id int) Upload {
	return Upload{ContentType: "image/jpeg", Data: []byte("img-" + strconv.Itoa(id))}
}
