package newsdesk

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/eringen/newsdesk/generate"
	"github.com/eringen/newsdesk/wordpress"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "data", "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testDraft() Draft {
	return Draft{
		Topic: "Şehirde yeni park",
		Tone:  generate.ToneJournalistic,
		Article: generate.Article{
			Title:           "Şehirde Yeni Park Açıldı",
			Paragraphs:      []string{"Birinci paragraf.", "İkinci paragraf."},
			MetaDescription: "Yeni park açıldı.",
			Tags:            []string{"park", "şehir"},
			Sources:         []generate.Source{{URI: "https://example.com/a", Title: "A"}},
		},
		Images: [][]byte{[]byte("img-0"), []byte("img-1")},
	}
}

func TestSaveAndGetDraft(t *testing.T) {
	s := setupTestStore(t)

	saved, err := s.SaveDraft(testDraft())
	if err != nil {
		t.Fatalf("SaveDraft failed: %v", err)
	}
	if saved.ID == "" {
		t.Fatal("expected an id")
	}
	if saved.CreatedAt.IsZero() || saved.UpdatedAt.IsZero() {
		t.Fatal("expected timestamps")
	}

	got, err := s.GetDraft(saved.ID)
	if err != nil {
		t.Fatalf("GetDraft failed: %v", err)
	}
	if got.Topic != "Şehirde yeni park" {
		t.Errorf("Topic = %q, want %q", got.Topic, "Şehirde yeni park")
	}
	if got.Tone != generate.ToneJournalistic {
		t.Errorf("Tone = %q, want %q", got.Tone, generate.ToneJournalistic)
	}
	if got.Article.Title != "Şehirde Yeni Park Açıldı" {
		t.Errorf("Title = %q", got.Article.Title)
	}
	if len(got.Article.Paragraphs) != 2 || len(got.Article.Tags) != 2 || len(got.Article.Sources) != 1 {
		t.Errorf("article = %+v", got.Article)
	}
	if len(got.Images) != 2 || string(got.Images[0]) != "img-0" || string(got.Images[1]) != "img-1" {
		t.Errorf("images = %q", got.Images)
	}
}

func TestSaveDraftReplacesImages(t *testing.T) {
	s := setupTestStore(t)

	saved, err := s.SaveDraft(testDraft())
	if err != nil {
		t.Fatal(err)
	}
	saved.Images = [][]byte{[]byte("new")}
	if _, err := s.SaveDraft(saved); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetDraft(saved.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Images) != 1 || string(got.Images[0]) != "new" {
		t.Fatalf("images = %q, want [new]", got.Images)
	}
	if !got.CreatedAt.Equal(saved.CreatedAt) {
		t.Errorf("CreatedAt changed: %v -> %v", saved.CreatedAt, got.CreatedAt)
	}
}

func TestGetDraftNotFound(t *testing.T) {
	s := setupTestStore(t)
	if _, err := s.GetDraft("missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestListDrafts(t *testing.T) {
	s := setupTestStore(t)

	first, _ := s.SaveDraft(testDraft())
	second := testDraft()
	second.Topic = "Deprem"
	second.Images = nil
	second, _ = s.SaveDraft(second)

	list, err := s.ListDrafts(0)
	if err != nil {
		t.Fatalf("ListDrafts failed: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 drafts, got %d", len(list))
	}
	if list[0].ID != second.ID || list[1].ID != first.ID {
		t.Errorf("order = %s, %s; want newest first", list[0].ID, list[1].ID)
	}
	if list[0].Images != 0 || list[1].Images != 2 {
		t.Errorf("image counts = %d, %d; want 0, 2", list[0].Images, list[1].Images)
	}

	limited, _ := s.ListDrafts(1)
	if len(limited) != 1 {
		t.Errorf("limit 1 returned %d rows", len(limited))
	}
}

func TestDeleteDraft(t *testing.T) {
	s := setupTestStore(t)

	saved, _ := s.SaveDraft(testDraft())
	if err := s.DeleteDraft(saved.ID); err != nil {
		t.Fatalf("DeleteDraft failed: %v", err)
	}
	if _, err := s.GetDraft(saved.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("draft still there: %v", err)
	}
	if err := s.DeleteDraft(saved.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete err = %v, want ErrNotFound", err)
	}
}

func TestPublications(t *testing.T) {
	s := setupTestStore(t)

	ok, err := s.RecordPublication(Publication{
		DraftID:  "d1",
		Title:    "Başlık",
		Status:   wordpress.StatusPublish,
		Link:     "https://news.example.com/?p=42",
		MediaIDs: []int64{10, 11},
	})
	if err != nil {
		t.Fatalf("RecordPublication failed: %v", err)
	}
	if ok.ID == 0 || ok.CreatedAt.IsZero() {
		t.Fatalf("publication = %+v, want id and time", ok)
	}
	if _, err := s.RecordPublication(Publication{DraftID: "d2", Title: "Other", Status: wordpress.StatusDraft, Error: "boom"}); err != nil {
		t.Fatal(err)
	}

	all, err := s.ListPublications("", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 || all[0].DraftID != "d2" {
		t.Fatalf("all = %+v, want newest first", all)
	}
	if all[0].Succeeded() {
		t.Error("failed publication reported success")
	}

	mine, err := s.ListPublications("d1", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(mine) != 1 {
		t.Fatalf("expected 1 publication for d1, got %d", len(mine))
	}
	p := mine[0]
	if p.Status != wordpress.StatusPublish || !p.Succeeded() {
		t.Errorf("publication = %+v", p)
	}
	if len(p.MediaIDs) != 2 || p.MediaIDs[0] != 10 || p.MediaIDs[1] != 11 {
		t.Errorf("MediaIDs = %v, want [10 11]", p.MediaIDs)
	}
}

func TestParseIDs(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"10", 1},
		{"10, 11,x,12", 3},
	}
	for _, tt := range tests {
		if got := ParseIDs(tt.in); len(got) != tt.want {
			t.Errorf("ParseIDs(%q) = %v, want %d ids", tt.in, got, tt.want)
		}
	}
}
