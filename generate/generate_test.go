package generate

import (
	"context"
	"errors"
	"strings"
	"testing"

	"google.golang.org/genai"
)

type fakeBackend struct {
	text      string
	finish    genai.FinishReason
	block     genai.BlockedReason
	grounding *genai.GroundingMetadata
	err       error

	images   [][]byte
	imageErr error

	model  string
	prompt string
	config *genai.GenerateContentConfig
	imgCfg *genai.GenerateImagesConfig
}

func (f *fakeBackend) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.model = model
	f.config = config
	if len(contents) > 0 && len(contents[0].Parts) > 0 {
		f.prompt = contents[0].Parts[0].Text
	}
	if f.err != nil {
		return nil, f.err
	}
	res := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content:           &genai.Content{Role: "model", Parts: []*genai.Part{{Text: f.text}}},
			FinishReason:      f.finish,
			GroundingMetadata: f.grounding,
		}},
	}
	if f.block != "" {
		res.PromptFeedback = &genai.GenerateContentResponsePromptFeedback{BlockReason: f.block}
		res.Candidates = nil
	}
	return res, nil
}

func (f *fakeBackend) GenerateImages(ctx context.Context, model, prompt string, config *genai.GenerateImagesConfig) (*genai.GenerateImagesResponse, error) {
	f.model = model
	f.prompt = prompt
	f.imgCfg = config
	if f.imageErr != nil {
		return nil, f.imageErr
	}
	res := &genai.GenerateImagesResponse{}
	for _, b := range f.images {
		res.GeneratedImages = append(res.GeneratedImages, &genai.GeneratedImage{Image: &genai.Image{ImageBytes: b, MIMEType: "image/jpeg"}})
	}
	return res, nil
}

type quietLogger struct{ warns int }

func (l *quietLogger) Infof(string, ...interface{}) {}
func (l *quietLogger) Warnf(string, ...interface{}) { l.warns++ }

const goodArticle = `{"title":"Yeni Park Açıldı","content":["Birinci paragraf.","İkinci paragraf."],"metaDescription":"Park haberi","tags":["park","şehir"]}`

func TestArticle(t *testing.T) {
	fb := &fakeBackend{
		text:   goodArticle,
		finish: genai.FinishReasonStop,
		grounding: &genai.GroundingMetadata{GroundingChunks: []*genai.GroundingChunk{
			{Web: &genai.GroundingChunkWeb{URI: "https://a.example", Title: "A"}},
			{Web: &genai.GroundingChunkWeb{URI: "https://a.example", Title: "A again"}},
			{Web: &genai.GroundingChunkWeb{URI: "https://b.example", Title: "B"}},
		}},
	}
	c := New(fb, WithLogger(&quietLogger{}))

	a, err := c.Article(context.Background(), ArticleRequest{Topic: "park", Tone: ToneFormal, IncludeTags: true})
	if err != nil {
		t.Fatalf("Article: %v", err)
	}
	if a.Title != "Yeni Park Açıldı" || len(a.Paragraphs) != 2 || len(a.Tags) != 2 {
		t.Errorf("article = %+v", a)
	}
	if len(a.Sources) != 2 || a.Sources[1].URI != "https://b.example" {
		t.Errorf("sources = %+v", a.Sources)
	}
	if fb.model != DefaultTextModel {
		t.Errorf("model = %q", fb.model)
	}
	if fb.config.ResponseMIMEType != "application/json" || *fb.config.Temperature != 0.7 {
		t.Errorf("config = %+v", fb.config)
	}
	if !strings.Contains(fb.prompt, "Turkish") || !strings.Contains(fb.prompt, `"tags"`) || !strings.Contains(fb.prompt, "formal") {
		t.Errorf("prompt = %s", fb.prompt)
	}
}

func TestArticleGroundedUsesSearch(t *testing.T) {
	fb := &fakeBackend{text: "Here you go:\n```json\n" + goodArticle + "\n```"}
	c := New(fb, WithLogger(&quietLogger{}), WithLanguage("English"))

	if _, err := c.Article(context.Background(), ArticleRequest{Topic: "park", Grounded: true}); err != nil {
		t.Fatalf("Article: %v", err)
	}
	if len(fb.config.Tools) != 1 || fb.config.Tools[0].GoogleSearch == nil {
		t.Errorf("tools = %+v", fb.config.Tools)
	}
	if fb.config.ResponseMIMEType != "" {
		t.Error("JSON mode must be off with search grounding")
	}
	if !strings.Contains(fb.prompt, "English") {
		t.Errorf("prompt language: %s", fb.prompt)
	}
}

func TestArticleDropsTagsWhenNotRequested(t *testing.T) {
	c := New(&fakeBackend{text: goodArticle}, WithLogger(&quietLogger{}))
	a, err := c.Article(context.Background(), ArticleRequest{Topic: "park"})
	if err != nil {
		t.Fatal(err)
	}
	if a.Tags != nil {
		t.Errorf("tags = %v, want none", a.Tags)
	}
}

func TestArticleErrors(t *testing.T) {
	tests := []struct {
		name string
		fb   *fakeBackend
		want error
	}{
		{"bad key", &fakeBackend{err: genai.APIError{Code: 400, Status: "INVALID_ARGUMENT", Message: "API key not valid. Please pass a valid API key."}}, ErrInvalidKey},
		{"quota", &fakeBackend{err: genai.APIError{Code: 429, Status: "RESOURCE_EXHAUSTED", Message: "Quota exceeded"}}, ErrQuotaOrSafety},
		{"quota pointer", &fakeBackend{err: &genai.APIError{Code: 429, Message: "Quota exceeded"}}, ErrQuotaOrSafety},
		{"server", &fakeBackend{err: genai.APIError{Code: 503, Message: "overloaded"}}, ErrUnavailable},
		{"prompt blocked", &fakeBackend{block: genai.BlockedReasonSafety}, ErrQuotaOrSafety},
		{"candidate blocked", &fakeBackend{text: "", finish: genai.FinishReasonSafety}, ErrQuotaOrSafety},
		{"empty", &fakeBackend{text: ""}, ErrMalformedResponse},
		{"not json", &fakeBackend{text: "I cannot help with that."}, ErrMalformedResponse},
		{"missing tags", &fakeBackend{text: `{"title":"t","content":["p"],"metaDescription":"m"}`}, ErrMalformedResponse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(tt.fb, WithLogger(&quietLogger{}))
			_, err := c.Article(context.Background(), ArticleRequest{Topic: "x", IncludeTags: true})
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestArticleKeepsAPIMessage(t *testing.T) {
	c := New(&fakeBackend{err: genai.APIError{Code: 429, Message: "Quota exceeded for metric X"}}, WithLogger(&quietLogger{}))
	_, err := c.Article(context.Background(), ArticleRequest{Topic: "x"})
	if err == nil || !strings.Contains(err.Error(), "Quota exceeded for metric X") {
		t.Errorf("err = %v", err)
	}
}

func TestArticleRequiresTopic(t *testing.T) {
	c := New(&fakeBackend{text: goodArticle})
	if _, err := c.Article(context.Background(), ArticleRequest{Topic: "  "}); err == nil {
		t.Error("want error for empty topic")
	}
}

func TestImages(t *testing.T) {
	fb := &fakeBackend{images: [][]byte{[]byte("one"), nil, []byte("two")}}
	c := New(fb, WithLogger(&quietLogger{}), WithImageModel("imagen-test"))

	imgs := c.Images(context.Background(), ImageRequest{Headline: "Park", Style: StyleIllustration, Count: 9})
	if len(imgs) != 2 {
		t.Fatalf("images = %d, want 2", len(imgs))
	}
	if fb.imgCfg.NumberOfImages != MaxImages || fb.imgCfg.OutputMIMEType != "image/jpeg" {
		t.Errorf("config = %+v", fb.imgCfg)
	}
	if fb.model != "imagen-test" || !strings.Contains(fb.prompt, "illustration") {
		t.Errorf("model %q prompt %q", fb.model, fb.prompt)
	}
}

func TestImagesFailureYieldsNone(t *testing.T) {
	logs := &quietLogger{}
	c := New(&fakeBackend{imageErr: errors.New("boom")}, WithLogger(logs))
	if imgs := c.Images(context.Background(), ImageRequest{Headline: "x"}); imgs != nil {
		t.Errorf("images = %v, want nil", imgs)
	}
	if logs.warns != 1 {
		t.Errorf("warnings = %d, want 1", logs.warns)
	}
}

func TestTopics(t *testing.T) {
	fb := &fakeBackend{text: "```\n[\"a\", \"b\", 3, null, \" \", \"c\", \"d\", \"e\", \"f\"]\n```"}
	c := New(fb, WithLogger(&quietLogger{}))

	topics, err := c.Topics(context.Background(), TopicsTech)
	if err != nil {
		t.Fatalf("Topics: %v", err)
	}
	if strings.Join(topics, ",") != "a,b,3,c,d" {
		t.Errorf("topics = %v", topics)
	}
	if len(fb.config.Tools) != 1 {
		t.Error("tech topics should use search grounding")
	}

	if _, err := c.Topics(context.Background(), TopicsHoroscope); err != nil {
		t.Fatal(err)
	}
	if len(fb.config.Tools) != 0 {
		t.Error("horoscope topics must not use search grounding")
	}
	if *fb.config.Temperature != 0.8 {
		t.Errorf("horoscope temperature = %v", *fb.config.Temperature)
	}
}

func TestTopicsBadFormat(t *testing.T) {
	c := New(&fakeBackend{text: `{"topics":["a"]}`}, WithLogger(&quietLogger{}))
	_, err := c.Topics(context.Background(), TopicsSport)
	if !errors.Is(err, ErrMalformedResponse) {
		t.Fatalf("err = %v, want ErrMalformedResponse", err)
	}
}

func TestParseEnums(t *testing.T) {
	if tone, err := ParseTone("investigative"); err != nil || tone != ToneInvestigative {
		t.Errorf("ParseTone = %q, %v", tone, err)
	}
	if _, err := ParseTone("angry"); err == nil {
		t.Error("want error for unknown tone")
	}
	if st, err := ParseImageStyle("digital art"); err != nil || st != StyleDigitalArt {
		t.Errorf("ParseImageStyle = %q, %v", st, err)
	}
	if cat, err := ParseTopicCategory(" Sport "); err != nil || cat != TopicsSport {
		t.Errorf("ParseTopicCategory = %q, %v", cat, err)
	}
	if _, err := ParseTopicCategory("weather"); err == nil {
		t.Error("want error for unknown category")
	}
}

func TestNewClientRequiresKey(t *testing.T) {
	if _, err := NewClient(context.Background(), ""); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("err = %v, want ErrInvalidKey", err)
	}
}
