package newsdesk

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/eringen/newsdesk/generate"
	"github.com/eringen/newsdesk/wordpress"
)

var (
	ErrPublishInFlight = errors.New("newsdesk: a publish is already in progress")
	ErrNoDraft         = errors.New("newsdesk: no article has been generated")
	ErrBusy            = errors.New("newsdesk: another request is still running")
	ErrNoTopic         = errors.New("newsdesk: no topic")
)

// MsgNoTopic is the console error for generating without a topic.
const MsgNoTopic = "Please enter a topic."

// Options are the operator's form choices.
type Options struct {
	Topic         string              `json:"topic"`
	Tone          generate.Tone       `json:"tone"`
	Grounded      bool                `json:"grounded"`
	IncludeImage  bool                `json:"include_image"`
	ImageStyle    generate.ImageStyle `json:"image_style"`
	ImageCount    int                 `json:"image_count"`
	ImageCredit   string              `json:"image_credit"`
	IncludeTags   bool                `json:"include_tags"`
	UseCategory   bool                `json:"use_category"`
	PublishStatus wordpress.Status    `json:"publish_status"`
	Schedule      time.Time           `json:"schedule"`
}

// DefaultOptions mirrors the console's initial form.
func DefaultOptions() Options {
	return Options{
		Tone:          generate.ToneJournalistic,
		IncludeImage:  true,
		ImageStyle:    generate.StylePhotorealistic,
		ImageCount:    1,
		IncludeTags:   true,
		UseCategory:   true,
		PublishStatus: wordpress.StatusPublish,
	}
}

// State is everything the console shows. It only changes through Reduce.
type State struct {
	Options Options               `json:"options"`
	Site    wordpress.Credentials `json:"site"`

	Draft             *Draft `json:"draft,omitempty"`
	Generating        bool   `json:"generating"`
	RegeneratingImage bool   `json:"regenerating_image"`

	TopicCategory  generate.TopicCategory `json:"topic_category,omitempty"`
	Topics         []string               `json:"topics"`
	FetchingTopics bool                   `json:"fetching_topics"`

	PostStatus PostStatus `json:"post_status"`
	PostLink   string     `json:"post_link,omitempty"`
	PostError  string     `json:"post_error,omitempty"`

	Error string `json:"error,omitempty"`
}

// NewState returns the initial state.
func NewState(site wordpress.Credentials, credit string) State {
	opts := DefaultOptions()
	opts.ImageCredit = credit
	return State{Options: opts, Site: site, PostStatus: PostIdle}
}

// Postable reports whether a publish could start now.
func (s State) Postable() bool {
	return s.Draft != nil && s.Site.Complete() && !s.PostStatus.InFlight()
}

// Action is a state transition. The concrete types below are the only
// actions Reduce understands.
type Action interface {
	action()
}

type (
	SetOptions        struct{ Options Options }
	SetSite           struct{ Site wordpress.Credentials }
	PickTopic         struct{ Topic string }
	TopicsStarted     struct{ Category generate.TopicCategory }
	TopicsLoaded      struct{ Topics []string }
	TopicsFailed      struct{ Err string }
	GenerateStarted   struct{}
	GenerateSucceeded struct{ Draft *Draft }
	GenerateFailed    struct{ Err string }
	LoadDraft         struct{ Draft *Draft }
	ImageRegenStarted struct{}
	ImagesReplaced    struct{ Images [][]byte }
	ImageRegenFailed  struct{ Err string }
	PublishStarted    struct{}
	PublishProgress   struct{ Stage wordpress.Stage }
	PublishSucceeded  struct{ Link string }
	PublishFailed     struct{ Err string }
	ClearError        struct{}
)

func (SetOptions) action()        {}
func (SetSite) action()           {}
func (PickTopic) action()         {}
func (TopicsStarted) action()     {}
func (TopicsLoaded) action()      {}
func (TopicsFailed) action()      {}
func (GenerateStarted) action()   {}
func (GenerateSucceeded) action() {}
func (GenerateFailed) action()    {}
func (LoadDraft) action()         {}
func (ImageRegenStarted) action() {}
func (ImagesReplaced) action()    {}
func (ImageRegenFailed) action()  {}
func (PublishStarted) action()    {}
func (PublishProgress) action()   {}
func (PublishSucceeded) action()  {}
func (PublishFailed) action()     {}
func (ClearError) action()        {}

// Reduce returns the state after act. It never modifies s or anything
// s points to.
func Reduce(s State, act Action) State {
	switch a := act.(type) {
	case SetOptions:
		s.Options = a.Options
		s.Options.ImageCount = min(max(s.Options.ImageCount, 1), generate.MaxImages)
	case SetSite:
		s.Site = a.Site
	case PickTopic:
		s.Options.Topic = strings.TrimSpace(a.Topic)

	case TopicsStarted:
		s.FetchingTopics = true
		s.TopicCategory = a.Category
		s.Topics = nil
		s.Error = ""
	case TopicsLoaded:
		s.FetchingTopics = false
		s.Topics = append([]string(nil), a.Topics...)
	case TopicsFailed:
		s.FetchingTopics = false
		s.Error = a.Err

	case GenerateStarted:
		if s.Options.Topic == "" {
			s.Error = MsgNoTopic
			break
		}
		s.Generating = true
		s.RegeneratingImage = false
		s.Draft = nil
		s.Error = ""
		s.PostStatus = PostIdle
		s.PostLink = ""
		s.PostError = ""
	case GenerateSucceeded:
		s.Generating = false
		s.Draft = a.Draft
	case GenerateFailed:
		s.Generating = false
		s.Error = a.Err
	case LoadDraft:
		if a.Draft == nil {
			break
		}
		s.Draft = a.Draft
		s.Options.Topic = a.Draft.Topic
		if a.Draft.Tone != "" {
			s.Options.Tone = a.Draft.Tone
		}
		s.PostStatus = PostIdle
		s.PostLink = ""
		s.PostError = ""

	case ImageRegenStarted:
		if s.Draft == nil {
			break
		}
		s.RegeneratingImage = true
		s.Error = ""
	case ImagesReplaced:
		s.RegeneratingImage = false
		if s.Draft == nil {
			break
		}
		d := *s.Draft
		d.Images = a.Images
		d.UpdatedAt = time.Now().UTC()
		s.Draft = &d
	case ImageRegenFailed:
		s.RegeneratingImage = false
		s.Error = a.Err

	case PublishStarted:
		s.PostLink = ""
		s.PostError = ""
		s.PostStatus = PostPosting
		if s.Options.IncludeImage && s.Draft != nil && len(s.Draft.Images) > 0 {
			s.PostStatus = PostUploadingImage
		}
	case PublishProgress:
		if !s.PostStatus.InFlight() {
			break
		}
		if a.Stage == wordpress.StageUpload {
			s.PostStatus = PostUploadingImage
		} else {
			s.PostStatus = PostPosting
		}
	case PublishSucceeded:
		s.PostStatus = PostSuccess
		s.PostLink = a.Link
	case PublishFailed:
		s.PostStatus = PostError
		s.PostError = a.Err

	case ClearError:
		s.Error = ""
		s.PostError = ""
	}
	return s
}

// Workspace holds the console state for all requests.
type Workspace struct {
	mu    sync.Mutex
	state State
}

// NewWorkspace starts from initial.
func NewWorkspace(initial State) *Workspace {
	return &Workspace{state: initial}
}

// Snapshot returns the current state.
func (w *Workspace) Snapshot() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Dispatch applies act and returns the new state.
func (w *Workspace) Dispatch(act Action) State {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.state = Reduce(w.state, act)
	return w.state
}

// TryDispatch applies act only if guard accepts the current state.
// Check and update happen under one lock.
func (w *Workspace) TryDispatch(act Action, guard func(State) error) (State, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := guard(w.state); err != nil {
		return w.state, err
	}
	w.state = Reduce(w.state, act)
	return w.state, nil
}

// BeginPublish moves to the publishing state, refusing when there is no
// draft or a publish is already running.
func (w *Workspace) BeginPublish() (State, error) {
	return w.TryDispatch(PublishStarted{}, func(s State) error {
		switch {
		case s.PostStatus.InFlight():
			return ErrPublishInFlight
		case s.Draft == nil:
			return ErrNoDraft
		}
		return nil
	})
}

// BeginGenerate refuses while a generation or publish is running, and
// returns ErrNoTopic (with the state error set) when there is no topic.
func (w *Workspace) BeginGenerate() (State, error) {
	st, err := w.TryDispatch(GenerateStarted{}, func(s State) error {
		if s.Generating || s.PostStatus.InFlight() {
			return ErrBusy
		}
		return nil
	})
	if err == nil && !st.Generating {
		err = ErrNoTopic
	}
	return st, err
}

// BeginImageRegen refuses without a draft or while images are already
// being regenerated.
func (w *Workspace) BeginImageRegen() (State, error) {
	return w.TryDispatch(ImageRegenStarted{}, func(s State) error {
		switch {
		case s.Draft == nil:
			return ErrNoDraft
		case s.RegeneratingImage || s.Generating:
			return ErrBusy
		}
		return nil
	})
}
