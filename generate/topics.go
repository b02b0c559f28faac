package generate

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// TopicCategory selects a trending-topic list.
type TopicCategory string

const (
	TopicsNational  TopicCategory = "national"
	TopicsWorldwide TopicCategory = "worldwide"
	TopicsTech      TopicCategory = "tech"
	TopicsSingers   TopicCategory = "singers"
	TopicsHoroscope TopicCategory = "horoscope"
	TopicsSport     TopicCategory = "sport"
)

type topicSpec struct {
	subject     string
	temperature float32
	search      bool
}

var topicSpecs = map[TopicCategory]topicSpec{
	TopicsNational:  {"current news topics from Turkey or relevant to a Turkish audience", 0.5, true},
	TopicsWorldwide: {"current worldwide news topics", 0.5, true},
	TopicsTech:      {"current technology news topics, such as new gadgets, software updates, AI advancements and industry news", 0.5, true},
	TopicsSingers:   {"interesting news topics about the lives and careers of famous singers from Turkey or worldwide", 0.5, true},
	TopicsHoroscope: {"topics about horoscopes, astrology or daily zodiac predictions", 0.8, false},
	TopicsSport:     {"current sports news topics, focusing on football and basketball", 0.5, true},
}

// TopicCategories lists the categories in display order.
var TopicCategories = []TopicCategory{
	TopicsNational, TopicsWorldwide, TopicsTech, TopicsSingers, TopicsHoroscope, TopicsSport,
}

// ParseTopicCategory validates a category name.
func ParseTopicCategory(s string) (TopicCategory, error) {
	cat := TopicCategory(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := topicSpecs[cat]; !ok {
		return "", fmt.Errorf("generate: unknown topic category %q", s)
	}
	return cat, nil
}

// TopicCount is how many topics a list asks for.
const TopicCount = 5

// Topics asks for TopicCount trending topics in cat. Every category but
// horoscope is grounded with Google Search.
func (c *Client) Topics(ctx context.Context, cat TopicCategory) ([]string, error) {
	spec, ok := topicSpecs[cat]
	if !ok {
		return nil, fmt.Errorf("generate: unknown topic category %q", cat)
	}
	cfg := &genai.GenerateContentConfig{Temperature: genai.Ptr(spec.temperature)}
	if spec.search {
		cfg.Tools = []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}
	}

	prompt := fmt.Sprintf("List %d diverse %s. The topics must be in %s. "+
		"Return ONLY a valid JSON array of strings, without commentary, introduction or markdown fences.",
		TopicCount, spec.subject, c.language)
	_, text, err := c.text(ctx, prompt, cfg)
	if err != nil {
		return nil, fmt.Errorf("fetch %s topics: %w", cat, err)
	}
	topics, err := ParseTopics(text)
	if err != nil {
		return nil, fmt.Errorf("fetch %s topics: %w", cat, err)
	}
	if len(topics) > TopicCount {
		topics = topics[:TopicCount]
	}
	return topics, nil
}
