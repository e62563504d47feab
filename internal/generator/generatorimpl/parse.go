package generatorimpl

import (
	"encoding/json"

	"github.com/postpilot/postpilot/internal/domain"
	"github.com/postpilot/postpilot/pkg/textutil"
)

type generatedItemJSON struct {
	Content  string          `json:"content"`
	Script   *string         `json:"script"`
	Hashtags json.RawMessage `json:"hashtags"`
}

func (j generatedItemJSON) toDomain() domain.GeneratedPost {
	post := domain.GeneratedPost{
		Content: j.Content,
		Script:  j.Script,
	}
	if len(j.Hashtags) > 0 {
		var arr []string
		if err := json.Unmarshal(j.Hashtags, &arr); err == nil {
			raw := string(j.Hashtags)
			post.Hashtags = &raw
		}
	}
	return post
}

// parseGeneratedList decodes a model response expected to be a JSON array of
// post objects. A response that does not parse becomes a single post with the
// raw text as its content.
func parseGeneratedList(raw string) []domain.GeneratedPost {
	cleaned := textutil.StripCodeFences(raw)

	var items []generatedItemJSON
	if err := json.Unmarshal([]byte(cleaned), &items); err != nil {
		return []domain.GeneratedPost{{Content: cleaned}}
	}

	posts := make([]domain.GeneratedPost, 0, len(items))
	for _, item := range items {
		posts = append(posts, item.toDomain())
	}
	return posts
}

// parseGeneratedItem decodes a single-object model response, with the same
// raw-text fallback.
func parseGeneratedItem(raw string) domain.GeneratedPost {
	cleaned := textutil.StripCodeFences(raw)

	var item generatedItemJSON
	if err := json.Unmarshal([]byte(cleaned), &item); err != nil || item.Content == "" {
		return domain.GeneratedPost{Content: cleaned}
	}
	return item.toDomain()
}
