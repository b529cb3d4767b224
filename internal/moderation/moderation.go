package moderation

import "context"

// Result - вердикт классификатора по одному фрагменту контента.
// Categories содержит флаг по каждой категории провайдера.
type Result struct {
	Flagged    bool
	Categories map[string]bool
}

// Порядок категорий фиксирован: при нескольких сработавших флагах
// причиной становится первая по списку. Порядок менять нельзя,
// иначе поменяются причины отклонения в уже записанных сущностях.
var TextCategories = []string{
	"harassment",
	"sexual",
	"hate",
	"violence",
	"profanity",
}

var ImageCategories = []string{
	"harassment",
	"harassment_threatening",
	"hate",
	"hate_threatening",
	"illicit",
	"illicit_violent",
	"self_harm",
	"self_harm_instructions",
	"self_harm_intent",
	"sexual",
	"sexual_minors",
	"violence",
	"violence_graphic",
}

type TextModerator interface {
	ModerateText(ctx context.Context, text string) (*Result, error)
}

type ImageModerator interface {
	ModerateImage(ctx context.Context, imageURL string) (*Result, error)
}

// FirstCategory возвращает первую сработавшую категорию в порядке ordered.
// Пустая строка означает, что ни одна категория не сработала.
func FirstCategory(result *Result, ordered []string) string {
	if result == nil || !result.Flagged {
		return ""
	}
	for _, category := range ordered {
		if result.Categories[category] {
			return category
		}
	}
	return ""
}
