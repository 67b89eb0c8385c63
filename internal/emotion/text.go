package emotion

import "strings"

// keywordRule pairs a label with the substrings that select it.
type keywordRule struct {
	label    Label
	keywords []string
}

// keywordRules is checked in order; the first rule with a matching keyword
// wins. "hate" appears under both Angry and Disgusted, so Disgusted can never
// be selected by it.
var keywordRules = []keywordRule{
	{Happy, []string{"happy", "joy", "good", "great", "excited", "awesome", "wonderful"}},
	{Sad, []string{"sad", "unhappy", "depressed", "cry", "upset", "miserable"}},
	{Angry, []string{"angry", "mad", "furious", "hate", "annoyed", "irritated"}},
	{Fearful, []string{"fear", "scared", "afraid", "nervous", "anxious", "terrified"}},
	{Surprised, []string{"surprise", "shock", "wow", "amazed", "astonished"}},
	{Disgusted, []string{"disgust", "hate", "ugly", "revolting", "disgusting"}},
}

// ClassifyText lowercases text and returns the label of the first keyword rule
// with a substring match, or Neutral when nothing matches.
//
// Matching is plain substring containment, so "unhappy" also contains "happy"
// and resolves to Happy because Happy is checked first.
func ClassifyText(text string) Label {
	lower := strings.ToLower(text)
	for _, rule := range keywordRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.label
			}
		}
	}
	return Neutral
}
