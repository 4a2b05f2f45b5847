package generation

import (
	"encoding/json"
	"fmt"
	"strings"
)

// TopicPlan is the parsed outcome of carousel topic planning. Fallback marks
// a plan built mechanically because the model output could not be parsed;
// downstream prompts can compensate for the weaker topics.
type TopicPlan struct {
	Topics   []string
	Fallback bool
}

// ParseTopicPlan defensively parses model output into exactly want topics.
// Accepted shapes: {"topics": [...]} or a bare JSON string array, with or
// without a markdown code fence. Anything else yields the mechanical plan.
func ParseTopicPlan(raw string, want int) TopicPlan {
	cleaned := stripCodeFence(raw)

	var topics []string

	var wrapper struct {
		Topics []string `json:"topics"`
	}
	if err := json.Unmarshal([]byte(cleaned), &wrapper); err == nil && len(wrapper.Topics) > 0 {
		topics = wrapper.Topics
	} else {
		var bare []string
		if err := json.Unmarshal([]byte(cleaned), &bare); err == nil {
			topics = bare
		}
	}

	var valid []string
	for _, t := range topics {
		if trimmed := strings.TrimSpace(t); trimmed != "" {
			valid = append(valid, trimmed)
		}
		if len(valid) == want {
			break
		}
	}

	if len(valid) == want {
		return TopicPlan{Topics: valid}
	}
	return mechanicalTopicPlan(want)
}

// mechanicalTopicPlan is the parse-failure fallback: positional topics that
// keep the carousel structurally valid.
func mechanicalTopicPlan(want int) TopicPlan {
	topics := make([]string, want)
	for i := range topics {
		topics[i] = fmt.Sprintf("Part %d", i+1)
	}
	return TopicPlan{Topics: topics, Fallback: true}
}

func stripCodeFence(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
