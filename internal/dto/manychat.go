package dto

// ManyChat dynamic block payload, version 2.
type ManyChatResponse struct {
	Version string          `json:"version"`
	Content ManyChatContent `json:"content"`
}

type ManyChatContent struct {
	Messages     []ManyChatMessage `json:"messages"`
	Actions      []ManyChatAction  `json:"actions"`
	QuickReplies []any             `json:"quick_replies"`
}

type ManyChatMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type ManyChatAction struct {
	Action    string `json:"action"`
	FieldName string `json:"field_name"`
	Value     any    `json:"value"`
}

func NewManyChatText(text string, actions ...ManyChatAction) ManyChatResponse {
	if actions == nil {
		actions = []ManyChatAction{}
	}
	return ManyChatResponse{
		Version: "v2",
		Content: ManyChatContent{
			Messages:     []ManyChatMessage{{Type: "text", Text: text}},
			Actions:      actions,
			QuickReplies: []any{},
		},
	}
}

func SetField(name string, value any) ManyChatAction {
	return ManyChatAction{
		Action:    "set_field_value",
		FieldName: name,
		Value:     value,
	}
}
