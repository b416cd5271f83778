package models

import "time"

// --- Request Structs ---

// SendMessageRequest defines the body for posting a new message to a chat.
type SendMessageRequest struct {
	Subject string `json:"subject"`
	Content string `json:"content"`
}

// EditMessageRequest defines the body for replacing a message's content.
type EditMessageRequest struct {
	Subject string `json:"subject"`
	URI     string `json:"uri"`
	Content string `json:"content"`
}

// DeleteMessageRequest defines the body for removing a message.
type DeleteMessageRequest struct {
	Subject string `json:"subject"`
	URI     string `json:"uri"`
}

// ReactRequest defines the body for attaching an emoji reaction to a message.
type ReactRequest struct {
	Subject string `json:"subject"`
	URI     string `json:"uri"`
	Emoji   string `json:"emoji"`
}

// LoadHistoryRequest asks the chat pane for another page of scroll-back.
type LoadHistoryRequest struct {
	Subject string `json:"subject"`
}

// AddChatRequest defines the body for adding a chat to the sidebar list.
type AddChatRequest struct {
	URI   string `json:"uri"`
	Title string `json:"title,omitempty"`
}

// SelectChatRequest marks a sidebar entry as the active chat.
type SelectChatRequest struct {
	URI string `json:"uri"`
}

// --- Response Structs ---

// ErrorResponse is the uniform error body for all endpoints.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ChatListResponse is the sidebar state: entries plus the active selection.
type ChatListResponse struct {
	Chats  []ChatListEntry `json:"chats"`
	Active string          `json:"active,omitempty"`
}

// DiscoverResponse reports chats found in the user's type indexes.
type DiscoverResponse struct {
	Found []string `json:"found"`
}

// HistoryResponse is one page of scroll-back plus paging state.
type HistoryResponse struct {
	Loaded     int       `json:"loaded"`
	OldestDate time.Time `json:"oldest_date"`
	HasMore    bool      `json:"has_more"`
}
