package domain

// EventKind tags a wire envelope.
type EventKind string

const (
	EventUserJoined   EventKind = "userJoined"
	EventUserLeft     EventKind = "userLeft"
	EventMessage      EventKind = "message"
	EventError        EventKind = "error"
	EventCode         EventKind = "code"
	EventUserSubmit   EventKind = "userSubmit"
	EventSubmitResult EventKind = "userSubmitResult"
)

// WireEvent is the JSON envelope exchanged with clients after a
// connection joins a room. Username always comes from the connection's
// bound identity; client-supplied usernames are never echoed.
type WireEvent struct {
	Event    EventKind `json:"event"`
	Username string    `json:"username,omitempty"`
	Message  string    `json:"message,omitempty"`
	Code     string    `json:"code,omitempty"`
	Language string    `json:"language,omitempty"`
}

func UserJoined(username string) WireEvent {
	return WireEvent{Event: EventUserJoined, Username: username}
}

func UserLeft(username string) WireEvent {
	return WireEvent{Event: EventUserLeft, Username: username}
}

func ChatMessage(username, text string) WireEvent {
	return WireEvent{Event: EventMessage, Username: username, Message: text}
}

func CodeUpdate(username, code, language string) WireEvent {
	return WireEvent{Event: EventCode, Username: username, Code: code, Language: language}
}

// SubmissionRequest announces that a member submitted code for judging.
func SubmissionRequest(username, code, language string) WireEvent {
	return WireEvent{Event: EventUserSubmit, Username: username, Message: code, Language: language}
}

func SubmissionResult(username, status string) WireEvent {
	return WireEvent{Event: EventSubmitResult, Username: username, Message: "Submission result: " + status}
}

func ErrorEvent(message string) WireEvent {
	return WireEvent{Event: EventError, Message: message}
}
