package ws

// Inbound event kinds (client -> gateway).
const (
	EventJoin             = "join"
	EventCodeChange       = "codeChange"
	EventWhiteboardChange = "whiteboardChange"
	EventDrawingChange    = "drawingChange"
	EventCursorMove       = "cursorMove"
	EventTyping           = "typing"
	EventLanguageChange   = "languageChange"
	EventSendMessage      = "sendMessage"
	EventLeaveRoom        = "leaveRoom"
)

// Outbound event kinds (gateway -> clients).
const (
	EventProgressFetched  = "progressFetched"
	EventUserJoined       = "userJoined"
	EventUserLeft         = "userLeft"
	EventCodeUpdate       = "codeUpdate"
	EventWhiteboardUpdate = "whiteboardUpdate"
	EventDrawingUpdate    = "drawingUpdate"
	EventCursorPosition   = "cursorPosition"
	EventUserTyping       = "userTyping"
	EventLanguageUpdate   = "languageUpdate"
	EventChatMessage      = "chatMessage"
	EventError            = "error"
)
