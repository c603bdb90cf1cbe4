package types

type MessageType string

const (
	SourcesMessage          MessageType = "SOURCES"
	ConnectionStatusMessage MessageType = "CONNECTION_STATUS"
	ExportMessage           MessageType = "EXPORT"
)

type ConnectionStatus string

const (
	ConnectionSucceed ConnectionStatus = "SUCCEEDED"
	ConnectionFailed  ConnectionStatus = "FAILED"
)

type Message struct {
	Type             MessageType   `json:"type"`
	Sources          []any         `json:"sources,omitempty"`
	ConnectionStatus *StatusRow    `json:"connectionStatus,omitempty"`
	Export           *ExportReport `json:"export,omitempty"`
}

type StatusRow struct {
	Status  ConnectionStatus `json:"status"`
	Message string           `json:"message,omitempty"`
}

type ExportReport struct {
	Layers   int   `json:"layers"`
	Features int64 `json:"features"`
}
