// Package wire defines the structured messages that cross the RPC boundary.
//
// The messages are carried as JSON; item payloads inside a translate request
// or response are additionally encrypted per item (see internal/encryption).
package wire

// Engine identifies one selectable translation capability.
type Engine struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// GlossaryPair is a forced source-to-target substitution supplied by the caller.
type GlossaryPair struct {
	SrcWords    string `json:"srcWords"`
	TargetWords string `json:"targetWords"`
}

// InputItem is one text to translate. ID is unique within a request and is
// the correlation key between input and result.
type InputItem struct {
	ID                 int32          `json:"id"`
	Input              string         `json:"input"`
	GlossaryList       []GlossaryPair `json:"glossaryList,omitempty"`
	GlossaryIgnoreCase bool           `json:"glossaryIgnoreCase,omitempty"`
}

// LangItem groups the request items that share one declared source language.
type LangItem struct {
	InputLang     string      `json:"inputLang"`
	InputItemList []InputItem `json:"inputItemList"`
}

// ResultItem carries one translated text, keyed by the submitted item ID.
type ResultItem struct {
	ID     int32  `json:"id"`
	Result string `json:"result"`
}

// AgentInfoRequest asks the agent for its identity and proves key possession.
type AgentInfoRequest struct {
	ClientVersion string `json:"clientVersion"`
	Ciphertext    string `json:"ciphertext"`
	Plaintext     string `json:"plaintext"`
}

// AgentInfoResponse reports agent identity, key verification and engines.
type AgentInfoResponse struct {
	KeyVerificationResult bool     `json:"keyVerificationResult"`
	AgentVersion          string   `json:"agentVersion"`
	AgentVersionNumber    int32    `json:"agentVersionNumber"`
	Engines               []Engine `json:"engines"`
}

// UsabilityCheckRequest probes one engine for liveness.
type UsabilityCheckRequest struct {
	EngineCode string `json:"engineCode"`
	Ct         int64  `json:"ct"` // client timestamp, unix millis
}

// UsabilityCheckResponse echoes the client timestamp and reports the probe result.
type UsabilityCheckResponse struct {
	Ct     int64 `json:"ct"`
	At     int64 `json:"at"` // agent timestamp, unix millis
	Result bool  `json:"result"`
}

// TranslateRequest carries encrypted input items for one translation request.
// Each entry of InputDataList decodes to a LangItem (see encryption.Codec).
type TranslateRequest struct {
	RequestID     string   `json:"requestId"`
	TargetLang    string   `json:"targetLang"`
	EngineCode    string   `json:"engineCode"`
	IsAutoTrans   bool     `json:"isAutoTrans"`
	InputDataList []string `json:"inputDataList"`
}

// TranslateResponse is one message of the translate response stream.
// Each entry of OutputDataList decodes to a ResultItem.
type TranslateResponse struct {
	RequestID              string   `json:"requestId"`
	IsAllItemTransFinished bool     `json:"isAllItemTransFinished"`
	OutputDataList         []string `json:"outputDataList"`

	// ErrorCode carries the canonical status code of a failed dispatch
	// unit; zero means the message holds successful results only.
	ErrorCode    int32  `json:"errorCode,omitempty"`
	ErrorMessage string `json:"errorMessage,omitempty"`
}
