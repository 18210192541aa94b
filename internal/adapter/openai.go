package adapter

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"trans-gate/internal/httpclient"
	"trans-gate/internal/registry"
	"trans-gate/internal/translator"
	"trans-gate/internal/wire"
)

const (
	openaiDefaultEndpoint = "https://api.openai.com/v1/chat/completions"
	openaiDefaultModel    = "gpt-4o-mini"
)

func init() {
	registry.Register("adapter.openai", func(deps registry.Deps) translator.Translator {
		return newOpenAI(deps)
	})
}

// OpenAI translates through a chat completions endpoint. One call handles a
// whole language group: items are sent as numbered lines and the model
// answers with matching numbered lines.
type OpenAI struct {
	*translator.LanguageGrouped
	deps     registry.Deps
	client   *http.Client
	apiKey   string
	endpoint string
	model    string
}

func newOpenAI(deps registry.Deps) *OpenAI {
	o := &OpenAI{deps: deps}
	base := translator.NewBase("openai", []wire.Engine{
		{Code: "openai", Name: "OpenAI"},
	}, nil)
	o.LanguageGrouped = translator.NewLanguageGrouped(base, o.sendGroup)
	return o
}

func (o *OpenAI) Init(settings map[string]any) bool {
	if !o.LanguageGrouped.Init(settings) {
		return false
	}
	o.apiKey = credentialSetting(settings, "apiKey", "OPENAI_API_KEY")
	if o.apiKey == "" {
		logrus.Error("OpenAI adapter requires apiKey in settings or OPENAI_API_KEY")
		return false
	}
	o.endpoint = translator.StringSetting(settings, "endpoint", openaiDefaultEndpoint)
	o.model = translator.StringSetting(settings, "model", openaiDefaultModel)
	o.client = o.deps.HTTPClients.GetClient(httpclient.DefaultConfig(o.Concurrent()))
	return true
}

func (o *OpenAI) sendGroup(ctx context.Context, items []wire.InputItem, sourceLang, targetLang string) ([]string, error) {
	prompt := buildChatPrompt(items, sourceLang, targetLang)

	body := "{}"
	body, _ = sjson.Set(body, "model", o.model)
	body, _ = sjson.Set(body, "temperature", 0.2)
	body, _ = sjson.Set(body, "messages.0.role", "system")
	body, _ = sjson.Set(body, "messages.0.content", "You are a translation engine. Reply with the translated lines only, keeping the exact numbering of the input. Never add commentary.")
	body, _ = sjson.Set(body, "messages.1.role", "user")
	body, _ = sjson.Set(body, "messages.1.content", prompt)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.endpoint, strings.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, status.Error(codes.Unavailable, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, statusFromResponse(resp)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, status.Error(codes.Unavailable, err.Error())
	}

	content := gjson.GetBytes(raw, "choices.0.message.content").String()
	if content == "" {
		return nil, status.Error(codes.Internal, "empty completion response")
	}
	return parseNumberedLines(content, len(items)), nil
}

// buildChatPrompt renders the group as numbered lines plus glossary guidance.
func buildChatPrompt(items []wire.InputItem, sourceLang, targetLang string) string {
	var b strings.Builder
	if sourceLang != "" {
		fmt.Fprintf(&b, "Translate the following %d numbered lines from %s to %s.\n", len(items), sourceLang, targetLang)
	} else {
		fmt.Fprintf(&b, "Translate the following %d numbered lines to %s.\n", len(items), targetLang)
	}

	var glossary []wire.GlossaryPair
	for _, item := range items {
		glossary = append(glossary, item.GlossaryList...)
	}
	if len(glossary) > 0 {
		b.WriteString("Apply these term mappings:\n")
		for _, pair := range glossary {
			fmt.Fprintf(&b, "- %q => %q\n", pair.SrcWords, pair.TargetWords)
		}
	}

	b.WriteString("\n")
	for i, item := range items {
		fmt.Fprintf(&b, "%d. %s\n", i+1, item.Input)
	}
	return b.String()
}

// parseNumberedLines maps the model's numbered reply back onto positions.
// Lines the model dropped stay empty at their position rather than shifting
// later results.
func parseNumberedLines(content string, count int) []string {
	out := make([]string, count)
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		dot := strings.Index(line, ".")
		if dot <= 0 {
			continue
		}
		index := 0
		if _, err := fmt.Sscanf(line[:dot], "%d", &index); err != nil {
			continue
		}
		if index < 1 || index > count {
			continue
		}
		out[index-1] = strings.TrimSpace(line[dot+1:])
	}
	return out
}
