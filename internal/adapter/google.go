package adapter

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"trans-gate/internal/httpclient"
	"trans-gate/internal/registry"
	"trans-gate/internal/translator"
	"trans-gate/internal/wire"
)

const googleDefaultEndpoint = "https://translation.googleapis.com/language/translate/v2"

func init() {
	registry.Register("adapter.google", func(deps registry.Deps) translator.Translator {
		return newGoogle(deps)
	})
}

// Google calls the Cloud Translation v2 REST API. The API accepts the whole
// request in one call, so it rides the full-batch strategy.
type Google struct {
	*translator.FullBatch
	deps     registry.Deps
	client   *http.Client
	apiKey   string
	endpoint string
}

func newGoogle(deps registry.Deps) *Google {
	g := &Google{deps: deps}
	base := translator.NewBase("google", []wire.Engine{
		{Code: "google", Name: "Google Translate"},
	}, nil)
	g.FullBatch = translator.NewFullBatch(base, g.sendBatch)
	return g
}

func (g *Google) Init(settings map[string]any) bool {
	if !g.FullBatch.Init(settings) {
		return false
	}
	g.apiKey = credentialSetting(settings, "apiKey", "GOOGLE_CLOUD_API_KEY")
	if g.apiKey == "" {
		logrus.Error("Google adapter requires apiKey in settings or GOOGLE_CLOUD_API_KEY")
		return false
	}
	g.endpoint = translator.StringSetting(settings, "endpoint", googleDefaultEndpoint)
	g.client = g.deps.HTTPClients.GetClient(httpclient.DefaultConfig(g.Concurrent()))
	return true
}

func (g *Google) sendBatch(ctx context.Context, texts []string, sourceLang, targetLang string, _ []wire.GlossaryPair, _ bool) ([]string, error) {
	form := url.Values{}
	form.Set("key", g.apiKey)
	form.Set("target", targetLang)
	form.Set("format", "text")
	if sourceLang != "" {
		form.Set("source", sourceLang)
	}
	for _, text := range texts {
		form.Add("q", text)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, status.Error(codes.Unavailable, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, statusFromResponse(resp)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, status.Error(codes.Unavailable, err.Error())
	}

	translations := gjson.GetBytes(body, "data.translations")
	if !translations.IsArray() {
		return nil, status.Error(codes.Internal, "malformed translation response")
	}
	out := make([]string, 0, len(texts))
	translations.ForEach(func(_, value gjson.Result) bool {
		out = append(out, value.Get("translatedText").String())
		return true
	})
	return out, nil
}
