package adapter

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"trans-gate/internal/httpclient"
	"trans-gate/internal/registry"
	"trans-gate/internal/translator"
	"trans-gate/internal/wire"
)

const deeplxDefaultEndpoint = "http://localhost:1188/translate"

func init() {
	registry.Register("adapter.deeplx", func(deps registry.Deps) translator.Translator {
		return newDeepLX(deps)
	})
}

// DeepLX talks to a self-hosted DeepLX server, which translates one text per
// call, so it rides the single-input strategy.
type DeepLX struct {
	*translator.SingleInput
	deps     registry.Deps
	client   *http.Client
	endpoint string
	token    string
}

func newDeepLX(deps registry.Deps) *DeepLX {
	d := &DeepLX{deps: deps}
	base := translator.NewBase("deeplx", []wire.Engine{
		{Code: "deeplx", Name: "DeepLX"},
	}, nil)
	d.SingleInput = translator.NewSingleInput(base, d.sendItem)
	return d
}

func (d *DeepLX) Init(settings map[string]any) bool {
	if !d.SingleInput.Init(settings) {
		return false
	}
	d.endpoint = translator.StringSetting(settings, "endpoint", deeplxDefaultEndpoint)
	d.token = credentialSetting(settings, "token", "DEEPLX_ACCESS_TOKEN")
	d.client = d.deps.HTTPClients.GetClient(httpclient.DefaultConfig(d.Concurrent()))
	return true
}

func (d *DeepLX) sendItem(ctx context.Context, item wire.InputItem, sourceLang, targetLang string) (string, error) {
	body := "{}"
	body, _ = sjson.Set(body, "text", item.Input)
	body, _ = sjson.Set(body, "source_lang", strings.ToUpper(sourceLang))
	body, _ = sjson.Set(body, "target_lang", strings.ToUpper(targetLang))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.endpoint, strings.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if d.token != "" {
		req.Header.Set("Authorization", "Bearer "+d.token)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return "", status.Error(codes.Unavailable, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", statusFromResponse(resp)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", status.Error(codes.Unavailable, err.Error())
	}

	parsed := gjson.ParseBytes(raw)
	if parsed.Get("code").Int() != 200 {
		return "", status.Errorf(codes.Internal, "deeplx error response: %s", parsed.Get("message").String())
	}
	return parsed.Get("data").String(), nil
}
