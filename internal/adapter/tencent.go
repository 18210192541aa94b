package adapter

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"golang.org/x/text/language"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"trans-gate/internal/httpclient"
	"trans-gate/internal/registry"
	"trans-gate/internal/translator"
	"trans-gate/internal/wire"
)

const tencentDefaultEndpoint = "https://transmart.qq.com/api/imt"

func init() {
	registry.Register("adapter.tencent", func(deps registry.Deps) translator.Translator {
		return newTencent(deps)
	})
}

// Tencent uses the TranSmart interactive translation API. The API batches per
// source language, so it rides the language-grouped strategy. Each process
// run identifies itself with a generated client key.
type Tencent struct {
	*translator.LanguageGrouped
	deps      registry.Deps
	client    *http.Client
	endpoint  string
	clientKey string
}

func newTencent(deps registry.Deps) *Tencent {
	t := &Tencent{deps: deps}
	base := translator.NewBase("tencent", []wire.Engine{
		{Code: "tencent", Name: "Tencent TranSmart"},
	}, map[string][]string{
		"tencent": {"zh", "zh-Hans", "zh-Hant", "zh-TW", "en", "ja", "ko", "fr", "es", "it", "de", "tr", "ru", "pt", "vi", "id", "th", "ms", "ar", "hi"},
	})
	t.LanguageGrouped = translator.NewLanguageGrouped(base, t.sendGroup)
	return t
}

func (t *Tencent) Init(settings map[string]any) bool {
	if !t.LanguageGrouped.Init(settings) {
		return false
	}
	t.endpoint = translator.StringSetting(settings, "endpoint", tencentDefaultEndpoint)
	t.clientKey = "browser-firefox-110.0.0-Windows_10-" + uuid.NewString()
	t.client = t.deps.HTTPClients.GetClient(httpclient.DefaultConfig(t.Concurrent()))
	return true
}

func (t *Tencent) sendGroup(ctx context.Context, items []wire.InputItem, sourceLang, targetLang string) ([]string, error) {
	texts := make([]any, len(items))
	for i, item := range items {
		texts[i] = item.Input
	}

	body := "{}"
	body, _ = sjson.Set(body, "header.fn", "auto_translation")
	body, _ = sjson.Set(body, "header.client_key", t.clientKey)
	body, _ = sjson.Set(body, "type", "plain")
	body, _ = sjson.Set(body, "model_category", "normal")
	body, _ = sjson.Set(body, "source.lang", normalizeChineseTag(sourceLang))
	body, _ = sjson.Set(body, "source.text_list", texts)
	body, _ = sjson.Set(body, "target.lang", normalizeChineseTag(targetLang))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, strings.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
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

	parsed := gjson.ParseBytes(raw)
	if msg := parsed.Get("header.ret_msg").String(); msg != "" && msg != "succ" {
		return nil, status.Errorf(codes.Internal, "transmart error: %s", msg)
	}
	list := parsed.Get("auto_translation")
	if !list.IsArray() {
		return nil, status.Error(codes.Internal, "malformed transmart response")
	}
	out := make([]string, 0, len(items))
	list.ForEach(func(_, value gjson.Result) bool {
		out = append(out, value.String())
		return true
	})
	return out, nil
}

// normalizeChineseTag folds BCP 47 Chinese variants into the two codes the
// API understands: simplified is "zh", traditional is "zh-TW".
func normalizeChineseTag(lang string) string {
	if lang == "" {
		return lang
	}
	tag, err := language.Parse(lang)
	if err != nil {
		return lang
	}
	base, _ := tag.Base()
	if base.String() != "zh" {
		return lang
	}
	script, _ := tag.Script()
	switch script.String() {
	case "Hant":
		return "zh-TW"
	default:
		return "zh"
	}
}
