package llm

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Role1776/gigago"
	"go.uber.org/zap"
)

func TestExtractJSONObject(t *testing.T) {
	cases := []struct {
		name    string
		content string
		want    string
		ok      bool
	}{
		{"bare", `{"a":1}`, `{"a":1}`, true},
		{"fenced", "```json\n{\"a\": {\"b\": 2}}\n```", `{"a": {"b": 2}}`, true},
		{"prose", `Here you go: {"a":"}"} hope it helps`, `{"a":"}"}`, true},
		{"none", "I cannot help with that.", "", false},
		{"broken", `{"a": 1`, "", false},
		{"array only", `[1,2]`, "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ExtractJSONObject(tc.content)
			if ok != tc.ok || string(got) != tc.want {
				t.Fatalf("got %q, %v; want %q, %v", got, ok, tc.want, tc.ok)
			}
		})
	}
}

func TestSetTemperature(t *testing.T) {
	var f32 float32
	setTemperature(&f32, 0.5)
	var f64 float64
	setTemperature(&f64, 0.25)
	if f32 != 0.5 || f64 != 0.25 {
		t.Fatalf("got %v %v", f32, f64)
	}
}

func TestWithSchemaInstruction(t *testing.T) {
	p, err := withSchemaInstruction("You rewrite journals.", map[string]any{"type": "object"})
	if err != nil {
		t.Fatalf("withSchemaInstruction: %v", err)
	}
	if !strings.HasPrefix(p, "You rewrite journals.\n\nRespond with ONLY") || !strings.Contains(p, `"type": "object"`) {
		t.Fatalf("prompt = %q", p)
	}
	if p, _ := withSchemaInstruction("plain", nil); p != "plain" {
		t.Fatalf("schema-less instruction changed: %q", p)
	}
	if p, _ := withSchemaInstruction("", map[string]any{"type": "object"}); !strings.HasPrefix(p, "Respond with ONLY") {
		t.Fatalf("empty system: %q", p)
	}
}

func TestOpenAICompatSendsSchema(t *testing.T) {
	var got oaiChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer sk-test" {
			t.Errorf("auth = %q", r.Header.Get("Authorization"))
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"{\"topic\":\"Optics\"}"}}]}`))
	}))
	defer srv.Close()

	g := NewOpenAICompat(srv.URL+"/v1/", "sk-test", "gpt-4o-mini", time.Second, zap.NewNop())
	raw, err := g.GenerateJSON(context.Background(), Request{
		System:      "be brief",
		Prompt:      "hello",
		Temperature: 3,
		SchemaName:  "journal",
		Schema:      map[string]any{"type": "object"},
	})
	if err != nil {
		t.Fatalf("GenerateJSON: %v", err)
	}
	if string(raw) != `{"topic":"Optics"}` {
		t.Fatalf("raw = %s", raw)
	}
	if got.ResponseFormat == nil || got.ResponseFormat.Type != "json_schema" || !got.ResponseFormat.JSONSchema.Strict {
		t.Fatalf("response_format = %+v", got.ResponseFormat)
	}
	if got.ResponseFormat.JSONSchema.Name != "journal" {
		t.Errorf("schema name = %q", got.ResponseFormat.JSONSchema.Name)
	}
	if got.Temperature != 2 {
		t.Errorf("temperature not clamped: %v", got.Temperature)
	}
	if len(got.Messages) != 2 || got.Messages[0].Role != "system" {
		t.Errorf("messages = %+v", got.Messages)
	}
}

func TestOpenAICompatNoOutput(t *testing.T) {
	for name, body := range map[string]string{
		"no choices": `{"choices":[]}`,
		"refusal":    `{"choices":[{"message":{"content":"","refusal":"no"}}]}`,
		"prose":      `{"choices":[{"message":{"content":"sorry"}}]}`,
	} {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(body))
			}))
			defer srv.Close()

			g := NewOpenAICompat(srv.URL, "", "m", time.Second, zap.NewNop())
			if _, err := g.GenerateJSON(context.Background(), Request{Prompt: "x"}); !errors.Is(err, ErrNoOutput) {
				t.Fatalf("err = %v, want ErrNoOutput", err)
			}
		})
	}
}

func TestOpenAICompatAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"bad schema"}}`))
	}))
	defer srv.Close()

	g := NewOpenAICompat(srv.URL, "", "m", time.Second, zap.NewNop())
	_, err := g.GenerateJSON(context.Background(), Request{Prompt: "x"})
	if err == nil || !strings.Contains(err.Error(), "bad schema") {
		t.Fatalf("err = %v", err)
	}
}

func TestModelCacheStaysBounded(t *testing.T) {
	built := 0
	models := newModelCache(func() *gigago.GenerativeModel {
		built++
		return &gigago.GenerativeModel{}
	})

	// Creativity arrives as an arbitrary form float.
	for i := 0; i <= 20000; i++ {
		if _, err := models.Get(modelKeyFor("sys", float64(i)/20000)); err != nil {
			t.Fatalf("Get: %v", err)
		}
	}
	if models.Len() != 100 || built != 100 {
		t.Fatalf("cached %d models, built %d; want 100", models.Len(), built)
	}

	m, _ := models.Get(modelKeyFor("sys", 0.3512))
	if m.SystemInstruction != "sys" || math.Abs(float64(m.Temperature)-0.35) > 1e-6 {
		t.Fatalf("model = %q %v", m.SystemInstruction, m.Temperature)
	}
	if k := modelKeyFor("sys", 0); k.temperature != 0.01 {
		t.Fatalf("zero temperature key = %v", k.temperature)
	}
	if k := modelKeyFor("sys", 7); k.temperature != 2 {
		t.Fatalf("high temperature key = %v", k.temperature)
	}
}
