package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"github.com/justsurfingit/cover-letter-agent/internal/config"
	"github.com/justsurfingit/cover-letter-agent/internal/models"
)

// fakeModel answers with reply, streaming it in chunks when the caller
// asked for streaming.
type fakeModel struct {
	reply  string
	chunks int
	err    error

	messages []llms.MessageContent
	opts     llms.CallOptions
}

func (f *fakeModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	f.messages = messages
	for _, o := range options {
		o(&f.opts)
	}
	if f.err != nil {
		return nil, f.err
	}
	if f.opts.StreamingFunc != nil && f.chunks > 0 {
		size := len(f.reply)/f.chunks + 1
		for i := 0; i < len(f.reply); i += size {
			end := i + size
			if end > len(f.reply) {
				end = len(f.reply)
			}
			if err := f.opts.StreamingFunc(ctx, []byte(f.reply[i:end])); err != nil {
				return nil, err
			}
		}
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: f.reply}}}, nil
}

func (f *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, f, prompt, options...)
}

func sampleRequest(locale string) models.GenerationRequest {
	job := &models.JobPosting{Title: "Backend Developer", Company: "Acme", Description: "Build APIs in Go.", ContactPerson: "Ann"}
	profile := &models.UserProfile{Name: "Jane Doe", Skills: "Go, SQL"}
	return models.NewGenerationRequest(job, profile, locale)
}

func TestNewLLMService_UnknownProvider(t *testing.T) {
	_, err := NewLLMService(context.Background(), config.LLMConfig{Provider: "edge"})
	assert.Error(t, err)
}

func TestLLMService_Generate_StreamsProgress(t *testing.T) {
	model := &fakeModel{reply: strings.Repeat("word ", 600), chunks: 10}
	svc := &LLMService{Client: model, Temperature: 0.7}

	var seen []int
	content, err := svc.Generate(context.Background(), sampleRequest("en-US"), func(p int) { seen = append(seen, p) })
	require.NoError(t, err)
	assert.NotEmpty(t, content)

	require.NotEmpty(t, seen)
	assert.Equal(t, 100, seen[len(seen)-1])
	for i := 1; i < len(seen); i++ {
		assert.GreaterOrEqual(t, seen[i], seen[i-1])
	}
	for _, p := range seen[:len(seen)-1] {
		assert.LessOrEqual(t, p, 99)
	}
	assert.InDelta(t, 0.7, model.opts.Temperature, 1e-9)
}

func TestLLMService_Generate_Prompt(t *testing.T) {
	model := &fakeModel{reply: "Kære Ann"}
	svc := &LLMService{Client: model}

	_, err := svc.Generate(context.Background(), sampleRequest("da-DK"), nil)
	require.NoError(t, err)

	require.Len(t, model.messages, 2)
	assert.Equal(t, llms.ChatMessageTypeSystem, model.messages[0].Role)
	sys := model.messages[0].Parts[0].(llms.TextContent).Text
	assert.Contains(t, sys, "dansk")

	human := model.messages[1].Parts[0].(llms.TextContent).Text
	assert.Contains(t, human, "Backend Developer")
	assert.Contains(t, human, "Contact person: Ann")
	assert.Contains(t, human, "Skills: Go, SQL")
	assert.NotContains(t, human, "Phone:", "empty fields are left out")
}

func TestLLMService_Generate_Errors(t *testing.T) {
	svc := &LLMService{Client: &fakeModel{err: errors.New("rate limited")}}
	_, err := svc.Generate(context.Background(), sampleRequest("en"), nil)
	assert.EqualError(t, err, "rate limited")

	svc = &LLMService{Client: &fakeModel{reply: "   "}}
	_, err = svc.Generate(context.Background(), sampleRequest("en"), nil)
	assert.Error(t, err)
}

func TestLLMService_ExtractJobDetails(t *testing.T) {
	model := &fakeModel{reply: "```json\n{\"title\": \"Go Dev\", \"company\": \"Acme\"}\n```"}
	svc := &LLMService{Client: model}

	out, err := svc.ExtractJobDetails(context.Background(), "<html>"+strings.Repeat("x", 30000)+"</html>")
	require.NoError(t, err)
	assert.Equal(t, `{"title": "Go Dev", "company": "Acme"}`, out)

	prompt := model.messages[0].Parts[0].(llms.TextContent).Text
	assert.Less(t, len(prompt), 30000, "input is truncated")
}

func TestTruncateUTF8(t *testing.T) {
	assert.Equal(t, "short", truncateUTF8("short", 10))
	assert.Equal(t, "Ans", truncateUTF8("Ansøgning", 4), "ø is two bytes and is dropped whole")
	assert.Equal(t, "Ansø", truncateUTF8("Ansøgning", 5))
	assert.Equal(t, "", truncateUTF8("øl", 1))
}

func TestLLMService_ExtractJobDetails_KeepsRunesWhole(t *testing.T) {
	model := &fakeModel{reply: `{"title": "Udvikler"}`}
	svc := &LLMService{Client: model}

	// "<html>" plus padding puts the first byte of ø at the last allowed byte
	page := "<html>" + strings.Repeat("x", maxExtractionInput-7) + "ø" + strings.Repeat("æ", 100)
	_, err := svc.ExtractJobDetails(context.Background(), page)
	require.NoError(t, err)

	prompt := model.messages[0].Parts[0].(llms.TextContent).Text
	assert.True(t, utf8.ValidString(prompt))
	assert.NotContains(t, prompt, "ø")
}
