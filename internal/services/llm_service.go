package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/justsurfingit/cover-letter-agent/internal/config"
	"github.com/justsurfingit/cover-letter-agent/internal/models"
	"github.com/justsurfingit/cover-letter-agent/internal/workflow"
)

// expectedLetterChars is roughly how long a generated letter is; streamed
// output is measured against it to estimate progress.
const expectedLetterChars = 2400

const maxExtractionInput = 20000

// truncateUTF8 cuts s to at most n bytes without splitting a rune.
func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

type LLMService struct {
	Client      llms.Model
	Temperature float64
}

// NewLLMService builds the langchaingo client for the configured provider.
func NewLLMService(ctx context.Context, cfg config.LLMConfig) (*LLMService, error) {
	var (
		llm llms.Model
		err error
	)
	switch cfg.Provider {
	case "googleai":
		llm, err = googleai.New(ctx,
			googleai.WithAPIKey(cfg.APIKey),
			googleai.WithDefaultModel(cfg.Model),
		)
	case "openai":
		llm, err = openai.New(
			openai.WithToken(cfg.APIKey),
			openai.WithModel(cfg.Model),
		)
	default:
		return nil, fmt.Errorf("unsupported llm provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("create %s client: %w", cfg.Provider, err)
	}
	return &LLMService{Client: llm, Temperature: cfg.Temperature}, nil
}

// Generate writes a cover letter for req. Streamed chunks drive the
// progress callback; the final call always reports 100.
func (s *LLMService) Generate(ctx context.Context, req models.GenerationRequest, progress workflow.ProgressFunc) (string, error) {
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt(req.Locale)),
		llms.TextParts(llms.ChatMessageTypeHuman, letterPrompt(req)),
	}

	var (
		mu       sync.Mutex
		received int
	)
	stream := func(_ context.Context, chunk []byte) error {
		mu.Lock()
		received += len(chunk)
		pct := received * 100 / expectedLetterChars
		mu.Unlock()
		if pct > 99 {
			pct = 99
		}
		if progress != nil {
			progress(pct)
		}
		return nil
	}

	opts := []llms.CallOption{
		llms.WithTemperature(s.Temperature),
		llms.WithStreamingFunc(stream),
	}
	if req.Model != "" {
		opts = append(opts, llms.WithModel(req.Model))
	}

	resp, err := s.Client.GenerateContent(ctx, messages, opts...)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no content received from the model")
	}
	content := strings.TrimSpace(resp.Choices[0].Content)
	if content == "" {
		return "", fmt.Errorf("no content received from the model")
	}
	if progress != nil {
		progress(100)
	}
	return content, nil
}

// ExtractJobDetails takes raw HTML and returns the job form fields as JSON.
func (s *LLMService) ExtractJobDetails(ctx context.Context, rawHTML string) (string, error) {
	rawHTML = truncateUTF8(rawHTML, maxExtractionInput)
	const JobExtractionPrompt = `
You are an expert Job Data Extraction Agent. Your task is to analyze the provided raw HTML/Text from a job posting and extract structured data.

### INSTRUCTIONS:
1. **Analyze** the text to identify the core job details.
2. **Ignore** navigation menus, footers, "similar jobs" lists, and site advertisements.
3. **Extract** the following fields strictly.
4. **Format** the output as valid JSON only. Do not wrap the output in markdown code blocks.

### OUTPUT SCHEMA:
{
    "title": "Job title (e.g., Senior Backend Engineer)",
    "company": "Name of the company (e.g., Google, StartupInc)",
    "description": "A clean summary of the job. Focus on Responsibilities and Requirements. Remove HTML tags.",
    "contact_person": "Name of the contact person if mentioned, otherwise null",
    "url": "Link to the original posting if present, otherwise null",
    "deadline": "Application deadline as YYYY-MM-DD if mentioned, otherwise null"
}

### CONSTRAINT:
If a piece of information is missing, set the value to null. Do not hallucinate or guess.

### RAW CONTENT:
%s
`
	prompt := fmt.Sprintf(JobExtractionPrompt, rawHTML)
	resp, err := llms.GenerateFromSinglePrompt(ctx, s.Client, prompt, llms.WithTemperature(0))
	if err != nil {
		return "", err
	}
	return cleanMarkdownJSON(resp), nil
}

func systemPrompt(locale string) string {
	if strings.HasPrefix(strings.ToLower(locale), "da") {
		return "Du er en erfaren karriererådgiver. Skriv en professionel, personlig ansøgning på dansk. " +
			"Returnér kun selve brødteksten uden overskrift, dato eller adressefelt."
	}
	return "You are an experienced career advisor. Write a professional, personal cover letter in English. " +
		"Return only the body of the letter, without header, date or address block."
}

func letterPrompt(req models.GenerationRequest) string {
	var b strings.Builder
	j, u := req.JobInfo, req.UserInfo
	fmt.Fprintf(&b, "Job title: %s\nCompany: %s\n", j.Title, j.Company)
	if j.ContactPerson != "" {
		fmt.Fprintf(&b, "Contact person: %s\n", j.ContactPerson)
	}
	if j.URL != "" {
		fmt.Fprintf(&b, "Posting: %s\n", j.URL)
	}
	fmt.Fprintf(&b, "\nJob description:\n%s\n\n", j.Description)
	fmt.Fprintf(&b, "Applicant: %s\n", u.Name)
	for _, f := range []struct{ label, value string }{
		{"Email", u.Email},
		{"Phone", u.Phone},
		{"Address", u.Address},
		{"Experience", u.Experience},
		{"Education", u.Education},
		{"Skills", u.Skills},
	} {
		if f.value != "" {
			fmt.Fprintf(&b, "%s: %s\n", f.label, f.value)
		}
	}
	return b.String()
}

// cleanMarkdownJSON removes a ```json fence if the model added one anyway.
func cleanMarkdownJSON(content string) string {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "```json") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimSuffix(content, "```")
	} else if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```")
		content = strings.TrimSuffix(content, "```")
	}
	return strings.TrimSpace(content)
}
