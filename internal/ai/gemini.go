package ai

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"bvetra/internal/types"
)

const geminiModel = "gemini-2.0-flash"

// systemPrompt steers the assistant toward collecting transfer-order fields.
const systemPrompt = `Ты — вежливый ассистент компании Bvetra. Помогаешь оформить корпоративный трансфер и собираешь данные: имя, телефон, пункт подачи, пункт назначения, дату/время, класс авто (Стандарт, Комфорт, Бизнес, Премиум, Минивэн) и примечания. Отвечай кратко и по делу. Когда каких-то данных не хватает, вежливо спроси о них.`

// GeminiProvider implements Provider using Google's Gemini models.
type GeminiProvider struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewGeminiProvider initializes a new Gemini client.
// apiKey should be provided from environment variables.
func NewGeminiProvider(ctx context.Context, apiKey string) (*GeminiProvider, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	// Gemini 2.0 Flash for low latency and cost efficiency.
	model := client.GenerativeModel(geminiModel)
	model.SetTemperature(0.2)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(systemPrompt)},
	}

	return &GeminiProvider{client: client, model: model}, nil
}

// Close cleans up the Gemini client resources.
func (p *GeminiProvider) Close() {
	p.client.Close()
}

// Reply sends the message with prior history and returns the full answer.
func (p *GeminiProvider) Reply(ctx context.Context, history []types.Turn, message string) (string, error) {
	cs := p.startChat(history)
	resp, err := cs.SendMessage(ctx, genai.Text(message))
	if err != nil {
		return "", fmt.Errorf("gemini generation error: %w", err)
	}
	text := responseText(resp)
	if text == "" {
		return "", fmt.Errorf("no response candidates from Gemini")
	}
	return text, nil
}

// StreamReply opens a token stream for the answer.
func (p *GeminiProvider) StreamReply(ctx context.Context, history []types.Turn, message string) (ChunkSource, error) {
	cs := p.startChat(history)
	iter := cs.SendMessageStream(ctx, genai.Text(message))
	return &geminiStream{iter: iter}, nil
}

func (p *GeminiProvider) startChat(history []types.Turn) *genai.ChatSession {
	cs := p.model.StartChat()
	for _, turn := range history {
		if strings.TrimSpace(turn.Content) == "" {
			continue
		}
		role := "user"
		switch turn.Role {
		case types.RoleAssistant:
			role = "model"
		case types.RoleOrder:
			// order confirmation lines are not part of the dialogue
			continue
		}
		cs.History = append(cs.History, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(turn.Content)},
		})
	}
	return cs
}

// geminiStream adapts the genai response iterator to a ChunkSource.
type geminiStream struct {
	iter   *genai.GenerateContentResponseIterator
	closed bool
}

func (s *geminiStream) Next() (string, error) {
	if s.closed {
		return "", io.EOF
	}
	resp, err := s.iter.Next()
	if err == iterator.Done {
		return "", io.EOF
	}
	if err != nil {
		return "", fmt.Errorf("gemini stream: %w", err)
	}
	return responseText(resp), nil
}

func (s *geminiStream) Close() {
	s.closed = true
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			b.WriteString(string(txt))
		}
	}
	return b.String()
}
