package tts

import (
	"context"
	"fmt"
	"io"

	openai "github.com/sashabaranov/go-openai"

	"EthioNews/internal/config"
	"EthioNews/internal/domain"
	"EthioNews/internal/ports"
)

// OpenAISpeech implements ports.Synthesizer with the OpenAI speech endpoint.
type OpenAISpeech struct {
	client *openai.Client
	model  openai.SpeechModel
	voice  openai.SpeechVoice
}

var _ ports.Synthesizer = (*OpenAISpeech)(nil)

// NewOpenAISpeech builds a client from configuration.
func NewOpenAISpeech(cfg config.OpenAISpeechConfig) (*OpenAISpeech, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai speech: api key is empty")
	}
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	model := openai.TTSModel1
	if cfg.Model != "" {
		model = openai.SpeechModel(cfg.Model)
	}
	voice := openai.VoiceAlloy
	if cfg.Voice != "" {
		voice = openai.SpeechVoice(cfg.Voice)
	}
	return &OpenAISpeech{
		client: openai.NewClientWithConfig(clientCfg),
		model:  model,
		voice:  voice,
	}, nil
}

// Synthesize streams MP3 audio for text into w. The model infers the language from the text.
func (s *OpenAISpeech) Synthesize(ctx context.Context, text string, _ domain.Lang, w io.Writer) error {
	stream, err := s.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          s.model,
		Input:          text,
		Voice:          s.voice,
		ResponseFormat: openai.SpeechResponseFormatMp3,
	})
	if err != nil {
		return fmt.Errorf("openai speech: %w", err)
	}
	defer stream.Close()

	if _, err := io.Copy(w, stream); err != nil {
		return fmt.Errorf("copy audio: %w", err)
	}
	return nil
}
