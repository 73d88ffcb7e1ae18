package transcriber

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
)

// Whisper transcribes through an OpenAI-compatible Whisper endpoint
// (Groq by default).
type Whisper struct {
	client *http.Client
	apiURL string
	apiKey string
	model  string
	lang   string
}

const groqAPIURL = "https://api.groq.com/openai/v1/audio/transcriptions"

func NewWhisper(apiKey, model, lang string) *Whisper {
	return &Whisper{
		client: &http.Client{},
		apiURL: groqAPIURL,
		apiKey: apiKey,
		model:  model,
		lang:   lang,
	}
}

func (w *Whisper) Name() string { return "whisper" }

type whisperResponse struct {
	Text string `json:"text"`
}

func (w *Whisper) Transcribe(ctx context.Context, wavData []byte) (string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", "audio.wav")
	if err != nil {
		return "", err
	}
	if _, err := part.Write(wavData); err != nil {
		return "", err
	}

	writer.WriteField("model", w.model)
	writer.WriteField("response_format", "json")
	if w.lang != "" {
		writer.WriteField("language", w.lang)
	}
	writer.Close()

	req, err := http.NewRequestWithContext(ctx, "POST", w.apiURL, &body)
	if err != nil {
		return "", err
	}

	req.Header.Set("Authorization", "Bearer "+w.apiKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := w.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != 200 {
		return "", fmt.Errorf("whisper API error %d: %s", resp.StatusCode, string(respBody))
	}

	var wResp whisperResponse
	if err := json.Unmarshal(respBody, &wResp); err != nil {
		return "", fmt.Errorf("whisper response parse error: %w", err)
	}
	return wResp.Text, nil
}
