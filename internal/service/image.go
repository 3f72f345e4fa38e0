package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/lemixologue/backend/config"
)

// ProviderMistralAgents generates images through the Mistral Agents API
// with the image_generation tool. ProviderNone disables the pipeline.
const (
	ProviderMistralAgents = "mistral_agents"
	ProviderNone          = "none"
)

// ImageService turns a cocktail image prompt into a stored image file.
// Files land in the static images directory; when an S3 bucket is
// configured the bytes are mirrored there as well.
type ImageService struct {
	provider         string
	apiKey           string
	baseURL          string
	imagesDir        string
	defaultImagePath string
	s3cfg            *config.S3Config
	client           *http.Client
	logger           zerolog.Logger
}

// NewImageService creates the image pipeline from configuration
func NewImageService(cfg *config.Config, s3cfg *config.S3Config, logger zerolog.Logger) *ImageService {
	return &ImageService{
		provider:         cfg.ImageProvider,
		apiKey:           cfg.MistralAPIKey,
		baseURL:          strings.TrimSuffix(cfg.MistralBaseURL, "/"),
		imagesDir:        cfg.ImagesDir,
		defaultImagePath: cfg.DefaultImagePath,
		s3cfg:            s3cfg,
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
		logger: logger,
	}
}

// Available reports whether the pipeline can generate images
func (s *ImageService) Available() bool {
	return s.provider == ProviderMistralAgents && s.apiKey != ""
}

// ProviderType returns the configured provider name for the status endpoint
func (s *ImageService) ProviderType() string {
	if !s.Available() {
		return ProviderNone
	}
	return s.provider
}

// GenerateCocktailImage runs the pipeline for the given image prompt and
// returns the web path of the stored file. On pipeline failure a
// configured default image is returned best-effort; ErrImageUnavailable
// is returned only when no usable result exists at all.
func (s *ImageService) GenerateCocktailImage(ctx context.Context, prompt string) (string, error) {
	if !s.Available() {
		return "", ErrImageUnavailable
	}
	if strings.TrimSpace(prompt) == "" {
		return "", fmt.Errorf("%w: empty image prompt", ErrImageUnavailable)
	}

	path, err := s.generateViaAgents(ctx, prompt)
	if err != nil {
		s.logger.Error().Err(err).Msg("image generation failed")
		if fallback := s.defaultImage(); fallback != "" {
			s.logger.Warn().Str("path", fallback).Msg("falling back to default cocktail image")
			return fallback, nil
		}
		return "", fmt.Errorf("%w: %v", ErrImageUnavailable, err)
	}
	return path, nil
}

type agentResponse struct {
	ID string `json:"id"`
}

type conversationResponse struct {
	Outputs []struct {
		Type    string `json:"type"`
		Content []struct {
			Type   string `json:"type"`
			Tool   string `json:"tool"`
			FileID string `json:"file_id"`
		} `json:"content"`
	} `json:"outputs"`
}

// generateViaAgents drives the Mistral Agents flow: create an agent
// carrying the image_generation tool, open a conversation with the
// prompt, extract the generated file id and download the bytes.
func (s *ImageService) generateViaAgents(ctx context.Context, prompt string) (string, error) {
	agentBody := map[string]interface{}{
		"model":        "mistral-medium-latest",
		"name":         "Cocktail Image Agent",
		"description":  "Agent used to generate cocktail images.",
		"instructions": "Use the image generation tool to create cocktail images from the provided descriptions.",
		"tools":        []map[string]string{{"type": "image_generation"}},
		"completion_args": map[string]float64{
			"temperature": 0.3,
			"top_p":       0.95,
		},
	}

	var agent agentResponse
	if err := s.postJSON(ctx, s.baseURL+"/v1/agents", agentBody, &agent); err != nil {
		return "", fmt.Errorf("agent creation failed: %w", err)
	}
	if agent.ID == "" {
		return "", fmt.Errorf("agent creation returned no id")
	}

	convBody := map[string]interface{}{
		"agent_id": agent.ID,
		"inputs":   "Generate a cocktail image from this description: " + prompt,
	}

	var conv conversationResponse
	if err := s.postJSON(ctx, s.baseURL+"/v1/conversations", convBody, &conv); err != nil {
		return "", fmt.Errorf("conversation failed: %w", err)
	}

	fileID := ""
	for _, out := range conv.Outputs {
		if out.Type != "message.output" {
			continue
		}
		for _, chunk := range out.Content {
			if chunk.Type == "tool_file" && chunk.Tool == "image_generation" {
				fileID = chunk.FileID
				break
			}
		}
		if fileID != "" {
			break
		}
	}
	if fileID == "" {
		return "", fmt.Errorf("no generated file in conversation output")
	}

	data, err := s.downloadFile(ctx, fileID)
	if err != nil {
		return "", err
	}

	return s.store(ctx, data)
}

// store writes the image into the static directory and mirrors it to S3
// when configured. The web path is returned.
func (s *ImageService) store(ctx context.Context, data []byte) (string, error) {
	filename := fmt.Sprintf("cocktail_%s.png", uuid.New().String())

	if err := os.MkdirAll(s.imagesDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create images directory: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.imagesDir, filename), data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write image file: %w", err)
	}

	if s.s3cfg != nil {
		// Mirror is best-effort; the local file is authoritative
		if err := s.uploadToS3(ctx, data, "cocktail-images/"+filename); err != nil {
			s.logger.Warn().Err(err).Msg("failed to mirror image to S3")
		}
	}

	s.logger.Info().Str("file", filename).Msg("cocktail image stored")
	return "/" + filename, nil
}

func (s *ImageService) uploadToS3(ctx context.Context, data []byte, key string) error {
	_, err := s.s3cfg.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.s3cfg.BucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("image/png"),
	})
	return err
}

func (s *ImageService) postJSON(ctx context.Context, url string, body interface{}, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("status %d: %s", resp.StatusCode, truncate(string(respBody), 300))
	}

	return json.Unmarshal(respBody, out)
}

func (s *ImageService) downloadFile(ctx context.Context, fileID string) ([]byte, error) {
	url := fmt.Sprintf("%s/v1/files/%s/download", s.baseURL, fileID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("file download failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("file download failed with status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// defaultImage returns the configured placeholder path when the file
// actually exists on disk, empty otherwise
func (s *ImageService) defaultImage() string {
	if s.defaultImagePath == "" {
		return ""
	}
	name := strings.TrimPrefix(s.defaultImagePath, "/")
	if _, err := os.Stat(filepath.Join(s.imagesDir, name)); err != nil {
		return ""
	}
	return s.defaultImagePath
}
