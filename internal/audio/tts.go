package audio

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"wordcards/internal/models"
)

const (
	ttsRequestTimeout = 10 * time.Second
	defaultTTSURL     = "https://translate.google.com/translate_tts"
)

// TTSService renders word pronunciations to MP3 files and caches them on disk
type TTSService struct {
	audioDir string
	endpoint string
	language string
	client   *http.Client
	mu       sync.Mutex
}

// NewTTSService creates a new TTS service writing into audioDir
func NewTTSService(audioDir string) (*TTSService, error) {
	if err := os.MkdirAll(audioDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create audio directory: %w", err)
	}
	return &TTSService{
		audioDir: audioDir,
		endpoint: defaultTTSURL,
		language: "en",
		client:   &http.Client{Timeout: ttsRequestTimeout},
	}, nil
}

func wordFilename(wordID int64) string {
	return fmt.Sprintf("word_%d.mp3", wordID)
}

// WordAudioPath returns the path of the word's pronunciation, generating it
// on first use
func (s *TTSService) WordAudioPath(ctx context.Context, word models.Word) (string, error) {
	path := filepath.Join(s.audioDir, wordFilename(word.ID))

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(path); err == nil {
		return path, nil
	}

	if err := s.generate(ctx, word.Text, path); err != nil {
		return "", fmt.Errorf("failed to generate audio for word %d: %w", word.ID, err)
	}
	return path, nil
}

// generate fetches speech for text and writes it to outputPath. The file
// only appears once it is complete.
func (s *TTSService) generate(ctx context.Context, text, outputPath string) error {
	params := url.Values{}
	params.Set("ie", "UTF-8")
	params.Set("q", text)
	params.Set("tl", s.language)
	params.Set("client", "tw-ob")
	params.Set("textlen", fmt.Sprintf("%d", len(text)))

	ctx, cancel := context.WithTimeout(ctx, ttsRequestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	// Set user agent (required by Google)
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch audio: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	tmp, err := os.CreateTemp(s.audioDir, ".tts-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write audio file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write audio file: %w", err)
	}
	return os.Rename(tmp.Name(), outputPath)
}

// RemoveOrphans deletes cached files of words no longer in the catalog
func (s *TTSService) RemoveOrphans(wordIDs []int64) (int, error) {
	keep := make(map[string]bool, len(wordIDs))
	for _, id := range wordIDs {
		keep[wordFilename(id)] = true
	}

	files, err := os.ReadDir(s.audioDir)
	if err != nil {
		return 0, fmt.Errorf("failed to read audio directory: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for _, file := range files {
		name := file.Name()
		if file.IsDir() || !strings.HasSuffix(name, ".mp3") || keep[name] {
			continue
		}
		if err := os.Remove(filepath.Join(s.audioDir, name)); err != nil {
			log.Printf("Warning: failed to remove orphaned audio file %s: %v", name, err)
			continue
		}
		removed++
	}
	return removed, nil
}
