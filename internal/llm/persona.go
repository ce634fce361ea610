package llm

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/brizzai/chatbot/internal/config"
	"github.com/brizzai/chatbot/internal/logger"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Persona is the system prompt prepended to every completion
type Persona struct {
	Name   string `yaml:"name"`
	Prompt string `yaml:"prompt"`
}

const defaultPersonaName = "Amith Assistant Chatbot"

const defaultPrompt = `You are "Amith Assistant Chatbot".

Your job is to chat with ANY visitor who messages you and give clear, accurate, friendly answers in a short messaging style.

Your goals:
1. Reply short, simple, and helpful (2-5 lines).
2. Understand the user's intent quickly and answer clearly.
3. Help visitors with:
   - Programming (DSA, Python, JavaScript, MERN, ML)
   - AI/ML project ideas and explanations
   - Resume, LinkedIn, portfolio guidance
   - Career advice, interview prep, placements
   - College subjects, notes, definitions
   - Fitness, diet, gym basics
   - Any general questions a visitor asks
4. Always stay friendly, polite, and supportive.

Rules for responding:
- Never mention that you are an AI model.
- Use simple English that anyone can understand.
- Give examples whenever helpful.
- Fix, clean, and optimize code if the user sends code.
- Explain concepts like a senior explaining to a junior.
- Give practical, buildable project ideas if asked.
- Do NOT send unnecessary long paragraphs.
- Use emojis naturally but sparingly.
- Never ask for personal data.

Behavior:
- Treat every visitor as new unless past messages are provided.
- Adjust your tone based on the user's style.
- Stay accurate. If unsure, say: "Here's the most accurate info I can give..." and answer simply.

Output:
- Always give a direct, useful answer to the user.
- Never refuse basic queries unless unsafe.`

// DefaultPersona returns the built-in assistant persona
func DefaultPersona() *Persona {
	return &Persona{Name: defaultPersonaName, Prompt: defaultPrompt}
}

// LoadPersona reads a persona from a YAML file (name, prompt) or, for any
// other extension, treats the whole file as the prompt. An empty path
// returns the default persona.
func LoadPersona(path string) (*Persona, error) {
	if path == "" {
		logger.Debug("No persona file provided, using default persona")
		return DefaultPersona(), nil
	}

	logger.Info("Loading persona from file", zap.String("file", path))
	data, err := os.ReadFile(path) // #nosec G304 - path comes from config
	if err != nil {
		return nil, fmt.Errorf("failed to read persona file: %w", err)
	}

	persona := &Persona{Name: defaultPersonaName}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, persona); err != nil {
			return nil, fmt.Errorf("failed to parse persona file: %w", err)
		}
		if persona.Name == "" {
			persona.Name = defaultPersonaName
		}
	default:
		persona.Prompt = string(data)
	}

	if err := persona.Validate(); err != nil {
		return nil, err
	}
	return persona, nil
}

// Validate ensures the prompt is non-empty after trimming whitespace
func (p *Persona) Validate() error {
	if strings.TrimSpace(p.Prompt) == "" {
		return fmt.Errorf("persona prompt is empty")
	}
	return nil
}

// NewPersona loads the persona configured for the chat service
func NewPersona(cfg *config.Config) (*Persona, error) {
	return LoadPersona(cfg.Chat.PersonaFile)
}
