package wabridge

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Voice defines the conversational tone applied to outgoing messages.
// The zero value is not usable; start from DefaultVoice or LoadVoice.
type Voice struct {
	// Greeting is prepended to replies, optionally followed by the
	// customer's first name.
	Greeting string `yaml:"greeting"`

	// Signature is appended to replies. Currently unused by default.
	Signature string `yaml:"signature"`

	// Fallback is returned when a reply would otherwise be empty.
	Fallback string `yaml:"fallback"`

	// Openers are greeting fragments; if one appears in the first 20
	// characters of a reply, the greeting prefix is suppressed.
	Openers []string `yaml:"openers"`

	// Rules are tone guidelines for operators editing this file. They
	// are logged at startup and carry no behavior.
	Rules []string `yaml:"rules"`
}

// DefaultVoice returns the built-in voice.
func DefaultVoice() Voice {
	return Voice{
		Greeting: "Oi! ",
		Fallback: "Posso te ajudar com mais alguma coisa?",
		Openers:  []string{"oi", "olá", "boa "},
		Rules: []string{
			"Tom acolhedor, elegante e direto.",
			"Sem termos técnicos desnecessários.",
			"Foco em conforto, segurança e descrição do envio.",
			"Evitar emoji em excesso; use só quando ajudar (1 no máximo).",
		},
	}
}

// LoadVoice reads a voice definition from a YAML file. Fields left empty
// in the file keep their default values.
func LoadVoice(path string) (Voice, error) {
	voice := DefaultVoice()

	data, err := os.ReadFile(path)
	if err != nil {
		return voice, fmt.Errorf("failed to read voice file: %w", err)
	}

	if err := yaml.Unmarshal(data, &voice); err != nil {
		return DefaultVoice(), fmt.Errorf("failed to parse voice file: %w", err)
	}

	return voice, nil
}

// Humanize applies the voice to a raw reply. Empty input yields the
// fallback prompt. The greeting prefix uses the customer's first name
// when available and is suppressed if the reply already opens like a
// greeting.
func (v Voice) Humanize(text, name string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return v.Fallback
	}

	prefix := v.Greeting
	if name != "" {
		first, _, _ := strings.Cut(strings.TrimSpace(name), " ")
		if first != "" {
			prefix = fmt.Sprintf("%s%s, ", v.Greeting, first)
		}
	}

	opening := strings.ToLower(firstRunes(text, 20))
	for _, opener := range v.Openers {
		if strings.Contains(opening, opener) {
			prefix = ""
			break
		}
	}

	return strings.TrimSpace(prefix + text + v.Signature)
}

// firstRunes returns up to n leading runes of s.
func firstRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) > n {
		runes = runes[:n]
	}
	return string(runes)
}
