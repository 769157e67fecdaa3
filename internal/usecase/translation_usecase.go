package usecase

import (
	"context"
	"log/slog"
	"strings"

	"github.com/voicebridge/voicebridge/internal/application/constant"
	"github.com/voicebridge/voicebridge/internal/domain/events"
	"github.com/voicebridge/voicebridge/internal/domain/runtime"
	"github.com/voicebridge/voicebridge/internal/infra/adapters/memory"
)

// Translator is the external translation collaborator.
type Translator interface {
	Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error)
}

// Synthesizer is the external text-to-speech collaborator.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, lang string) (string, error)
}

// TranslationUsecase turns one spoken message into per-language
// deliveries for everybody in the sender's room. Translation happens
// here, before the fan-out, and never under a room lock. A failed
// translation degrades to the original text with an error flag; it
// never blocks delivery.
type TranslationUsecase interface {
	BroadcastSpeech(ctx context.Context, sender runtime.Participant, text string) error
}

type translationUsecase struct {
	registry    memory.RoomRegistry
	presence    memory.PresenceRepository
	translator  Translator
	synthesizer Synthesizer
}

func NewTranslationUsecase(
	registry memory.RoomRegistry,
	presence memory.PresenceRepository,
	translator Translator,
	synthesizer Synthesizer,
) TranslationUsecase {
	return &translationUsecase{
		registry:    registry,
		presence:    presence,
		translator:  translator,
		synthesizer: synthesizer,
	}
}

// browser language tags mapped to translator codes
var langMap = map[string]string{
	"pt-BR": "pt", "pt-PT": "pt",
	"en-US": "en", "en-GB": "en",
	"es-ES": "es", "es-MX": "es",
	"fr-FR": "fr", "de-DE": "de",
	"it-IT": "it", "ja-JP": "ja",
	"zh-CN": "zh-CN", "ko-KR": "ko",
}

func normalizeLang(lang string) string {
	if mapped, ok := langMap[lang]; ok {
		return mapped
	}

	if i := strings.Index(lang, "-"); i != -1 {
		return lang[:i]
	}

	return lang
}

type languageResult struct {
	translatedText string
	audioURL       string
	failed         bool
}

func (uc *translationUsecase) BroadcastSpeech(ctx context.Context, sender runtime.Participant, text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	participants := uc.registry.Participants(sender.RoomID)
	sourceLang := normalizeLang(sender.Language)

	// Translate once per distinct target language, not per recipient.
	byLanguage := make(map[string][]runtime.Participant)
	for _, p := range participants {
		target := normalizeLang(p.Language)
		byLanguage[target] = append(byLanguage[target], p)
	}

	results := make(map[string]languageResult, len(byLanguage))

	for targetLang := range byLanguage {
		results[targetLang] = uc.processLanguage(ctx, text, sourceLang, targetLang)
	}

	for targetLang, group := range byLanguage {
		result := results[targetLang]

		for _, p := range group {
			frame, err := events.New(events.TypeTranslatedMessage, events.TranslatedMessageEvent{
				SenderID:          sender.UserID,
				SenderName:        sender.Name,
				SenderLang:        sender.Language,
				OriginalText:      text,
				TranslatedText:    result.translatedText,
				TargetLang:        p.Language,
				AudioURL:          result.audioURL,
				IsSelf:            p.UserID == sender.UserID,
				RoomID:            sender.RoomID,
				TranslationFailed: result.failed,
			})
			if err != nil {
				return err
			}

			uc.presence.Write(p.UserID, p.ConnectionID, frame)
		}
	}

	return nil
}

func (uc *translationUsecase) processLanguage(ctx context.Context, text, sourceLang, targetLang string) languageResult {
	result := languageResult{translatedText: text}

	if sourceLang != targetLang {
		translated, err := uc.translator.Translate(ctx, text, sourceLang, targetLang)
		if err != nil {
			slog.Warn("translation failed, delivering original text",
				slog.Any(constant.Error, err),
				slog.String("target_lang", targetLang),
			)
			result.failed = true
		} else {
			result.translatedText = translated
		}
	}

	if uc.synthesizer != nil && !result.failed {
		audioURL, err := uc.synthesizer.Synthesize(ctx, result.translatedText, targetLang)
		if err != nil {
			slog.Warn("tts failed",
				slog.Any(constant.Error, err),
				slog.String("target_lang", targetLang),
			)
		} else {
			result.audioURL = audioURL
		}
	}

	return result
}
