// session.go - Language switching over one prescription

package translate

import (
	"context"
	"sync"

	"github.com/bosocmputer/prescription_analyzer/configs"
	"github.com/bosocmputer/prescription_analyzer/internal/common"
	"github.com/bosocmputer/prescription_analyzer/internal/models"
)

// Session keeps the English original of one prescription next to every
// translated view computed for it. Views are computed once per language and
// never translated back; switching to English returns the original.
//
// Each switch takes a generation number. A translation that finishes after a
// newer switch is cached but does not become current, so a slow response
// cannot overwrite the language the user picked last.
type Session struct {
	mu         sync.Mutex
	original   *models.PrescriptionRecord
	source     *View
	views      map[string]*View
	current    string
	generation uint64
}

// NewSession starts a session on record. The record is copied.
func NewSession(record *models.PrescriptionRecord) *Session {
	original := record.Clone()
	return &Session{
		original: original,
		source:   SourceView(original),
		views:    make(map[string]*View),
		current:  configs.SourceLanguage,
	}
}

// Original returns a copy of the English record
func (s *Session) Original() *models.PrescriptionRecord {
	return s.original.Clone()
}

// Current returns the current language and its view
func (s *Session) Current() (string, *View) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current, s.viewLocked(s.current)
}

func (s *Session) viewLocked(lang string) *View {
	if IsSource(lang) {
		return s.source
	}
	return s.views[lang]
}

// SwitchResult reports the outcome of a language switch
type SwitchResult struct {
	View       *View
	Cached     bool // served without calling the provider
	Superseded bool // a newer switch happened while this one was translating
}

// SwitchLanguage makes lang current, translating on first use. On error the
// current language is unchanged.
func (s *Session) SwitchLanguage(ctx context.Context, tr Translator, lang string, reqCtx *common.RequestContext) (SwitchResult, error) {
	lang, ok := NormalizeLanguage(lang)
	if !ok {
		return SwitchResult{}, common.UnsupportedInput("unsupported target language %q", lang)
	}

	s.mu.Lock()
	s.generation++
	gen := s.generation
	if v := s.viewLocked(lang); v != nil {
		s.current = lang
		s.mu.Unlock()
		return SwitchResult{View: v, Cached: true}, nil
	}
	s.mu.Unlock()

	view, err := BuildView(ctx, tr, s.original, lang, reqCtx)
	if err != nil {
		return SwitchResult{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing := s.views[lang]; existing == nil {
		s.views[lang] = view
	} else {
		view = existing
	}
	if s.generation != gen {
		if reqCtx != nil {
			reqCtx.LogInfo("translation to %s finished after a newer switch; cached only", lang)
		}
		return SwitchResult{View: view, Superseded: true}, nil
	}
	s.current = lang
	return SwitchResult{View: view}, nil
}

// CachedLanguages lists the languages with a computed view
func (s *Session) CachedLanguages() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	langs := []string{configs.SourceLanguage}
	for l := range s.views {
		langs = append(langs, l)
	}
	return langs
}
