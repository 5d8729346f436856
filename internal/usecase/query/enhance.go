package query

import (
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/chatsearch/internal/domain/query"
)

var (
	asciiStopRes  = buildASCIIStopRes()
	endParticleRe = regexp.MustCompile(`(?:` + strings.Join(endParticles, "|") + `)(?:\s|$)`)
)

func buildASCIIStopRes() map[string]*regexp.Regexp {
	out := make(map[string]*regexp.Regexp)
	for _, p := range stopPhrases {
		if isASCIIWord(p) {
			out[p] = regexp.MustCompile(`\b` + regexp.QuoteMeta(p) + `\b`)
		}
	}
	return out
}

// Enhancer rewrites a query for search: drops filler, expands synonyms and
// carries attributes forward from recent turns.
type Enhancer struct {
	extractor *Extractor
	logger    *zap.Logger
}

// NewEnhancer creates an enhancer.
func NewEnhancer(extractor *Extractor, logger *zap.Logger) *Enhancer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Enhancer{extractor: extractor, logger: logger}
}

// Enhance returns the rewritten query. It never fails: on internal error the
// trimmed original is returned. recent holds prior user queries, most recent first.
func (e *Enhancer) Enhance(text string, attrs query.Attributes, recent []string) (out string) {
	original := strings.TrimSpace(text)
	defer func() {
		if r := recover(); r != nil {
			e.logger.Warn("query enhancement panicked", zap.Any("panic", r))
			out = original
		}
	}()

	s := stripStopPhrases(strings.ToLower(original))
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return original
	}

	var extra []string
	for _, syn := range enhancerSynonyms {
		if !ContainsKeyword(s, syn.term) {
			continue
		}
		for _, alt := range syn.alternate {
			if !ContainsKeyword(s, alt) && !contains(extra, alt) {
				extra = append(extra, alt)
			}
		}
	}

	extra = append(extra, e.carryForward(s, attrs, recent, extra)...)

	if len(extra) > 0 {
		s = s + " " + strings.Join(extra, " ")
	}
	return s
}

// carryForward copies the first dimension, material and type from the two most
// recent queries when the current one lacks that attribute.
func (e *Enhancer) carryForward(s string, attrs query.Attributes, recent []string, already []string) []string {
	if len(recent) > 2 {
		recent = recent[:2]
	}
	needDim := len(attrs.Dimensions) == 0
	needMat := len(attrs.Materials) == 0
	needType := len(attrs.Types) == 0

	var out []string
	add := func(lit string) {
		if lit == "" || strings.Contains(s, lit) || contains(already, lit) || contains(out, lit) {
			return
		}
		out = append(out, lit)
	}

	for _, prev := range recent {
		if !needDim && !needMat && !needType {
			break
		}
		pa := e.extractor.Extract(prev)
		if needDim && len(pa.Dimensions) > 0 {
			add(pa.Dimensions[0].Literal)
			needDim = false
		}
		if needMat && len(pa.Materials) > 0 {
			add(pa.Materials[0].Keyword)
			needMat = false
		}
		if needType && len(pa.Types) > 0 {
			add(pa.Types[0].Keyword)
			needType = false
		}
	}
	return out
}

func stripStopPhrases(s string) string {
	s = endParticleRe.ReplaceAllString(s, " ")
	for _, p := range stopPhrases {
		if re, ok := asciiStopRes[p]; ok {
			s = re.ReplaceAllString(s, " ")
			continue
		}
		s = strings.ReplaceAll(s, p, " ")
	}
	return s
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
