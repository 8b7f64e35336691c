package responder

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"github.com/spf13/afero"
)

const (
	maxDocumentSize = 5 * 1024 * 1024 // 5MB
	minKeywordLen   = 3

	headingWeight = 3
	bodyWeight    = 1

	headingSelector = "h1, h2, h3"
)

var (
	greetingWords = []string{"hello", "hi", "hey", "hola", "buenas", "greetings"}
	thanksWords   = []string{"thanks", "thank", "thx", "gracias"}
	stopWords     = []string{
		"the", "and", "for", "are", "you", "your", "what", "who", "how", "can",
		"does", "about", "with", "this", "that", "have", "from", "tell", "que",
		"los", "las", "una", "por", "para", "con",
	}
)

// KnowledgeConfig configures a Knowledge source.
type KnowledgeConfig struct {
	// Source is a file path on Fs or an http(s) URL of an HTML document.
	Source     string
	Fs         afero.Fs
	HTTPClient *http.Client
	Fallback   string
	Greeting   string
	Thanks     string
	Logger     *slog.Logger
}

// Section is one heading of the knowledge document and the markdown body
// that follows it.
type Section struct {
	Heading string
	Body    string

	headingWords map[string]struct{}
	bodyWords    map[string]struct{}
}

// Knowledge answers from sections of an HTML document, picking the section
// whose words best overlap the question.
type Knowledge struct {
	config   KnowledgeConfig
	sections []Section
	logger   *slog.Logger
}

// NewKnowledge creates a Knowledge source. Nothing is read until LoadKnowledge.
func NewKnowledge(config KnowledgeConfig) *Knowledge {
	if config.Fs == nil {
		config.Fs = afero.NewOsFs()
	}
	if config.HTTPClient == nil {
		config.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if config.Fallback == "" {
		config.Fallback = DefaultFallback
	}
	if config.Greeting == "" {
		config.Greeting = DefaultGreeting
	}
	if config.Thanks == "" {
		config.Thanks = DefaultThanks
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Knowledge{
		config: config,
		logger: logger.With("component", "knowledge"),
	}
}

// LoadKnowledge reads and indexes the configured document.
func (k *Knowledge) LoadKnowledge(ctx context.Context) error {
	data, err := k.fetch(ctx)
	if err != nil {
		return fmt.Errorf("failed to load knowledge from %s: %w", k.config.Source, err)
	}

	sections, err := ParseSections(bytes.NewReader(data))
	if err != nil {
		return err
	}
	if len(sections) == 0 {
		return ErrNoKnowledge
	}

	k.sections = sections
	k.logger.Info("knowledge loaded", "source", k.config.Source, "sections", len(sections))
	return nil
}

// Sections returns the indexed sections.
func (k *Knowledge) Sections() []Section {
	return k.sections
}

// Response answers text from the best matching section.
func (k *Knowledge) Response(text string) string {
	words := strings.FieldsFunc(strings.ToLower(text), isSeparator)
	if len(words) == 0 {
		return k.config.Fallback
	}

	if containsAny(words, thanksWords) {
		return k.config.Thanks
	}
	if len(words) <= 3 && containsAny(words, greetingWords) {
		return k.config.Greeting
	}

	best, bestScore := -1, 0
	query := keywords(text)
	for i := range k.sections {
		if score := k.sections[i].score(query); score > bestScore {
			best, bestScore = i, score
		}
	}
	if best < 0 {
		k.logger.Debug("no section matched", "words", len(query))
		return k.config.Fallback
	}

	s := k.sections[best]
	if s.Body == "" {
		return "**" + s.Heading + "**"
	}
	return "**" + s.Heading + "**\n\n" + s.Body
}

func (k *Knowledge) fetch(ctx context.Context) ([]byte, error) {
	src := k.config.Source
	if src == "" {
		return nil, ErrNoKnowledge
	}

	if !strings.HasPrefix(src, "http://") && !strings.HasPrefix(src, "https://") {
		return afero.ReadFile(k.config.Fs, src)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "text/html")

	resp, err := k.config.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("request failed with status code: %d", resp.StatusCode)
	}

	return io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize))
}

// ParseSections splits an HTML document into sections at h1-h3 headings.
// A document without headings becomes a single section titled after its
// <title>.
func ParseSections(r io.Reader) ([]Section, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	doc.Find("script, style, nav, footer").Remove()

	converter := md.NewConverter("", true, nil)

	var sections []Section
	doc.Find(headingSelector).EachWithBreak(func(_ int, h *goquery.Selection) bool {
		heading := collapseSpace(h.Text())
		if heading == "" {
			return true
		}
		var body string
		body, err = toMarkdown(converter, h.NextUntil(headingSelector))
		if err != nil {
			return false
		}
		sections = append(sections, newSection(heading, body))
		return true
	})
	if err != nil {
		return nil, err
	}

	if len(sections) == 0 {
		body, err := toMarkdown(converter, doc.Find("body").Children())
		if err != nil {
			return nil, err
		}
		if body != "" {
			heading := collapseSpace(doc.Find("title").Text())
			sections = append(sections, newSection(heading, body))
		}
	}

	return sections, nil
}

// toMarkdown converts the outer HTML of every node in sel.
func toMarkdown(converter *md.Converter, sel *goquery.Selection) (string, error) {
	var html strings.Builder
	var err error
	sel.EachWithBreak(func(_ int, s *goquery.Selection) bool {
		var outer string
		outer, err = goquery.OuterHtml(s)
		html.WriteString(outer)
		return err == nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to render section: %w", err)
	}
	if html.Len() == 0 {
		return "", nil
	}

	markdown, err := converter.ConvertString(html.String())
	if err != nil {
		return "", fmt.Errorf("failed to convert HTML to Markdown: %w", err)
	}
	return cleanMarkdown(markdown), nil
}

func newSection(heading, body string) Section {
	return Section{
		Heading:      heading,
		Body:         body,
		headingWords: keywords(heading),
		bodyWords:    keywords(body),
	}
}

func (s *Section) score(query map[string]struct{}) int {
	score := 0
	for w := range query {
		if _, ok := s.headingWords[w]; ok {
			score += headingWeight
		}
		if _, ok := s.bodyWords[w]; ok {
			score += bodyWeight
		}
	}
	return score
}

// keywords returns the distinct lowercased words of text that are long
// enough to carry meaning.
func keywords(text string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, w := range strings.FieldsFunc(strings.ToLower(text), isSeparator) {
		if utf8.RuneCountInString(w) < minKeywordLen || slices.Contains(stopWords, w) {
			continue
		}
		out[w] = struct{}{}
	}
	return out
}

func isSeparator(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

func containsAny(words, set []string) bool {
	for _, w := range words {
		if slices.Contains(set, w) {
			return true
		}
	}
	return false
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func cleanMarkdown(s string) string {
	s = strings.TrimSpace(s)
	for strings.Contains(s, "\n\n\n") {
		s = strings.ReplaceAll(s, "\n\n\n", "\n\n")
	}
	return s
}
