package history

import (
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// ExportFilename returns the download name for an export made at t
func ExportFilename(t time.Time) string {
	return fmt.Sprintf("chatbot_history_%s.json", t.UTC().Format("2006-01-02"))
}

// Export writes every conversation, in insertion order, as indented JSON.
// It does not change the store.
func (s *Store) Export(w io.Writer) error {
	data, err := json.MarshalIndent(s.conversations, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	return nil
}

// Import replaces the history with an export read from r. The current
// pointer is cleared. Invalid input leaves the store untouched.
func (s *Store) Import(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read import: %w", err)
	}
	convs, err := s.decode(data)
	if err != nil {
		return err
	}

	s.conversations = convs
	s.currentID = ""
	s.persist()
	s.notifyChanged()

	s.logger.Info("history imported", "conversations", len(s.conversations))
	return nil
}
