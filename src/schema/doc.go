// Package schema generates JSON Schema documents for chatbox's file formats.
//
// Example usage:
//
//	import "github.com/elee1766/chatbox/src/schema"
//
//	// Describe the history export file
//	s, err := schema.Reflect([]history.Conversation{}, "chatbox history", "Exported conversations")
//
//	// Describe a custom string type
//	durationSchema := schema.CreateStringSchema("Go duration such as 3s")
package schema
