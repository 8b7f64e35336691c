package history

// Callbacks holds optional functions invoked on history events
type Callbacks struct {
	// OnChange is called after any mutation of the conversation list
	OnChange func()

	// OnSelect is called when a conversation is selected for display
	OnSelect func(conv *Conversation)
}

func (c Callbacks) changed() {
	if c.OnChange != nil {
		c.OnChange()
	}
}

func (c Callbacks) selected(conv *Conversation) {
	if c.OnSelect != nil {
		c.OnSelect(conv)
	}
}
