package usermsg

import (
	"embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed messages.yaml
var messagesFS embed.FS

// Catalog holds the user-presentable messages shown on the order status
// page. Failure reasons written to orders come from here and only from
// here, so transport-level detail can never leak to customers.
type Catalog struct {
	messages map[string]string
}

// Load parses the embedded message catalog.
func Load() (*Catalog, error) {
	data, err := messagesFS.ReadFile("messages.yaml")
	if err != nil {
		return nil, fmt.Errorf("read messages file: %w", err)
	}

	var messages map[string]string
	if err := yaml.Unmarshal(data, &messages); err != nil {
		return nil, fmt.Errorf("parse messages file: %w", err)
	}

	return &Catalog{messages: messages}, nil
}

// Get returns the message for key, or the key itself when missing so a
// broken catalog stays visible instead of silently blank.
func (c *Catalog) Get(key string) string {
	if msg, ok := c.messages[key]; ok {
		return msg
	}
	return key
}
