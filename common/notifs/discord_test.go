package notifs

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/ceramicnetwork/go-sqs-flow/common/config"
	"github.com/ceramicnetwork/go-sqs-flow/common/loggers"
)

func TestNewDiscordHandler(t *testing.T) {
	tests := map[string]struct {
		settings    config.Settings
		shouldError bool
		hasAlert    bool
	}{
		"no webhooks configured": {
			settings: config.Settings{},
		},
		"alert webhook configured": {
			settings: config.Settings{DiscordAlertWebhook: "https://discord.com/api/webhooks/1069110716801491025/token"},
			hasAlert: true,
		},
		"invalid webhook id": {
			settings:    config.Settings{DiscordAlertWebhook: "https://discord.com/api/webhooks/not-an-id/token"},
			shouldError: true,
		},
		"webhook url without id": {
			settings:    config.Settings{DiscordTestWebhook: "token"},
			shouldError: true,
		},
	}

	logger := loggers.NewTestLogger()
	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			notif, err := NewDiscordHandler(&test.settings, logger)
			if err != nil && !test.shouldError {
				t.Fatalf("unexpected error received %v", err)
			} else if err == nil && test.shouldError {
				t.Fatalf("should have received error")
			}
			if test.shouldError {
				return
			}
			handler := notif.(*DiscordHandler)
			if (handler.alertWebhook != nil) != test.hasAlert {
				t.Errorf("alert webhook configured=%v, expected=%v", handler.alertWebhook != nil, test.hasAlert)
			}
			if !test.hasAlert {
				if err = notif.SendAlert("title", "desc", "content"); err != nil {
					t.Errorf("alert without webhooks should be dropped, got %v", err)
				}
			}
		})
	}
}

func TestTruncateDescription(t *testing.T) {
	tests := map[string]struct {
		content        string
		expectedLength int
		truncated      bool
	}{
		"short content": {
			content:        "hello",
			expectedLength: 5,
		},
		"exactly at limit": {
			content:        strings.Repeat("x", discordMaxDescription),
			expectedLength: discordMaxDescription,
		},
		"ascii over limit": {
			content:        strings.Repeat("x", discordMaxDescription+1),
			expectedLength: discordMaxDescription,
			truncated:      true,
		},
		"multibyte over limit": {
			content:        strings.Repeat("日本", discordMaxDescription),
			expectedLength: discordMaxDescription,
			truncated:      true,
		},
		"multibyte under limit but over in bytes": {
			content:        strings.Repeat("é", discordMaxDescription),
			expectedLength: discordMaxDescription,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			desc := truncateDescription(test.content)
			if !utf8.ValidString(desc) {
				t.Errorf("truncated description is not valid utf-8")
			}
			if n := utf8.RuneCountInString(desc); n != test.expectedLength {
				t.Errorf("description length=%d, expected=%d", n, test.expectedLength)
			}
			if strings.HasSuffix(desc, "...") != test.truncated {
				t.Errorf("truncated=%v, expected=%v", !test.truncated, test.truncated)
			}
		})
	}
}
